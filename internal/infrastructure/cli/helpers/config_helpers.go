package helpers

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/socprobe/internal/domain"
)

// ConfigToMap converts cfg into a generic map keyed by its YAML names.
func ConfigToMap(cfg domain.Config) (map[string]interface{}, error) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal configuration: %w", err)
	}
	out := map[string]interface{}{}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to convert configuration: %w", err)
	}
	return out, nil
}

// SplitKeyPath splits a dotted key such as "retry.status_codes.0".
func SplitKeyPath(key string) []string {
	return strings.Split(strings.Trim(key, "."), ".")
}

// TraverseNestedMap retrieves a value from a nested map using a key path.
// Numeric path segments index into lists.
// Returns the value and true if found, nil and false otherwise
func TraverseNestedMap(data interface{}, keyPath []string) (interface{}, bool) {
	if len(keyPath) == 0 {
		return data, true
	}

	switch node := data.(type) {
	case map[string]interface{}:
		next, exists := node[keyPath[0]]
		if !exists {
			return nil, false
		}
		return TraverseNestedMap(next, keyPath[1:])
	case []interface{}:
		idx, err := strconv.Atoi(keyPath[0])
		if err != nil || idx < 0 || idx >= len(node) {
			return nil, false
		}
		return TraverseNestedMap(node[idx], keyPath[1:])
	default:
		return nil, false
	}
}
