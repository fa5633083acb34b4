package domain

import "fmt"

var remediationHints = map[Component][]string{
	ComponentDashboard: {
		"Check dashboard service status and network connectivity",
	},
	ComponentManagerAPI: {
		"Verify manager service is running and API is accessible",
	},
	ComponentIndexerAPI: {
		"Check indexer service status and cluster health",
	},
	ComponentTransportSecurity: {
		"Ensure all endpoints use HTTPS and check SSL certificate configuration",
	},
}

// Hints returns the fixed remediation strings for c.
func Hints(c Component) []string {
	hints := remediationHints[c]
	out := make([]string, len(hints))
	copy(out, hints)
	return out
}

// Recommend emits the remediation hints for every non-healthy entry of m,
// in declaration order. The result is empty iff every entry is healthy.
func Recommend(m StatusMap) []string {
	recommendations := []string{}
	for _, c := range m.Components() {
		if m.Healthy(c) {
			continue
		}
		hints, ok := remediationHints[c]
		if !ok {
			hints = []string{fmt.Sprintf("Check %s status and connectivity", c.DisplayName())}
		}
		recommendations = append(recommendations, hints...)
	}
	return recommendations
}
