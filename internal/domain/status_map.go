package domain

import "fmt"

// StatusEntry is one slot of a StatusMap.
type StatusEntry struct {
	Component Component
	Result    ProbeResult
	Recorded  bool
}

// StatusMap is a fixed, ordered mapping of component to probe result.
// Every declared component is always present; unrecorded entries read as
// unhealthy. Methods never mutate the receiver.
type StatusMap struct {
	entries []StatusEntry
}

// NewStatusMap declares the given components in order.
func NewStatusMap(components ...Component) (StatusMap, error) {
	entries := make([]StatusEntry, 0, len(components))
	seen := make(map[Component]struct{}, len(components))
	for _, c := range components {
		if _, dup := seen[c]; dup {
			return StatusMap{}, fmt.Errorf("%w: %q", ErrDuplicateComponent, string(c))
		}
		seen[c] = struct{}{}
		entries = append(entries, StatusEntry{
			Component: c,
			Result:    ProbeResult{Component: c, Status: ProbeUnhealthy},
		})
	}
	return StatusMap{entries: entries}, nil
}

// DefaultStatusMap declares the four standard components.
func DefaultStatusMap() StatusMap {
	m, _ := NewStatusMap(DeclaredComponents()...)
	return m
}

// Record returns a copy of m with result stored under result.Component.
// Each component is recorded exactly once. Recording an undeclared component
// returns m unchanged and an *UnknownComponentError; recording one twice
// returns m unchanged and an *AlreadyRecordedError.
func (m StatusMap) Record(result ProbeResult) (StatusMap, error) {
	idx := m.indexOf(result.Component)
	if idx < 0 {
		return m, &UnknownComponentError{Component: result.Component}
	}
	if m.entries[idx].Recorded {
		return m, &AlreadyRecordedError{Component: result.Component}
	}
	entries := make([]StatusEntry, len(m.entries))
	copy(entries, m.entries)
	entries[idx] = StatusEntry{Component: result.Component, Result: result, Recorded: true}
	return StatusMap{entries: entries}, nil
}

// Score computes 100 * healthy / total. It fails on an empty map or when any
// declared component has not been recorded yet.
func (m StatusMap) Score() (float64, error) {
	if len(m.entries) == 0 {
		return 0, ErrEmptyStatus
	}
	if missing := m.Missing(); len(missing) > 0 {
		return 0, &IncompleteStatusError{Missing: missing}
	}
	return float64(100*m.HealthyCount()) / float64(len(m.entries)), nil
}

// HealthyCount returns the number of recorded healthy entries.
func (m StatusMap) HealthyCount() int {
	n := 0
	for _, e := range m.entries {
		if e.Recorded && e.Result.Healthy() {
			n++
		}
	}
	return n
}

// Len returns the number of declared components.
func (m StatusMap) Len() int {
	return len(m.entries)
}

// Missing lists declared components that have not been recorded.
func (m StatusMap) Missing() []Component {
	var missing []Component
	for _, e := range m.entries {
		if !e.Recorded {
			missing = append(missing, e.Component)
		}
	}
	return missing
}

// Get returns the result for c and whether c is declared.
func (m StatusMap) Get(c Component) (ProbeResult, bool) {
	idx := m.indexOf(c)
	if idx < 0 {
		return ProbeResult{}, false
	}
	return m.entries[idx].Result, true
}

// Healthy reports whether c is declared, recorded and healthy.
func (m StatusMap) Healthy(c Component) bool {
	idx := m.indexOf(c)
	return idx >= 0 && m.entries[idx].Recorded && m.entries[idx].Result.Healthy()
}

// Components returns the declared components in order.
func (m StatusMap) Components() []Component {
	out := make([]Component, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Component)
	}
	return out
}

// Results returns the results in declaration order.
func (m StatusMap) Results() []ProbeResult {
	out := make([]ProbeResult, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Result)
	}
	return out
}

func (m StatusMap) indexOf(c Component) int {
	for i, e := range m.entries {
		if e.Component == c {
			return i
		}
	}
	return -1
}
