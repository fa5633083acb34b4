package domain

import "time"

// HealthReport aggregates a completed run.
type HealthReport struct {
	RunID           string        `json:"run_id"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration_ns"`
	Results         []ProbeResult `json:"results"`
	HealthyCount    int           `json:"healthy_count"`
	Total           int           `json:"total"`
	Score           float64       `json:"score"`
	Verdict         Verdict       `json:"verdict"`
	Recommendations []string      `json:"recommendations"`
}

// BuildReport scores a fully recorded status map and assembles the report.
func BuildReport(runID string, startedAt time.Time, duration time.Duration, m StatusMap) (HealthReport, error) {
	score, err := m.Score()
	if err != nil {
		return HealthReport{}, err
	}
	return HealthReport{
		RunID:           runID,
		StartedAt:       startedAt,
		Duration:        duration,
		Results:         m.Results(),
		HealthyCount:    m.HealthyCount(),
		Total:           m.Len(),
		Score:           score,
		Verdict:         Classify(score),
		Recommendations: Recommend(m),
	}, nil
}
