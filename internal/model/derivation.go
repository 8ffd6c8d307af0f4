package model

type TeamOutcomeStatus string

const (
	TeamCreated TeamOutcomeStatus = "created"
	TeamSkipped TeamOutcomeStatus = "skipped"
	TeamFailed  TeamOutcomeStatus = "failed"
)

// TeamOutcome reports what happened to one derived team within a batch.
type TeamOutcome struct {
	MachineName string            `json:"machine_name"`
	Status      TeamOutcomeStatus `json:"status"`
	Reason      string            `json:"reason,omitempty"`
}

// DerivationSummary aggregates a cross-product derivation run. Batches never
// abort on a single pair, so callers always receive the full per-team
// picture instead of a bare boolean.
type DerivationSummary struct {
	Created int           `json:"created"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
	Teams   []TeamOutcome `json:"teams"`
}

// Add records one outcome and bumps the matching counter.
func (s *DerivationSummary) Add(outcome TeamOutcome) {
	s.Teams = append(s.Teams, outcome)

	switch outcome.Status {
	case TeamCreated:
		s.Created++
	case TeamSkipped:
		s.Skipped++
	case TeamFailed:
		s.Failed++
	}
}
