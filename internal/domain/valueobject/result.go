package valueobject

import (
	"fmt"
	"time"
)

type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeInSync
	OutcomeDriftWarning
	OutcomeDriftCritical
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInSync:
		return "in_sync"
	case OutcomeDriftWarning:
		return "drift_warning"
	case OutcomeDriftCritical:
		return "drift_critical"
	default:
		return "unknown"
	}
}

// ReconciliationResult is produced once per domain per check. Drift is only
// meaningful when both serials are known.
type ReconciliationResult struct {
	Domain       string
	LocalSerial  uint32
	RemoteSerial uint32
	LocalKnown   bool
	RemoteKnown  bool
	Drift        uint32
	Outcome      Outcome
	Detail       string
	Err          error
	Correction   *CorrectionResult
}

func (r *ReconciliationResult) DriftKnown() bool {
	return r.LocalKnown && r.RemoteKnown
}

func (r *ReconciliationResult) String() string {
	if !r.DriftKnown() {
		return fmt.Sprintf("%s: %s (%s)", r.Domain, r.Outcome, r.Detail)
	}
	return fmt.Sprintf("%s: %s local=%d remote=%d drift=%d (%s)",
		r.Domain, r.Outcome, r.LocalSerial, r.RemoteSerial, r.Drift, r.Detail)
}

type CorrectionResult struct {
	Domain       string
	LocalSerial  uint32
	RemoteSerial uint32
	NewSerial    uint32
	Record       string
	DryRun       bool
	Success      bool
	Reloaded     bool
	Message      string
}

type RunSummary struct {
	DryRun    bool
	StartedAt time.Time
	Duration  time.Duration
	Processed int
	Success   int
	Warning   int
	Error     int
	Results   []ReconciliationResult
}

// Add records a result and bumps the counter matching its outcome.
func (s *RunSummary) Add(r ReconciliationResult) {
	s.Results = append(s.Results, r)
	s.Processed++
	switch r.Outcome {
	case OutcomeInSync:
		s.Success++
	case OutcomeDriftWarning:
		s.Warning++
	default:
		s.Error++
	}
}

func (s *RunSummary) HasErrors() bool {
	return s.Error > 0
}
