package valueobject

import "testing"

func TestRunSummary_Add(t *testing.T) {
	var s RunSummary
	s.Add(ReconciliationResult{Domain: "a.com", Outcome: OutcomeInSync})
	s.Add(ReconciliationResult{Domain: "b.com", Outcome: OutcomeDriftWarning})
	s.Add(ReconciliationResult{Domain: "c.com", Outcome: OutcomeDriftCritical})
	s.Add(ReconciliationResult{Domain: "d.com", Outcome: OutcomeUnknown})

	if s.Processed != 4 || s.Success != 1 || s.Warning != 1 || s.Error != 2 {
		t.Errorf("summary = %+v", s)
	}
	if !s.HasErrors() {
		t.Error("HasErrors() = false")
	}
	if len(s.Results) != 4 {
		t.Errorf("len(Results) = %d", len(s.Results))
	}
}

func TestReconciliationResult_String(t *testing.T) {
	r := ReconciliationResult{Domain: "example.com", Outcome: OutcomeUnknown, Detail: "remote serial unavailable"}
	if got := r.String(); got != "example.com: unknown (remote serial unavailable)" {
		t.Errorf("String() = %q", got)
	}
	r = ReconciliationResult{
		Domain: "example.com", LocalKnown: true, RemoteKnown: true,
		LocalSerial: 10, RemoteSerial: 4, Drift: 6, Outcome: OutcomeDriftCritical, Detail: "drift 6 exceeds 5",
	}
	want := "example.com: drift_critical local=10 remote=4 drift=6 (drift 6 exceeds 5)"
	if got := r.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDistribution_Validate(t *testing.T) {
	if err := DefaultDistribution().Validate(); err != nil {
		t.Errorf("default distribution invalid: %v", err)
	}
	if err := (Distribution{New: -1}).Validate(); err == nil {
		t.Error("negative quota accepted")
	}
	if DefaultDistribution().Total() != 10 {
		t.Errorf("Total() = %d", DefaultDistribution().Total())
	}
}
