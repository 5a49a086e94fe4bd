package lifecycle

// Outcome classifies one service's result within an operation.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeTimedOut  Outcome = "timed_out"
	// OutcomeSkipped marks a service that was never issued a command because
	// a dependency failed earlier in the plan.
	OutcomeSkipped Outcome = "skipped_dependency_failure"
)

// Result is one service's outcome.
type Result struct {
	Name    string
	Outcome Outcome
	Err     error
}

// Report enumerates per-service outcomes for one operation. Errors local to
// one service never abort its siblings; the report carries them all.
type Report struct {
	Op      string
	Scope   string
	Results []Result
}

// Succeeded returns the names of services whose command succeeded.
func (r Report) Succeeded() []string {
	return r.names(OutcomeSucceeded)
}

// Failed returns every failed or timed-out result.
func (r Report) Failed() []Result {
	failed := make([]Result, 0)
	for _, result := range r.Results {
		if result.Outcome == OutcomeFailed || result.Outcome == OutcomeTimedOut {
			failed = append(failed, result)
		}
	}
	return failed
}

// Skipped returns the names of services skipped due to dependency failure.
func (r Report) Skipped() []string {
	return r.names(OutcomeSkipped)
}

// OK reports whether every service succeeded.
func (r Report) OK() bool {
	for _, result := range r.Results {
		if result.Outcome != OutcomeSucceeded {
			return false
		}
	}
	return true
}

func (r Report) names(outcome Outcome) []string {
	names := make([]string, 0)
	for _, result := range r.Results {
		if result.Outcome == outcome {
			names = append(names, result.Name)
		}
	}
	return names
}
