package refill

// Outcome tags how a workflow step ended. The orchestrator dispatches on
// the tag instead of mixing error values with business results.
type Outcome int

const (
	// OutcomeOK means the step passed and the workflow may continue.
	OutcomeOK Outcome = iota
	// OutcomeIneligible is an expected business refusal (no subscription,
	// captcha required, quota exhausted). Not an error.
	OutcomeIneligible
	// OutcomeTransport is a network, timeout, or server failure.
	OutcomeTransport
	// OutcomeAmbiguous means the step completed but the result needs
	// manual follow-up (ticket not closed after submission).
	OutcomeAmbiguous
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeIneligible:
		return "ineligible"
	case OutcomeTransport:
		return "transport-error"
	case OutcomeAmbiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// StepResult is the uniform return of every workflow step.
type StepResult struct {
	Outcome Outcome
	Reason  string
	Err     error
}

// OK reports whether the step passed.
func (r StepResult) OK() bool { return r.Outcome == OutcomeOK }

func stepOK() StepResult {
	return StepResult{Outcome: OutcomeOK}
}

func ineligible(reason string) StepResult {
	return StepResult{Outcome: OutcomeIneligible, Reason: reason}
}

func transportFailure(reason string, err error) StepResult {
	return StepResult{Outcome: OutcomeTransport, Reason: reason, Err: err}
}

func ambiguous(reason string) StepResult {
	return StepResult{Outcome: OutcomeAmbiguous, Reason: reason}
}
