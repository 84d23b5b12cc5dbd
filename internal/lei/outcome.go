package lei

// Outcome classifies a single resolution attempt.
type Outcome string

const (
	// OutcomeResolved means the upstream returned at least one entity.
	OutcomeResolved Outcome = "resolved"
	// OutcomeNotFound means the lookup succeeded with zero matches.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeRejected means the upstream reported the request as malformed.
	OutcomeRejected Outcome = "upstream_rejected"
	// OutcomeUnavailable covers timeouts, transport failures, server errors
	// and unexpected responses.
	OutcomeUnavailable Outcome = "upstream_unavailable"
)

// Result is the outcome of Resolve. LegalName is set only for OutcomeResolved;
// Message carries the upstream message for OutcomeRejected and a diagnostic
// for OutcomeUnavailable.
type Result struct {
	Outcome   Outcome
	LegalName string
	Message   string
}

func resolved(name string) Result {
	return Result{Outcome: OutcomeResolved, LegalName: name}
}

func notFound() Result {
	return Result{Outcome: OutcomeNotFound}
}

func rejected(msg string) Result {
	return Result{Outcome: OutcomeRejected, Message: msg}
}

func unavailable(msg string) Result {
	return Result{Outcome: OutcomeUnavailable, Message: msg}
}
