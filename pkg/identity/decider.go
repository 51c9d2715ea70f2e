package identity

import (
	"context"
)

// DecisionRequest carries one close-match escalation to the operator: the
// source identity being matched and the master-list candidates sharing its
// date of birth.
type DecisionRequest struct {
	SourceName string
	SourceDOB  string
	Candidates []Identity
}

// Decision is the operator's answer. Accepted=false means every candidate
// was rejected and the record degrades to not-found. Skipped leaves the
// review pending: nothing is cached and the record stays ambiguous.
type Decision struct {
	ID       string
	Accepted bool
	Skipped  bool
}

// Decider is the operator decision port. Production wires an interactive
// console prompt; tests and replayed runs wire a scripted implementation.
// Decide blocks: the run is paused until the decision returns, and there is
// exactly one outstanding decision at a time.
type Decider interface {
	Decide(ctx context.Context, req DecisionRequest) (Decision, error)
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(ctx context.Context, req DecisionRequest) (Decision, error)

// Decide implements Decider.
func (f DeciderFunc) Decide(ctx context.Context, req DecisionRequest) (Decision, error) {
	return f(ctx, req)
}

// RejectAll is a Decider that rejects every close match. Useful for
// non-interactive runs where close matches should surface as unmatched.
var RejectAll = DeciderFunc(func(_ context.Context, _ DecisionRequest) (Decision, error) {
	return Decision{}, nil
})

// ScriptDecider replays a fixed set of decisions keyed by normalized
// (name, dob). Unknown identities are rejected. It makes full pipeline runs
// reproducible bit-for-bit, which the idempotence guarantee depends on.
type ScriptDecider struct {
	decisions map[string]string // LookupKey → accepted ID
	Calls     []DecisionRequest // every escalation seen, in order
}

// NewScriptDecider builds a ScriptDecider from (name, dob) → ID entries.
func NewScriptDecider() *ScriptDecider {
	return &ScriptDecider{decisions: make(map[string]string)}
}

// Accept scripts an accepted mapping for the given source identity.
func (s *ScriptDecider) Accept(name, dob, id string) *ScriptDecider {
	s.decisions[LookupKey(name, dob)] = id
	return s
}

// Decide implements Decider.
func (s *ScriptDecider) Decide(_ context.Context, req DecisionRequest) (Decision, error) {
	s.Calls = append(s.Calls, req)
	if id, ok := s.decisions[LookupKey(req.SourceName, req.SourceDOB)]; ok {
		return Decision{ID: id, Accepted: true}, nil
	}
	return Decision{}, nil
}
