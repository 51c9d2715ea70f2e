package identity

import (
	"context"
	"fmt"
	"sort"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/rs/zerolog"

	"github.com/clinicworks/visitlink/pkg/constants"
	"github.com/clinicworks/visitlink/pkg/logging"
)

// Status is the outcome of one identity resolution.
type Status int

const (
	// StatusResolved means the identity maps to exactly one account number.
	StatusResolved Status = iota
	// StatusAmbiguous means close-match candidates exist and no decider was
	// configured to settle them; review is still pending.
	StatusAmbiguous
	// StatusNotFound means no exact or close match exists, or the operator
	// rejected every candidate.
	StatusNotFound
)

// String returns the sentinel form used in exported datasets.
func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusAmbiguous:
		return constants.CloseMatchID
	default:
		return constants.UnmatchedID
	}
}

// Resolution failure reasons surfaced in reports.
const (
	ReasonNotFound = "not_found"
	ReasonRejected = "rejected"
	ReasonPending  = "pending_review"
)

// Resolution is the result of resolving one source identity.
type Resolution struct {
	Status     Status
	ID         string
	Reason     string     // set when Status != StatusResolved
	Candidates []Identity // close matches, best first; set when fuzzy pass ran
	FromCache  bool
	ByOperator bool
}

// Resolver maps external identities to internal account numbers. It owns the
// run-scoped confirmed-mapping cache; the master list itself is never
// mutated on disk.
type Resolver struct {
	master    *Master
	decider   Decider
	threshold float64
	metric    *metrics.SorensenDice
	cache     map[string]ConfirmedMapping
	logger    *zerolog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver) error

// NewResolver creates a Resolver over the given master list.
func NewResolver(master *Master, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		master:    master,
		threshold: constants.DefaultSimilarityThreshold,
		metric:    metrics.NewSorensenDice(),
		cache:     make(map[string]ConfirmedMapping),
		logger:    logging.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// WithDecider sets the operator decision port. Without one, close matches
// resolve to StatusAmbiguous instead of being escalated.
func WithDecider(d Decider) Option {
	return func(r *Resolver) error {
		r.decider = d
		return nil
	}
}

// WithThreshold sets the minimum similarity score for a close match.
func WithThreshold(threshold float64) Option {
	return func(r *Resolver) error {
		if threshold <= 0 || threshold > 1 {
			return fmt.Errorf("similarity threshold must be in (0, 1], got %v", threshold)
		}
		r.threshold = threshold
		return nil
	}
}

// WithLogger sets the resolver logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(r *Resolver) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		r.logger = logger
		return nil
	}
}

// Mappings returns the confirmed mappings accumulated this run, sorted by
// lookup key for stable reporting.
func (r *Resolver) Mappings() []ConfirmedMapping {
	keys := make([]string, 0, len(r.cache))
	for k := range r.cache {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]ConfirmedMapping, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.cache[k])
	}
	return out
}

// Resolve maps one source identity to an internal account number.
//
// The exact pass compares normalized (name, dob) against the master list.
// Failing that, every master entry sharing the date of birth is scored by
// name similarity; candidates at or above the threshold are close matches
// and are escalated to the operator. A fuzzy match is never auto-accepted.
// Every settled decision is cached by (name, dob) so the same patient across
// many rows resolves once.
func (r *Resolver) Resolve(ctx context.Context, name, dob string) (Resolution, error) {
	key := LookupKey(name, dob)

	if m, ok := r.cache[key]; ok {
		return r.fromCache(m), nil
	}

	// Exact pass.
	if hits := r.master.Lookup(name, dob); len(hits) == 1 {
		r.cache[key] = ConfirmedMapping{SourceName: name, SourceDOB: dob, ID: hits[0].ID}
		return Resolution{Status: StatusResolved, ID: hits[0].ID}, nil
	}

	// Fuzzy pass over entries sharing the date of birth.
	candidates := r.closeMatches(name, dob)
	if len(candidates) == 0 {
		r.cache[key] = ConfirmedMapping{SourceName: name, SourceDOB: dob}
		return Resolution{Status: StatusNotFound, Reason: ReasonNotFound}, nil
	}

	if r.decider == nil {
		// No operator wired; leave the review pending and do not cache, so a
		// later run with a decider can still settle it.
		return Resolution{Status: StatusAmbiguous, Reason: ReasonPending, Candidates: candidates}, nil
	}

	r.logger.Debug().
		Str("name", NormalizeName(name)).
		Str("dob", NormalizeDOB(dob)).
		Int("candidates", len(candidates)).
		Msg("Escalating close match to operator")

	decision, err := r.decider.Decide(ctx, DecisionRequest{
		SourceName: name,
		SourceDOB:  dob,
		Candidates: candidates,
	})
	if err != nil {
		return Resolution{}, fmt.Errorf("operator decision for %q: %w", NormalizeName(name), err)
	}

	if decision.Skipped {
		return Resolution{Status: StatusAmbiguous, Reason: ReasonPending, Candidates: candidates}, nil
	}

	if !decision.Accepted {
		r.cache[key] = ConfirmedMapping{SourceName: name, SourceDOB: dob, ByOperator: true}
		return Resolution{Status: StatusNotFound, Reason: ReasonRejected, Candidates: candidates, ByOperator: true}, nil
	}

	r.cache[key] = ConfirmedMapping{SourceName: name, SourceDOB: dob, ID: decision.ID, ByOperator: true}
	return Resolution{Status: StatusResolved, ID: decision.ID, Candidates: candidates, ByOperator: true}, nil
}

// fromCache rebuilds a Resolution from a cached mapping.
func (r *Resolver) fromCache(m ConfirmedMapping) Resolution {
	if m.ID == "" {
		reason := ReasonNotFound
		if m.ByOperator {
			reason = ReasonRejected
		}
		return Resolution{Status: StatusNotFound, Reason: reason, FromCache: true, ByOperator: m.ByOperator}
	}
	return Resolution{Status: StatusResolved, ID: m.ID, FromCache: true, ByOperator: m.ByOperator}
}

// closeMatches scores every same-DOB master entry against the source name
// and returns those at or above the threshold, best first, ties broken by
// account number for determinism.
func (r *Resolver) closeMatches(name, dob string) []Identity {
	source := nameTokens(NormalizeName(name))
	if source == "" {
		return nil
	}

	type scored struct {
		id    Identity
		score float64
	}

	var hits []scored
	for _, cand := range r.master.SameDOB(dob) {
		score := strutil.Similarity(source, nameTokens(NormalizeName(cand.Name)), r.metric)
		if score >= r.threshold {
			hits = append(hits, scored{id: cand, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].id.ID < hits[j].id.ID
	})

	out := make([]Identity, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.id)
	}
	return out
}
