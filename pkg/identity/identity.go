// Package identity resolves external patient identities (name + date of
// birth) to internal patient account numbers using a maintained master list.
// Exact matches resolve automatically; fuzzy matches above a similarity
// threshold are escalated to an operator decision and never auto-accepted,
// because a false identity merge in PHI data is worse than a manual review.
package identity

import (
	"sort"
)

// Identity is one master-list entry mapping a canonical patient name and
// date of birth to the internal account number. Loaded once per run and
// read-only thereafter, except for in-memory appends when an operator
// confirms a brand-new mapping.
type Identity struct {
	ID   string `json:"prompt_id" yaml:"prompt_id"`
	Name string `json:"patient_name" yaml:"patient_name"`
	DOB  string `json:"date_of_birth" yaml:"date_of_birth"`
}

// ConfirmedMapping records one resolution decision for a source (name, dob)
// pair, so repeated occurrences of the same patient across rows resolve once.
type ConfirmedMapping struct {
	SourceName string
	SourceDOB  string
	ID         string
	ByOperator bool
}

// Master is the indexed master patient list. Lookups are by exact normalized
// (name, dob) and by shared date of birth for close matching.
type Master struct {
	entries []Identity
	exact   map[string][]Identity // normalized "NAME|DOB" → entries
	byDOB   map[string][]Identity // normalized DOB → entries
}

// NewMaster indexes a master patient list.
func NewMaster(entries []Identity) *Master {
	m := &Master{
		exact: make(map[string][]Identity, len(entries)),
		byDOB: make(map[string][]Identity),
	}
	for _, e := range entries {
		m.add(e)
	}
	return m
}

func (m *Master) add(e Identity) {
	m.entries = append(m.entries, e)
	key := LookupKey(e.Name, e.DOB)
	m.exact[key] = append(m.exact[key], e)
	dob := NormalizeDOB(e.DOB)
	m.byDOB[dob] = append(m.byDOB[dob], e)
}

// Append adds a new entry in memory. Persisting it is the reference-data
// collaborator's concern, not the core's.
func (m *Master) Append(e Identity) {
	m.add(e)
}

// Len returns the number of master-list entries.
func (m *Master) Len() int {
	return len(m.entries)
}

// Entries returns the master-list entries in load order.
func (m *Master) Entries() []Identity {
	return m.entries
}

// Lookup returns the entries whose normalized (name, dob) exactly match.
func (m *Master) Lookup(name, dob string) []Identity {
	return m.exact[LookupKey(name, dob)]
}

// SameDOB returns the entries sharing the given date of birth, sorted by
// account number so candidate lists are stable across runs.
func (m *Master) SameDOB(dob string) []Identity {
	matches := m.byDOB[NormalizeDOB(dob)]
	out := append([]Identity(nil), matches...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Contains reports whether an exact normalized (name, dob) entry exists.
func (m *Master) Contains(name, dob string) bool {
	return len(m.Lookup(name, dob)) > 0
}

// LookupKey joins a normalized name and DOB into the exact-match index key.
func LookupKey(name, dob string) string {
	return NormalizeName(name) + "|" + NormalizeDOB(dob)
}
