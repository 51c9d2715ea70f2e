// Package linker partitions two keyed visit-record sets into matched pairs
// and per-side unmatched remainders. Two rows represent the same visit iff
// their keys are equal; the linker adds no heuristics of its own.
package linker

import (
	"github.com/clinicworks/visitlink/pkg/tables"
	"github.com/clinicworks/visitlink/pkg/visitkey"
)

// Origin identifies which source export a record came from.
type Origin string

const (
	// OriginAMD is the billing-system export.
	OriginAMD Origin = "amd"
	// OriginPrompt is the clinical EHR export.
	OriginPrompt Origin = "prompt"
)

// Record is one visit row with its canonical key already built. Rows whose
// identity could not be resolved never reach the linker; the pipeline routes
// them straight to the unmatched partition with a reason code.
type Record struct {
	Key visitkey.Key
	Row tables.Row
}

// LinkedPair joins the billing and clinical rows for one visit key.
type LinkedPair struct {
	Key    visitkey.Key
	AMD    tables.Row
	Prompt tables.Row
}

// Unmatched is a visit row present on only one side, or excluded before
// linking with a resolution-failure reason.
type Unmatched struct {
	Key    visitkey.Key
	Row    tables.Row
	Origin Origin
	Reason string // set only for records excluded before linking
}

// Result is the three-way partition of both inputs plus data-quality counts.
// Every input record lands in exactly one of Matched, AMDOnly, or PromptOnly,
// except duplicate-key rows collapsed under the first-seen policy, which are
// counted per side.
type Result struct {
	Matched    []LinkedPair
	AMDOnly    []Unmatched
	PromptOnly []Unmatched

	// Duplicate visit keys collapsed per side. Nonzero values signal a
	// data-quality problem in the export, not a linker bug.
	AMDCollisions    int
	PromptCollisions int
}

// Link partitions the two record sets by visit key. Output ordering is the
// input ordering of the respective side; duplicate keys within one side keep
// the first-seen row and increment that side's collision count.
func Link(amd, prompt []Record) *Result {
	result := &Result{}

	amdIndex := index(amd, &result.AMDCollisions)
	promptIndex := index(prompt, &result.PromptCollisions)

	seen := make(map[visitkey.Key]bool, len(amd))
	for _, rec := range amd {
		if seen[rec.Key] {
			continue
		}
		seen[rec.Key] = true

		if promptRow, ok := promptIndex[rec.Key]; ok {
			result.Matched = append(result.Matched, LinkedPair{
				Key:    rec.Key,
				AMD:    rec.Row,
				Prompt: promptRow,
			})
			continue
		}
		result.AMDOnly = append(result.AMDOnly, Unmatched{
			Key:    rec.Key,
			Row:    rec.Row,
			Origin: OriginAMD,
		})
	}

	seen = make(map[visitkey.Key]bool, len(prompt))
	for _, rec := range prompt {
		if seen[rec.Key] {
			continue
		}
		seen[rec.Key] = true

		if _, ok := amdIndex[rec.Key]; ok {
			continue // already emitted as a LinkedPair
		}
		result.PromptOnly = append(result.PromptOnly, Unmatched{
			Key:    rec.Key,
			Row:    rec.Row,
			Origin: OriginPrompt,
		})
	}

	return result
}

// index builds a key→row map with first-seen-wins duplicate handling,
// incrementing collisions for every collapsed row.
func index(records []Record, collisions *int) map[visitkey.Key]tables.Row {
	idx := make(map[visitkey.Key]tables.Row, len(records))
	for _, rec := range records {
		if _, ok := idx[rec.Key]; ok {
			*collisions++
			continue
		}
		idx[rec.Key] = rec.Row
	}
	return idx
}
