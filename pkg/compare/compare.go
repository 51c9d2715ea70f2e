// Package compare produces a structured discrepancy verdict for each linked
// visit pair by normalizing the financial fields of both exports and
// classifying the differences. Comparison is total: malformed or missing
// amounts degrade to zero rather than failing the pair, so every matched
// visit gets a verdict.
package compare

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/clinicworks/visitlink/pkg/constants"
	"github.com/clinicworks/visitlink/pkg/linker"
	"github.com/clinicworks/visitlink/pkg/visitkey"
)

// Flag is one discrepancy class. Classification is a set: a single pair can
// carry several flags at once.
type Flag string

const (
	// FlagBilledNotAllowed marks a visit billed on the AMD side with no
	// allowed amount posted on the clinical side.
	FlagBilledNotAllowed Flag = "billed_but_not_allowed"
	// FlagCollectedUnposted marks payments collected in billing with nothing
	// posted clinically.
	FlagCollectedUnposted Flag = "collected_but_unposted"
	// FlagAmountsDiffer marks any field pair differing beyond tolerance.
	FlagAmountsDiffer Flag = "amounts_differ"
)

// Field pair names used in mismatch records and reports.
const (
	FieldAllowedVsCharges = "allowed_vs_charges"
	FieldInsurancePaid    = "insurance_paid"
	FieldTotalPaid        = "total_paid"
)

// FieldMismatch records one field pair that differs beyond tolerance.
type FieldMismatch struct {
	Field  string
	Prompt decimal.Decimal
	AMD    decimal.Decimal
	Delta  decimal.Decimal // Prompt minus AMD
}

// Result is the verdict for one linked pair. Created here, consumed
// read-only by the projections and the report.
type Result struct {
	Key       visitkey.Key
	Insurance string

	// Clinical (Prompt) figures.
	Allowed       decimal.Decimal
	InsurancePaid decimal.Decimal
	TotalPaid     decimal.Decimal

	// Billing (AMD) figures.
	Charges           decimal.Decimal
	InsurancePayments decimal.Decimal
	PatientPayments   decimal.Decimal

	Flags      []Flag
	Mismatches []FieldMismatch
}

// Clean reports whether the pair carries no discrepancy flags.
func (r Result) Clean() bool {
	return len(r.Flags) == 0
}

// HasFlag reports whether the verdict carries the given flag.
func (r Result) HasFlag(flag Flag) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// FlagString renders the flag set for the matched projection, e.g.
// "[billed_but_not_allowed amounts_differ]". An empty set renders as "".
func (r Result) FlagString() string {
	if len(r.Flags) == 0 {
		return ""
	}
	parts := make([]string, len(r.Flags))
	for i, f := range r.Flags {
		parts[i] = string(f)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Comparator classifies linked pairs against a money tolerance.
type Comparator struct {
	tolerance decimal.Decimal
}

// Option configures a Comparator.
type Option func(*Comparator) error

// WithTolerance sets the absolute difference below which two amounts are
// considered equal. Default is one cent.
func WithTolerance(tolerance decimal.Decimal) Option {
	return func(c *Comparator) error {
		if tolerance.IsNegative() {
			return fmt.Errorf("tolerance cannot be negative, got %s", tolerance)
		}
		c.tolerance = tolerance
		return nil
	}
}

// New creates a Comparator.
func New(opts ...Option) (*Comparator, error) {
	c := &Comparator{
		tolerance: decimal.New(constants.DefaultToleranceCents, -2),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Compare produces the discrepancy verdict for one linked pair. Pure
// function of its input; never fails on per-row data quality.
func (c *Comparator) Compare(pair linker.LinkedPair) Result {
	r := Result{
		Key:       pair.Key,
		Insurance: pair.Prompt.Get(constants.ColumnInsurance),

		Allowed:       ParseMoney(pair.Prompt.Get(constants.ColumnAllowed)),
		InsurancePaid: ParseMoney(pair.Prompt.Get(constants.ColumnInsurancePaid)),
		TotalPaid:     ParseMoney(pair.Prompt.Get(constants.ColumnTotalPaid)),

		Charges:           ParseMoney(pair.AMD.Get(constants.ColumnCharges)),
		InsurancePayments: ParseMoney(pair.AMD.Get(constants.ColumnInsurancePayments)),
		PatientPayments:   ParseMoney(pair.AMD.Get(constants.ColumnPatientPayments)),
	}

	collected := r.InsurancePayments.Add(r.PatientPayments)

	if r.Charges.IsPositive() && r.Allowed.IsZero() {
		r.Flags = append(r.Flags, FlagBilledNotAllowed)
	}
	if collected.IsPositive() && r.TotalPaid.IsZero() {
		r.Flags = append(r.Flags, FlagCollectedUnposted)
	}

	r.Mismatches = c.mismatches(r, collected)
	for _, m := range r.Mismatches {
		if m.Field == FieldAllowedVsCharges && r.HasFlag(FlagBilledNotAllowed) {
			continue // already explained by the zero-sided flag
		}
		if m.Field == FieldTotalPaid && r.HasFlag(FlagCollectedUnposted) {
			continue
		}
		r.Flags = append(r.Flags, FlagAmountsDiffer)
		break
	}

	return r
}

// mismatches compares the three field pairs carried by both exports.
func (c *Comparator) mismatches(r Result, collected decimal.Decimal) []FieldMismatch {
	pairs := []struct {
		field  string
		prompt decimal.Decimal
		amd    decimal.Decimal
	}{
		{FieldAllowedVsCharges, r.Allowed, r.Charges},
		{FieldInsurancePaid, r.InsurancePaid, r.InsurancePayments},
		{FieldTotalPaid, r.TotalPaid, collected},
	}

	var out []FieldMismatch
	for _, p := range pairs {
		delta := p.prompt.Sub(p.amd)
		if delta.Abs().GreaterThan(c.tolerance) {
			out = append(out, FieldMismatch{
				Field:  p.field,
				Prompt: p.prompt,
				AMD:    p.amd,
				Delta:  delta,
			})
		}
	}
	return out
}

var moneyCleaner = strings.NewReplacer("$", "", ",", "", " ", "")

// ParseMoney normalizes one monetary field. Currency symbols and thousands
// separators are stripped; blank or unparseable input becomes zero so that
// comparison stays total over dirty exports.
func ParseMoney(s string) decimal.Decimal {
	cleaned := moneyCleaner.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}
