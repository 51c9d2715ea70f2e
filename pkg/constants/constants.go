// Package constants provides shared constants used throughout the visitlink
// codebase. This includes the canonical date format, matching thresholds,
// file permissions, and column names that must stay consistent across the
// application.
package constants

// Date format constants. The visit key is a string comparison, so every date
// of service must be rendered through DOSFormat before it is compared.
const (
	// DOSFormat is the canonical date-of-service layout (MM/DD/YYYY)
	DOSFormat = "01/02/2006"

	// DOBFormat is the canonical date-of-birth layout (M/D/YYYY, no leading
	// zeros, matching how the master patient list records birth dates)
	DOBFormat = "1/2/2006"
)

// KeySeparator joins the internal patient ID and the normalized date of
// service into a visit key.
const KeySeparator = "|"

// Matching constants
const (
	// DefaultSimilarityThreshold is the minimum token-similarity score for a
	// fuzzy name comparison to count as a close match. Operational tuning
	// parameter; override with WithThreshold.
	DefaultSimilarityThreshold = 0.70

	// DefaultToleranceCents is the largest absolute difference, in cents,
	// between two monetary figures still treated as equal.
	DefaultToleranceCents = 1
)

// Sentinel account-number values carried in place of an internal patient ID
// when resolution did not produce one. These appear in exported datasets, so
// their spelling is a compatibility contract.
const (
	// UnmatchedID marks a record whose patient could not be resolved
	UnmatchedID = "UNMATCHED"

	// CloseMatchID marks a record whose close-match review is still pending
	CloseMatchID = "CLOSE_MATCH"
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for files that may carry PHI (rw-------)
	SecureFilePermissions = 0600
)

// Well-known column names shared by the two exports. Column identities are a
// published contract; renaming one is a breaking change downstream.
const (
	// ColumnAccountNumber is the internal patient identifier column
	ColumnAccountNumber = "Patient Account Number"

	// ColumnDOS is the Prompt date-of-service column
	ColumnDOS = "DOS"

	// ColumnServiceDate is the AMD date-of-service column
	ColumnServiceDate = "Service Date"

	// ColumnInsurance is the Prompt primary insurance column
	ColumnInsurance = "Case Primary Insurance"

	// ColumnAllowed is the Prompt allowed-amount column
	ColumnAllowed = "Primary Allowed"

	// ColumnCharges is the AMD charge-amount column
	ColumnCharges = "Charges"

	// ColumnInsurancePaid is the Prompt posted insurance payment column
	ColumnInsurancePaid = "Primary Insurance Paid"

	// ColumnInsurancePayments is the AMD insurance payment column
	ColumnInsurancePayments = "Insurance Payments"

	// ColumnPatientPayments is the AMD patient payment column
	ColumnPatientPayments = "Patient Payments"

	// ColumnTotalPaid is the Prompt total collected column
	ColumnTotalPaid = "Total Paid"
)
