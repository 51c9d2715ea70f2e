// Package visitkey derives the canonical join key for a visit record.
// Two visit records describe the same real-world visit iff their keys are
// equal, and the key is a string comparison, so the date of service must be
// normalized to one fixed layout before it ever becomes part of a key.
// Mismatched date formats would silently produce spurious non-matches.
package visitkey

import (
	"strings"
	"time"

	"github.com/clinicworks/visitlink/pkg/constants"
	"github.com/clinicworks/visitlink/pkg/errors"
)

// Key is a visit join key: internal patient ID + "|" + normalized date of
// service (MM/DD/YYYY). Keys compare by value and are safe map keys.
type Key string

// dosLayouts are the date-of-service layouts the two exports are known to
// produce. "1/2/2006" also accepts zero-padded MM/DD/YYYY input.
var dosLayouts = []string{
	"1/2/2006",
	"2006-01-02",
	"1-2-2006",
	"2006/1/2",
	"1/2/06",
}

// Build derives the key for a visit. It fails when the patient ID is absent
// or is a resolution sentinel, or when the date of service cannot be parsed.
// Records that fail here cannot be linked and belong in an unmatched
// partition with their failure reason recorded.
func Build(internalID, rawDOS string) (Key, error) {
	id := strings.TrimSpace(internalID)
	if id == "" {
		return "", errors.NewKeyError(id, rawDOS, "missing internal patient ID", errors.ErrNotFound)
	}
	if id == constants.UnmatchedID || id == constants.CloseMatchID {
		return "", errors.NewKeyError(id, rawDOS, "unresolved patient identity", errors.ErrNotFound)
	}

	dos, err := NormalizeDOS(rawDOS)
	if err != nil {
		return "", errors.NewKeyError(id, rawDOS, "unparseable date of service", err)
	}

	return Key(id + constants.KeySeparator + dos), nil
}

// NormalizeDOS parses a raw date-of-service string in any supported layout
// and renders it in the canonical MM/DD/YYYY form.
func NormalizeDOS(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errors.NewParseError("date", "", "empty date of service", nil)
	}

	for _, layout := range dosLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(constants.DOSFormat), nil
		}
	}
	return "", errors.NewParseError("date", "", "unrecognized date of service "+strings.TrimSpace(raw), nil)
}

// ID returns the internal patient ID half of the key.
func (k Key) ID() string {
	if i := strings.Index(string(k), constants.KeySeparator); i >= 0 {
		return string(k)[:i]
	}
	return string(k)
}

// DOS returns the normalized date-of-service half of the key.
func (k Key) DOS() string {
	if i := strings.Index(string(k), constants.KeySeparator); i >= 0 {
		return string(k)[i+1:]
	}
	return ""
}

// String returns the key in its wire form.
func (k Key) String() string {
	return string(k)
}
