package identity

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	upper      = cases.Upper(language.Und)
	whitespace = regexp.MustCompile(`\s+`)
	dobPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2,4})$`)

	// Honorifics and generational suffixes that the billing export sometimes
	// carries but the master list never does.
	nameNoise = map[string]bool{
		"MR": true, "MRS": true, "MS": true, "DR": true,
		"JR": true, "SR": true, "II": true, "III": true, "IV": true,
		"MD": true, "DO": true, "PA": true,
	}
)

// NormalizeName case-folds a patient name, collapses whitespace, and strips
// honorifics, suffixes, and punctuation, so that "Doe, Jane  R." and
// "JANE R DOE JR" normalize toward comparable token sets.
func NormalizeName(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}

	s = upper.String(s)
	s = strings.NewReplacer(",", " ", ".", " ", "'", "").Replace(s)
	s = whitespace.ReplaceAllString(s, " ")

	tokens := strings.Fields(s)
	kept := tokens[:0]
	for _, tok := range tokens {
		if !nameNoise[tok] {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

// NormalizeDOB standardizes a date of birth to M/D/YYYY with no leading
// zeros, matching the master list convention. Unrecognized input is returned
// trimmed rather than erased: a malformed DOB should fail to match loudly in
// the unmatched partition, not vanish.
func NormalizeDOB(dob string) string {
	s := strings.TrimSpace(dob)
	if s == "" {
		return ""
	}

	m := dobPattern.FindStringSubmatch(s)
	if m == nil {
		return s
	}

	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year := m[3]
	if len(year) == 2 {
		// Two-digit years follow the time package pivot: 00-68 are 2000s.
		if yy, _ := strconv.Atoi(year); yy <= 68 {
			year = "20" + year
		} else {
			year = "19" + year
		}
	}
	return strconv.Itoa(month) + "/" + strconv.Itoa(day) + "/" + year
}

// nameTokens returns the sorted, deduplicated tokens of a normalized name.
// Token-set comparison keeps "DOE JANE" and "JANE DOE" identical.
func nameTokens(normalized string) string {
	tokens := strings.Fields(normalized)
	seen := make(map[string]bool, len(tokens))
	kept := tokens[:0]
	for _, tok := range tokens {
		if !seen[tok] {
			seen[tok] = true
			kept = append(kept, tok)
		}
	}
	// Insertion sort keeps this allocation-free for the short names involved.
	for i := 1; i < len(kept); i++ {
		for j := i; j > 0 && kept[j] < kept[j-1]; j-- {
			kept[j], kept[j-1] = kept[j-1], kept[j]
		}
	}
	return strings.Join(kept, " ")
}
