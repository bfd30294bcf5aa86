package grading

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var commaSpacing = regexp.MustCompile(`\s*,\s*`)

// lower lower-cases s with Russian casing rules.
// A Caser is stateful, so one is built per call.
func lower(s string) string {
	return cases.Lower(language.Russian).String(s)
}

// NormalizeSpelling prepares a Spelling answer for comparison: outer whitespace is
// trimmed, whitespace around commas is removed (multi-blank answers are given as
// comma-separated letters) and the result is lower-cased. It is idempotent.
func NormalizeSpelling(s string) string {
	s = strings.TrimSpace(s)
	s = commaSpacing.ReplaceAllString(s, ",")
	return lower(s)
}

// normalizeToken trims and lower-cases free text answers.
func normalizeToken(s string) string {
	return lower(strings.TrimSpace(s))
}

// sortedDigits keeps only ASCII digits of s and returns them sorted ascending.
func sortedDigits(s string) string {
	digits := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			digits = append(digits, s[i])
		}
	}
	sort.Slice(digits, func(i, j int) bool { return digits[i] < digits[j] })
	return string(digits)
}

// parseIDSet parses comma-separated positive integer ids. Tokens that are not
// positive integers are skipped.
func parseIDSet(s string) map[int64]struct{} {
	set := make(map[int64]struct{})
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}
