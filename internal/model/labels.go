package model

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var splitWordsPattern = regexp.MustCompile(`[_\-\s]+`)

// DefaultLabeler converts a field name into a human-friendly label:
// "member_of_groups" becomes "Member Of Groups" and "ipAddress" becomes
// "Ip Address".
func DefaultLabeler(name string) string {
	var (
		segments []string
		caser    = cases.Title(language.Und)
	)
	for _, word := range splitWordsPattern.Split(name, -1) {
		if word == "" {
			continue
		}
		for _, part := range splitCamel(word) {
			segments = append(segments, caser.String(part))
		}
	}
	return strings.Join(segments, " ")
}

// splitCamel breaks on lower→upper and letter↔digit boundaries.
func splitCamel(input string) []string {
	var (
		parts []string
		start int
	)
	for i := 1; i < len(input); i++ {
		prev, cur := input[i-1], input[i]
		if (isLower(prev) && isUpper(cur)) || (isLetter(prev) && isDigit(cur)) || (isDigit(prev) && isLetter(cur)) {
			parts = append(parts, input[start:i])
			start = i
		}
	}
	return append(parts, input[start:])
}

func isUpper(r byte) bool  { return r >= 'A' && r <= 'Z' }
func isLower(r byte) bool  { return r >= 'a' && r <= 'z' }
func isDigit(r byte) bool  { return r >= '0' && r <= '9' }
func isLetter(r byte) bool { return isUpper(r) || isLower(r) }
