package settings

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	tagPattern        = regexp.MustCompile(`(?s)<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`[\r\n\t ]+`)
	octetPattern      = regexp.MustCompile(`%[a-fA-F0-9]{2}`)
)

// SanitizeText reduces a submitted value to a single line of plain text.
// Invalid UTF-8 yields an empty string. Markup is stripped, whitespace runs
// collapse to one space and percent-encoded octets are removed.
func SanitizeText(s string) string {
	if !utf8.ValidString(s) {
		return ""
	}

	if strings.Contains(s, "<") {
		s = tagPattern.ReplaceAllString(s, "")
		s = strings.ReplaceAll(s, "<", "&lt;")
	}

	s = whitespacePattern.ReplaceAllString(s, " ")

	for octetPattern.MatchString(s) {
		s = octetPattern.ReplaceAllString(s, "")
	}

	return strings.TrimSpace(s)
}
