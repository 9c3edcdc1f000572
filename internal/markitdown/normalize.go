package markitdown

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var reMultipleNewlines = regexp.MustCompile(`\n{3,}`)

// normalizeOutput applies post-processing to converter output:
// - Repair invalid UTF-8
// - Normalize line endings (CRLF and bare CR -> LF)
// - Strip non-printable/control characters (keep \n, \t)
// - Strip trailing whitespace from each line
// - Collapse 3+ consecutive newlines to 2
// - Trim leading/trailing whitespace from the final output
func normalizeOutput(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = strings.Join(lines, "\n")

	s = reMultipleNewlines.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}
