package gcode

import (
	"strconv"
	"strings"
	"unicode"
)

// commentDelims start a comment that runs to the end of the line.
var commentDelims = []string{"(", ";", "%"}

// StripComment removes comments and surrounding whitespace from a
// program line. An empty result means the line carries nothing to run.
func StripComment(s string) string {
	for _, d := range commentDelims {
		if i := strings.Index(s, d); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

func isLetter(c byte) bool { return c >= 'A' && c <= 'Z' }

// ParseLine splits a line into its letter-prefixed words.
//
// Parsing is lenient: a word whose value does not parse as a number is
// dropped, and a line without any letter yields an empty Block.
func ParseLine(s string) Block {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, s)

	start := strings.IndexFunc(s, func(r rune) bool { return r >= 'A' && r <= 'Z' })
	if start < 0 {
		return nil
	}

	var res Block
	for i := start; i < len(s); {
		letter := s[i]
		end := i + 1
		for end < len(s) && !isLetter(s[end]) {
			end++
		}

		val, err := strconv.ParseFloat(s[i+1:end], 64)
		if err == nil {
			res = append(res, Word{W: letter, Arg: val})
		}
		i = end
	}

	return res
}
