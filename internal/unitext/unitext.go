// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package unitext holds Unicode-aware text helpers shared by the parser and
// the annotator.
//
// RE2 defines \d, \w and \s over ASCII only, so a pattern such as
// `(\w+) de evolución` would stop at the "í" of "días". Translate rewrites
// those escapes into Unicode classes before compilation: \d is any decimal
// digit (Nd), \w is any letter, number or underscore, and \s is any
// character for which IsSpace is true. \b and \B cannot be expressed over
// Unicode without lookaround and are rejected.
package unitext

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ErrUnsupported marks a pattern using an escape that has no Unicode-aware
// RE2 equivalent.
var ErrUnsupported = errors.New("unsupported escape")

// Bracket-expression bodies for the translated classes.
const (
	digitBody = `\p{Nd}`
	wordBody  = `\p{L}\p{N}_`
	spaceBody = `\t\n\v\f\r \x{1c}-\x{1f}\x{85}\p{Z}`
)

// Translate rewrites the Perl class escapes of pattern into Unicode
// classes. Text inside \Q...\E is copied verbatim; everything else the
// regexp package parses itself.
func Translate(pattern string) (string, error) {
	var b strings.Builder
	b.Grow(len(pattern))

	inClass := false
	// classOpen is set right after "[" or "[^", where "]" is a literal.
	classOpen := false

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]

		if c == '\\' {
			if i+1 == len(pattern) {
				b.WriteByte(c)
				continue
			}
			e := pattern[i+1]
			i++
			classOpen = false

			if e == 'Q' {
				end := strings.Index(pattern[i+1:], `\E`)
				if end < 0 {
					b.WriteString(pattern[i-1:])
					break
				}
				b.WriteString(pattern[i-1 : i+1+end+2])
				i += end + 2
				continue
			}

			rep, err := escape(e, inClass)
			if err != nil {
				return "", err
			}
			b.WriteString(rep)
			continue
		}

		if inClass {
			if c == '[' && strings.HasPrefix(pattern[i:], "[:") {
				if end := strings.Index(pattern[i+2:], ":]"); end >= 0 {
					b.WriteString(pattern[i : i+2+end+2])
					i += end + 3
					classOpen = false
					continue
				}
			}
			if c == ']' && !classOpen {
				inClass = false
			}
			classOpen = false
			b.WriteByte(c)
			continue
		}

		b.WriteByte(c)
		if c == '[' {
			inClass, classOpen = true, true
			if i+1 < len(pattern) && pattern[i+1] == '^' {
				b.WriteByte('^')
				i++
			}
		}
	}

	return b.String(), nil
}

func escape(e byte, inClass bool) (string, error) {
	switch e {
	case 'd':
		return digitBody, nil
	case 'D':
		return `\P{Nd}`, nil
	case 'w':
		if inClass {
			return wordBody, nil
		}
		return "[" + wordBody + "]", nil
	case 's':
		if inClass {
			return spaceBody, nil
		}
		return "[" + spaceBody + "]", nil
	case 'W', 'S':
		if inClass {
			return "", fmt.Errorf(`%w: \%c inside a character class`, ErrUnsupported, e)
		}
		if e == 'W' {
			return "[^" + wordBody + "]", nil
		}
		return "[^" + spaceBody + "]", nil
	case 'b':
		if inClass {
			// Backspace, as in Perl.
			return `\x{8}`, nil
		}
		return "", fmt.Errorf(`%w: \b word boundary`, ErrUnsupported)
	case 'B':
		return "", fmt.Errorf(`%w: \B word boundary`, ErrUnsupported)
	}
	return `\` + string(e), nil
}

// Compile translates and compiles pattern.
func Compile(pattern string) (*regexp.Regexp, error) {
	translated, err := Translate(pattern)
	if err != nil {
		return nil, err
	}
	return regexp.Compile(translated)
}

// MustCompile is like Compile but panics on error. It is meant for
// package-level patterns.
func MustCompile(pattern string) *regexp.Regexp {
	re, err := Compile(pattern)
	if err != nil {
		panic(fmt.Sprintf("unitext: Compile(%q): %v", pattern, err))
	}
	return re
}

// IsSpace reports whether r is whitespace: the Unicode White_Space
// characters plus the ASCII information separators U+001C..U+001F.
func IsSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// TrimSpace trims IsSpace runes from both ends of s.
func TrimSpace(s string) string {
	return strings.TrimFunc(s, IsSpace)
}

// Fields splits s around runs of IsSpace runes.
func Fields(s string) []string {
	return strings.FieldsFunc(s, IsSpace)
}

// ParseInt parses a base-10 integer the lenient way exam headers need:
// surrounding whitespace, a leading sign, any Unicode decimal digits and
// single underscores between digits are accepted ("٢٠٢٣", "2_023").
func ParseInt(s string) (int, error) {
	t := TrimSpace(s)
	neg := false
	if t != "" && (t[0] == '+' || t[0] == '-') {
		neg = t[0] == '-'
		t = t[1:]
	}
	if t == "" {
		return 0, fmt.Errorf("invalid integer %q", s)
	}

	const maxInt = int(^uint(0) >> 1)
	n := 0
	prevDigit := false
	for _, r := range t {
		if r == '_' {
			if !prevDigit {
				return 0, fmt.Errorf("invalid integer %q", s)
			}
			prevDigit = false
			continue
		}
		d, ok := digitValue(r)
		if !ok {
			return 0, fmt.Errorf("invalid integer %q", s)
		}
		if n > (maxInt-d)/10 {
			return 0, fmt.Errorf("integer %q out of range", s)
		}
		n = n*10 + d
		prevDigit = true
	}
	if !prevDigit {
		return 0, fmt.Errorf("invalid integer %q", s)
	}

	if neg {
		n = -n
	}
	return n, nil
}

// digitValue returns the value of a decimal digit rune. Nd digits come in
// contiguous runs whose length is a multiple of ten starting at zero.
func digitValue(r rune) (int, bool) {
	if r >= '0' && r <= '9' {
		return int(r - '0'), true
	}
	if !unicode.Is(unicode.Nd, r) {
		return 0, false
	}
	start := r
	for unicode.Is(unicode.Nd, start-1) {
		start--
	}
	return int(r-start) % 10, true
}
