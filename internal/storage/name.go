// internal/storage/name.go
package storage

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reIonTypePos = regexp.MustCompile(`^([abcxyz])_\{(\d+)\}`)
	reSinglyB2Y  = regexp.MustCompile(`^([abcxyz]_\{[0-9]+\})(.*)\^\{\+\}$`)
)

// ionTypePos classifies a fragment name as a b- or y-series ion with its
// backbone position. Non-backbone names yield a NULL type and position.
func ionTypePos(name string) (string, any) {
	m := reIonTypePos.FindStringSubmatch(name)
	if m == nil {
		return "", nil
	}
	pos, _ := strconv.Atoi(m[2])
	if strings.ContainsAny(m[1], "abc") {
		return "b", pos
	}
	return "y", pos
}

// Script character offsets for the Unicode rendering below.
const (
	superscriptStart = 0x2070
	subscriptStart   = 0x2080
)

func scriptOffset(c rune) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c == '+':
		return 10, true
	case c == '-':
		return 11, true
	case c == '(':
		return 12, true
	case c == ')':
		return 13, true
	}
	return 0, false
}

// displayName renders a TeX-flavored ion name ("b_{3}-H_2O^{+2}") in plain
// Unicode for the review frontend. The "^{+}" suffix of singly charged
// backbone ions is dropped entirely.
func displayName(name string) string {
	if m := reSinglyB2Y.FindStringSubmatch(name); m != nil {
		name = m[1] + m[2]
	}

	var (
		b        strings.Builder
		sup, sub bool
		paren    int
	)
	for _, c := range name {
		switch c {
		case '^':
			sup, sub = true, false
			continue
		case '_':
			sup, sub = false, true
			continue
		case '{':
			paren++
			continue
		case '}':
			sup, sub = false, false
			paren--
			continue
		}

		switch {
		case sup && c == '1':
			b.WriteRune('¹')
		case sup && c == '2':
			b.WriteRune('²')
		case sup && c == '3':
			b.WriteRune('³')
		case sup:
			if off, ok := scriptOffset(c); ok {
				b.WriteRune(rune(superscriptStart + off))
			} else {
				b.WriteRune(c)
			}
		case sub:
			if off, ok := scriptOffset(c); ok {
				b.WriteRune(rune(subscriptStart + off))
			} else {
				b.WriteRune(c)
			}
		default:
			b.WriteRune(c)
		}

		if (sup || sub) && paren == 0 {
			sup, sub = false, false
		}
	}
	return b.String()
}
