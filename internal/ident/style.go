// Package ident converts identifiers between naming conventions, e.g.
// PascalCase source columns into snake_case target columns.
//
// A Style is a plain value. Callers pass the style they want to whichever
// component needs it; there is no process-wide default.
package ident

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Casing is the case policy applied after word separation.
type Casing int

const (
	Unchanged Casing = iota
	LowerCase
	UpperCase
)

func (c Casing) String() string {
	switch c {
	case LowerCase:
		return "lower"
	case UpperCase:
		return "upper"
	default:
		return "unchanged"
	}
}

// ParseCasing accepts "unchanged", "lower" or "upper" (case-insensitive).
// Unknown values fall back to Unchanged.
func ParseCasing(s string) Casing {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lower", "lowercase":
		return LowerCase
	case "upper", "uppercase":
		return UpperCase
	default:
		return Unchanged
	}
}

// Style inserts Separator at word boundaries and applies Casing.
//
// Word boundaries are a lower-case letter or digit followed by an upper-case
// letter ("OrderId" -> "Order_Id"), and the last letter of an upper-case run
// that is followed by a lower-case letter ("HTTPServer" -> "HTTP_Server").
// Existing '_', '-' and ' ' runs collapse into a single separator. An empty
// Separator keeps words joined and only applies Casing.
type Style struct {
	Separator string
	Casing    Casing
}

// Default is the style used when no target-specific style is requested:
// underscores at case transitions, case left as is.
var Default = Style{Separator: "_", Casing: Unchanged}

// Lower returns the default underscore style with lower-case casing.
func Lower() Style { return Style{Separator: "_", Casing: LowerCase} }

// Upper returns the default underscore style with upper-case casing.
func Upper() Style { return Style{Separator: "_", Casing: UpperCase} }

// Convert applies the style to name. It never fails.
func (s Style) Convert(name string) string {
	rs := []rune(name)
	var sb strings.Builder
	sb.Grow(len(name) + 4)

	pendingSep := false
	for i, r := range rs {
		if isSep(r) {
			pendingSep = true
			continue
		}
		if pendingSep || (sb.Len() > 0 && boundary(rs, i)) {
			sb.WriteString(s.Separator)
		}
		pendingSep = false
		sb.WriteRune(r)
	}
	if pendingSep {
		sb.WriteString(s.Separator)
	}

	out := sb.String()
	switch s.Casing {
	case LowerCase:
		return cases.Lower(language.Und).String(out)
	case UpperCase:
		return cases.Upper(language.Und).String(out)
	default:
		return out
	}
}

func isSep(r rune) bool { return r == '_' || r == '-' || r == ' ' }

// boundary reports whether a word starts at rs[i].
func boundary(rs []rune, i int) bool {
	if i == 0 || !unicode.IsUpper(rs[i]) {
		return false
	}
	prev := rs[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	if unicode.IsUpper(prev) && i+1 < len(rs) && unicode.IsLower(rs[i+1]) {
		return true
	}
	return false
}
