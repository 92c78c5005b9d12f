package rsx

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrUnmatchedClose is returned for a lone '}' in a formatted string.
	ErrUnmatchedClose = errors.New("unmatched closing '}' in format string")
	// ErrUnterminated is returned when an interpolation is never closed.
	ErrUnterminated = errors.New("unterminated '{' in format string")
	// ErrEmptySegment is returned for an interpolation with no expression.
	ErrEmptySegment = errors.New("empty expression in format string")
)

// FormattedSegment is a single interpolation inside a formatted string,
// e.g. {count} or {price:.2}.
type FormattedSegment struct {
	FormatArgs string
	Expr       Expr
}

// Equal reports whether both segments interpolate the same expression with
// the same format arguments.
func (f FormattedSegment) Equal(other FormattedSegment) bool {
	return f.FormatArgs == other.FormatArgs && f.Expr.Equal(other.Expr)
}

func (f FormattedSegment) String() string {
	if f.FormatArgs == "" {
		return "{" + f.Expr.Source + "}"
	}
	return "{" + f.Expr.Source + ":" + f.FormatArgs + "}"
}

// Segment is either a literal run of text or an interpolation.
type Segment struct {
	Literal   string
	Formatted *FormattedSegment
}

// IsFormatted reports whether the segment is an interpolation.
func (s Segment) IsFormatted() bool {
	return s.Formatted != nil
}

// FormattedString is a string literal with interpolations.
type FormattedString struct {
	Source   string
	Segments []Segment
}

// ParseFormatted parses the contents of a string literal into segments.
// "{{" and "}}" escape braces, "::" inside an interpolation is a path
// separator, and a single ':' starts the format arguments.
func ParseFormatted(raw string) (FormattedString, error) {
	out := FormattedString{Source: raw}
	runes := []rune(raw)

	var lit strings.Builder
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '{':
			if i+1 < len(runes) && runes[i+1] == '{' {
				lit.WriteRune('{')
				i++
				continue
			}
			if lit.Len() > 0 {
				out.Segments = append(out.Segments, Segment{Literal: lit.String()})
				lit.Reset()
			}
			seg, next, err := parseInterpolation(runes, i+1)
			if err != nil {
				return FormattedString{}, fmt.Errorf("parse %q: %w", raw, err)
			}
			out.Segments = append(out.Segments, Segment{Formatted: &seg})
			i = next
		case '}':
			if i+1 < len(runes) && runes[i+1] == '}' {
				lit.WriteRune('}')
				i++
				continue
			}
			return FormattedString{}, fmt.Errorf("parse %q: %w", raw, ErrUnmatchedClose)
		default:
			lit.WriteRune(c)
		}
	}
	if lit.Len() > 0 {
		out.Segments = append(out.Segments, Segment{Literal: lit.String()})
	}
	return out, nil
}

// parseInterpolation reads from just after '{' to the closing '}' and
// returns the index of that brace.
func parseInterpolation(runes []rune, start int) (FormattedSegment, int, error) {
	var expr, args strings.Builder
	inArgs := false
	for i := start; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '}':
			seg := FormattedSegment{Expr: NewExpr(expr.String()), FormatArgs: args.String()}
			if seg.Expr.Source == "" {
				return FormattedSegment{}, 0, ErrEmptySegment
			}
			return seg, i, nil
		case inArgs:
			args.WriteRune(c)
		case c == ':' && i+1 < len(runes) && runes[i+1] == ':':
			expr.WriteString("::")
			i++
		case c == ':':
			inArgs = true
		default:
			expr.WriteRune(c)
		}
	}
	return FormattedSegment{}, 0, ErrUnterminated
}

// MustFormatted is like ParseFormatted but panics on error. Intended for
// literals known to be well formed.
func MustFormatted(raw string) FormattedString {
	f, err := ParseFormatted(raw)
	if err != nil {
		panic(err)
	}
	return f
}

// StaticString creates a formatted string holding only literal text.
func StaticString(s string) FormattedString {
	f := FormattedString{}
	f.PushLiteral(s)
	return f
}

// IsStatic reports whether the string has no interpolations.
func (f FormattedString) IsStatic() bool {
	for _, s := range f.Segments {
		if s.IsFormatted() {
			return false
		}
	}
	return true
}

// ToStatic returns the literal text if the string has no interpolations.
func (f FormattedString) ToStatic() (string, bool) {
	if !f.IsStatic() {
		return "", false
	}
	var b strings.Builder
	for _, s := range f.Segments {
		b.WriteString(s.Literal)
	}
	return b.String(), true
}

// DynamicSegments returns the interpolations in order of appearance.
func (f FormattedString) DynamicSegments() []FormattedSegment {
	var segs []FormattedSegment
	for _, s := range f.Segments {
		if s.IsFormatted() {
			segs = append(segs, *s.Formatted)
		}
	}
	return segs
}

// PushLiteral appends literal text, joining it with a trailing literal run.
func (f *FormattedString) PushLiteral(s string) {
	if s == "" {
		return
	}
	// Copies of a FormattedString share their segments; never write through.
	segs := slices.Clone(f.Segments)
	if n := len(segs); n > 0 && !segs[n-1].IsFormatted() {
		segs[n-1].Literal += s
	} else {
		segs = append(segs, Segment{Literal: s})
	}
	f.Segments = segs
	f.Source = f.String()
}

// PushFormatted appends an interpolation.
func (f *FormattedString) PushFormatted(seg FormattedSegment) {
	f.Segments = append(slices.Clip(f.Segments), Segment{Formatted: &seg})
	f.Source = f.String()
}

// PushCondition appends an interpolation that renders value when cond holds
// and nothing otherwise.
func (f *FormattedString) PushCondition(cond Expr, value FormattedString) {
	src := fmt.Sprintf("if %s { format!(%q) } else { String::new() }", cond.Source, value.String())
	f.PushFormatted(FormattedSegment{Expr: NewExpr(src)})
}

// Equal reports structural equality of the segments.
func (f FormattedString) Equal(other FormattedString) bool {
	if len(f.Segments) != len(other.Segments) {
		return false
	}
	for i, s := range f.Segments {
		o := other.Segments[i]
		if s.IsFormatted() != o.IsFormatted() {
			return false
		}
		if s.IsFormatted() {
			if !s.Formatted.Equal(*o.Formatted) {
				return false
			}
		} else if s.Literal != o.Literal {
			return false
		}
	}
	return true
}

// String renders the segments back into source form with braces escaped.
func (f FormattedString) String() string {
	var b strings.Builder
	for _, s := range f.Segments {
		if s.IsFormatted() {
			b.WriteString(s.Formatted.String())
			continue
		}
		lit := strings.ReplaceAll(s.Literal, "{", "{{")
		b.WriteString(strings.ReplaceAll(lit, "}", "}}"))
	}
	return b.String()
}
