package rsx

import (
	"errors"
	"testing"
)

func TestParseFormatted(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		literals []string
		dynamic  []FormattedSegment
		wantErr  error
	}{
		{
			name:     "plain text",
			input:    "hello world",
			literals: []string{"hello world"},
		},
		{
			name:     "escaped braces",
			input:    "{{not}} {x}",
			literals: []string{"{not} "},
			dynamic:  []FormattedSegment{{Expr: NewExpr("x")}},
		},
		{
			name:     "format args",
			input:    "total {price:.2}!",
			literals: []string{"total ", "!"},
			dynamic:  []FormattedSegment{{Expr: NewExpr("price"), FormatArgs: ".2"}},
		},
		{
			name:    "path separator",
			input:   "{Self::NAME:?}",
			dynamic: []FormattedSegment{{Expr: NewExpr("Self::NAME"), FormatArgs: "?"}},
		},
		{
			name:    "unterminated",
			input:   "hello {name",
			wantErr: ErrUnterminated,
		},
		{
			name:    "empty interpolation",
			input:   "hello {}",
			wantErr: ErrEmptySegment,
		},
		{
			name:    "lone close",
			input:   "oops }",
			wantErr: ErrUnmatchedClose,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormatted(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseFormatted(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormatted(%q): %v", tt.input, err)
			}

			var literals []string
			for _, seg := range got.Segments {
				if !seg.IsFormatted() {
					literals = append(literals, seg.Literal)
				}
			}
			if len(literals) != len(tt.literals) {
				t.Fatalf("literals = %q, want %q", literals, tt.literals)
			}
			for i := range literals {
				if literals[i] != tt.literals[i] {
					t.Errorf("literal %d = %q, want %q", i, literals[i], tt.literals[i])
				}
			}

			dynamic := got.DynamicSegments()
			if len(dynamic) != len(tt.dynamic) {
				t.Fatalf("got %d interpolations, want %d", len(dynamic), len(tt.dynamic))
			}
			for i := range dynamic {
				if !dynamic[i].Equal(tt.dynamic[i]) {
					t.Errorf("interpolation %d = %s, want %s", i, dynamic[i], tt.dynamic[i])
				}
			}
		})
	}
}

func TestFormattedStringRoundTrip(t *testing.T) {
	for _, input := range []string{"a {b} c", "{{x}}", "{v:?} and {w}", "plain"} {
		f := MustFormatted(input)
		again, err := ParseFormatted(f.String())
		if err != nil {
			t.Fatalf("reparse %q: %v", f.String(), err)
		}
		if !f.Equal(again) {
			t.Errorf("round trip of %q produced %q", input, again.String())
		}
	}
}

func TestFormattedStringPushDoesNotAlias(t *testing.T) {
	base := MustFormatted("hello")
	a, b := base, base
	a.PushLiteral(" a")
	b.PushLiteral(" b")

	if s, _ := base.ToStatic(); s != "hello" {
		t.Errorf("base changed to %q", s)
	}
	if s, _ := a.ToStatic(); s != "hello a" {
		t.Errorf("a = %q, want %q", s, "hello a")
	}
	if s, _ := b.ToStatic(); s != "hello b" {
		t.Errorf("b = %q, want %q", s, "hello b")
	}
}

func TestExprEqual(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"a + b", "a+b", true},
		{"foo(1, 2)", "foo( 1,2 )", true},
		{"x /* note */ + 1", "x + 1", true},
		{"|_| {}", "|e| {}", false},
		{`"a b"`, `"a  b"`, false},
		{"'a: loop {}", "'a : loop {}", true},
		{"Self::NAME", "Self :: NAME", true},
	}

	for _, tt := range tests {
		if got := NewExpr(tt.a).Equal(NewExpr(tt.b)); got != tt.want {
			t.Errorf("Equal(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
