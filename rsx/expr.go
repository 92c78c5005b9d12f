package rsx

import (
	"slices"
	"strings"
	"text/scanner"
)

// Expr is a host-language expression embedded in a template. The engine never
// evaluates it; it only compares expressions structurally.
type Expr struct {
	Source string
}

// NewExpr creates an expression from its source text.
func NewExpr(src string) Expr {
	return Expr{Source: strings.TrimSpace(src)}
}

// IsEmpty reports whether the expression has no tokens.
func (e Expr) IsEmpty() bool {
	return len(tokenize(e.Source)) == 0
}

// Equal reports whether two expressions have the same token stream.
// Whitespace and comments do not participate in the comparison.
func (e Expr) Equal(other Expr) bool {
	if e.Source == other.Source {
		return true
	}
	return slices.Equal(tokenize(e.Source), tokenize(other.Source))
}

func (e Expr) String() string {
	return e.Source
}

// tokenize splits source into tokens. Character literals are not scanned so
// that lifetimes and labels ('a) tokenize as punctuation followed by an ident.
func tokenize(src string) []string {
	var s scanner.Scanner
	s.Init(strings.NewReader(src))
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats |
		scanner.ScanStrings | scanner.ScanRawStrings | scanner.ScanComments | scanner.SkipComments
	s.Error = func(*scanner.Scanner, string) {}

	var tokens []string
	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		tokens = append(tokens, s.TokenText())
	}
	return tokens
}
