package rsx

import (
	"strconv"
)

// LiteralKind identifies the variant held by a HotLiteral.
type LiteralKind uint8

const (
	LiteralFmted LiteralKind = iota
	LiteralFloat
	LiteralInt
	LiteralBool
)

func (k LiteralKind) String() string {
	switch k {
	case LiteralFmted:
		return "fmted"
	case LiteralFloat:
		return "float"
	case LiteralInt:
		return "int"
	case LiteralBool:
		return "bool"
	}
	return "unknown"
}

// HotLiteral is a literal value that can change without recompiling: a
// formatted string, a float, an int or a bool.
type HotLiteral struct {
	Kind  LiteralKind
	Fmted FormattedString
	Float float64
	Int   int64
	Bool  bool
}

// FmtedLiteral wraps a formatted string.
func FmtedLiteral(f FormattedString) HotLiteral {
	return HotLiteral{Kind: LiteralFmted, Fmted: f}
}

// StrLiteral parses raw string contents into a formatted literal.
func StrLiteral(raw string) (HotLiteral, error) {
	f, err := ParseFormatted(raw)
	if err != nil {
		return HotLiteral{}, err
	}
	return FmtedLiteral(f), nil
}

// IntLiteral wraps an integer.
func IntLiteral(v int64) HotLiteral {
	return HotLiteral{Kind: LiteralInt, Int: v}
}

// FloatLiteral wraps a float.
func FloatLiteral(v float64) HotLiteral {
	return HotLiteral{Kind: LiteralFloat, Float: v}
}

// BoolLiteral wraps a bool.
func BoolLiteral(v bool) HotLiteral {
	return HotLiteral{Kind: LiteralBool, Bool: v}
}

// IsStatic is true only for formatted strings without interpolations.
// Numbers and bools are always rendered as dynamic attributes.
func (l HotLiteral) IsStatic() bool {
	return l.Kind == LiteralFmted && l.Fmted.IsStatic()
}

// Equal reports whether both literals have the same kind and value.
func (l HotLiteral) Equal(other HotLiteral) bool {
	if l.Kind != other.Kind {
		return false
	}
	switch l.Kind {
	case LiteralFmted:
		return l.Fmted.Equal(other.Fmted)
	case LiteralFloat:
		return l.Float == other.Float
	case LiteralInt:
		return l.Int == other.Int
	default:
		return l.Bool == other.Bool
	}
}

func (l HotLiteral) String() string {
	switch l.Kind {
	case LiteralFmted:
		return strconv.Quote(l.Fmted.String())
	case LiteralFloat:
		return strconv.FormatFloat(l.Float, 'g', -1, 64)
	case LiteralInt:
		return strconv.FormatInt(l.Int, 10)
	default:
		return strconv.FormatBool(l.Bool)
	}
}
