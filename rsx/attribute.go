package rsx

import (
	"fmt"
)

// AttributeNameKind identifies how an attribute was named.
type AttributeNameKind uint8

const (
	// NameBuiltIn is a known identifier such as class or onclick.
	NameBuiltIn AttributeNameKind = iota
	// NameCustom is a quoted name such as "data-id".
	NameCustom
	// NameSpread is ..expr.
	NameSpread
)

// AttributeName is the name of an attribute or component property.
type AttributeName struct {
	Kind   AttributeNameKind
	Name   string
	Spread Expr
}

// BuiltIn names an attribute with an identifier.
func BuiltIn(name string) AttributeName {
	return AttributeName{Kind: NameBuiltIn, Name: name}
}

// Custom names an attribute with a quoted string.
func Custom(name string) AttributeName {
	return AttributeName{Kind: NameCustom, Name: name}
}

// Spread names a spread of an expression.
func Spread(e Expr) AttributeName {
	return AttributeName{Kind: NameSpread, Spread: e}
}

// IsSpread reports whether the name is a spread.
func (n AttributeName) IsSpread() bool {
	return n.Kind == NameSpread
}

// IsKey reports whether the attribute is the implicit key.
func (n AttributeName) IsKey() bool {
	return n.Kind == NameBuiltIn && n.Name == "key"
}

// Equal compares names structurally.
func (n AttributeName) Equal(other AttributeName) bool {
	if n.Kind != other.Kind {
		return false
	}
	if n.Kind == NameSpread {
		return n.Spread.Equal(other.Spread)
	}
	return n.Name == other.Name
}

func (n AttributeName) String() string {
	switch n.Kind {
	case NameSpread:
		return ".." + n.Spread.Source
	case NameCustom:
		return fmt.Sprintf("%q", n.Name)
	}
	return n.Name
}

// ValueKind identifies the variant held by an AttributeValue.
type ValueKind uint8

const (
	// ValueShorthand is `class,` meaning class: class.
	ValueShorthand ValueKind = iota
	ValueLiteral
	// ValueEvent is a closure bound to an event handler.
	ValueEvent
	// ValueOptional is `if cond { value }`.
	ValueOptional
	ValueExpr
)

// AttributeValue is the value side of an attribute.
type AttributeValue struct {
	Kind    ValueKind
	Literal HotLiteral
	// Expr holds the shorthand ident, event closure, expression or optional
	// condition depending on Kind.
	Expr  Expr
	Inner *AttributeValue
}

// ShorthandValue creates the value of a shorthand attribute.
func ShorthandValue(ident string) AttributeValue {
	return AttributeValue{Kind: ValueShorthand, Expr: NewExpr(ident)}
}

// LiteralValue wraps a hot literal.
func LiteralValue(l HotLiteral) AttributeValue {
	return AttributeValue{Kind: ValueLiteral, Literal: l}
}

// EventValue wraps an event handler closure.
func EventValue(handler Expr) AttributeValue {
	return AttributeValue{Kind: ValueEvent, Expr: handler}
}

// OptionalValue wraps a value that is only set when cond holds.
func OptionalValue(cond Expr, inner AttributeValue) AttributeValue {
	return AttributeValue{Kind: ValueOptional, Expr: cond, Inner: &inner}
}

// ExprValue wraps an arbitrary expression.
func ExprValue(e Expr) AttributeValue {
	return AttributeValue{Kind: ValueExpr, Expr: e}
}

// Equal compares values structurally.
func (v AttributeValue) Equal(other AttributeValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case ValueLiteral:
		return v.Literal.Equal(other.Literal)
	case ValueOptional:
		if !v.Expr.Equal(other.Expr) {
			return false
		}
		if v.Inner == nil || other.Inner == nil {
			return v.Inner == other.Inner
		}
		return v.Inner.Equal(*other.Inner)
	default:
		return v.Expr.Equal(other.Expr)
	}
}

func (v AttributeValue) String() string {
	switch v.Kind {
	case ValueLiteral:
		return v.Literal.String()
	case ValueOptional:
		inner := ""
		if v.Inner != nil {
			inner = v.Inner.String()
		}
		return fmt.Sprintf("if %s { %s }", v.Expr.Source, inner)
	}
	return v.Expr.Source
}

// Attribute is a single name/value pair on an element or component.
type Attribute struct {
	Name  AttributeName
	Value AttributeValue
	// ElementName is the element or component the attribute belongs to.
	ElementName string

	dyn dynamicIndex
}

// NewAttribute creates an attribute.
func NewAttribute(name AttributeName, value AttributeValue) *Attribute {
	return &Attribute{Name: name, Value: value}
}

// IsStaticStrLiteral reports whether the attribute is baked into the
// template as a static string.
func (a *Attribute) IsStaticStrLiteral() bool {
	return !a.Name.IsSpread() && a.Value.Kind == ValueLiteral && a.Value.Literal.IsStatic()
}

// DynamicIndex returns the attribute's index among the body's dynamic
// attributes.
func (a *Attribute) DynamicIndex() (int, bool) {
	return a.dyn.get()
}

// Equal compares name and value.
func (a *Attribute) Equal(other *Attribute) bool {
	return a.Name.Equal(other.Name) && a.Value.Equal(other.Value)
}

func (a *Attribute) String() string {
	if a.Name.IsSpread() {
		return a.Name.String()
	}
	return a.Name.String() + ": " + a.Value.String()
}

// mergeAttributes folds attributes that share a name into one formatted
// string joined by a space. Keys are dropped and spreads are moved to the
// end. Values that cannot be expressed as a formatted string stay separate
// and produce a diagnostic.
func mergeAttributes(element string, attrs []*Attribute) ([]*Attribute, []Diagnostic) {
	var (
		merged  []*Attribute
		spreads []*Attribute
		diags   []Diagnostic
	)

	groups := make(map[string][]*Attribute)
	var order []string
	for _, attr := range attrs {
		attr.ElementName = element
		switch {
		case attr.Name.IsKey():
			continue
		case attr.Name.IsSpread():
			spreads = append(spreads, attr)
			continue
		}
		key := attr.Name.String()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], attr)
	}

	for _, key := range order {
		group := groups[key]
		if len(group) == 1 {
			merged = append(merged, group[0])
			continue
		}
		value, ok := mergeValues(group)
		if !ok {
			diags = append(diags, Diagnostic{
				Message: fmt.Sprintf("attribute %s on %s is set more than once with values that cannot be merged", key, element),
			})
			merged = append(merged, group...)
			continue
		}
		merged = append(merged, &Attribute{
			Name:        group[0].Name,
			Value:       LiteralValue(FmtedLiteral(value)),
			ElementName: element,
		})
	}

	return append(merged, spreads...), diags
}

func mergeValues(group []*Attribute) (FormattedString, bool) {
	var out FormattedString
	for i, attr := range group {
		if i > 0 {
			out.PushLiteral(" ")
		}
		v := attr.Value
		switch {
		case v.Kind == ValueLiteral && v.Literal.Kind == LiteralFmted:
			for _, seg := range v.Literal.Fmted.Segments {
				if seg.IsFormatted() {
					out.PushFormatted(*seg.Formatted)
				} else {
					out.PushLiteral(seg.Literal)
				}
			}
		case v.Kind == ValueOptional && v.Inner != nil &&
			v.Inner.Kind == ValueLiteral && v.Inner.Literal.Kind == LiteralFmted:
			out.PushCondition(v.Expr, v.Inner.Literal.Fmted)
		default:
			return FormattedString{}, false
		}
	}
	return out, true
}
