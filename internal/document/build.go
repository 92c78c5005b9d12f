package document

import (
	"errors"
	"fmt"

	"github.com/livefir/rsxhot/rsx"
)

// ErrAmbiguous is returned when a node or attribute sets more or fewer than
// one of its mutually exclusive fields.
var ErrAmbiguous = errors.New("exactly one kind must be set")

func buildBody(nodes []Node, path string) (*rsx.TemplateBody, error) {
	built, err := buildNodes(nodes, path)
	if err != nil {
		return nil, err
	}
	return rsx.NewTemplateBody(built...), nil
}

func buildNodes(nodes []Node, path string) ([]rsx.BodyNode, error) {
	out := make([]rsx.BodyNode, 0, len(nodes))
	for i, n := range nodes {
		node, err := buildNode(n, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}

func buildNode(n Node, path string) (rsx.BodyNode, error) {
	if count(n.Element != "", n.Text != nil, n.Component != "", n.For != "", n.If != "", n.Expr != "") != 1 {
		return nil, fmt.Errorf("%s: node: %w (element, text, component, for, if, expr)", path, ErrAmbiguous)
	}

	switch {
	case n.Element != "":
		attrs, err := buildAttrs(n.Attrs, path+".attrs")
		if err != nil {
			return nil, err
		}
		children, err := buildNodes(n.Children, path+".children")
		if err != nil {
			return nil, err
		}
		return rsx.NewElement(n.Element, attrs, children...), nil

	case n.Text != nil:
		f, err := rsx.ParseFormatted(*n.Text)
		if err != nil {
			return nil, fmt.Errorf("%s.text: %w", path, err)
		}
		return rsx.NewText(f), nil

	case n.Component != "":
		fields, err := buildAttrs(n.Attrs, path+".attrs")
		if err != nil {
			return nil, err
		}
		children, err := buildNodes(n.Children, path+".children")
		if err != nil {
			return nil, err
		}
		return rsx.NewComponent(n.Component, fields, children...), nil

	case n.For != "":
		if n.In == "" {
			return nil, fmt.Errorf("%s: for loop is missing in", path)
		}
		body, err := buildNodes(n.Body, path+".body")
		if err != nil {
			return nil, err
		}
		return rsx.NewForLoop(rsx.NewExpr(n.For), rsx.NewExpr(n.In), body...), nil

	case n.If != "":
		return buildIfChain(n, path)

	default:
		return rsx.NewRawExpr(rsx.NewExpr(n.Expr)), nil
	}
}

func buildIfChain(n Node, path string) (*rsx.IfChain, error) {
	then, err := buildNodes(n.Then, path+".then")
	if err != nil {
		return nil, err
	}
	chain := rsx.NewIfChain(rsx.NewExpr(n.If), then...)

	if n.ElseIf != nil {
		if n.ElseIf.If == "" {
			return nil, fmt.Errorf("%s.else_if: missing if", path)
		}
		if n.Else != nil {
			return nil, fmt.Errorf("%s: else_if and else are exclusive; nest else inside else_if", path)
		}
		next, err := buildIfChain(*n.ElseIf, path+".else_if")
		if err != nil {
			return nil, err
		}
		chain.WithElseIf(next)
	}
	if n.Else != nil {
		nodes, err := buildNodes(*n.Else, path+".else")
		if err != nil {
			return nil, err
		}
		chain.WithElse(nodes...)
	}
	return chain, nil
}

func buildAttrs(attrs []Attr, path string) ([]*rsx.Attribute, error) {
	out := make([]*rsx.Attribute, 0, len(attrs))
	for i, a := range attrs {
		attr, err := buildAttr(a, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, attr)
	}
	return out, nil
}

func buildAttr(a Attr, path string) (*rsx.Attribute, error) {
	if count(a.Name != "", a.Custom != "", a.Spread != "") != 1 {
		return nil, fmt.Errorf("%s: attribute name: %w (name, custom, spread)", path, ErrAmbiguous)
	}
	if a.Spread != "" {
		e := rsx.NewExpr(a.Spread)
		return rsx.NewAttribute(rsx.Spread(e), rsx.ExprValue(e)), nil
	}

	name := rsx.BuiltIn(a.Name)
	if a.Custom != "" {
		name = rsx.Custom(a.Custom)
	}
	value, err := buildValue(a, path)
	if err != nil {
		return nil, err
	}
	return rsx.NewAttribute(name, value), nil
}

func buildValue(a Attr, path string) (rsx.AttributeValue, error) {
	if count(a.Value != nil, a.Int != nil, a.Float != nil, a.Bool != nil, a.Expr != "", a.Event != "", a.Shorthand) != 1 {
		return rsx.AttributeValue{}, fmt.Errorf("%s: attribute value: %w (value, int, float, bool, expr, event, shorthand)", path, ErrAmbiguous)
	}

	var v rsx.AttributeValue
	switch {
	case a.Value != nil:
		lit, err := rsx.StrLiteral(*a.Value)
		if err != nil {
			return rsx.AttributeValue{}, fmt.Errorf("%s.value: %w", path, err)
		}
		v = rsx.LiteralValue(lit)
	case a.Int != nil:
		v = rsx.LiteralValue(rsx.IntLiteral(*a.Int))
	case a.Float != nil:
		v = rsx.LiteralValue(rsx.FloatLiteral(*a.Float))
	case a.Bool != nil:
		v = rsx.LiteralValue(rsx.BoolLiteral(*a.Bool))
	case a.Expr != "":
		v = rsx.ExprValue(rsx.NewExpr(a.Expr))
	case a.Event != "":
		v = rsx.EventValue(rsx.NewExpr(a.Event))
	default:
		if a.Custom != "" {
			return rsx.AttributeValue{}, fmt.Errorf("%s: shorthand needs an identifier name", path)
		}
		v = rsx.ShorthandValue(a.Name)
	}

	if a.If != "" {
		v = rsx.OptionalValue(rsx.NewExpr(a.If), v)
	}
	return v, nil
}

func count(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
