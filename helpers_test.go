package rsxhot

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/livefir/rsxhot/rsx"
)

// svgContext maps svg and a few of its attributes into namespaces.
var svgContext = rsx.TableContext{
	Elements: map[string]rsx.Mapping{
		"svg": {Name: "svg", Namespace: "svg"},
	},
	Attributes: map[string]map[string]rsx.Mapping{
		"svg": {
			"width":  {Name: "width", Namespace: "style"},
			"height": {Name: "height", Namespace: "style"},
		},
	},
}

var templateOpts = cmp.Options{cmpopts.EquateEmpty()}

func call(nodes ...rsx.BodyNode) *rsx.CallBody {
	return rsx.NewCallBody(rsx.NewTemplateBody(nodes...))
}

func el(name string, attrs []*rsx.Attribute, children ...rsx.BodyNode) *rsx.Element {
	return rsx.NewElement(name, attrs, children...)
}

func attrs(a ...*rsx.Attribute) []*rsx.Attribute { return a }

func text(raw string) *rsx.Text {
	return rsx.NewText(rsx.MustFormatted(raw))
}

func expr(src string) rsx.Expr { return rsx.NewExpr(src) }

func raw(src string) *rsx.RawExpr { return rsx.NewRawExpr(expr(src)) }

func str(raw string) rsx.AttributeValue {
	return rsx.LiteralValue(rsx.FmtedLiteral(rsx.MustFormatted(raw)))
}

func intv(v int64) rsx.AttributeValue { return rsx.LiteralValue(rsx.IntLiteral(v)) }

func floatv(v float64) rsx.AttributeValue { return rsx.LiteralValue(rsx.FloatLiteral(v)) }

func boolv(v bool) rsx.AttributeValue { return rsx.LiteralValue(rsx.BoolLiteral(v)) }

func attr(name string, value rsx.AttributeValue) *rsx.Attribute {
	return rsx.NewAttribute(rsx.BuiltIn(name), value)
}

func custom(name string, value rsx.AttributeValue) *rsx.Attribute {
	return rsx.NewAttribute(rsx.Custom(name), value)
}

func shorthand(name string) *rsx.Attribute {
	return rsx.NewAttribute(rsx.BuiltIn(name), rsx.ShorthandValue(name))
}

func spread(src string) *rsx.Attribute {
	return rsx.NewAttribute(rsx.Spread(expr(src)), rsx.ExprValue(expr(src)))
}

func forLoop(pat, iter string, body ...rsx.BodyNode) *rsx.ForLoop {
	return rsx.NewForLoop(expr(pat), expr(iter), body...)
}

func comp(name string, fields []*rsx.Attribute, children ...rsx.BodyNode) *rsx.Component {
	return rsx.NewComponent(name, fields, children...)
}

func fmted(segs ...FmtSegment) FmtedSegments { return NewFmtedSegments(segs...) }

func lit(s string) FmtSegment { return LiteralSegment(s) }

func dyn(id int) FmtSegment { return DynamicSegment(id) }

func hotReload(old, next *rsx.CallBody) (map[int]*HotReloadedTemplate, bool) {
	return Compute(svgContext, old, next, "file:1:1")
}

func mustHotReload(t *testing.T, old, next *rsx.CallBody) map[int]*HotReloadedTemplate {
	t.Helper()
	templates, ok := hotReload(old, next)
	if !ok {
		t.Fatal("expected hot reload to succeed")
	}
	return templates
}

func template(t *testing.T, templates map[int]*HotReloadedTemplate, idx int) *HotReloadedTemplate {
	t.Helper()
	tmpl, ok := templates[idx]
	if !ok {
		t.Fatalf("template %d missing, have %d templates", idx, len(templates))
	}
	return tmpl
}
