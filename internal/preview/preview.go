// Package preview renders the static part of a hot-reloaded template to
// HTML so a change can be inspected without a running app.
package preview

import (
	"bytes"
	"fmt"
	"strconv"
	"sync"

	"github.com/tdewolff/minify/v2"
	minhtml "github.com/tdewolff/minify/v2/html"
	"golang.org/x/net/html"

	"github.com/livefir/rsxhot"
	"github.com/livefir/rsxhot/rsx"
)

// PlaceholderTag marks where a dynamic node without a rendering goes.
const PlaceholderTag = "rsx-placeholder"

var (
	minifier *minify.M
	once     sync.Once
)

// getMinifier returns a configured HTML minifier (singleton)
func getMinifier() *minify.M {
	once.Do(func() {
		minifier = minify.New()
		minifier.Add("text/html", &minhtml.Minifier{KeepEndTags: true, KeepQuotes: true})
	})
	return minifier
}

// Values are the evaluated dynamic values of the last build.
type Values struct {
	// DynamicText is the evaluated pool of formatted segments.
	DynamicText []string
	// Nodes holds rendered HTML for dynamic node ids. Missing ids render as
	// placeholders.
	Nodes map[int]string
}

// Render renders tmpl's roots to minified HTML.
func Render(tmpl *rsxhot.HotReloadedTemplate, values Values) (string, error) {
	r := renderer{tmpl: tmpl, values: values}

	var buf bytes.Buffer
	for _, root := range tmpl.Roots {
		node, err := r.node(root)
		if err != nil {
			return "", err
		}
		if err := html.Render(&buf, node); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}

	out, err := getMinifier().String("text/html", buf.String())
	if err != nil {
		return "", fmt.Errorf("minify html: %w", err)
	}
	return out, nil
}

type renderer struct {
	tmpl   *rsxhot.HotReloadedTemplate
	values Values
}

func (r renderer) node(n rsxhot.TemplateNode) (*html.Node, error) {
	switch n.Kind {
	case rsxhot.TemplateElement:
		el := &html.Node{Type: html.ElementNode, Data: n.Tag, Namespace: n.Namespace}
		for _, attr := range n.Attrs {
			a, ok, err := r.attribute(attr)
			if err != nil {
				return nil, err
			}
			if ok {
				el.Attr = append(el.Attr, a)
			}
		}
		for _, child := range n.Children {
			c, err := r.node(child)
			if err != nil {
				return nil, err
			}
			el.AppendChild(c)
		}
		return el, nil

	case rsxhot.TemplateText:
		return &html.Node{Type: html.TextNode, Data: n.Text}, nil

	default:
		return r.dynamicNode(n.ID)
	}
}

func (r renderer) dynamicNode(id int) (*html.Node, error) {
	if id < 0 || id >= len(r.tmpl.DynamicNodes) {
		return nil, fmt.Errorf("dynamic node %d out of range", id)
	}
	ref := r.tmpl.DynamicNodes[id]
	if ref.Kind == rsxhot.NodeFormatted {
		text, err := ref.Formatted.RenderWith(r.values.DynamicText)
		if err != nil {
			return nil, fmt.Errorf("dynamic node %d: %w", id, err)
		}
		return &html.Node{Type: html.TextNode, Data: text}, nil
	}

	if rendered, ok := r.values.Nodes[ref.Index]; ok {
		return &html.Node{Type: html.RawNode, Data: rendered}, nil
	}
	return &html.Node{
		Type: html.ElementNode,
		Data: PlaceholderTag,
		Attr: []html.Attribute{{Key: "data-node", Val: strconv.Itoa(ref.Index)}},
	}, nil
}

// attribute renders a dynamic attribute with a literal value. Attributes
// whose value only exists at runtime are skipped.
func (r renderer) attribute(attr rsxhot.TemplateAttribute) (html.Attribute, bool, error) {
	if attr.Kind == rsxhot.AttributeStatic {
		return html.Attribute{Namespace: attr.Namespace, Key: attr.Name, Val: attr.Value}, true, nil
	}
	if attr.ID < 0 || attr.ID >= len(r.tmpl.DynamicAttributes) {
		return html.Attribute{}, false, fmt.Errorf("dynamic attribute %d out of range", attr.ID)
	}
	dyn := r.tmpl.DynamicAttributes[attr.ID]
	if dyn.Kind != rsxhot.AttrNamed || dyn.Named.Value.Kind != rsxhot.AttrValueLiteral {
		return html.Attribute{}, false, nil
	}

	val, err := literal(*dyn.Named.Value.Literal, r.values.DynamicText)
	if err != nil {
		return html.Attribute{}, false, fmt.Errorf("attribute %s: %w", dyn.Named.Name, err)
	}
	return html.Attribute{Namespace: dyn.Named.Namespace, Key: dyn.Named.Name, Val: val}, true, nil
}

func literal(lit rsxhot.HotReloadLiteral, dynamicText []string) (string, error) {
	switch {
	case lit.Fmted != nil:
		return lit.Fmted.RenderWith(dynamicText)
	case lit.Kind == rsx.LiteralInt:
		return strconv.FormatInt(lit.Int, 10), nil
	case lit.Kind == rsx.LiteralFloat:
		return strconv.FormatFloat(lit.Float, 'g', -1, 64), nil
	default:
		return strconv.FormatBool(lit.Bool), nil
	}
}

// PlaceholderValues returns values that render every pool reference of tmpl
// as "{N}".
func PlaceholderValues(tmpl *rsxhot.HotReloadedTemplate) Values {
	size := 0
	grow := func(f *rsxhot.FmtedSegments) {
		if f == nil {
			return
		}
		for _, seg := range f.Segments {
			if seg.IsDynamic() && *seg.Dynamic+1 > size {
				size = *seg.Dynamic + 1
			}
		}
	}
	for i := range tmpl.DynamicNodes {
		if tmpl.DynamicNodes[i].Kind == rsxhot.NodeFormatted {
			grow(tmpl.DynamicNodes[i].Formatted)
		}
	}
	for _, attr := range tmpl.DynamicAttributes {
		if attr.Kind == rsxhot.AttrNamed && attr.Named.Value.Kind == rsxhot.AttrValueLiteral && attr.Named.Value.Literal != nil {
			grow(attr.Named.Value.Literal.Fmted)
		}
	}

	text := make([]string, size)
	for i := range text {
		text[i] = "{" + strconv.Itoa(i) + "}"
	}
	return Values{DynamicText: text}
}
