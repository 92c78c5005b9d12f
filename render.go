package rsxhot

import (
	"github.com/livefir/rsxhot/rsx"
)

// renderRoots converts body roots into template nodes. Elements and static
// text are kept; everything else becomes a placeholder numbered by the
// node's dynamic index.
func renderRoots(ctx rsx.Context, roots []rsx.BodyNode) []TemplateNode {
	out := make([]TemplateNode, 0, len(roots))
	for _, root := range roots {
		out = append(out, renderNode(ctx, root))
	}
	return out
}

func renderNode(ctx rsx.Context, node rsx.BodyNode) TemplateNode {
	switch n := node.(type) {
	case *rsx.Element:
		tag, ns := rsx.ElementTag(ctx, n.Name)
		attrs := make([]TemplateAttribute, 0, len(n.MergedAttributes))
		for _, attr := range n.MergedAttributes {
			attrs = append(attrs, renderAttribute(ctx, attr))
		}
		return ElementNode(tag, ns, attrs, renderRoots(ctx, n.Children)...)
	case *rsx.Text:
		if text, ok := n.Input.ToStatic(); ok {
			return TextNode(text)
		}
		id, _ := n.DynamicIndex()
		return DynamicTextPlaceholder(id)
	}
	id, _ := node.DynamicIndex()
	return DynamicPlaceholder(id)
}

func renderAttribute(ctx rsx.Context, attr *rsx.Attribute) TemplateAttribute {
	if attr.IsStaticStrLiteral() {
		name, ns := rsx.AttributeTag(ctx, attr)
		value, _ := attr.Value.Literal.Fmted.ToStatic()
		return StaticAttribute(name, ns, value)
	}
	id, _ := attr.DynamicIndex()
	return DynamicAttributePlaceholder(id)
}
