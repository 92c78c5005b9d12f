package rsx

import (
	"slices"
)

// Diagnostic is a non-fatal problem found while building a body.
type Diagnostic struct {
	Message string
}

func (d Diagnostic) Error() string { return d.Message }

// AttrPath locates a dynamic attribute: the path of its element and the
// attribute's position among the element's merged attributes.
type AttrPath struct {
	Path  []int
	Index int
}

// TemplateBody is a sequence of root nodes compiled into one template.
// Creating a body assigns dynamic node and attribute indexes in depth-first
// order and collects the formatted segments that can be reused by a hot
// reload.
type TemplateBody struct {
	Roots []BodyNode
	// TemplateIdx is assigned by NewCallBody.
	TemplateIdx int
	// DynamicTextSegments is the pool of interpolations that belong to this
	// body, not to nested bodies.
	DynamicTextSegments []FormattedSegment
	Diagnostics         []Diagnostic

	nodePaths [][]int
	attrPaths []AttrPath
	dynNodes  []BodyNode
	dynAttrs  []*Attribute
}

// NewTemplateBody creates a body from its roots.
func NewTemplateBody(roots ...BodyNode) *TemplateBody {
	b := &TemplateBody{Roots: roots}
	b.assignPaths(roots, nil)
	b.validateKey()
	return b
}

func (b *TemplateBody) assignPaths(nodes []BodyNode, parent []int) {
	for i, node := range nodes {
		path := append(slices.Clone(parent), i)

		switch n := node.(type) {
		case *Element:
			b.Diagnostics = append(b.Diagnostics, n.Diagnostics...)
			if key, ok := n.Key(); ok {
				b.poolValue(key)
			}
			for ai, attr := range n.MergedAttributes {
				if attr.IsStaticStrLiteral() {
					attr.dyn.clear()
					continue
				}
				attr.dyn.assign(len(b.dynAttrs))
				b.dynAttrs = append(b.dynAttrs, attr)
				b.attrPaths = append(b.attrPaths, AttrPath{Path: path, Index: ai})
				b.poolValue(attr.Value)
			}
			b.assignPaths(n.Children, path)

		case *Text:
			if n.IsStatic() {
				n.dyn.clear()
				continue
			}
			b.pushNode(n, &n.dyn, path)
			b.DynamicTextSegments = append(b.DynamicTextSegments, n.Input.DynamicSegments()...)

		case *Component:
			b.pushNode(n, &n.dyn, path)
			if key, ok := n.Key(); ok {
				b.poolValue(key)
			}
			for _, prop := range n.Props() {
				b.poolValue(prop.Value)
			}

		case *ForLoop:
			b.pushNode(n, &n.dyn, path)
		case *IfChain:
			b.pushNode(n, &n.dyn, path)
		case *RawExpr:
			b.pushNode(n, &n.dyn, path)
		}
	}
}

func (b *TemplateBody) pushNode(node BodyNode, dyn *dynamicIndex, path []int) {
	dyn.assign(len(b.dynNodes))
	b.dynNodes = append(b.dynNodes, node)
	b.nodePaths = append(b.nodePaths, path)
}

func (b *TemplateBody) poolValue(v AttributeValue) {
	if v.Kind == ValueLiteral && v.Literal.Kind == LiteralFmted {
		b.DynamicTextSegments = append(b.DynamicTextSegments, v.Literal.Fmted.DynamicSegments()...)
	}
}

func (b *TemplateBody) validateKey() {
	key, ok := b.ImplicitKey()
	if !ok {
		return
	}
	switch {
	case key.Kind != ValueLiteral || key.Literal.Kind != LiteralFmted:
		b.Diagnostics = append(b.Diagnostics, Diagnostic{
			Message: "key must be a string literal, found " + key.String(),
		})
	case key.Literal.Fmted.IsStatic():
		b.Diagnostics = append(b.Diagnostics, Diagnostic{
			Message: "key is a static string and will be the same for every item; use a formatted string such as \"{id}\"",
		})
	}
}

// IsEmpty reports whether the body has no roots.
func (b *TemplateBody) IsEmpty() bool {
	return len(b.Roots) == 0
}

// Normalized returns the body itself unless it is empty, in which case a
// body holding a single placeholder expression () is returned. The template
// index and diagnostics are carried over.
func (b *TemplateBody) Normalized() *TemplateBody {
	if !b.IsEmpty() {
		return b
	}
	n := NewTemplateBody(NewRawExpr(NewExpr("()")))
	n.TemplateIdx = b.TemplateIdx
	n.Diagnostics = b.Diagnostics
	return n
}

// ImplicitKey returns the key of the first root if it is an element or a
// component.
func (b *TemplateBody) ImplicitKey() (AttributeValue, bool) {
	if len(b.Roots) == 0 {
		return AttributeValue{}, false
	}
	switch n := b.Roots[0].(type) {
	case *Element:
		return n.Key()
	case *Component:
		return n.Key()
	}
	return AttributeValue{}, false
}

// DynamicNodes returns the body's dynamic nodes in index order.
func (b *TemplateBody) DynamicNodes() []BodyNode {
	return b.dynNodes
}

// DynamicAttributes returns the body's dynamic attributes in index order.
func (b *TemplateBody) DynamicAttributes() []*Attribute {
	return b.dynAttrs
}

// NodePaths returns the path of each dynamic node from the roots.
func (b *TemplateBody) NodePaths() [][]int {
	return b.nodePaths
}

// AttrPaths returns the location of each dynamic attribute.
func (b *TemplateBody) AttrPaths() []AttrPath {
	return b.attrPaths
}

// LiteralComponentProperties returns the literal property values of every
// dynamic component, in dynamic node order and declaration order. Keys are
// excluded.
func (b *TemplateBody) LiteralComponentProperties() []HotLiteral {
	var out []HotLiteral
	for _, node := range b.dynNodes {
		comp, ok := node.(*Component)
		if !ok {
			continue
		}
		for _, prop := range comp.Props() {
			if prop.Value.Kind == ValueLiteral {
				out = append(out, prop.Value.Literal)
			}
		}
	}
	return out
}

// GetDynNode walks path from the roots and returns the node there.
func (b *TemplateBody) GetDynNode(path []int) (BodyNode, bool) {
	if len(path) == 0 {
		return nil, false
	}
	nodes := b.Roots
	var node BodyNode
	for depth, idx := range path {
		if idx < 0 || idx >= len(nodes) {
			return nil, false
		}
		node = nodes[idx]
		if depth == len(path)-1 {
			break
		}
		el, ok := node.(*Element)
		if !ok {
			return nil, false
		}
		nodes = el.Children
	}
	return node, true
}

// NestedBodies returns the bodies owned by this body's dynamic nodes in
// depth-first order: component children, loop bodies and if branches.
func (b *TemplateBody) NestedBodies() []*TemplateBody {
	var out []*TemplateBody
	for _, node := range b.dynNodes {
		switch n := node.(type) {
		case *Component:
			out = append(out, n.Children)
		case *ForLoop:
			out = append(out, n.Body)
		case *IfChain:
			out = append(out, n.Branches()...)
		}
	}
	return out
}

// CallBody is a single template invocation with its nested bodies indexed.
type CallBody struct {
	Body *TemplateBody

	templateCount int
}

// NewCallBody assigns template indexes: the root body is 0 and every nested
// body is numbered depth-first.
func NewCallBody(body *TemplateBody) *CallBody {
	c := &CallBody{Body: body}
	c.cascade(body)
	return c
}

func (c *CallBody) cascade(body *TemplateBody) {
	body.TemplateIdx = c.templateCount
	c.templateCount++
	for _, nested := range body.NestedBodies() {
		c.cascade(nested)
	}
}

// TemplateCount returns the number of templates in the call, including the
// root.
func (c *CallBody) TemplateCount() int {
	return c.templateCount
}

// Diagnostics collects diagnostics from every body in the call.
func (c *CallBody) Diagnostics() []Diagnostic {
	var out []Diagnostic
	var walk func(*TemplateBody)
	walk = func(b *TemplateBody) {
		out = append(out, b.Diagnostics...)
		for _, nested := range b.NestedBodies() {
			walk(nested)
		}
	}
	walk(c.Body)
	return out
}
