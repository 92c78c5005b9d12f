package rsx

import (
	"strings"
)

// NodeKind identifies the concrete type of a BodyNode.
type NodeKind uint8

const (
	KindElement NodeKind = iota
	KindText
	KindComponent
	KindForLoop
	KindIfChain
	KindRawExpr
)

func (k NodeKind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindComponent:
		return "component"
	case KindForLoop:
		return "for"
	case KindIfChain:
		return "if"
	case KindRawExpr:
		return "expr"
	}
	return "unknown"
}

// BodyNode is a node in a template body.
type BodyNode interface {
	Kind() NodeKind
	// DynamicIndex returns the node's index among the body's dynamic nodes.
	// Elements and static text are never dynamic.
	DynamicIndex() (int, bool)
}

type dynamicIndex struct {
	idx int
	set bool
}

func (d *dynamicIndex) get() (int, bool) { return d.idx, d.set }

func (d *dynamicIndex) assign(i int) {
	d.idx = i
	d.set = true
}

func (d *dynamicIndex) clear() { *d = dynamicIndex{} }

// Element is an HTML element.
type Element struct {
	Name             string
	RawAttributes    []*Attribute
	MergedAttributes []*Attribute
	Children         []BodyNode
	Diagnostics      []Diagnostic
}

// NewElement creates an element and merges its attributes.
func NewElement(name string, attrs []*Attribute, children ...BodyNode) *Element {
	merged, diags := mergeAttributes(name, attrs)
	return &Element{
		Name:             name,
		RawAttributes:    attrs,
		MergedAttributes: merged,
		Children:         children,
		Diagnostics:      diags,
	}
}

func (e *Element) Kind() NodeKind { return KindElement }

func (e *Element) DynamicIndex() (int, bool) { return 0, false }

// Key returns the value of the element's key attribute.
func (e *Element) Key() (AttributeValue, bool) {
	return findKey(e.RawAttributes)
}

// Text is a text node, possibly with interpolations.
type Text struct {
	Input FormattedString
	dyn   dynamicIndex
}

// NewText creates a text node.
func NewText(input FormattedString) *Text {
	return &Text{Input: input}
}

func (t *Text) Kind() NodeKind { return KindText }

func (t *Text) DynamicIndex() (int, bool) { return t.dyn.get() }

// IsStatic reports whether the text has no interpolations.
func (t *Text) IsStatic() bool { return t.Input.IsStatic() }

// Component is an invocation of a user component.
type Component struct {
	Name     string
	Fields   []*Attribute
	Children *TemplateBody
	dyn      dynamicIndex
}

// NewComponent creates a component; its children form their own body.
func NewComponent(name string, fields []*Attribute, children ...BodyNode) *Component {
	for _, f := range fields {
		f.ElementName = name
	}
	return &Component{
		Name:     name,
		Fields:   fields,
		Children: NewTemplateBody(children...),
	}
}

func (c *Component) Kind() NodeKind { return KindComponent }

func (c *Component) DynamicIndex() (int, bool) { return c.dyn.get() }

// Key returns the value of the component's key field.
func (c *Component) Key() (AttributeValue, bool) {
	return findKey(c.Fields)
}

// Props returns the fields excluding the key, in declaration order.
func (c *Component) Props() []*Attribute {
	props := make([]*Attribute, 0, len(c.Fields))
	for _, f := range c.Fields {
		if !f.Name.IsKey() {
			props = append(props, f)
		}
	}
	return props
}

// SameName reports whether both components refer to the same path,
// ignoring whitespace around path separators.
func (c *Component) SameName(other *Component) bool {
	return strings.Join(strings.Fields(c.Name), "") == strings.Join(strings.Fields(other.Name), "")
}

// ForLoop is `for pattern in iterable { body }`.
type ForLoop struct {
	Pattern  Expr
	Iterable Expr
	Body     *TemplateBody
	dyn      dynamicIndex
}

// NewForLoop creates a loop node.
func NewForLoop(pattern, iterable Expr, body ...BodyNode) *ForLoop {
	return &ForLoop{Pattern: pattern, Iterable: iterable, Body: NewTemplateBody(body...)}
}

func (f *ForLoop) Kind() NodeKind { return KindForLoop }

func (f *ForLoop) DynamicIndex() (int, bool) { return f.dyn.get() }

// IfChain is `if cond { then } else if ... else { ... }`.
type IfChain struct {
	Cond   Expr
	Then   *TemplateBody
	ElseIf *IfChain
	Else   *TemplateBody
	dyn    dynamicIndex
}

// NewIfChain creates an if chain with a single then branch.
func NewIfChain(cond Expr, then ...BodyNode) *IfChain {
	return &IfChain{Cond: cond, Then: NewTemplateBody(then...)}
}

// WithElseIf attaches the next link of the chain and returns the receiver.
func (c *IfChain) WithElseIf(next *IfChain) *IfChain {
	c.last().ElseIf = next
	return c
}

// WithElse sets the trailing else branch and returns the receiver.
func (c *IfChain) WithElse(nodes ...BodyNode) *IfChain {
	c.last().Else = NewTemplateBody(nodes...)
	return c
}

func (c *IfChain) last() *IfChain {
	link := c
	for link.ElseIf != nil {
		link = link.ElseIf
	}
	return link
}

// Branches returns every branch body in order: then branches down the
// chain followed by the else branch.
func (c *IfChain) Branches() []*TemplateBody {
	var out []*TemplateBody
	link := c
	for {
		out = append(out, link.Then)
		if link.ElseIf == nil {
			break
		}
		link = link.ElseIf
	}
	if link.Else != nil {
		out = append(out, link.Else)
	}
	return out
}

func (c *IfChain) Kind() NodeKind { return KindIfChain }

func (c *IfChain) DynamicIndex() (int, bool) { return c.dyn.get() }

// RawExpr is an expression in node position, e.g. {children}.
type RawExpr struct {
	Expr Expr
	dyn  dynamicIndex
}

// NewRawExpr creates an expression node.
func NewRawExpr(e Expr) *RawExpr {
	return &RawExpr{Expr: e}
}

func (r *RawExpr) Kind() NodeKind { return KindRawExpr }

func (r *RawExpr) DynamicIndex() (int, bool) { return r.dyn.get() }

func findKey(attrs []*Attribute) (AttributeValue, bool) {
	for _, a := range attrs {
		if a.Name.IsKey() {
			return a.Value, true
		}
	}
	return AttributeValue{}, false
}
