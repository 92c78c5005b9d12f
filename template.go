package rsxhot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/livefir/rsxhot/rsx"
)

// FmtSegment is one piece of a hot-reloaded formatted string: literal text
// or a reference into the last build's pool of formatted segments.
type FmtSegment struct {
	Literal string `json:"literal,omitempty"`
	Dynamic *int   `json:"dynamic,omitempty"`
}

// LiteralSegment creates a literal segment.
func LiteralSegment(value string) FmtSegment {
	return FmtSegment{Literal: value}
}

// DynamicSegment creates a segment referencing pool slot id.
func DynamicSegment(id int) FmtSegment {
	return FmtSegment{Dynamic: &id}
}

// IsDynamic reports whether the segment references the pool.
func (s FmtSegment) IsDynamic() bool {
	return s.Dynamic != nil
}

// FmtedSegments is a formatted string expressed against the last build.
type FmtedSegments struct {
	Segments []FmtSegment `json:"segments,omitempty"`
}

// NewFmtedSegments wraps segments.
func NewFmtedSegments(segments ...FmtSegment) FmtedSegments {
	return FmtedSegments{Segments: segments}
}

// RenderWith renders the string using the evaluated pool of the last build.
func (f FmtedSegments) RenderWith(dynamicText []string) (string, error) {
	var b strings.Builder
	for _, seg := range f.Segments {
		if !seg.IsDynamic() {
			b.WriteString(seg.Literal)
			continue
		}
		id := *seg.Dynamic
		if id < 0 || id >= len(dynamicText) {
			return "", fmt.Errorf("dynamic segment %d out of range (pool has %d)", id, len(dynamicText))
		}
		b.WriteString(dynamicText[id])
	}
	return b.String(), nil
}

// HotReloadLiteral is a literal value re-expressed against the last build.
type HotReloadLiteral struct {
	Kind  rsx.LiteralKind `json:"kind"`
	Fmted *FmtedSegments  `json:"fmted,omitempty"`
	Float float64         `json:"float,omitempty"`
	Int   int64           `json:"int,omitempty"`
	Bool  bool            `json:"bool,omitempty"`
}

// FmtedValue creates a formatted literal.
func FmtedValue(f FmtedSegments) HotReloadLiteral {
	return HotReloadLiteral{Kind: rsx.LiteralFmted, Fmted: &f}
}

// IntValue creates an integer literal.
func IntValue(v int64) HotReloadLiteral { return HotReloadLiteral{Kind: rsx.LiteralInt, Int: v} }

// FloatValue creates a float literal.
func FloatValue(v float64) HotReloadLiteral {
	return HotReloadLiteral{Kind: rsx.LiteralFloat, Float: v}
}

// BoolValue creates a bool literal.
func BoolValue(v bool) HotReloadLiteral { return HotReloadLiteral{Kind: rsx.LiteralBool, Bool: v} }

// DynamicNodeKind identifies a DynamicNodeRef variant.
type DynamicNodeKind uint8

const (
	// NodeDynamic reuses dynamic node Index of the last build.
	NodeDynamic DynamicNodeKind = iota
	// NodeFormatted is a text node rendered from formatted segments.
	NodeFormatted
)

// DynamicNodeRef describes one dynamic node of a hot-reloaded template.
type DynamicNodeRef struct {
	Kind      DynamicNodeKind `json:"kind"`
	Index     int             `json:"index,omitempty"`
	Formatted *FmtedSegments  `json:"formatted,omitempty"`
}

// DynamicNode references dynamic node index of the last build.
func DynamicNode(index int) DynamicNodeRef {
	return DynamicNodeRef{Kind: NodeDynamic, Index: index}
}

// FormattedNode creates a text node from segments.
func FormattedNode(f FmtedSegments) DynamicNodeRef {
	return DynamicNodeRef{Kind: NodeFormatted, Formatted: &f}
}

// AttributeValueKind identifies a HotReloadAttributeValue variant.
type AttributeValueKind uint8

const (
	AttrValueLiteral AttributeValueKind = iota
	AttrValueDynamic
)

// HotReloadAttributeValue is a literal or a reference to a dynamic
// attribute value of the last build.
type HotReloadAttributeValue struct {
	Kind    AttributeValueKind `json:"kind"`
	Literal *HotReloadLiteral  `json:"literal,omitempty"`
	Index   int                `json:"index,omitempty"`
}

// LiteralAttrValue wraps a literal.
func LiteralAttrValue(l HotReloadLiteral) HotReloadAttributeValue {
	return HotReloadAttributeValue{Kind: AttrValueLiteral, Literal: &l}
}

// DynamicAttrValue references dynamic attribute index of the last build.
func DynamicAttrValue(index int) HotReloadAttributeValue {
	return HotReloadAttributeValue{Kind: AttrValueDynamic, Index: index}
}

// NamedAttribute is a dynamic attribute rebuilt under a (possibly new) name.
type NamedAttribute struct {
	Name      string                  `json:"name"`
	Namespace string                  `json:"namespace,omitempty"`
	Value     HotReloadAttributeValue `json:"value"`
}

// DynamicAttributeKind identifies a HotReloadDynamicAttribute variant.
type DynamicAttributeKind uint8

const (
	// AttrDynamic reuses dynamic attribute Index wholesale, e.g. a spread.
	AttrDynamic DynamicAttributeKind = iota
	AttrNamed
)

// HotReloadDynamicAttribute describes one dynamic attribute of a
// hot-reloaded template.
type HotReloadDynamicAttribute struct {
	Kind  DynamicAttributeKind `json:"kind"`
	Index int                  `json:"index,omitempty"`
	Named *NamedAttribute      `json:"named,omitempty"`
}

// DynamicAttribute reuses dynamic attribute index of the last build.
func DynamicAttribute(index int) HotReloadDynamicAttribute {
	return HotReloadDynamicAttribute{Kind: AttrDynamic, Index: index}
}

// Named creates a named dynamic attribute.
func Named(name, namespace string, value HotReloadAttributeValue) HotReloadDynamicAttribute {
	return HotReloadDynamicAttribute{
		Kind:  AttrNamed,
		Named: &NamedAttribute{Name: name, Namespace: namespace, Value: value},
	}
}

// TemplateNodeKind identifies a TemplateNode variant.
type TemplateNodeKind uint8

const (
	TemplateElement TemplateNodeKind = iota
	TemplateText
	TemplateDynamic
	TemplateDynamicText
)

// TemplateNode is a static node of a template or a placeholder for a
// dynamic node.
type TemplateNode struct {
	Kind      TemplateNodeKind    `json:"kind"`
	Tag       string              `json:"tag,omitempty"`
	Namespace string              `json:"namespace,omitempty"`
	Attrs     []TemplateAttribute `json:"attrs,omitempty"`
	Children  []TemplateNode      `json:"children,omitempty"`
	Text      string              `json:"text,omitempty"`
	ID        int                 `json:"id,omitempty"`
}

// ElementNode creates an element template node.
func ElementNode(tag, namespace string, attrs []TemplateAttribute, children ...TemplateNode) TemplateNode {
	return TemplateNode{Kind: TemplateElement, Tag: tag, Namespace: namespace, Attrs: attrs, Children: children}
}

// TextNode creates a static text node.
func TextNode(text string) TemplateNode {
	return TemplateNode{Kind: TemplateText, Text: text}
}

// DynamicPlaceholder creates a placeholder for dynamic node id.
func DynamicPlaceholder(id int) TemplateNode {
	return TemplateNode{Kind: TemplateDynamic, ID: id}
}

// DynamicTextPlaceholder creates a placeholder for a dynamic text node id.
func DynamicTextPlaceholder(id int) TemplateNode {
	return TemplateNode{Kind: TemplateDynamicText, ID: id}
}

// TemplateAttributeKind identifies a TemplateAttribute variant.
type TemplateAttributeKind uint8

const (
	AttributeStatic TemplateAttributeKind = iota
	AttributeDynamic
)

// TemplateAttribute is a static attribute or a placeholder for a dynamic
// one.
type TemplateAttribute struct {
	Kind      TemplateAttributeKind `json:"kind"`
	Name      string                `json:"name,omitempty"`
	Namespace string                `json:"namespace,omitempty"`
	Value     string                `json:"value,omitempty"`
	ID        int                   `json:"id,omitempty"`
}

// StaticAttribute creates a static attribute.
func StaticAttribute(name, namespace, value string) TemplateAttribute {
	return TemplateAttribute{Kind: AttributeStatic, Name: name, Namespace: namespace, Value: value}
}

// DynamicAttributePlaceholder creates a placeholder for dynamic attribute id.
func DynamicAttributePlaceholder(id int) TemplateAttribute {
	return TemplateAttribute{Kind: AttributeDynamic, ID: id}
}

// HotReloadedTemplate is a new template for one body, expressed in terms of
// the dynamic values the last full build already produces.
type HotReloadedTemplate struct {
	Key               *FmtedSegments              `json:"key,omitempty"`
	Roots             []TemplateNode              `json:"roots,omitempty"`
	DynamicNodes      []DynamicNodeRef            `json:"dynamic_nodes,omitempty"`
	DynamicAttributes []HotReloadDynamicAttribute `json:"dynamic_attributes,omitempty"`
	ComponentValues   []HotReloadLiteral          `json:"component_values,omitempty"`
}

// Equal reports whether both templates have the same wire form. Nil and
// empty slices compare equal.
func (t *HotReloadedTemplate) Equal(other *HotReloadedTemplate) bool {
	if t == nil || other == nil {
		return t == other
	}
	a, errA := json.Marshal(t)
	b, errB := json.Marshal(other)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// NodePaths returns the path from the roots to every dynamic node
// placeholder, indexed by placeholder id.
func (t *HotReloadedTemplate) NodePaths() [][]int {
	var paths [][]int
	walkTemplate(t.Roots, nil, func(node TemplateNode, path []int) {
		if node.Kind != TemplateDynamic && node.Kind != TemplateDynamicText {
			return
		}
		paths = placeAt(paths, node.ID, path)
	})
	return paths
}

// AttrPaths returns the path of the element owning every dynamic attribute
// placeholder, indexed by placeholder id.
func (t *HotReloadedTemplate) AttrPaths() [][]int {
	var paths [][]int
	walkTemplate(t.Roots, nil, func(node TemplateNode, path []int) {
		for _, attr := range node.Attrs {
			if attr.Kind == AttributeDynamic {
				paths = placeAt(paths, attr.ID, path)
			}
		}
	})
	return paths
}

func walkTemplate(nodes []TemplateNode, parent []int, visit func(TemplateNode, []int)) {
	for i, node := range nodes {
		path := append(append([]int(nil), parent...), i)
		visit(node, path)
		walkTemplate(node.Children, path, visit)
	}
}

func placeAt(paths [][]int, id int, path []int) [][]int {
	for len(paths) <= id {
		paths = append(paths, nil)
	}
	paths[id] = path
	return paths
}
