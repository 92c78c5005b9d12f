package rsx

// Context maps element and attribute names as written in templates to the
// tag, attribute name and namespace the renderer expects.
type Context interface {
	MapElement(element string) (tag, namespace string, ok bool)
	MapAttribute(element, attribute string) (name, namespace string, ok bool)
}

// DefaultContext maps nothing; names are used as written.
type DefaultContext struct{}

func (DefaultContext) MapElement(string) (string, string, bool) { return "", "", false }

func (DefaultContext) MapAttribute(string, string) (string, string, bool) { return "", "", false }

// Mapping is a renamed tag or attribute with an optional namespace.
type Mapping struct {
	Name      string `yaml:"name" json:"name"`
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`
}

// TableContext is a Context backed by lookup tables.
type TableContext struct {
	Elements   map[string]Mapping            `yaml:"elements" json:"elements"`
	Attributes map[string]map[string]Mapping `yaml:"attributes" json:"attributes"`
}

func (t TableContext) MapElement(element string) (string, string, bool) {
	m, ok := t.Elements[element]
	if !ok {
		return "", "", false
	}
	return m.Name, m.Namespace, true
}

func (t TableContext) MapAttribute(element, attribute string) (string, string, bool) {
	m, ok := t.Attributes[element][attribute]
	if !ok {
		return "", "", false
	}
	return m.Name, m.Namespace, true
}

// ElementTag resolves an element's tag and namespace through ctx.
func ElementTag(ctx Context, element string) (string, string) {
	if ctx != nil {
		if tag, ns, ok := ctx.MapElement(element); ok {
			return tag, ns
		}
	}
	return element, ""
}

// AttributeTag resolves an attribute's name and namespace through ctx.
// Custom names are never mapped.
func AttributeTag(ctx Context, attr *Attribute) (string, string) {
	if ctx != nil && attr.Name.Kind == NameBuiltIn {
		if name, ns, ok := ctx.MapAttribute(attr.ElementName, attr.Name.Name); ok {
			return name, ns
		}
	}
	return attr.Name.Name, ""
}
