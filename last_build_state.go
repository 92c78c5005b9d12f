package rsxhot

import (
	"github.com/livefir/rsxhot/rsx"
)

type bakedItem[T any] struct {
	inner T
	used  bool
}

// bakedPool holds the dynamic items of the last full build together with a
// used flag per item. Items are never removed, so a new template may
// reference the same item more than once; the flags only feed scoring.
type bakedPool[T any] struct {
	items []bakedItem[T]
}

func newBakedPool[T any](items []T) *bakedPool[T] {
	p := &bakedPool[T]{items: make([]bakedItem[T], len(items))}
	for i, item := range items {
		p.items[i].inner = item
	}
	return p
}

// position returns the index of the first item matching cond and marks it
// used.
func (p *bakedPool[T]) position(cond func(T) bool) (int, bool) {
	for i := range p.items {
		if cond(p.items[i].inner) {
			p.items[i].used = true
			return i, true
		}
	}
	return 0, false
}

func (p *bakedPool[T]) markUsed(i int) {
	p.items[i].used = true
}

func (p *bakedPool[T]) unused() int {
	n := 0
	for _, item := range p.items {
		if !item.used {
			n++
		}
	}
	return n
}

func (p *bakedPool[T]) reset() {
	for i := range p.items {
		p.items[i].used = false
	}
}

// LastBuildState indexes the dynamic items of a body as it was compiled in
// the last full build.
type LastBuildState struct {
	dynamicTextSegments *bakedPool[rsx.FormattedSegment]
	dynamicNodes        *bakedPool[rsx.BodyNode]
	dynamicAttributes   *bakedPool[*rsx.Attribute]
	componentProperties []rsx.HotLiteral

	// RootIndex is the template index of the indexed body.
	RootIndex int
	// Name identifies the call the body belongs to.
	Name string
}

// NewLastBuildState indexes body.
func NewLastBuildState(body *rsx.TemplateBody, name string) *LastBuildState {
	return &LastBuildState{
		dynamicTextSegments: newBakedPool(body.DynamicTextSegments),
		dynamicNodes:        newBakedPool(body.DynamicNodes()),
		dynamicAttributes:   newBakedPool(body.DynamicAttributes()),
		componentProperties: body.LiteralComponentProperties(),
		RootIndex:           body.TemplateIdx,
		Name:                name,
	}
}

// UnusedDynamicItems counts the text segments, nodes and attributes that
// have not been referenced yet. Lower is a better match.
func (s *LastBuildState) UnusedDynamicItems() int {
	return s.dynamicTextSegments.unused() + s.dynamicNodes.unused() + s.dynamicAttributes.unused()
}

// ResetDynamicItems clears all used flags.
func (s *LastBuildState) ResetDynamicItems() {
	s.dynamicTextSegments.reset()
	s.dynamicNodes.reset()
	s.dynamicAttributes.reset()
}

// ComponentProperties returns the literal component properties of the
// indexed body.
func (s *LastBuildState) ComponentProperties() []rsx.HotLiteral {
	return s.componentProperties
}

// HotReloadFormattedSegments re-expresses f in terms of the pooled
// segments. Every interpolation of f must already exist in the pool.
func (s *LastBuildState) HotReloadFormattedSegments(f rsx.FormattedString) (FmtedSegments, bool) {
	return matchSegments(s.dynamicTextSegments, f)
}

// HotReloadLiteral re-expresses a literal against the last build. Numbers
// and bools carry over as is.
func (s *LastBuildState) HotReloadLiteral(lit rsx.HotLiteral) (HotReloadLiteral, bool) {
	switch lit.Kind {
	case rsx.LiteralFmted:
		segs, ok := s.HotReloadFormattedSegments(lit.Fmted)
		if !ok {
			return HotReloadLiteral{}, false
		}
		return FmtedValue(segs), true
	case rsx.LiteralFloat:
		return FloatValue(lit.Float), true
	case rsx.LiteralInt:
		return IntValue(lit.Int), true
	default:
		return BoolValue(lit.Bool), true
	}
}

// MatchFormatted expresses newStr in terms of the interpolations of old.
// It fails if newStr interpolates something old does not; the same old
// interpolation may be referenced any number of times.
func MatchFormatted(old, newStr rsx.FormattedString) (FmtedSegments, bool) {
	return matchSegments(newBakedPool(old.DynamicSegments()), newStr)
}

func matchSegments(pool *bakedPool[rsx.FormattedSegment], f rsx.FormattedString) (FmtedSegments, bool) {
	out := FmtedSegments{Segments: make([]FmtSegment, 0, len(f.Segments))}
	for _, seg := range f.Segments {
		if !seg.IsFormatted() {
			out.Segments = append(out.Segments, LiteralSegment(seg.Literal))
			continue
		}
		want := *seg.Formatted
		idx, ok := pool.position(func(have rsx.FormattedSegment) bool {
			return have.Equal(want)
		})
		if !ok {
			return FmtedSegments{}, false
		}
		out.Segments = append(out.Segments, DynamicSegment(idx))
	}
	return out, true
}
