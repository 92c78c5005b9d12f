package rsxhot

import (
	"maps"
	"math"
	"slices"

	"github.com/livefir/rsxhot/rsx"
)

// HotReloadResult is the outcome of diffing a new body against the body of
// the last full build.
//
// Every nested body (component children, loop bodies, if branches) becomes
// its own template. Templates holds one entry per old template index that was
// matched; a nested body is matched at most once so two new bodies can never
// claim the same old template.
type HotReloadResult struct {
	Templates map[int]*HotReloadedTemplate

	ctx               rsx.Context
	fullRebuildState  *LastBuildState
	dynamicNodes      []DynamicNodeRef
	dynamicAttributes []HotReloadDynamicAttribute
	componentValues   []HotReloadLiteral
}

// Compute diffs two call bodies and returns the new templates keyed by the
// old template index, or false if the change needs a full rebuild.
func Compute(ctx rsx.Context, old, next *rsx.CallBody, name string) (map[int]*HotReloadedTemplate, bool) {
	res, ok := NewHotReloadResult(ctx, old.Body, next.Body, name)
	if !ok {
		return nil, false
	}
	return res.Templates, true
}

// NewHotReloadResult diffs next against old. Both bodies are normalized
// first so an empty body can be filled or emptied like any other.
func NewHotReloadResult(ctx rsx.Context, old, next *rsx.TemplateBody, name string) (*HotReloadResult, bool) {
	if ctx == nil {
		ctx = rsx.DefaultContext{}
	}
	old = old.Normalized()
	next = next.Normalized()

	r := &HotReloadResult{
		Templates:        make(map[int]*HotReloadedTemplate),
		ctx:              ctx,
		fullRebuildState: NewLastBuildState(old, name),
	}
	if !r.hotReloadBody(next) {
		return nil, false
	}
	return r, true
}

// UnusedDynamicItems scores the result: the number of dynamic items of the
// old body the new body left unreferenced.
func (r *HotReloadResult) UnusedDynamicItems() int {
	return r.fullRebuildState.UnusedDynamicItems()
}

func (r *HotReloadResult) extend(other *HotReloadResult) {
	maps.Copy(r.Templates, other.Templates)
}

// hotReloadBody walks attributes first, then dynamic nodes, then the key,
// and records the resulting template under the old body's index.
func (r *HotReloadResult) hotReloadBody(next *rsx.TemplateBody) bool {
	for _, attr := range next.DynamicAttributes() {
		if !r.hotReloadAttribute(attr) {
			return false
		}
	}
	attrs := r.dynamicAttributes
	r.dynamicAttributes = nil

	for _, node := range next.DynamicNodes() {
		if !r.hotReloadNode(node) {
			return false
		}
	}
	nodes := r.dynamicNodes
	values := r.componentValues
	r.dynamicNodes, r.componentValues = nil, nil

	key, ok := r.hotReloadKey(next)
	if !ok {
		return false
	}

	r.Templates[r.fullRebuildState.RootIndex] = &HotReloadedTemplate{
		Key:               key,
		Roots:             renderRoots(r.ctx, next.Roots),
		DynamicNodes:      nodes,
		DynamicAttributes: attrs,
		ComponentValues:   values,
	}
	return true
}

func (r *HotReloadResult) hotReloadKey(next *rsx.TemplateBody) (*FmtedSegments, bool) {
	key, ok := next.ImplicitKey()
	if !ok {
		return nil, true
	}
	if key.Kind != rsx.ValueLiteral || key.Literal.Kind != rsx.LiteralFmted {
		return nil, false
	}
	segs, ok := r.fullRebuildState.HotReloadFormattedSegments(key.Literal.Fmted)
	if !ok {
		return nil, false
	}
	return &segs, true
}

func (r *HotReloadResult) hotReloadNode(node rsx.BodyNode) bool {
	switch n := node.(type) {
	case *rsx.Text:
		return r.hotReloadText(n)
	case *rsx.RawExpr:
		return r.hotReloadRawExpr(n)
	case *rsx.ForLoop:
		return r.hotReloadForLoop(n)
	case *rsx.Component:
		return r.hotReloadComponent(n)
	case *rsx.IfChain:
		return r.hotReloadIfChain(n)
	}
	return true
}

func (r *HotReloadResult) hotReloadText(text *rsx.Text) bool {
	if text.IsStatic() {
		return true
	}
	segs, ok := r.fullRebuildState.HotReloadFormattedSegments(text.Input)
	if !ok {
		return false
	}
	r.dynamicNodes = append(r.dynamicNodes, FormattedNode(segs))
	return true
}

func (r *HotReloadResult) hotReloadRawExpr(expr *rsx.RawExpr) bool {
	idx, ok := r.fullRebuildState.dynamicNodes.position(func(node rsx.BodyNode) bool {
		old, ok := node.(*rsx.RawExpr)
		return ok && old.Expr.Equal(expr.Expr)
	})
	if !ok {
		return false
	}
	r.dynamicNodes = append(r.dynamicNodes, DynamicNode(idx))
	return true
}

func (r *HotReloadResult) hotReloadForLoop(loop *rsx.ForLoop) bool {
	var (
		indexes []int
		bodies  []*rsx.TemplateBody
	)
	for i, item := range r.fullRebuildState.dynamicNodes.items {
		old, ok := item.inner.(*rsx.ForLoop)
		if ok && old.Pattern.Equal(loop.Pattern) && old.Iterable.Equal(loop.Iterable) {
			indexes = append(indexes, i)
			bodies = append(bodies, old.Body)
		}
	}

	best, sub, ok := r.diffBestCallBody(bodies, loop.Body)
	if !ok {
		return false
	}
	r.fullRebuildState.dynamicNodes.markUsed(indexes[best])
	r.dynamicNodes = append(r.dynamicNodes, DynamicNode(indexes[best]))
	r.extend(sub)
	return true
}

type componentCandidate struct {
	index  int
	values []HotReloadLiteral
}

func (r *HotReloadResult) hotReloadComponent(comp *rsx.Component) bool {
	var (
		candidates []componentCandidate
		bodies     []*rsx.TemplateBody
	)
	for i, item := range r.fullRebuildState.dynamicNodes.items {
		old, ok := item.inner.(*rsx.Component)
		if !ok {
			continue
		}
		values, ok := r.hotReloadComponentFields(old, comp)
		if !ok {
			continue
		}
		candidates = append(candidates, componentCandidate{index: i, values: values})
		bodies = append(bodies, old.Children)
	}

	best, sub, ok := r.diffBestCallBody(bodies, comp.Children)
	if !ok {
		return false
	}
	chosen := candidates[best]
	r.fullRebuildState.dynamicNodes.markUsed(chosen.index)
	r.componentValues = append(r.componentValues, chosen.values...)
	r.extend(sub)
	r.dynamicNodes = append(r.dynamicNodes, DynamicNode(chosen.index))
	return true
}

// hotReloadComponentFields checks that two components share a name and a
// set of properties. Literal properties of the same kind may change; all
// other properties must be identical. The returned literals follow the
// declaration order of the old component.
func (r *HotReloadResult) hotReloadComponentFields(old, next *rsx.Component) ([]HotReloadLiteral, bool) {
	if !old.SameName(next) {
		return nil, false
	}
	oldProps, newProps := old.Props(), next.Props()
	if len(oldProps) != len(newProps) {
		return nil, false
	}

	type indexed struct {
		decl int
		attr *rsx.Attribute
	}
	oldSorted := make([]indexed, len(oldProps))
	for i, p := range oldProps {
		oldSorted[i] = indexed{decl: i, attr: p}
	}
	slices.SortStableFunc(oldSorted, func(a, b indexed) int {
		return compareNames(a.attr, b.attr)
	})
	newSorted := slices.Clone(newProps)
	slices.SortStableFunc(newSorted, compareNames)

	values := make([]*HotReloadLiteral, len(oldProps))
	for i, newProp := range newSorted {
		oldProp := oldSorted[i]
		if newProp.Name.String() != oldProp.attr.Name.String() {
			return nil, false
		}
		nv, ov := newProp.Value, oldProp.attr.Value
		if nv.Kind == rsx.ValueLiteral && ov.Kind == rsx.ValueLiteral {
			if nv.Literal.Kind != ov.Literal.Kind {
				return nil, false
			}
			lit, ok := r.fullRebuildState.HotReloadLiteral(nv.Literal)
			if !ok {
				return nil, false
			}
			values[oldProp.decl] = &lit
			continue
		}
		if !nv.Equal(ov) {
			return nil, false
		}
	}

	var out []HotReloadLiteral
	for _, v := range values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out, true
}

func compareNames(a, b *rsx.Attribute) int {
	an, bn := a.Name.String(), b.Name.String()
	switch {
	case an < bn:
		return -1
	case an > bn:
		return 1
	}
	return 0
}

func (r *HotReloadResult) hotReloadIfChain(chain *rsx.IfChain) bool {
	var (
		bestIndex = -1
		bestScore = math.MaxInt
		bestSubs  []*HotReloadResult
	)
	for i, item := range r.fullRebuildState.dynamicNodes.items {
		old, ok := item.inner.(*rsx.IfChain)
		if !ok || r.claimed(old.Branches()) {
			continue
		}
		subs, ok := r.diffIfChains(old, chain)
		if !ok {
			continue
		}
		score := 0
		for _, s := range subs {
			score += s.UnusedDynamicItems()
		}
		if score < bestScore {
			bestIndex, bestScore, bestSubs = i, score, subs
		}
	}
	if bestIndex < 0 {
		return false
	}

	r.fullRebuildState.dynamicNodes.markUsed(bestIndex)
	for _, s := range bestSubs {
		r.extend(s)
	}
	r.dynamicNodes = append(r.dynamicNodes, DynamicNode(bestIndex))
	return true
}

// claimed reports whether any of bodies already has a template in the
// result.
func (r *HotReloadResult) claimed(bodies []*rsx.TemplateBody) bool {
	for _, body := range bodies {
		if _, ok := r.Templates[body.TemplateIdx]; ok {
			return true
		}
	}
	return false
}

// diffIfChains requires both chains to have identical conditions and the
// same shape, and diffs every branch against its counterpart.
func (r *HotReloadResult) diffIfChains(old, next *rsx.IfChain) ([]*HotReloadResult, bool) {
	var subs []*HotReloadResult
	oldLink, newLink := old, next
	for {
		if !oldLink.Cond.Equal(newLink.Cond) {
			return nil, false
		}
		sub, ok := NewHotReloadResult(r.ctx, oldLink.Then, newLink.Then, r.fullRebuildState.Name)
		if !ok {
			return nil, false
		}
		subs = append(subs, sub)

		switch {
		case oldLink.ElseIf != nil && newLink.ElseIf != nil:
			oldLink, newLink = oldLink.ElseIf, newLink.ElseIf
			continue
		case oldLink.ElseIf == nil && newLink.ElseIf == nil:
		default:
			return nil, false
		}
		break
	}

	switch {
	case oldLink.Else != nil && newLink.Else != nil:
		sub, ok := NewHotReloadResult(r.ctx, oldLink.Else, newLink.Else, r.fullRebuildState.Name)
		if !ok {
			return nil, false
		}
		subs = append(subs, sub)
	case oldLink.Else != nil || newLink.Else != nil:
		return nil, false
	}
	return subs, true
}

// diffBestCallBody hot reloads new against every candidate body and picks
// the one that leaves the fewest unused dynamic items. Bodies whose template
// was already claimed are skipped; ties keep the earliest candidate.
func (r *HotReloadResult) diffBestCallBody(bodies []*rsx.TemplateBody, next *rsx.TemplateBody) (int, *HotReloadResult, bool) {
	var (
		bestIndex = -1
		bestScore = math.MaxInt
		best      *HotReloadResult
	)
	for i, body := range bodies {
		if r.claimed([]*rsx.TemplateBody{body}) {
			continue
		}
		sub, ok := NewHotReloadResult(r.ctx, body, next, r.fullRebuildState.Name)
		if !ok {
			continue
		}
		if score := sub.UnusedDynamicItems(); score < bestScore {
			bestIndex, bestScore, best = i, score, sub
		}
	}
	if best == nil {
		return 0, nil, false
	}
	return bestIndex, best, true
}

// hotReloadAttribute matches one dynamic attribute of the new body.
func (r *HotReloadResult) hotReloadAttribute(attr *rsx.Attribute) bool {
	pool := r.fullRebuildState.dynamicAttributes

	if attr.Name.IsSpread() {
		idx, ok := pool.position(func(old *rsx.Attribute) bool {
			return old.Name.Equal(attr.Name) && old.Value.Equal(attr.Value)
		})
		if !ok {
			return false
		}
		r.dynamicAttributes = append(r.dynamicAttributes, DynamicAttribute(idx))
		return true
	}

	name, namespace := rsx.AttributeTag(r.ctx, attr)

	var value HotReloadAttributeValue
	if attr.Value.Kind == rsx.ValueLiteral {
		if attr.Value.Literal.IsStatic() {
			return true
		}
		lit, ok := r.fullRebuildState.HotReloadLiteral(attr.Value.Literal)
		if !ok {
			return false
		}
		value = LiteralAttrValue(lit)
	} else {
		idx, ok := pool.position(func(old *rsx.Attribute) bool {
			if old.Name.IsSpread() || !old.Value.Equal(attr.Value) {
				return false
			}
			// Handler types depend on the event, so handlers only move
			// between attributes of the same name.
			if old.Value.Kind == rsx.ValueEvent && !old.Name.Equal(attr.Name) {
				return false
			}
			return true
		})
		if !ok {
			return false
		}
		value = DynamicAttrValue(idx)
	}

	r.dynamicAttributes = append(r.dynamicAttributes, Named(name, namespace, value))
	return true
}
