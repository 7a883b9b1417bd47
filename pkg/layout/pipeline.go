package layout

import "sort"

// PipelineOwner tracks render objects that need layout or paint and
// drives the layout/paint phases of the frame pipeline (spec.md §4.6.4,
// §4.6.5). One PipelineOwner exists per root; pkg/core's frame
// orchestration calls it after the build phase has settled.
type PipelineOwner struct {
	dirtyLayout map[RenderObject]struct{}
	dirtyPaint  map[RenderObject]struct{}
	needsLayout bool
	needsPaint  bool
	everLaidOut bool
}

// NeedsFirstLayout reports whether this owner has never run a layout pass.
// RunFrame uses this to pick FlushLayoutForRoot for the first frame (when
// the tree has no relayout boundaries established yet to drive the dirty
// set) and FlushLayout for every frame after.
func (p *PipelineOwner) NeedsFirstLayout() bool {
	return !p.everLaidOut
}

// ScheduleLayout marks a render object as needing layout.
func (p *PipelineOwner) ScheduleLayout(object RenderObject) {
	if p.dirtyLayout == nil {
		p.dirtyLayout = make(map[RenderObject]struct{})
	}
	if _, exists := p.dirtyLayout[object]; exists {
		return
	}
	p.dirtyLayout[object] = struct{}{}
	p.needsLayout = true
}

// SchedulePaint marks a render object as needing paint.
func (p *PipelineOwner) SchedulePaint(object RenderObject) {
	if p.dirtyPaint == nil {
		p.dirtyPaint = make(map[RenderObject]struct{})
	}
	if _, exists := p.dirtyPaint[object]; exists {
		return
	}
	p.dirtyPaint[object] = struct{}{}
	p.needsPaint = true
}

// NeedsLayout reports if any render objects need layout.
func (p *PipelineOwner) NeedsLayout() bool {
	return p.needsLayout
}

// NeedsPaint reports if any render objects need paint.
func (p *PipelineOwner) NeedsPaint() bool {
	return p.needsPaint
}

type depthed interface {
	Depth() int
}

// sortedByDepth returns the dirty set's render objects in ascending
// depth order (spec.md §4.6.4: shallower relayout boundaries are laid
// out first, so a boundary's own Layout call can satisfy children
// queued beneath it before they're visited individually).
func sortedByDepth(set map[RenderObject]struct{}) []RenderObject {
	objects := make([]RenderObject, 0, len(set))
	for object := range set {
		objects = append(objects, object)
	}
	sort.SliceStable(objects, func(i, j int) bool {
		di, iok := objects[i].(depthed)
		dj, jok := objects[j].(depthed)
		if !iok || !jok {
			return false
		}
		return di.Depth() < dj.Depth()
	})
	return objects
}

// FlushLayout lays out every dirty render object in ascending depth
// order, skipping any that a shallower boundary's layout already
// cleaned (spec.md §4.6.4). parentUsesSize is conservatively true for
// objects reached directly from the dirty set, since the pipeline has
// no sizing relationship to reuse at this point; boundary render
// objects that depend on an ancestor's actual usage recompute it during
// their own recursive layout.
func (p *PipelineOwner) FlushLayout() {
	if !p.needsLayout {
		return
	}
	for _, object := range sortedByDepth(p.dirtyLayout) {
		if dirty, ok := object.(interface{ NeedsLayout() bool }); ok && !dirty.NeedsLayout() {
			continue
		}
		if constrained, ok := object.(interface{ Constraints() Constraints }); ok {
			object.Layout(constrained.Constraints(), true)
		}
	}
	p.dirtyLayout = nil
	p.needsLayout = false
	p.everLaidOut = true
}

// FlushLayoutForRoot lays out the whole tree from the root using the
// given constraints, bypassing the dirty set (used for the first frame
// and for forced full relayouts).
func (p *PipelineOwner) FlushLayoutForRoot(root RenderObject, constraints Constraints) {
	if root == nil {
		return
	}
	root.Layout(constraints, false)
	p.dirtyLayout = nil
	p.needsLayout = false
	p.everLaidOut = true
}

// FlushPaint paints every dirty repaint boundary in descending depth
// order (spec.md §4.6.5: painting proceeds from leaves toward the root
// so that a parent layer composites already-painted children), then
// clears the dirty paint set. paint is the caller-supplied routine that
// actually invokes the object's Paint with a fresh PaintContext; the
// owner only sequences and clears dirty state, since it has no canvas
// of its own to hand out.
func (p *PipelineOwner) FlushPaint(paint func(RenderObject)) {
	if !p.needsPaint {
		return
	}
	objects := sortedByDepth(p.dirtyPaint)
	for i, j := 0, len(objects)-1; i < j; i, j = i+1, j-1 {
		objects[i], objects[j] = objects[j], objects[i]
	}
	for _, object := range objects {
		if dirty, ok := object.(interface{ NeedsPaint() bool }); ok && !dirty.NeedsPaint() {
			continue
		}
		if paint != nil {
			paint(object)
		}
		if clearer, ok := object.(interface{ ClearNeedsPaint() }); ok {
			clearer.ClearNeedsPaint()
		}
	}
	p.dirtyPaint = nil
	p.needsPaint = false
}
