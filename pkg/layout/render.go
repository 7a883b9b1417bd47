// Package layout implements the render-object side of the frame pipeline:
// the parallel geometry/paint tree described in spec.md §3, and the
// dirty-tracking + boundary rules described in spec.md §4.6.
package layout

import "github.com/go-drift/drift/pkg/graphics"

// RenderObject is a node in the parallel layout/paint tree (spec.md §3's
// "Render Object"). It owns parent-data, constraints, computed geometry,
// and the needs-layout/needs-paint dirty flags.
type RenderObject interface {
	Layout(constraints Constraints, parentUsesSize bool)
	Size() graphics.Size
	Paint(ctx *PaintContext)
	HitTest(position graphics.Offset, result *HitTestResult) bool
	ParentData() any
	SetParentData(data any)
	MarkNeedsLayout()
	MarkNeedsPaint()
	SetOwner(owner *PipelineOwner)
	IsRepaintBoundary() bool
}

// RenderBox is a RenderObject with box (width/height) layout.
type RenderBox interface {
	RenderObject
}

// ChildVisitor is implemented by render objects that have children.
type ChildVisitor interface {
	VisitChildren(visitor func(RenderObject))
}

// BoxParentData stores the offset a parent assigned to a child in a box
// layout. Concrete parent-data types (e.g. a flex factor) embed this and
// are stored on a child with SetParentData. The reconciler has no
// parent-data widget step: nothing in it looks up a parent-data widget or
// applies parent data on attach.
type BoxParentData struct {
	Offset graphics.Offset
}

// RenderBoxBase provides the boundary/dirty-tracking machinery shared by
// every concrete render object. Embedding it and implementing
// PerformLayout/Paint/HitTest is the idiomatic way to add a new render
// object kind; see spec.md §4.2's "Render-bearing" contract.
type RenderBoxBase struct {
	size             graphics.Size
	parentData       any
	owner            *PipelineOwner
	self             RenderObject
	parent           RenderObject
	depth            int
	relayoutBoundary RenderObject
	needsLayout      bool
	constraints      Constraints
	repaintBoundary  RenderObject
	needsPaint       bool
	layer            Layer
}

// Size returns the current size of the render box.
func (r *RenderBoxBase) Size() graphics.Size { return r.size }

// SetSize updates the render box size. Called by the concrete
// implementation's PerformLayout once it has resolved its geometry.
func (r *RenderBoxBase) SetSize(size graphics.Size) { r.size = size }

// ParentData returns the parent-assigned data for this render box.
func (r *RenderBoxBase) ParentData() any { return r.parentData }

// SetParentData assigns parent-controlled data to this render box.
func (r *RenderBoxBase) SetParentData(data any) { r.parentData = data }

// MarkNeedsLayout walks up the tree until it reaches a relayout boundary
// (spec.md §4.6.1), marking every traversed node dirty. The boundary is
// the node that actually gets scheduled; intermediate nodes are marked
// so that, once the boundary's PerformLayout runs, it calls back down
// through still-dirty children and reaches the node that requested this.
func (r *RenderBoxBase) MarkNeedsLayout() {
	if r.needsLayout {
		return
	}
	r.needsLayout = true

	if r.owner == nil || r.self == nil {
		return
	}
	if r.relayoutBoundary == r.self {
		r.owner.ScheduleLayout(r.self)
		return
	}
	if r.parent != nil {
		r.parent.MarkNeedsLayout()
		return
	}
	// No parent and not yet a boundary: still under construction, so
	// schedule self to ensure the first layout pass picks it up.
	r.owner.ScheduleLayout(r.self)
}

// MarkNeedsPaint walks up the tree until it reaches a repaint boundary
// (spec.md §4.6.1), invalidating any cached layer along the way.
func (r *RenderBoxBase) MarkNeedsPaint() {
	r.layer = nil

	if r.owner == nil || r.self == nil {
		r.needsPaint = true
		return
	}
	if r.repaintBoundary == r.self {
		r.needsPaint = true
		r.owner.SchedulePaint(r.self)
		return
	}
	if r.parent != nil {
		r.needsPaint = true
		r.parent.MarkNeedsPaint()
		return
	}
	r.needsPaint = true
	r.owner.SchedulePaint(r.self)
}

// SetOwner assigns the pipeline owner used to schedule layout and paint.
func (r *RenderBoxBase) SetOwner(owner *PipelineOwner) { r.owner = owner }

// SetSelf registers the concrete render object for scheduling. New render
// objects always start out needing both layout and paint.
func (r *RenderBoxBase) SetSelf(self RenderObject) {
	r.self = self
	r.needsLayout = true
	r.needsPaint = true
}

// Parent returns the parent render object.
func (r *RenderBoxBase) Parent() RenderObject { return r.parent }

// SetParent sets the parent render object and recomputes depth. Clears
// cached boundary/constraint state so a reparented node doesn't carry
// stale references from its old subtree.
func (r *RenderBoxBase) SetParent(parent RenderObject) {
	if r.parent == parent {
		return
	}
	r.parent = parent
	if parent == nil {
		r.depth = 0
	} else if getter, ok := parent.(interface{ Depth() int }); ok {
		r.depth = getter.Depth() + 1
	} else {
		r.depth = 1
	}
	r.relayoutBoundary = nil
	r.constraints = Constraints{}
	r.needsLayout = true
	r.repaintBoundary = nil
	r.needsPaint = true
	r.layer = nil
}

// Depth returns the tree depth (root = 0). Used as the pipeline's sort
// key for the layout phase (spec.md §4.6.4).
func (r *RenderBoxBase) Depth() int { return r.depth }

// RelayoutBoundary returns the cached nearest relayout boundary.
func (r *RenderBoxBase) RelayoutBoundary() RenderObject { return r.relayoutBoundary }

// NeedsLayout returns true if this render box still needs layout.
func (r *RenderBoxBase) NeedsLayout() bool { return r.needsLayout }

// Constraints returns the last constraints this render box was laid out with.
func (r *RenderBoxBase) Constraints() Constraints { return r.constraints }

// IsRepaintBoundary reports whether this render object isolates its
// paint output into its own layer. Override in render objects that
// should be a repaint boundary (e.g. scroll viewports, opacity groups).
func (r *RenderBoxBase) IsRepaintBoundary() bool { return false }

// RepaintBoundary returns the cached nearest repaint boundary.
func (r *RenderBoxBase) RepaintBoundary() RenderObject { return r.repaintBoundary }

// NeedsPaint returns true if this render box still needs paint.
func (r *RenderBoxBase) NeedsPaint() bool { return r.needsPaint }

// Layer returns the cached layer for repaint boundaries.
func (r *RenderBoxBase) Layer() Layer { return r.layer }

// SetLayer stores the cached layer produced by the last paint.
func (r *RenderBoxBase) SetLayer(l Layer) { r.layer = l }

// ClearNeedsPaint marks this render object as painted.
func (r *RenderBoxBase) ClearNeedsPaint() { r.needsPaint = false }

// Layout resolves the relayout/repaint boundary for this node, skips
// the work entirely when clean and constraints are unchanged (spec.md
// §4.6.4's "children whose incoming constraints haven't changed and who
// are clean are skipped"), and otherwise delegates to the concrete
// implementation's PerformLayout.
//
// A node becomes a relayout boundary when it receives tight constraints,
// is the root, or its parent doesn't use its size — the three cases
// spec.md §4.6.1 names for "explicitly declared" boundaries.
func (r *RenderBoxBase) Layout(constraints Constraints, parentUsesSize bool) {
	shouldBeBoundary := constraints.IsTight() || r.parent == nil || !parentUsesSize

	if shouldBeBoundary {
		r.relayoutBoundary = r.self
	} else if r.parent != nil {
		if getter, ok := r.parent.(interface{ RelayoutBoundary() RenderObject }); ok {
			r.relayoutBoundary = getter.RelayoutBoundary()
		}
	}

	if r.self != nil && r.self.IsRepaintBoundary() {
		r.repaintBoundary = r.self
	} else if r.parent != nil {
		if getter, ok := r.parent.(interface{ RepaintBoundary() RenderObject }); ok {
			r.repaintBoundary = getter.RepaintBoundary()
		}
	}

	if !r.needsLayout && r.constraints == constraints {
		return
	}

	r.constraints = constraints
	r.needsLayout = false

	if performer, ok := r.self.(interface{ PerformLayout() }); ok {
		performer.PerformLayout()
	}
}

// HitTest is a no-op default: render objects that participate in hit
// testing (spec.md §6's "given a pointer location, return the render
// objects beneath, deepest first") override it. The core only defines
// the contract; routing pointer events to a handler is platform-input
// plumbing and out of scope (spec.md §1).
func (r *RenderBoxBase) HitTest(position graphics.Offset, result *HitTestResult) bool {
	return false
}

// Paint is a no-op default. Concrete render objects override it.
func (r *RenderBoxBase) Paint(ctx *PaintContext) {}
