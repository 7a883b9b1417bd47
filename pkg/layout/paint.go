package layout

import (
	"github.com/go-drift/drift/pkg/graphics"
)

// HitTestResult collects hit test entries in paint order (spec.md §6:
// "given a pointer location, return the render objects beneath, deepest
// first"). Routing the result to a gesture/input system is a consumer
// concern outside the core.
type HitTestResult struct {
	Entries []RenderObject
}

// Add inserts a render object into the hit test result list.
func (h *HitTestResult) Add(target RenderObject) {
	h.Entries = append(h.Entries, target)
}

// PaintContext provides the canvas and coordinate-space bookkeeping a
// render object needs during the paint phase (spec.md §4.6.5).
type PaintContext struct {
	Canvas         Canvas
	clipStack      []graphics.Rect   // each entry already intersected into global space
	transformStack []graphics.Offset // stack of translation deltas
	transform      graphics.Offset   // current accumulated translation
}

// PushTranslation adds a translation delta to the stack.
func (p *PaintContext) PushTranslation(dx, dy float64) {
	p.transformStack = append(p.transformStack, graphics.Offset{X: dx, Y: dy})
	p.transform.X += dx
	p.transform.Y += dy
}

// PopTranslation removes the most recent translation from the stack.
func (p *PaintContext) PopTranslation() {
	if len(p.transformStack) == 0 {
		return
	}
	last := p.transformStack[len(p.transformStack)-1]
	p.transformStack = p.transformStack[:len(p.transformStack)-1]
	p.transform.X -= last.X
	p.transform.Y -= last.Y
}

// PushClipRect pushes a clip rectangle (in local coordinates), transformed
// to global coordinates and intersected with the current clip.
func (p *PaintContext) PushClipRect(localRect graphics.Rect) {
	globalRect := localRect.Translate(p.transform.X, p.transform.Y)
	if len(p.clipStack) > 0 {
		globalRect = p.clipStack[len(p.clipStack)-1].Intersect(globalRect)
	}
	p.clipStack = append(p.clipStack, globalRect)
}

// PopClipRect removes the most recent clip rectangle.
func (p *PaintContext) PopClipRect() {
	if len(p.clipStack) > 0 {
		p.clipStack = p.clipStack[:len(p.clipStack)-1]
	}
}

// CurrentClipBounds returns the effective clip in global coordinates.
// Returns (clip, true) if a clip is active, (Rect{}, false) if not.
func (p *PaintContext) CurrentClipBounds() (graphics.Rect, bool) {
	if len(p.clipStack) == 0 {
		return graphics.Rect{}, false
	}
	return p.clipStack[len(p.clipStack)-1], true
}

// CurrentTransform returns the accumulated translation offset.
func (p *PaintContext) CurrentTransform() graphics.Offset {
	return p.transform
}

// PaintChild paints a child render box at the given offset, culling it
// if its bounds don't intersect the current clip.
func (p *PaintContext) PaintChild(child RenderBox, offset graphics.Offset) {
	if child == nil || p.shouldCullChild(child, offset) {
		return
	}
	p.Canvas.Save()
	p.Canvas.Translate(offset.X, offset.Y)
	p.PushTranslation(offset.X, offset.Y)

	child.Paint(p)

	p.PopTranslation()
	p.Canvas.Restore()
}

// layerPainter is implemented by the layer kind a repaint boundary caches;
// the core never interprets layer contents, only asks it to replay itself.
type layerPainter interface {
	Paint(canvas Canvas)
}

// PaintChildWithLayer paints a child, reusing its cached layer (spec.md
// §4.6.5: "a node that is clean and owns a cached layer is not
// repainted — its layer is reused as-is") when the child is a repaint
// boundary with a valid, clean cache.
func (p *PaintContext) PaintChildWithLayer(child RenderBox, offset graphics.Offset) {
	if child == nil || p.shouldCullChild(child, offset) {
		return
	}

	p.Canvas.Save()
	p.Canvas.Translate(offset.X, offset.Y)
	p.PushTranslation(offset.X, offset.Y)

	if boundary, ok := child.(interface {
		IsRepaintBoundary() bool
		Layer() Layer
		NeedsPaint() bool
	}); ok && boundary.IsRepaintBoundary() {
		if layer := boundary.Layer(); layer != nil && !boundary.NeedsPaint() {
			if painter, ok := layer.(layerPainter); ok {
				painter.Paint(p.Canvas)
				p.PopTranslation()
				p.Canvas.Restore()
				return
			}
		}
	}

	child.Paint(p)

	p.PopTranslation()
	p.Canvas.Restore()
}

type paintBoundsProvider interface {
	PaintBounds() graphics.Rect
}

// shouldCullChild returns true if the child's bounds do not intersect the
// current clip.
func (p *PaintContext) shouldCullChild(child RenderBox, offset graphics.Offset) bool {
	if child == nil {
		return true
	}
	clip, ok := p.CurrentClipBounds()
	if !ok {
		return false
	}
	var localRect graphics.Rect
	if provider, ok := child.(paintBoundsProvider); ok {
		localRect = provider.PaintBounds()
		if localRect.IsEmpty() {
			return false
		}
	} else {
		size := child.Size()
		if size.Width <= 0 || size.Height <= 0 {
			return false
		}
		localRect = graphics.RectFromLTWH(0, 0, size.Width, size.Height)
	}
	globalRect := localRect.Translate(p.transform.X+offset.X, p.transform.Y+offset.Y)
	return clip.Intersect(globalRect).IsEmpty()
}
