package core

import (
	"reflect"
	"time"

	"github.com/go-drift/drift/pkg/errors"
	"github.com/go-drift/drift/pkg/keys"
	"github.com/go-drift/drift/pkg/layout"
)

// IndexedSlot represents a child's position in a multi-child parent.
type IndexedSlot struct {
	Index           int
	PreviousSibling Element
}

// renderObjectHost is implemented by elements that own a render object and can
// serve as a render parent for descendant render objects. Both RenderObjectElement
// and LayoutBuilderElement implement this interface.
type renderObjectHost interface {
	RenderObject() layout.RenderObject
	insertRenderObjectChild(child layout.RenderObject, slot any)
	removeRenderObjectChild(child layout.RenderObject, slot any)
	moveRenderObjectChild(child layout.RenderObject, oldSlot, newSlot any)
}

type elementBase struct {
	widget       Widget
	parent       Element
	depth        int
	slot         any
	buildOwner   *BuildOwner
	dirty        bool
	self         Element
	mounted      bool
	renderParent renderObjectHost // nearest ancestor that owns a render object
	elemID       keys.ElementId   // arena handle, assigned on first mount
}

func (e *elementBase) Widget() Widget {
	return e.widget
}

func (e *elementBase) Depth() int {
	return e.depth
}

func (e *elementBase) Slot() any {
	return e.slot
}

func (e *elementBase) UpdateSlot(newSlot any) {
	e.slot = newSlot
}

func (e *elementBase) MarkNeedsBuild() {
	if e.dirty {
		return
	}
	e.dirty = true
	if e.buildOwner != nil && e.self != nil {
		e.buildOwner.ScheduleBuild(e.self)
	}
}

func (e *elementBase) parentElement() Element {
	return e.parent
}

// NeedsBuild reports whether the element is dirty, i.e. pending a rebuild
// the next time its BuildOwner flushes. Exposed so diagnostics code (see
// pkg/devtools) can inspect the tree without reaching into element internals.
func (e *elementBase) NeedsBuild() bool {
	return e.dirty
}

func (e *elementBase) setSelf(self Element) {
	e.self = self
}

func (e *elementBase) setWidget(widget Widget) {
	e.widget = widget
}

func (e *elementBase) setBuildOwner(owner *BuildOwner) {
	e.buildOwner = owner
}

func (e *elementBase) isMounted() bool {
	return e.mounted
}

// elementId returns the arena handle assigned to this element, if any.
func (e *elementBase) elementId() keys.ElementId {
	return e.elemID
}

// allocateInArena assigns this element a fresh ElementId in its
// BuildOwner's Arena (spec.md §4.3's element lifecycle), and, if the
// widget carries a GlobalKey, registers that key against the new id so a
// later Inactive element carrying the same key can be found again
// (spec.md §4.4.1's reparenting path).
func (e *elementBase) allocateInArena() {
	if e.buildOwner == nil || e.self == nil {
		return
	}
	arena := e.buildOwner.Arena()
	if arena == nil {
		return
	}
	e.elemID = arena.Allocate(e.self)
	if key, ok := e.widget.Key().(keys.GlobalKey); ok {
		arena.RegisterGlobalKey(key, e.elemID)
	}
}

// freeInArena releases this element's ElementId back to its BuildOwner's
// Arena on a real Unmount (as opposed to a deactivate, which keeps the id
// alive in the inactive pool pending possible reactivation).
func (e *elementBase) freeInArena() {
	if e.buildOwner == nil || !e.elemID.IsValid() {
		return
	}
	if arena := e.buildOwner.Arena(); arena != nil {
		arena.Free(e.elemID)
	}
}

// repositionBase reconnects an Inactive element to a new parent/slot under
// its existing ElementId and widget, recomputing depth the way Mount
// would for a freshly constructed element. Used by reactivate on every
// element kind to restore the parts of mount state a GlobalKey reparent
// needs before delegating to the element's own Update logic.
func (e *elementBase) repositionBase(parent Element, slot any, widget Widget) {
	e.parent = parent
	e.slot = slot
	e.widget = widget
	if parent != nil {
		e.depth = parent.Depth() + 1
	} else {
		e.depth = 0
	}
	e.mounted = true
}

// findRenderParent walks up the element tree to find the nearest renderObjectHost.
func (e *elementBase) findRenderParent() renderObjectHost {
	current := e.parent
	for current != nil {
		if host, ok := current.(renderObjectHost); ok {
			return host
		}
		if base, ok := current.(interface{ parentElement() Element }); ok {
			current = base.parentElement()
		} else {
			break
		}
	}
	return nil
}

// safeBuild executes a build function with panic recovery.
// If the build panics, it reports the error and returns an error widget.
func (e *elementBase) safeBuild(buildFn func() Widget) Widget {
	var built Widget
	var buildErr *errors.BoundaryError

	func() {
		defer func() {
			if r := recover(); r != nil {
				buildErr = &errors.BoundaryError{
					Phase:      "build",
					Widget:     reflect.TypeOf(e.widget).String(),
					Recovered:  r,
					StackTrace: errors.CaptureStack(),
					Timestamp:  time.Now(),
				}
			}
		}()
		built = buildFn()
	}()

	if buildErr != nil {
		// Report to global error handler
		errors.ReportBoundaryError(buildErr)

		// Find nearest error boundary in ancestors
		if boundary := e.findErrorBoundary(); boundary != nil {
			boundary.CaptureError(buildErr)
			// Return nil to indicate the boundary will handle display
			return nil
		}

		// Use global fallback error widget builder
		if builder := GetErrorWidgetBuilder(); builder != nil {
			if errWidget := builder(buildErr); errWidget != nil {
				return errWidget
			}
		}

		// Final fallback: return a minimal placeholder widget
		return errorPlaceholder{err: buildErr}
	}
	return built
}

// findErrorBoundary searches ancestors for an error boundary.
func (e *elementBase) findErrorBoundary() ErrorBoundaryCapture {
	current := e.parent
	for current != nil {
		if capture, ok := current.(ErrorBoundaryCapture); ok {
			return capture
		}
		if base, ok := current.(interface{ parentElement() Element }); ok {
			current = base.parentElement()
		} else {
			break
		}
	}
	return nil
}

// errorPlaceholder is a minimal fallback widget shown when build fails,
// no error boundary captures the error, and the error widget builder
// returns nil.
type errorPlaceholder struct {
	StatelessBase
	err *errors.BoundaryError
}

func (p errorPlaceholder) Build(ctx BuildContext) Widget {
	// Return nil to render nothing - the error has been reported
	return nil
}

// StatelessElement hosts a StatelessWidget.
type StatelessElement struct {
	elementBase
	child Element
}

// NewStatelessElement constructs an element hosting widget. owner may be
// nil at construction time (inflateWidget fixes it up once the element's
// position in the tree is known); widgets' CreateElement() methods call
// this directly with nil, since owner isn't available to them yet.
func NewStatelessElement(widget Widget, owner *BuildOwner) *StatelessElement {
	e := &StatelessElement{}
	e.widget = widget
	e.buildOwner = owner
	e.self = e
	return e
}

func (e *StatelessElement) Mount(parent Element, slot any) {
	e.parent = parent
	e.slot = slot
	if parent != nil {
		e.depth = parent.Depth() + 1
	}
	e.renderParent = e.findRenderParent()
	e.mounted = true
	e.allocateInArena()
	e.dirty = true
	e.RebuildIfNeeded()
}

// reactivate reconnects a previously-Deactivated StatelessElement under a
// new parent/slot, reusing its ElementId and child subtree
// (spec.md §4.4.1's GlobalKey reparenting path) instead of building fresh.
func (e *StatelessElement) reactivate(parent Element, slot any, widget Widget) {
	e.repositionBase(parent, slot, widget)
	e.renderParent = e.findRenderParent()
	e.Update(widget)
}

func (e *StatelessElement) Update(newWidget Widget) {
	e.widget = newWidget
	e.MarkNeedsBuild()
}

func (e *StatelessElement) Unmount() {
	e.mounted = false
	if e.child != nil {
		e.child.Unmount()
		e.child = nil
	}
	e.freeInArena()
}

func (e *StatelessElement) RebuildIfNeeded() {
	if !e.dirty || !e.mounted {
		return
	}
	e.dirty = false
	widget := e.widget.(StatelessWidget)
	built := e.safeBuild(func() Widget {
		return widget.Build(e)
	})
	e.child = updateChild(e.child, built, e, e.buildOwner, nil)
}

func (e *StatelessElement) VisitChildren(visitor func(Element) bool) {
	if e.child != nil {
		visitor(e.child)
	}
}

// RenderObject returns the render object from the first render-object child.
func (e *StatelessElement) RenderObject() layout.RenderObject {
	if e.child == nil {
		return nil
	}
	if child, ok := e.child.(interface{ RenderObject() layout.RenderObject }); ok {
		return child.RenderObject()
	}
	return nil
}

func (e *StatelessElement) FindAncestor(predicate func(Element) bool) Element {
	current := e.parent
	for current != nil {
		if predicate(current) {
			return current
		}
		if base, ok := current.(interface{ parentElement() Element }); ok {
			current = base.parentElement()
		} else {
			break
		}
	}
	return nil
}

func (e *StatelessElement) DependOnInherited(inheritedType reflect.Type, aspect any) any {
	return dependOnInheritedImpl(e, inheritedType, aspect)
}

func (e *StatelessElement) DependOnInheritedWithAspects(inheritedType reflect.Type, aspects ...any) any {
	return dependOnInheritedWithAspects(e, inheritedType, aspects...)
}

// StatefulElement hosts a StatefulWidget and its State.
type StatefulElement struct {
	elementBase
	child Element
	state State
}

// NewStatefulElement constructs an element hosting widget. See
// NewStatelessElement for the owner-nil convention.
func NewStatefulElement(widget Widget, owner *BuildOwner) *StatefulElement {
	e := &StatefulElement{}
	e.widget = widget
	e.buildOwner = owner
	e.self = e
	return e
}

func (e *StatefulElement) Mount(parent Element, slot any) {
	e.parent = parent
	e.slot = slot
	if parent != nil {
		e.depth = parent.Depth() + 1
	}
	e.renderParent = e.findRenderParent()
	e.mounted = true
	e.allocateInArena()
	widget := e.widget.(StatefulWidget)
	e.state = widget.CreateState()
	if setter, ok := e.state.(interface{ SetElement(*StatefulElement) }); ok {
		setter.SetElement(e)
	}
	e.state.InitState()
	e.dirty = true
	e.RebuildIfNeeded()
}

// reactivate reconnects a previously-Deactivated StatefulElement under a
// new parent/slot, reusing its ElementId, State, and child subtree
// (spec.md §4.4.1's GlobalKey reparenting path) instead of constructing a
// fresh State via CreateState/InitState.
func (e *StatefulElement) reactivate(parent Element, slot any, widget Widget) {
	e.repositionBase(parent, slot, widget)
	e.renderParent = e.findRenderParent()
	e.Update(widget)
}

func (e *StatefulElement) Update(newWidget Widget) {
	oldWidget := e.widget.(StatefulWidget)
	e.widget = newWidget
	e.state.DidUpdateWidget(oldWidget)
	e.MarkNeedsBuild()
}

func (e *StatefulElement) Unmount() {
	e.mounted = false
	if e.child != nil {
		e.child.Unmount()
		e.child = nil
	}
	if e.state != nil {
		e.state.Dispose()
	}
	e.freeInArena()
}

func (e *StatefulElement) RebuildIfNeeded() {
	if !e.dirty || !e.mounted {
		return
	}
	e.dirty = false
	built := e.safeBuild(func() Widget {
		return e.state.Build(e)
	})
	e.child = updateChild(e.child, built, e, e.buildOwner, nil)
}

func (e *StatefulElement) VisitChildren(visitor func(Element) bool) {
	if e.child != nil {
		visitor(e.child)
	}
}

// RenderObject returns the render object from the first render-object child.
func (e *StatefulElement) RenderObject() layout.RenderObject {
	if e.child == nil {
		return nil
	}
	if child, ok := e.child.(interface{ RenderObject() layout.RenderObject }); ok {
		return child.RenderObject()
	}
	return nil
}

func (e *StatefulElement) FindAncestor(predicate func(Element) bool) Element {
	current := e.parent
	for current != nil {
		if predicate(current) {
			return current
		}
		if base, ok := current.(interface{ parentElement() Element }); ok {
			current = base.parentElement()
		} else {
			break
		}
	}
	return nil
}

func (e *StatefulElement) DependOnInherited(inheritedType reflect.Type, aspect any) any {
	return dependOnInheritedImpl(e, inheritedType, aspect)
}

func (e *StatefulElement) DependOnInheritedWithAspects(inheritedType reflect.Type, aspects ...any) any {
	return dependOnInheritedWithAspects(e, inheritedType, aspects...)
}

// RenderObjectElement hosts a RenderObject and optional children.
type RenderObjectElement struct {
	elementBase
	renderObject layout.RenderObject
	children     []Element
}

// NewRenderObjectElement constructs an element hosting widget. See
// NewStatelessElement for the owner-nil convention.
func NewRenderObjectElement(widget Widget, owner *BuildOwner) *RenderObjectElement {
	e := &RenderObjectElement{}
	e.widget = widget
	e.buildOwner = owner
	e.self = e
	return e
}

func (e *RenderObjectElement) Mount(parent Element, slot any) {
	e.parent = parent
	e.slot = slot
	if parent != nil {
		e.depth = parent.Depth() + 1
	}
	e.mounted = true
	e.allocateInArena()

	// Create render object
	widget := e.widget.(RenderObjectWidget)
	e.renderObject = widget.CreateRenderObject(e)
	if e.buildOwner != nil {
		e.renderObject.SetOwner(e.buildOwner.Pipeline())
	}

	// Attach to render tree BEFORE building children
	e.attachRenderObject(slot)

	// Build children
	e.dirty = true
	e.RebuildIfNeeded()
}

// reactivate reconnects a previously-Deactivated RenderObjectElement under
// a new parent/slot, reusing its ElementId, render object, and children
// instead of constructing a fresh one (spec.md §4.4.1's GlobalKey
// reparenting path). attachRenderObject already implements "detach from
// the old render parent if different, attach to the new one", so moving
// the render object across render parents needs no new logic here.
func (e *RenderObjectElement) reactivate(parent Element, slot any, widget Widget) {
	e.repositionBase(parent, slot, widget)
	e.attachRenderObject(slot)
	e.Update(widget)
}

func (e *RenderObjectElement) Update(newWidget Widget) {
	e.widget = newWidget
	e.MarkNeedsBuild()
}

func (e *RenderObjectElement) Unmount() {
	e.mounted = false

	// Unmount children first (they detach their own render objects)
	for _, child := range e.children {
		child.Unmount()
	}
	e.children = nil

	// Then detach our own render object
	e.detachRenderObject()
	e.freeInArena()
}

func (e *RenderObjectElement) RebuildIfNeeded() {
	if !e.dirty || !e.mounted {
		return
	}
	e.dirty = false

	widget := e.widget.(RenderObjectWidget)
	widget.UpdateRenderObject(e, e.renderObject)

	switch typed := e.widget.(type) {
	case interface{ Child() Widget }:
		childWidget := typed.Child()
		var child Element
		if len(e.children) > 0 {
			child = e.children[0]
		}
		child = updateChild(child, childWidget, e, e.buildOwner, nil)
		if child != nil {
			e.children = []Element{child}
		} else {
			e.children = nil
		}
		// NO SetChild call - attachment handled in child's Mount/Unmount

	case interface{ Children() []Widget }:
		widgets := typed.Children()
		e.children = updateChildren(e, e.children, widgets, e.buildOwner)
		e.rebuildChildrenRenderList()
	}
}

func (e *RenderObjectElement) VisitChildren(visitor func(Element) bool) {
	for _, child := range e.children {
		if !visitor(child) {
			return
		}
	}
}

func (e *RenderObjectElement) FindAncestor(predicate func(Element) bool) Element {
	current := e.parent
	for current != nil {
		if predicate(current) {
			return current
		}
		if base, ok := current.(interface{ parentElement() Element }); ok {
			current = base.parentElement()
		} else {
			break
		}
	}
	return nil
}

func (e *RenderObjectElement) DependOnInherited(inheritedType reflect.Type, aspect any) any {
	return dependOnInheritedImpl(e, inheritedType, aspect)
}

func (e *RenderObjectElement) DependOnInheritedWithAspects(inheritedType reflect.Type, aspects ...any) any {
	return dependOnInheritedWithAspects(e, inheritedType, aspects...)
}

// RenderObject exposes the backing render object for the element.
func (e *RenderObjectElement) RenderObject() layout.RenderObject {
	return e.renderObject
}

func (e *RenderObjectElement) parentElement() Element {
	return e.parent
}

// UpdateSlot updates the slot and notifies the render parent of the move.
func (e *RenderObjectElement) UpdateSlot(newSlot any) {
	oldSlot := e.slot
	e.slot = newSlot
	if e.renderParent != nil {
		e.renderParent.moveRenderObjectChild(e.renderObject, oldSlot, newSlot)
	}
}

// moveRenderObjectChild notifies that a child moved from oldSlot to newSlot.
// This is a no-op because the caller (RebuildIfNeeded) calls rebuildChildrenRenderList()
// after all children are processed. Calling it here would use stale e.children data
// since updateChildren builds a new list that hasn't been assigned yet.
func (e *RenderObjectElement) moveRenderObjectChild(child layout.RenderObject, oldSlot, newSlot any) {
	// No-op: rebuildChildrenRenderList() is called by the parent after updateChildren completes.
	// Future optimization: could use slot information for incremental updates.
}

// attachRenderObject attaches this element's render object to the render tree.
// Called from Mount after the render object is created.
func (e *RenderObjectElement) attachRenderObject(slot any) {
	newRenderParent := e.findRenderParent()

	// Handle reparenting: detach from old parent if different
	if e.renderParent != nil && e.renderParent != newRenderParent {
		e.renderParent.removeRenderObjectChild(e.renderObject, e.slot)
	}

	e.renderParent = newRenderParent
	if e.renderParent != nil {
		e.renderParent.insertRenderObjectChild(e.renderObject, slot)
	}
}

// detachRenderObject removes this element's render object from the render tree.
// Called from Unmount before the element is unmounted.
func (e *RenderObjectElement) detachRenderObject() {
	if e.renderParent != nil {
		e.renderParent.removeRenderObjectChild(e.renderObject, e.slot)
		e.renderParent = nil
	}
	// Release layer resources when render object is removed from tree
	if e.renderObject != nil {
		if disposer, ok := e.renderObject.(interface{ Dispose() }); ok {
			disposer.Dispose()
		}
	}
}

// insertRenderObjectChild adds a child render object at the given slot.
func (e *RenderObjectElement) insertRenderObjectChild(child layout.RenderObject, slot any) {
	if child == nil {
		return
	}
	// Set parent reference
	if setter, ok := child.(interface{ SetParent(layout.RenderObject) }); ok {
		setter.SetParent(e.renderObject)
	}
	// For single-child render objects, set the child directly
	if single, ok := e.renderObject.(interface{ SetChild(layout.RenderObject) }); ok {
		single.SetChild(child)
		return
	}
	// For multi-child: parent reference is set above; the children list will be
	// rebuilt by RebuildIfNeeded after all children are mounted and e.children
	// is fully populated.
}

// removeRenderObjectChild removes a child render object.
func (e *RenderObjectElement) removeRenderObjectChild(child layout.RenderObject, slot any) {
	if child == nil {
		return
	}
	if setter, ok := child.(interface{ SetParent(layout.RenderObject) }); ok {
		setter.SetParent(nil)
	}
	if single, ok := e.renderObject.(interface{ SetChild(layout.RenderObject) }); ok {
		single.SetChild(nil)
		return
	}
	e.rebuildChildrenRenderList()
}

// rebuildChildrenRenderList rebuilds render object children from element children.
func (e *RenderObjectElement) rebuildChildrenRenderList() {
	if multi, ok := e.renderObject.(interface{ SetChildren([]layout.RenderObject) }); ok {
		objects := make([]layout.RenderObject, 0, len(e.children))
		for _, child := range e.children {
			if roProvider, ok := child.(interface{ RenderObject() layout.RenderObject }); ok {
				if ro := roProvider.RenderObject(); ro != nil {
					objects = append(objects, ro)
				}
			}
		}
		multi.SetChildren(objects)
	}
}

