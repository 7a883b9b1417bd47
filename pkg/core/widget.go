package core

import (
	"reflect"

	"github.com/go-drift/drift/pkg/layout"
)

// Widget is the immutable configuration for a node in the element tree.
// A Widget describes what should be on screen; it never holds mutable
// state itself and is cheap to allocate and discard every build.
type Widget interface {
	// Key identifies this widget across rebuilds for reconciliation. A nil
	// key means the widget is matched by position and type only. Keys may
	// be a plain comparable value (matched with reflect.DeepEqual) or a
	// pkg/keys.Key (matched with its own Equal method — see canUpdateWidget).
	Key() any
	// CreateElement constructs the element that will host this widget. The
	// returned element may leave its widget unset (the Base helpers do);
	// inflateWidget sets the widget and the buildOwner once the element is
	// given a position in the tree.
	CreateElement() Element
}

// StatelessWidget builds its widget subtree directly from its own fields
// and the ambient BuildContext, with no local mutable state.
type StatelessWidget interface {
	Widget
	Build(ctx BuildContext) Widget
}

// StatefulWidget delegates building to a State object that outlives
// individual widget instances across rebuilds.
type StatefulWidget interface {
	Widget
	CreateState() State
}

// State holds the mutable data behind a StatefulWidget. A State instance
// is created once when its element is first mounted and persists across
// any number of widget rebuilds until the element is unmounted.
type State interface {
	// SetElement is called once by the framework right after CreateState.
	SetElement(element *StatefulElement)
	// InitState runs once, before the first Build.
	InitState()
	Build(ctx BuildContext) Widget
	// DidUpdateWidget runs when the element is given a new configuration
	// widget of the same type and key as the one it already has.
	DidUpdateWidget(oldWidget StatefulWidget)
	// DidChangeDependencies runs when an inherited dependency this state
	// registered for changes.
	DidChangeDependencies()
	// Dispose runs once, when the element is permanently removed from the
	// tree (never when merely deactivated pending reparenting).
	Dispose()
}

// RenderObjectWidget configures a RenderObject directly, bypassing the
// Build/Element indirection used by StatelessWidget/StatefulWidget. Widgets
// with a single child implement Child() Widget; widgets with several
// implement Children() []Widget; leaf render widgets implement neither.
type RenderObjectWidget interface {
	Widget
	CreateRenderObject(ctx BuildContext) layout.RenderObject
	UpdateRenderObject(ctx BuildContext, renderObject layout.RenderObject)
}

// InheritedWidget publishes data down the tree to any descendant that
// registers a dependency via BuildContext.DependOnInherited. Aspect
// support is folded directly into the interface: UpdateShouldNotifyDependent
// lets a widget filter notifications per-dependent by whatever aspect keys
// that dependent registered; widgets that don't care about aspects can
// embed InheritedBase, which answers true unconditionally.
type InheritedWidget interface {
	Widget
	ChildWidget() Widget
	// UpdateShouldNotify is the coarse-grained gate: if it returns false for
	// the replaced (old) widget, no dependent is notified regardless of
	// aspects.
	UpdateShouldNotify(old InheritedWidget) bool
	// UpdateShouldNotifyDependent is consulted per-dependent once
	// UpdateShouldNotify has passed. aspects is the set of aspect values
	// that dependent registered; a dependent that depends on every change
	// is notified without this method being called.
	UpdateShouldNotifyDependent(old InheritedWidget, aspects map[any]struct{}) bool
}

// Element is the mutable, positioned counterpart to a Widget: one Element
// is created per Widget the first time it appears in the tree, and is
// updated in place (rather than recreated) across rebuilds whenever
// canUpdateWidget matches the incoming widget against it.
type Element interface {
	Widget() Widget
	Depth() int
	Slot() any
	UpdateSlot(newSlot any)
	MarkNeedsBuild()

	// Mount attaches the element under parent at slot and performs its
	// first build.
	Mount(parent Element, slot any)
	// Update reconfigures the element with newWidget, which canUpdateWidget
	// has already confirmed is compatible with the element's current widget.
	Update(newWidget Widget)
	// Unmount permanently detaches the element and disposes its subtree.
	Unmount()
	// RebuildIfNeeded reruns Build if the element is marked dirty.
	RebuildIfNeeded()
	// VisitChildren calls visitor for each child element in order, stopping
	// early if visitor returns false.
	VisitChildren(visitor func(Element) bool)

	FindAncestor(predicate func(Element) bool) Element
	DependOnInherited(inheritedType reflect.Type, aspect any) any
	DependOnInheritedWithAspects(inheritedType reflect.Type, aspects ...any) any
}

// BuildContext is the capability an element passes to Build/State.Build: a
// read-only handle onto the element's position in the tree.
type BuildContext interface {
	Widget() Widget
	FindAncestor(predicate func(Element) bool) Element
	DependOnInherited(inheritedType reflect.Type, aspect any) any
	DependOnInheritedWithAspects(inheritedType reflect.Type, aspects ...any) any
}
