// Package core provides the core widget and element framework.
package core

// StatelessBase is embedded by stateless widgets to pick up the default
// Key() (nil, i.e. matched purely by type and position) and CreateElement()
// implementations, leaving the widget to implement only Build. CreateElement
// constructs the element with its widget left unset; inflateWidget fixes
// the real outer widget value onto the element right after, since a Base
// embedded by value has no way to recover its enclosing struct.
type StatelessBase struct{}

func (StatelessBase) Key() any { return nil }

func (StatelessBase) CreateElement() Element {
	return NewStatelessElement(nil, nil)
}

// StatefulBase is embedded by stateful widgets to pick up the default Key()
// and CreateElement(), leaving the widget to implement only CreateState.
type StatefulBase struct{}

func (StatefulBase) Key() any { return nil }

func (StatefulBase) CreateElement() Element {
	return NewStatefulElement(nil, nil)
}

// InheritedBase is embedded by InheritedWidget implementations to pick up
// the default Key() and CreateElement(), and a default
// UpdateShouldNotifyDependent that notifies every dependent unconditionally
// (i.e. the widget doesn't care about aspects).
type InheritedBase struct{}

func (InheritedBase) Key() any { return nil }

func (InheritedBase) CreateElement() Element {
	return NewInheritedElement()
}

func (InheritedBase) UpdateShouldNotifyDependent(old InheritedWidget, aspects map[any]struct{}) bool {
	return true
}

// Stateful creates a stateful widget using generics: init supplies the
// initial state value, and build renders it. For full lifecycle hooks
// (Dispose, DidUpdateWidget, DidChangeDependencies), use StatefulBuilder.
func Stateful[S any](
	init func() S,
	build func(state S, ctx BuildContext, setState func(func(S) S)) Widget,
) Widget {
	return &inlineStatefulWidget[S]{
		config: StatefulBuilder[S]{
			Init:  init,
			Build: build,
		},
	}
}

// StatefulBuilder provides a declarative way to create stateful widgets
// with full lifecycle support.
//
// Example:
//
//	core.StatefulBuilder[int]{
//	    Init: func() int { return 0 },
//	    Build: func(count int, ctx core.BuildContext, setState func(func(int) int)) core.Widget {
//	        return widgets.GestureDetector{
//	            OnTap: func() { setState(func(c int) int { return c + 1 }) },
//	            Child: widgets.Text{Content: fmt.Sprintf("Count: %d", count), ...},
//	        }
//	    },
//	    Dispose: func(count int) {
//	        // cleanup resources
//	    },
//	}.Widget()
type StatefulBuilder[S any] struct {
	// Init creates the initial state value. Required.
	Init func() S

	// Build creates the widget tree. Required.
	// The setState function updates the state and triggers a rebuild.
	Build func(state S, ctx BuildContext, setState func(func(S) S)) Widget

	// Dispose is called when the widget is removed from the tree. Optional.
	Dispose func(state S)

	// DidChangeDependencies is called when inherited widgets change. Optional.
	DidChangeDependencies func(state S, ctx BuildContext)

	// DidUpdateWidget is called when the widget configuration changes. Optional.
	DidUpdateWidget func(state S, oldWidget StatefulWidget)

	// WidgetKey is an optional key for the widget.
	WidgetKey any
}

// Widget returns a Widget that can be used in the widget tree.
func (b StatefulBuilder[S]) Widget() Widget {
	return &inlineStatefulWidget[S]{config: b}
}

type inlineStatefulWidget[S any] struct {
	config StatefulBuilder[S]
}

func (s *inlineStatefulWidget[S]) CreateElement() Element {
	return NewStatefulElement(s, nil)
}

func (s *inlineStatefulWidget[S]) Key() any {
	return s.config.WidgetKey
}

func (s *inlineStatefulWidget[S]) CreateState() State {
	return &inlineStatefulState[S]{config: s.config}
}

type inlineStatefulState[S any] struct {
	value   S
	config  StatefulBuilder[S]
	element *StatefulElement
}

// SetElement stores the element reference for triggering rebuilds.
func (s *inlineStatefulState[S]) SetElement(element *StatefulElement) {
	s.element = element
}

// InitState initializes the state value using the init function.
func (s *inlineStatefulState[S]) InitState() {
	if s.config.Init != nil {
		s.value = s.config.Init()
	}
}

// Build invokes the build function with the current state and a setState callback.
func (s *inlineStatefulState[S]) Build(ctx BuildContext) Widget {
	if s.config.Build != nil {
		return s.config.Build(s.value, ctx, func(update func(S) S) {
			s.value = update(s.value)
			if s.element != nil {
				s.element.MarkNeedsBuild()
			}
		})
	}
	return nil
}

// SetState executes the given function and schedules a rebuild.
func (s *inlineStatefulState[S]) SetState(fn func()) {
	if fn != nil {
		fn()
	}
	if s.element != nil {
		s.element.MarkNeedsBuild()
	}
}

// Dispose calls the dispose callback if provided.
func (s *inlineStatefulState[S]) Dispose() {
	if s.config.Dispose != nil {
		s.config.Dispose(s.value)
	}
}

// DidChangeDependencies calls the callback if provided.
func (s *inlineStatefulState[S]) DidChangeDependencies() {
	if s.config.DidChangeDependencies != nil && s.element != nil {
		s.config.DidChangeDependencies(s.value, s.element)
	}
}

// DidUpdateWidget calls the callback if provided.
func (s *inlineStatefulState[S]) DidUpdateWidget(oldWidget StatefulWidget) {
	if s.config.DidUpdateWidget != nil {
		s.config.DidUpdateWidget(s.value, oldWidget)
	}
}
