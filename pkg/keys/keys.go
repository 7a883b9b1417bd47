// Package keys implements the identity primitives the reconciler uses to
// decide whether two widgets in the same slot describe the same
// conceptual element across rebuilds, and to address a specific element
// across the whole tree regardless of where it currently lives.
package keys

import "fmt"

// Key distinguishes sibling widgets of the same type so the reconciler
// can tell "same element, new config" from "a different element
// entirely" even when children get reordered.
type Key interface {
	// Equal reports whether this key identifies the same conceptual
	// element as other. Keys of different concrete types are never equal.
	Equal(other Key) bool
	String() string
}

// ValueKey compares by value equality of the wrapped comparable value.
// It's the key to reach for when the natural identity of a list item is
// a plain value, e.g. a database row id.
type ValueKey[T comparable] struct {
	Value T
}

// NewValueKey constructs a ValueKey wrapping value.
func NewValueKey[T comparable](value T) ValueKey[T] {
	return ValueKey[T]{Value: value}
}

// Equal implements Key.
func (k ValueKey[T]) Equal(other Key) bool {
	o, ok := other.(ValueKey[T])
	return ok && o.Value == k.Value
}

// String implements Key.
func (k ValueKey[T]) String() string {
	return fmt.Sprintf("ValueKey(%v)", k.Value)
}

// ObjectKey compares by pointer identity of the wrapped value, useful
// when the natural identity of a list item is "this exact object",
// independent of its field values.
type ObjectKey struct {
	Object any
}

// NewObjectKey constructs an ObjectKey wrapping object.
func NewObjectKey(object any) ObjectKey {
	return ObjectKey{Object: object}
}

// Equal implements Key.
func (k ObjectKey) Equal(other Key) bool {
	o, ok := other.(ObjectKey)
	return ok && o.Object == k.Object
}

// String implements Key.
func (k ObjectKey) String() string {
	return fmt.Sprintf("ObjectKey(%p)", &k.Object)
}

// GlobalKey is a process-wide unique key. Unlike ValueKey and ObjectKey,
// a GlobalKey is also registered in a Registry, so the element currently
// holding it can be found from anywhere in the tree and moved — the
// mechanism behind moving a subtree to a new parent across a single
// rebuild without losing its state.
type GlobalKey struct {
	id         uint64
	debugLabel string
}

var globalKeyCounter uint64

// NewGlobalKey allocates a fresh, process-wide unique GlobalKey.
// debugLabel is carried only for diagnostics; it plays no role in
// equality.
func NewGlobalKey(debugLabel string) GlobalKey {
	globalKeyCounter++
	return GlobalKey{id: globalKeyCounter, debugLabel: debugLabel}
}

// Equal implements Key.
func (k GlobalKey) Equal(other Key) bool {
	o, ok := other.(GlobalKey)
	return ok && o.id == k.id
}

// String implements Key.
func (k GlobalKey) String() string {
	if k.debugLabel != "" {
		return fmt.Sprintf("GlobalKey(#%d, %s)", k.id, k.debugLabel)
	}
	return fmt.Sprintf("GlobalKey(#%d)", k.id)
}

// Equal is a nil-safe helper comparing two possibly-nil keys the way the
// reconciler needs: two nil keys are equal (both "no key"), a nil and a
// non-nil key are never equal.
func Equal(a, b Key) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}
