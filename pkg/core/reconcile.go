package core

import (
	"reflect"

	"github.com/go-drift/drift/pkg/keys"
)

// reconcile.go drives the widget-tree diff that decides, for every
// position in the tree, whether to update an existing element in place,
// reactivate one sitting in the Inactive pool under a GlobalKey match, or
// construct a fresh element (spec.md §4.4).

// reactivator is implemented by every element kind; it restores the
// mount-time state a GlobalKey reparent needs (spec.md §4.4.1) without
// rerunning the kind's full construction logic (CreateState, CreateRenderObject,
// etc.), reusing whatever subtree the element already has.
type reactivator interface {
	reactivate(parent Element, slot any, widget Widget)
}

// deactivateOrUnmount replaces a bare Unmount call wherever the
// reconciler discards an element that might still be wanted via a
// GlobalKey reparent later in this same build pass: the element goes
// into owner's Arena inactive pool (spec.md §4.3's Active -> Inactive
// transition) instead of straight to Defunct. Elements never wired to
// an Arena (owner nil, or no ElementId assigned) just unmount immediately,
// since there is nowhere to park them.
func deactivateOrUnmount(element Element, owner *BuildOwner) {
	if element == nil {
		return
	}
	if owner != nil {
		if arena := owner.Arena(); arena != nil {
			if idGetter, ok := element.(interface{ elementId() keys.ElementId }); ok {
				if id := idGetter.elementId(); id.IsValid() {
					arena.Deactivate(id, element)
					return
				}
			}
		}
	}
	element.Unmount()
}

// tryReactivate resolves widget's GlobalKey (if it has one) against
// owner's Arena and, if a matching element is currently sitting in the
// Inactive pool, reconnects that exact element under parent/slot instead
// of building fresh (spec.md §4.4.1, Scenario B). Returns ok=false for
// any widget without a GlobalKey, or whose key doesn't resolve to
// anything currently parked.
func tryReactivate(widget Widget, parent Element, slot any, owner *BuildOwner) (Element, bool) {
	if owner == nil || widget == nil {
		return nil, false
	}
	key, ok := widget.Key().(keys.GlobalKey)
	if !ok {
		return nil, false
	}
	arena := owner.Arena()
	if arena == nil {
		return nil, false
	}
	id, ok := arena.ResolveGlobalKey(key)
	if !ok {
		return nil, false
	}
	element, ok := arena.Reactivate(id)
	if !ok {
		return nil, false
	}
	r, ok := element.(reactivator)
	if !ok {
		// Can't reactivate this kind; treat it as gone rather than leaking
		// it back into the tree half-restored.
		element.Unmount()
		return nil, false
	}
	r.reactivate(parent, slot, widget)
	return element, true
}

// slotEqual compares two slot values without reflect.DeepEqual.
// Slots are either nil or IndexedSlot, both of which are directly comparable.
func slotEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	sa, aOK := a.(IndexedSlot)
	sb, bOK := b.(IndexedSlot)
	if aOK && bOK {
		return sa == sb
	}
	return a == b
}

// updateChild reconciles a single old element against a new widget
// (spec.md §4.4): reuse existing in place when compatible, reactivate an
// Inactive GlobalKey match, or discard the old one (via deactivateOrUnmount,
// never a direct Unmount) and inflate fresh.
func updateChild(existing Element, widget Widget, parent Element, owner *BuildOwner, slot any) Element {
	if widget == nil {
		if existing != nil {
			deactivateOrUnmount(existing, owner)
		}
		return nil
	}
	if existing != nil && canUpdateWidget(existing.Widget(), widget) {
		if !slotEqual(existing.Slot(), slot) {
			existing.UpdateSlot(slot)
		}
		existing.Update(widget)
		return existing
	}
	if existing != nil {
		deactivateOrUnmount(existing, owner)
	}
	if reactivated, ok := tryReactivate(widget, parent, slot, owner); ok {
		return reactivated
	}
	element := inflateWidget(widget, owner)
	element.Mount(parent, slot)
	return element
}

// updateChildren reconciles old elements with new widgets using keys.
// Implements multi-pass diffing: top sync, bottom scan, key map, final sync.
func updateChildren(
	parent Element,
	oldChildren []Element,
	newWidgets []Widget,
	owner *BuildOwner,
) []Element {
	newChildren := make([]Element, 0, len(newWidgets))

	oldStart, newStart := 0, 0
	oldEnd, newEnd := len(oldChildren), len(newWidgets)

	var prevChild Element

	// 1. Sync from top - match elements at same position
	for oldStart < oldEnd && newStart < newEnd {
		oldChild := oldChildren[oldStart]
		newWidget := newWidgets[newStart]
		if !canUpdateWidget(oldChild.Widget(), newWidget) {
			break
		}
		slot := IndexedSlot{Index: newStart, PreviousSibling: prevChild}
		child := updateChild(oldChild, newWidget, parent, owner, slot)
		newChildren = append(newChildren, child)
		prevChild = child
		oldStart++
		newStart++
	}

	// 2. Scan from bottom - find matching tail (don't process yet)
	oldEndScan, newEndScan := oldEnd, newEnd
	for oldEndScan > oldStart && newEndScan > newStart {
		oldChild := oldChildren[oldEndScan-1]
		newWidget := newWidgets[newEndScan-1]
		if !canUpdateWidget(oldChild.Widget(), newWidget) {
			break
		}
		oldEndScan--
		newEndScan--
	}

	// 3. Build key map for middle old children
	// Only comparable keys can be used in the map; non-comparable keys are treated as non-keyed.
	// NOTE: Duplicate keys silently overwrite earlier entries. If duplicate keys should be
	// invalid, add a debug log/guard here. For now this matches Flutter's behavior.
	keyedOld := make(map[any]Element)
	nonKeyedOld := make([]Element, 0)
	for i := oldStart; i < oldEndScan; i++ {
		child := oldChildren[i]
		key := child.Widget().Key()
		if key != nil && isComparable(key) {
			keyedOld[key] = child
		} else {
			nonKeyedOld = append(nonKeyedOld, child)
		}
	}

	// 4. Process middle new widgets
	nonKeyedIdx := 0
	for newStart < newEndScan {
		newWidget := newWidgets[newStart]
		key := newWidget.Key()
		var oldChild Element

		if key != nil && isComparable(key) {
			oldChild = keyedOld[key]
			delete(keyedOld, key)
		} else if nonKeyedIdx < len(nonKeyedOld) {
			// Try to reuse non-keyed children in order
			candidate := nonKeyedOld[nonKeyedIdx]
			if canUpdateWidget(candidate.Widget(), newWidget) {
				oldChild = candidate
				nonKeyedOld[nonKeyedIdx] = nil // Mark as used
			}
			nonKeyedIdx++
		}

		slot := IndexedSlot{Index: len(newChildren), PreviousSibling: prevChild}
		child := updateChild(oldChild, newWidget, parent, owner, slot)
		newChildren = append(newChildren, child)
		prevChild = child
		newStart++
	}

	// 5. Process bottom matches
	for newEndScan < newEnd {
		oldChild := oldChildren[oldEndScan]
		newWidget := newWidgets[newEndScan]
		slot := IndexedSlot{Index: len(newChildren), PreviousSibling: prevChild}
		child := updateChild(oldChild, newWidget, parent, owner, slot)
		newChildren = append(newChildren, child)
		prevChild = child
		oldEndScan++
		newEndScan++
	}

	// 6. Discard unused old children - parked in the Arena for a possible
	// GlobalKey reclaim elsewhere in this same pass, not unmounted outright.
	for _, remaining := range keyedOld {
		deactivateOrUnmount(remaining, owner)
	}
	for _, remaining := range nonKeyedOld {
		if remaining != nil {
			deactivateOrUnmount(remaining, owner)
		}
	}

	return newChildren
}

func canUpdateWidget(existing Widget, next Widget) bool {
	if existing == nil || next == nil {
		return false
	}
	if reflect.TypeOf(existing) != reflect.TypeOf(next) {
		return false
	}
	return keysEqual(existing.Key(), next.Key())
}

// keysEqual compares two widget keys. A keys.Key (ValueKey/ObjectKey/
// GlobalKey) is compared with its own Equal method; any other comparable
// value (plain strings, ints, structs) falls back to reflect.DeepEqual, so
// existing code that keys widgets with a bare string or int keeps working
// unchanged.
func keysEqual(a, b any) bool {
	if ak, ok := a.(keys.Key); ok {
		return keys.Equal(ak, asKey(b))
	}
	if bk, ok := b.(keys.Key); ok {
		return keys.Equal(asKey(a), bk)
	}
	return reflect.DeepEqual(a, b)
}

func asKey(v any) keys.Key {
	if k, ok := v.(keys.Key); ok {
		return k
	}
	return nil
}

// isComparable returns true if the value can be used as a map key.
// Non-comparable types (slices, maps, functions) return false.
func isComparable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}

func inflateWidget(widget Widget, owner *BuildOwner) Element {
	if widget == nil {
		return nil
	}
	element := widget.CreateElement()
	if setter, ok := element.(interface{ setWidget(Widget) }); ok {
		setter.setWidget(widget)
	}
	if setter, ok := element.(interface{ setBuildOwner(*BuildOwner) }); ok {
		setter.setBuildOwner(owner)
	}
	if setter, ok := element.(interface{ setSelf(Element) }); ok {
		setter.setSelf(element)
	}
	return element
}
