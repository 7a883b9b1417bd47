package core

import "github.com/go-drift/drift/pkg/keys"

// Arena assigns a stable keys.ElementId to every mounted element and keeps
// the inactive pool elements pass through between being unmounted from one
// parent and either being reactivated under a new one (GlobalKey reparenting)
// or being swept and disposed at the end of a build pass.
//
// A slot's generation increments every time it's reused, so a stale
// ElementId held by some other part of the tree can never silently resolve
// to the wrong element after a reuse.
type Arena struct {
	slots       []arenaSlot
	freeList    []uint32
	inactive    map[keys.ElementId]Element
	globalKeys  *keys.Registry
	elementKeys map[keys.ElementId]keys.GlobalKey
}

type arenaSlot struct {
	element    Element
	generation uint32
}

// NewArena constructs an empty Arena backed by registry for GlobalKey
// lookups. Pass keys.NewRegistry() unless sharing a registry across trees.
func NewArena(registry *keys.Registry) *Arena {
	return &Arena{
		inactive:    make(map[keys.ElementId]Element),
		globalKeys:  registry,
		elementKeys: make(map[keys.ElementId]keys.GlobalKey),
	}
}

// Allocate assigns a fresh ElementId to element, reusing a freed slot
// (with a bumped generation) when one is available.
func (a *Arena) Allocate(element Element) keys.ElementId {
	if n := len(a.freeList); n > 0 {
		index := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		slot := &a.slots[index]
		slot.generation++
		slot.element = element
		return keys.NewElementId(index, slot.generation)
	}
	index := uint32(len(a.slots))
	a.slots = append(a.slots, arenaSlot{element: element, generation: 1})
	return keys.NewElementId(index, 1)
}

// Resolve returns the element currently occupying id's slot, or nil if the
// slot has since been freed or reused under a later generation.
func (a *Arena) Resolve(id keys.ElementId) Element {
	if !id.IsValid() || int(id.Index()) >= len(a.slots) {
		return nil
	}
	slot := a.slots[id.Index()]
	if slot.generation != id.Generation() {
		return nil
	}
	return slot.element
}

// Free releases id's slot, making it eligible for reuse by a later Allocate,
// and drops any GlobalKey registration still pointing at it so a freed id
// can never be "found" by a later ResolveGlobalKey.
func (a *Arena) Free(id keys.ElementId) {
	if !id.IsValid() || int(id.Index()) >= len(a.slots) {
		return
	}
	index := id.Index()
	if a.slots[index].generation != id.Generation() {
		return
	}
	if a.slots[index].element == nil {
		// Already freed (Sweep frees ids that Unmount has just freed).
		return
	}
	if key, ok := a.elementKeys[id]; ok {
		if a.globalKeys != nil {
			a.globalKeys.Unregister(key, id)
		}
		delete(a.elementKeys, id)
	}
	a.slots[index].element = nil
	a.freeList = append(a.freeList, index)
}

// Deactivate moves element into the inactive pool under id, pending either
// reactivation (a GlobalKey match found it a new parent before the build
// pass ends) or Sweep disposing it.
func (a *Arena) Deactivate(id keys.ElementId, element Element) {
	a.inactive[id] = element
}

// Reactivate removes id from the inactive pool, returning the element that
// was parked there if it's still present.
func (a *Arena) Reactivate(id keys.ElementId) (Element, bool) {
	element, ok := a.inactive[id]
	if ok {
		delete(a.inactive, id)
	}
	return element, ok
}

// Sweep unmounts and frees every element still sitting in the inactive pool
// at the end of a build pass, i.e. every element that was deactivated but
// never reclaimed by a GlobalKey match (spec.md Scenario E).
func (a *Arena) Sweep() {
	for id, element := range a.inactive {
		element.Unmount()
		a.Free(id)
		delete(a.inactive, id)
	}
}

// ResolveGlobalKey looks up the element id currently registered for key, if
// any, via the shared GlobalKey registry.
func (a *Arena) ResolveGlobalKey(key keys.GlobalKey) (keys.ElementId, bool) {
	if a.globalKeys == nil {
		return keys.ElementId{}, false
	}
	return a.globalKeys.Resolve(key)
}

// RegisterGlobalKey records that key now resolves to id, both in the
// shared registry (for ResolveGlobalKey/future reparenting) and locally
// (so Sweep can unregister it if id ends up discarded unreclaimed).
func (a *Arena) RegisterGlobalKey(key keys.GlobalKey, id keys.ElementId) {
	if a.globalKeys == nil {
		return
	}
	a.globalKeys.Register(key, id)
	a.elementKeys[id] = key
}
