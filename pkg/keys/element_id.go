package keys

import "fmt"

// ElementId is a generational handle to a mounted element, held by the
// arena in pkg/core. Pairing an index with a generation counter means a
// stale id left over from a defunct element resolves to "not found"
// instead of silently pointing at whatever element was later allocated
// into the same slot.
//
// The zero value is never a valid live id, so ElementId doubles as its
// own "none" — callers that would otherwise want Option[ElementId] just
// test IsValid().
type ElementId struct {
	index      uint32
	generation uint32
}

// NewElementId constructs an ElementId for the given arena slot and
// generation. generation must be nonzero; the arena reserves 0 to mean
// "never allocated".
func NewElementId(index, generation uint32) ElementId {
	return ElementId{index: index, generation: generation}
}

// IsValid reports whether this id could possibly refer to a live
// element. It does not guarantee the element is still mounted — only
// the arena's generation check (Resolve) can confirm that.
func (id ElementId) IsValid() bool {
	return id.generation != 0
}

// Index returns the arena slot index.
func (id ElementId) Index() uint32 { return id.index }

// Generation returns the generation the id was stamped with.
func (id ElementId) Generation() uint32 { return id.generation }

// String implements fmt.Stringer.
func (id ElementId) String() string {
	if !id.IsValid() {
		return "ElementId(none)"
	}
	return fmt.Sprintf("ElementId(%d@%d)", id.index, id.generation)
}
