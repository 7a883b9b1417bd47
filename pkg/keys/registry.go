package keys

import (
	"sort"
	"sync"

	"golang.org/x/exp/maps"
)

// Registry is the process-wide GlobalKey -> ElementId lookup table. The
// reconciler consults it when it meets a widget carrying a GlobalKey
// that isn't a match for the element in the same slot: if the key
// resolves to an element that was discarded earlier in the same build
// pass and is still in the arena's inactive pool, that element is
// reactivated under the new parent instead of being rebuilt from
// scratch.
type Registry struct {
	mu      sync.Mutex
	entries map[GlobalKey]ElementId
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[GlobalKey]ElementId)}
}

// Register associates key with id, overwriting any previous owner.
// Widget construction with a duplicate GlobalKey in the same frame is a
// build-time usage error the caller should report through the normal
// error-handling surface; Register itself just takes the last writer.
func (r *Registry) Register(key GlobalKey, id ElementId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = id
}

// Resolve returns the element id currently registered under key.
func (r *Registry) Resolve(key GlobalKey) (ElementId, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.entries[key]
	return id, ok
}

// Unregister removes key's entry, but only if it still points at id —
// this prevents a late unregister for a defunct element from clobbering
// a newer registration that already took over the same key.
func (r *Registry) Unregister(key GlobalKey, id ElementId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.entries[key]; ok && current == id {
		delete(r.entries, key)
	}
}

// Snapshot returns every registered key in a stable order, for
// diagnostics (pkg/devtools walks this to report outstanding global
// keys).
func (r *Registry) Snapshot() []GlobalKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := maps.Keys(r.entries)
	sort.Slice(keys, func(i, j int) bool { return keys[i].id < keys[j].id })
	return keys
}
