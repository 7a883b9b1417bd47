package keys

import "testing"

func TestValueKeyEqual(t *testing.T) {
	a := NewValueKey(42)
	b := NewValueKey(42)
	c := NewValueKey(43)

	if !a.Equal(b) {
		t.Fatalf("expected equal value keys to compare equal")
	}
	if a.Equal(c) {
		t.Fatalf("expected different value keys to compare unequal")
	}
}

func TestValueKeyDifferentTypesNeverEqual(t *testing.T) {
	a := NewValueKey(1)
	b := NewValueKey("1")
	if a.Equal(b) {
		t.Fatalf("keys of different concrete types must never be equal")
	}
}

func TestObjectKeyComparesByIdentity(t *testing.T) {
	v1 := new(int)
	v2 := new(int)
	a := NewObjectKey(v1)
	b := NewObjectKey(v1)
	c := NewObjectKey(v2)

	if !a.Equal(b) {
		t.Fatalf("expected object keys over the same pointer to be equal")
	}
	if a.Equal(c) {
		t.Fatalf("expected object keys over different pointers to be unequal")
	}
}

func TestGlobalKeyUniqueAndStable(t *testing.T) {
	a := NewGlobalKey("a")
	b := NewGlobalKey("b")

	if a.Equal(b) {
		t.Fatalf("expected freshly minted global keys to be distinct")
	}
	if !a.Equal(a) {
		t.Fatalf("expected a global key to equal itself")
	}
}

func TestEqualHandlesNilKeys(t *testing.T) {
	if !Equal(nil, nil) {
		t.Fatalf("expected two nil keys to be equal")
	}
	if Equal(NewValueKey(1), nil) {
		t.Fatalf("expected a non-nil key to be unequal to nil")
	}
	if Equal(nil, NewValueKey(1)) {
		t.Fatalf("expected nil to be unequal to a non-nil key")
	}
}

func TestElementIdZeroValueIsInvalid(t *testing.T) {
	var id ElementId
	if id.IsValid() {
		t.Fatalf("expected the zero ElementId to be invalid")
	}
	if got := NewElementId(3, 1); !got.IsValid() {
		t.Fatalf("expected a nonzero-generation id to be valid")
	}
}

func TestRegistryRegisterResolveUnregister(t *testing.T) {
	r := NewRegistry()
	key := NewGlobalKey("widget-under-test")
	id := NewElementId(1, 1)

	if _, ok := r.Resolve(key); ok {
		t.Fatalf("expected unregistered key to not resolve")
	}

	r.Register(key, id)
	got, ok := r.Resolve(key)
	if !ok || got != id {
		t.Fatalf("expected Resolve to return the registered id, got %v, %v", got, ok)
	}

	staleID := NewElementId(2, 1)
	r.Unregister(key, staleID)
	if _, ok := r.Resolve(key); !ok {
		t.Fatalf("expected Unregister with a stale id to leave the current registration intact")
	}

	r.Unregister(key, id)
	if _, ok := r.Resolve(key); ok {
		t.Fatalf("expected Unregister with the current id to remove the entry")
	}
}

func TestRegistrySnapshotIsSorted(t *testing.T) {
	r := NewRegistry()
	k1 := NewGlobalKey("first")
	k2 := NewGlobalKey("second")
	r.Register(k1, NewElementId(1, 1))
	r.Register(k2, NewElementId(2, 1))

	snapshot := r.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snapshot))
	}
	if snapshot[0].id >= snapshot[1].id {
		t.Fatalf("expected snapshot to be sorted by key creation order")
	}
}
