package aggindex

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Sentinel errors for index maintenance. A failed hook fails the whole
// mutation it belongs to, so these surface to the caller unmodified.
var (
	ErrDuplicateEntry = errors.New("aggregate entry already present")
	ErrEntryNotFound  = errors.New("aggregate entry not found")
)

// Definition configures how documents of type T map into one index. Namespace
// partitions the index per tenant; no query can span namespaces. Value is
// optional; without it Sum always reports 0.
type Definition[T any] struct {
	// Name identifies the index in logs and errors.
	Name string

	// Namespace extracts the tenant partition the document belongs to.
	Namespace func(T) uuid.UUID

	// Key extracts the sort key (scalar or composite tuple).
	Key func(T) Key

	// ID extracts the document id. Keys are not unique; the id disambiguates.
	ID func(T) uuid.UUID

	// Value extracts the summed value, in whatever unit the caller uses.
	// Nil for count-only indexes.
	Value func(T) int64
}

// Index is a namespaced order-statistics index over documents of type T.
// All methods are safe for concurrent use.
type Index[T any] struct {
	def Definition[T]

	mu    sync.RWMutex
	roots map[uuid.UUID]*node
}

// New builds an index from a definition. Namespace, Key, and ID extractors
// are required.
func New[T any](def Definition[T]) (*Index[T], error) {
	if def.Namespace == nil || def.Key == nil || def.ID == nil {
		return nil, fmt.Errorf("index %q: namespace, key, and id extractors are required", def.Name)
	}
	return &Index[T]{
		def:   def,
		roots: make(map[uuid.UUID]*node),
	}, nil
}

func (ix *Index[T]) triple(doc T) (uuid.UUID, Key, uuid.UUID, int64) {
	var value int64
	if ix.def.Value != nil {
		value = ix.def.Value(doc)
	}
	return ix.def.Namespace(doc), ix.def.Key(doc), ix.def.ID(doc), value
}

// Insert adds one leaf for the document, keyed by (namespace, key, id).
func (ix *Index[T]) Insert(doc T) error {
	ns, key, id, value := ix.triple(doc)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	root, ok := insert(ix.roots[ns], newNode(key, id, value))
	if !ok {
		return fmt.Errorf("index %q: insert %s key %s: %w", ix.def.Name, id, key, ErrDuplicateEntry)
	}
	ix.roots[ns] = root
	return nil
}

// Delete removes the leaf identified by the document's (namespace, key, id).
func (ix *Index[T]) Delete(doc T) error {
	ns, key, id, _ := ix.triple(doc)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	root, ok := remove(ix.roots[ns], key, id)
	if !ok {
		return fmt.Errorf("index %q: delete %s key %s: %w", ix.def.Name, id, key, ErrEntryNotFound)
	}
	if root == nil {
		delete(ix.roots, ns)
	} else {
		ix.roots[ns] = root
	}
	return nil
}

// Replace swaps the leaf for old with one for new. It is a no-op when the
// computed (namespace, key, value) triple is unchanged, so callers may invoke
// it unconditionally on every update; skipping the call when a key-relevant
// field changed is what silently drifts the index.
func (ix *Index[T]) Replace(oldDoc, newDoc T) error {
	oldNS, oldKey, oldID, oldValue := ix.triple(oldDoc)
	newNS, newKey, newID, newValue := ix.triple(newDoc)

	if oldNS == newNS && oldID == newID && oldKey.Equal(newKey) && oldValue == newValue {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	root, ok := remove(ix.roots[oldNS], oldKey, oldID)
	if !ok {
		return fmt.Errorf("index %q: replace %s key %s: %w", ix.def.Name, oldID, oldKey, ErrEntryNotFound)
	}
	if root == nil {
		delete(ix.roots, oldNS)
	} else {
		ix.roots[oldNS] = root
	}

	root, ok = insert(ix.roots[newNS], newNode(newKey, newID, newValue))
	if !ok {
		// Restore the old leaf so a failed swap leaves the index unchanged.
		if restored, restoredOK := insert(ix.roots[oldNS], newNode(oldKey, oldID, oldValue)); restoredOK {
			ix.roots[oldNS] = restored
		}
		return fmt.Errorf("index %q: replace %s key %s: %w", ix.def.Name, newID, newKey, ErrDuplicateEntry)
	}
	ix.roots[newNS] = root
	return nil
}

// Count returns the number of leaves in the namespace whose keys fall inside
// bounds, in O(log n).
func (ix *Index[T]) Count(namespace uuid.UUID, bounds Bounds) int64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	count, _ := rangeAgg(ix.roots[namespace], bounds)
	return count
}

// Sum returns the value sum over the leaves in the namespace whose keys fall
// inside bounds, in O(log n). Indexes without a value extractor sum to 0.
func (ix *Index[T]) Sum(namespace uuid.UUID, bounds Bounds) int64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	_, sum := rangeAgg(ix.roots[namespace], bounds)
	return sum
}

// Reset drops every namespace. Used by the one-shot backfill before it
// re-inserts all records.
func (ix *Index[T]) Reset() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.roots = make(map[uuid.UUID]*node)
}
