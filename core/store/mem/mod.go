// Package mem implements an in-memory key/value store and a staging snapshot
// that records the updates on top of a parent store.
//
// A staged snapshot never modifies its parent. The updates are applied with
// Apply once the caller decides to keep them, or dropped with the snapshot.
package mem

import (
	"sort"
	"sync"

	"go.dedis.ch/blitz/core/store"
)

// item is an update of the snapshot. A deleted item hides the value of the
// parent.
type item struct {
	value   []byte
	deleted bool
}

// Store is an in-memory implementation of a durable store.
//
// - implements store.Store
type Store struct {
	sync.RWMutex

	entries map[string][]byte
}

// NewStore creates a new empty in-memory store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string][]byte),
	}
}

// Get implements store.Readable. It returns the value associated to the key,
// or nil if it does not exist.
func (s *Store) Get(key []byte) ([]byte, error) {
	s.RLock()
	defer s.RUnlock()

	value, found := s.entries[string(key)]
	if !found {
		return nil, nil
	}

	return append([]byte{}, value...), nil
}

// View implements store.Viewer. The updates wait for the callback to return.
func (s *Store) View(fn func(store.Readable) error) error {
	s.RLock()
	defer s.RUnlock()

	return fn(lockedReader{s})
}

// Update implements store.Store. The callback writes into a staged snapshot
// which is applied only if the callback succeeds.
func (s *Store) Update(fn func(store.Writable) error) error {
	s.Lock()
	defer s.Unlock()

	snap := NewSnapshot(lockedReader{s})

	err := fn(snap)
	if err != nil {
		return err
	}

	for key, it := range snap.updates {
		if it.deleted {
			delete(s.entries, key)
		} else {
			s.entries[key] = it.value
		}
	}

	return nil
}

// Len returns the number of keys in the store.
func (s *Store) Len() int {
	s.RLock()
	defer s.RUnlock()

	return len(s.entries)
}

// lockedReader reads the entries of a store that is already locked by the
// caller.
type lockedReader struct {
	s *Store
}

func (r lockedReader) Get(key []byte) ([]byte, error) {
	value, found := r.s.entries[string(key)]
	if !found {
		return nil, nil
	}

	return append([]byte{}, value...), nil
}

// Snapshot is a staging area on top of a parent store. It saves the updates in
// an internal map and, when reading, it looks up the parent if the key has not
// been updated.
//
// - implements store.Snapshot
type Snapshot struct {
	parent  store.Readable
	updates map[string]item
}

// NewSnapshot creates a new empty staging snapshot on top of the parent.
func NewSnapshot(parent store.Readable) *Snapshot {
	return &Snapshot{
		parent:  parent,
		updates: make(map[string]item),
	}
}

// Get implements store.Readable. It returns the staged value if any, otherwise
// the value of the parent.
func (s *Snapshot) Get(key []byte) ([]byte, error) {
	it, found := s.updates[string(key)]
	if found {
		if it.deleted {
			return nil, nil
		}

		return it.value, nil
	}

	if s.parent == nil {
		return nil, nil
	}

	return s.parent.Get(key)
}

// Set implements store.Writable. It stages the value for the key.
func (s *Snapshot) Set(key, value []byte) error {
	s.updates[string(key)] = item{value: append([]byte{}, value...)}

	return nil
}

// Delete implements store.Writable. It stages the deletion of the key.
func (s *Snapshot) Delete(key []byte) error {
	s.updates[string(key)] = item{deleted: true}

	return nil
}

// Stage returns a new snapshot on top of this one.
func (s *Snapshot) Stage() *Snapshot {
	return NewSnapshot(s)
}

// Len returns the number of staged updates.
func (s *Snapshot) Len() int {
	return len(s.updates)
}

// Apply writes the staged updates into the writable in the lexicographic order
// of the keys.
func (s *Snapshot) Apply(w store.Writable) error {
	keys := make([]string, 0, len(s.updates))
	for key := range s.updates {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		it := s.updates[key]

		var err error
		if it.deleted {
			err = w.Delete([]byte(key))
		} else {
			err = w.Set([]byte(key), it.value)
		}

		if err != nil {
			return err
		}
	}

	return nil
}
