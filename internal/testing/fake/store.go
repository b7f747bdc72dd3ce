package fake

import "go.dedis.ch/blitz/core/store"

// Snapshot is a snapshot held in a map, which fails on demand.
//
// - implements store.Snapshot
type Snapshot struct {
	values map[string][]byte

	ErrGet    error
	ErrSet    error
	ErrDelete error
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{values: map[string][]byte{}}
}

// NewBadSnapshot returns an empty snapshot that fails every operation.
func NewBadSnapshot() *Snapshot {
	snap := NewSnapshot()
	snap.ErrGet = fakeErr
	snap.ErrSet = fakeErr
	snap.ErrDelete = fakeErr

	return snap
}

// Get implements store.Readable.
func (snap *Snapshot) Get(key []byte) ([]byte, error) {
	if snap.ErrGet != nil {
		return nil, snap.ErrGet
	}

	return snap.values[string(key)], nil
}

// Set implements store.Writable.
func (snap *Snapshot) Set(key, value []byte) error {
	if snap.ErrSet != nil {
		return snap.ErrSet
	}

	snap.values[string(key)] = value

	return nil
}

// Delete implements store.Writable.
func (snap *Snapshot) Delete(key []byte) error {
	if snap.ErrDelete != nil {
		return snap.ErrDelete
	}

	delete(snap.values, string(key))

	return nil
}

// Len returns the number of keys.
func (snap *Snapshot) Len() int {
	return len(snap.values)
}

var _ store.Snapshot = (*Snapshot)(nil)
