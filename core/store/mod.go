// Package store defines the primitives of a simple key/value storage.
//
// A missing key is read as a nil value and never as an error, so that callers
// can tell "absent" from a storage failure.
package store

// Readable is the interface for a readable store.
type Readable interface {
	Get(key []byte) ([]byte, error)
}

// Writable is the interface for a writable store.
type Writable interface {
	Set(key []byte, value []byte) error

	Delete(key []byte) error
}

// Snapshot is a state of the store that can be read and write independently. A
// write is applied only to the snapshot reference.
type Snapshot interface {
	Readable
	Writable
}

// Viewer is a store that can serve several reads from the same state.
type Viewer interface {
	Readable

	// View calls fn with a reader of the state at the time of the call. No
	// update is visible to the reader until fn returns.
	View(fn func(Readable) error) error
}

// Store is a durable store. Updates are applied atomically: either every write
// of the callback is persisted, or none of them when it returns an error.
type Store interface {
	Viewer

	Update(fn func(Writable) error) error
}

// View calls fn with a consistent reader of r. A store that is not a viewer,
// like a snapshot owned by the caller, is passed as is.
func View(r Readable, fn func(Readable) error) error {
	viewer, ok := r.(Viewer)
	if !ok {
		return fn(r)
	}

	return viewer.View(fn)
}

// Has returns true if the key is set in the store.
func Has(r Readable, key []byte) (bool, error) {
	value, err := r.Get(key)
	if err != nil {
		return false, err
	}

	return value != nil, nil
}
