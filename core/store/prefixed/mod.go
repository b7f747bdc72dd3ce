// Package prefixed gives each user of a store its own namespace. A key is
// stored under the digest of the namespace and the key, so that two contracts
// sharing the same store never see each other's values.
package prefixed

import (
	"go.dedis.ch/blitz/core/store"
	"go.dedis.ch/blitz/crypto"
)

// Key returns the key under which the value of key in the namespace is stored.
func Key(namespace string, key []byte) []byte {
	return crypto.Digest([]byte(namespace), key)
}

// Readable returns a view of r restricted to the namespace.
func Readable(namespace string, r store.Readable) store.Readable {
	return view{namespace: namespace, r: r}
}

// Snapshot returns a view of snap restricted to the namespace.
func Snapshot(namespace string, snap store.Snapshot) store.Snapshot {
	return view{namespace: namespace, r: snap, w: snap}
}

type view struct {
	namespace string
	r         store.Readable
	w         store.Writable
}

func (v view) Get(key []byte) ([]byte, error) {
	return v.r.Get(Key(v.namespace, key))
}

func (v view) Set(key, value []byte) error {
	return v.w.Set(Key(v.namespace, key), value)
}

func (v view) Delete(key []byte) error {
	return v.w.Delete(Key(v.namespace, key))
}
