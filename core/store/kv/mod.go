// Package kv persists the state of a node in a bbolt database
// (https://github.com/etcd-io/bbolt). A database holds named buckets, each of
// them exposed as a durable store.
package kv

import (
	"time"

	"go.dedis.ch/blitz/core/store"
	"go.etcd.io/bbolt"
	"golang.org/x/xerrors"
)

// DB is a database of named buckets.
type DB interface {
	// Bucket returns the store of the bucket. The bucket is created by the
	// first update and reads as empty until then.
	Bucket(name string) store.Store

	Close() error
}

const openTimeout = time.Second

// Open opens the database at the path, and creates the file if it does not
// exist. It fails if another process holds the database for longer than a
// second.
func Open(path string) (DB, error) {
	bolt, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, xerrors.Errorf("failed to open %s: %v", path, err)
	}

	return boltDB{bolt: bolt}, nil
}

// - implements kv.DB
type boltDB struct {
	bolt *bbolt.DB
}

// Bucket implements kv.DB.
func (db boltDB) Bucket(name string) store.Store {
	return bucketStore{bolt: db.bolt, name: []byte(name)}
}

// Close implements kv.DB. The stores of the database fail afterwards.
func (db boltDB) Close() error {
	return db.bolt.Close()
}

// bucketStore runs each operation in its own bbolt transaction.
//
// - implements store.Store
type bucketStore struct {
	bolt *bbolt.DB
	name []byte
}

// Get implements store.Readable.
func (s bucketStore) Get(key []byte) ([]byte, error) {
	var value []byte

	err := s.bolt.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.name)
		if bucket == nil {
			return nil
		}

		// Memory returned by bbolt is only valid during the transaction.
		if res := bucket.Get(key); res != nil {
			value = append([]byte{}, res...)
		}

		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to read bucket %s: %v", s.name, err)
	}

	return value, nil
}

// View implements store.Viewer. The reads of the callback share one bbolt
// transaction.
func (s bucketStore) View(fn func(store.Readable) error) error {
	return s.bolt.View(func(tx *bbolt.Tx) error {
		return fn(bucketReader{bucket: tx.Bucket(s.name)})
	})
}

// Update implements store.Store. The writes of the callback are committed
// together, or not at all if it returns an error.
func (s bucketStore) Update(fn func(store.Writable) error) error {
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(s.name)
		if err != nil {
			return xerrors.Errorf("failed to create bucket %s: %v", s.name, err)
		}

		return fn(bucketWriter{bucket: bucket})
	})
}

// bucketReader reads a bucket inside a transaction. A nil bucket is empty.
//
// - implements store.Readable
type bucketReader struct {
	bucket *bbolt.Bucket
}

func (r bucketReader) Get(key []byte) ([]byte, error) {
	if r.bucket == nil {
		return nil, nil
	}

	res := r.bucket.Get(key)
	if res == nil {
		return nil, nil
	}

	return append([]byte{}, res...), nil
}

// - implements store.Writable
type bucketWriter struct {
	bucket *bbolt.Bucket
}

func (w bucketWriter) Set(key, value []byte) error {
	return w.bucket.Put(key, value)
}

func (w bucketWriter) Delete(key []byte) error {
	return w.bucket.Delete(key)
}
