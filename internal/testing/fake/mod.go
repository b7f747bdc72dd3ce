// Package fake provides test doubles for the interfaces of the repository.
// Most of them can be configured to fail with the error of GetError.
package fake

import (
	"fmt"
	"sync"

	"golang.org/x/xerrors"
)

var fakeErr = xerrors.New("fake error")

// GetError returns the error of the failing doubles.
func GetError() error {
	return fakeErr
}

// Err returns the text of an error wrapping the fake error with msg.
func Err(msg string) string {
	return fmt.Sprintf("%s: %v", msg, fakeErr)
}

// Recorder keeps the arguments of successive calls. It is safe for concurrent
// use.
type Recorder struct {
	sync.Mutex
	entries [][]interface{}
}

// Record adds a call.
func (r *Recorder) Record(args ...interface{}) {
	r.Lock()
	r.entries = append(r.entries, args)
	r.Unlock()
}

// Arg returns the i-th argument of the n-th call.
func (r *Recorder) Arg(n, i int) interface{} {
	r.Lock()
	defer r.Unlock()

	return r.entries[n][i]
}

// Count returns the number of calls.
func (r *Recorder) Count() int {
	r.Lock()
	defer r.Unlock()

	return len(r.entries)
}
