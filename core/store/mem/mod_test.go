package mem

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/blitz/core/store"
	"go.dedis.ch/blitz/internal/testing/fake"
)

func TestStore_Update(t *testing.T) {
	s := NewStore()

	err := s.Update(func(w store.Writable) error {
		require.NoError(t, w.Set([]byte("A"), []byte{1}))
		require.NoError(t, w.Set([]byte("B"), []byte{2}))

		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	value, err := s.Get([]byte("A"))
	require.NoError(t, err)
	require.Equal(t, []byte{1}, value)

	err = s.Update(func(w store.Writable) error {
		require.NoError(t, w.Delete([]byte("A")))
		require.NoError(t, w.Set([]byte("C"), []byte{3}))

		return fake.GetError()
	})
	require.Equal(t, fake.GetError(), err)
	require.Equal(t, 2, s.Len())

	err = s.Update(func(w store.Writable) error {
		return w.Delete([]byte("A"))
	})
	require.NoError(t, err)

	value, err = s.Get([]byte("A"))
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestStore_View(t *testing.T) {
	s := NewStore()

	done := make(chan struct{})
	go func() {
		defer close(done)

		for i := byte(0); i < 200; i++ {
			s.Update(func(w store.Writable) error {
				w.Set([]byte("A"), []byte{i})
				return w.Set([]byte("B"), []byte{i})
			})
		}
	}()

	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}

		err := store.View(s, func(r store.Readable) error {
			a, _ := r.Get([]byte("A"))
			b, _ := r.Get([]byte("B"))
			require.Equal(t, a, b)

			return nil
		})
		require.NoError(t, err)
	}

	// A plain reader is passed as is.
	snap := fake.NewSnapshot()
	err := store.View(snap, func(r store.Readable) error {
		require.Equal(t, snap, r)
		return fake.GetError()
	})
	require.Equal(t, fake.GetError(), err)
}

func TestSnapshot_Get(t *testing.T) {
	parent := NewSnapshot(nil)
	parent.updates["B"] = item{value: []byte{2}}
	parent.updates["D"] = item{value: []byte{3}}

	snap := parent.Stage()
	snap.updates["A"] = item{value: []byte{1}}

	value, err := snap.Get([]byte("A"))
	require.NoError(t, err)
	require.Equal(t, []byte{1}, value)

	value, err = snap.Get([]byte("B"))
	require.NoError(t, err)
	require.Equal(t, []byte{2}, value)

	value, err = snap.Get([]byte("C"))
	require.NoError(t, err)
	require.Nil(t, value)

	snap.updates["D"] = item{deleted: true}
	value, err = snap.Get([]byte("D"))
	require.NoError(t, err)
	require.Nil(t, value)

	snap = NewSnapshot(fake.NewBadSnapshot())
	_, err = snap.Get([]byte("A"))
	require.Equal(t, fake.GetError(), err)
}

func TestSnapshot_SetDelete(t *testing.T) {
	snap := NewSnapshot(nil)

	require.NoError(t, snap.Set([]byte("A"), []byte{1}))
	require.Equal(t, item{value: []byte{1}}, snap.updates["A"])

	require.NoError(t, snap.Delete([]byte("A")))
	require.Equal(t, item{deleted: true}, snap.updates["A"])

	require.NoError(t, snap.Delete([]byte("B")))
	require.Equal(t, 2, snap.Len())
}

func TestSnapshot_Apply(t *testing.T) {
	target := fake.NewSnapshot()
	target.Set([]byte("B"), []byte{9})

	snap := NewSnapshot(target)
	snap.Set([]byte("A"), []byte{1})
	snap.Delete([]byte("B"))

	err := snap.Apply(target)
	require.NoError(t, err)

	value, _ := target.Get([]byte("A"))
	require.Equal(t, []byte{1}, value)

	value, _ = target.Get([]byte("B"))
	require.Nil(t, value)

	err = snap.Apply(fake.NewBadSnapshot())
	require.Equal(t, fake.GetError(), err)
}
