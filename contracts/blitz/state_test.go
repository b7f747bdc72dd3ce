package blitz

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/blitz/core/execution"
	"go.dedis.ch/blitz/core/store/prefixed"
	"go.dedis.ch/blitz/internal/testing/fake"
)

func TestWriter_Record(t *testing.T) {
	snap := fake.NewSnapshot()
	w := newWriter(snap)

	for id := uint64(1); id <= 4; id++ {
		require.NoError(t, w.record(Auction{ID: id, Closed: true}, 3))
	}

	index, err := w.historyIndex()
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 3, 4}, index)

	_, found, err := w.auction(1)
	require.NoError(t, err)
	require.False(t, found)

	// Recording the same auction twice keeps a single entry.
	require.NoError(t, w.record(Auction{ID: 4, Closed: true}, 3))

	index, err = w.historyIndex()
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 3, 4}, index)
}

func TestWriter_RecordUnbounded(t *testing.T) {
	w := newWriter(fake.NewSnapshot())

	for id := uint64(1); id <= 10; id++ {
		require.NoError(t, w.record(Auction{ID: id}, 0))
	}

	history, err := w.history()
	require.NoError(t, err)
	require.Len(t, history, 10)
	require.Equal(t, uint64(1), history[0].ID)
}

func TestWriter_Failures(t *testing.T) {
	snap := fake.NewSnapshot()
	snap.ErrSet = fake.GetError()

	err := newWriter(snap).setCurrent(Auction{})
	require.True(t, execution.IsAbort(err))
	require.Contains(t, err.Error(), "failed to write 'auction:current'")

	snap = fake.NewSnapshot()
	require.NoError(t, newWriter(snap).record(Auction{ID: 1}, 1))

	snap.ErrDelete = fake.GetError()
	err = newWriter(snap).record(Auction{ID: 2}, 1)
	require.True(t, execution.IsAbort(err))
	require.Contains(t, err.Error(), "failed to evict auction 1")
}

func TestReader_Get(t *testing.T) {
	snap := fake.NewSnapshot()

	_, err := newReader(snap).config()
	require.Equal(t, ErrNotInitialized, err)

	found, err := newReader(snap).isInitialized()
	require.NoError(t, err)
	require.False(t, found)

	a, err := newReader(snap).current()
	require.NoError(t, err)
	require.Equal(t, Auction{}, a)

	require.NoError(t, snap.Set(prefixed.Key(Namespace, keyCurrent), []byte{0xff}))

	_, err = newReader(snap).current()
	require.True(t, execution.IsAbort(err))
	require.Contains(t, err.Error(), "failed to decode 'auction:current'")

	_, err = newReader(fake.NewBadSnapshot()).last()
	require.True(t, execution.IsAbort(err))
	require.Contains(t, err.Error(), fake.Err("failed to read 'auction:last'"))

	_, err = newReader(fake.NewBadSnapshot()).isInitialized()
	require.True(t, execution.IsAbort(err))
}

func TestEncoding(t *testing.T) {
	a := Auction{
		ID:                1,
		StartTime:         2,
		EndTime:           3,
		HighestBid:        4,
		HighestBidder:     "A",
		PreferredPayload:  "https://a.example",
		Closed:            true,
		PayloadExpiryTime: 5,
	}

	data, err := encode(a)
	require.NoError(t, err)

	// Canonical encoding is deterministic.
	again, err := encode(a)
	require.NoError(t, err)
	require.Equal(t, data, again)

	decoded := Auction{}
	require.NoError(t, decode(data, &decoded))
	require.Equal(t, a, decoded)

	err = decode([]byte{0xff}, &decoded)
	require.Error(t, err)
	require.Contains(t, err.Error(), "CBOR format: failed to unmarshal")

	_, err = encode(make(chan int))
	require.Error(t, err)
}

func TestInsertID(t *testing.T) {
	require.Equal(t, []uint64{1}, insertID(nil, 1))
	require.Equal(t, []uint64{1, 2, 3}, insertID([]uint64{1, 3}, 2))
	require.Equal(t, []uint64{0, 1, 3}, insertID([]uint64{1, 3}, 0))
	require.Equal(t, []uint64{1, 3}, insertID([]uint64{1, 3}, 3))
}
