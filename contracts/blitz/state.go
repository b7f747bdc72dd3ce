package blitz

import (
	"strconv"

	"go.dedis.ch/blitz/core/execution"
	"go.dedis.ch/blitz/core/store"
	"go.dedis.ch/blitz/core/store/prefixed"
	"golang.org/x/xerrors"
)

// Namespace is the prefix of the keys of the contract in the store.
const Namespace = "blitz"

var (
	keyConfig       = []byte("config")
	keyCurrent      = []byte("auction:current")
	keyLast         = []byte("auction:last")
	keyHistoryIndex = []byte("history:index")
)

func historyKey(id uint64) []byte {
	return []byte("history:" + strconv.FormatUint(id, 10))
}

// reader reads the records of the contract. Storage failures are marked to
// abort the execution as they are not caused by the transaction.
type reader struct {
	store store.Readable
}

func newReader(r store.Readable) reader {
	return reader{store: prefixed.Readable(Namespace, r)}
}

// get decodes the value of the key into v and returns false if the key does
// not exist.
func (r reader) get(key []byte, v interface{}) (bool, error) {
	data, err := r.store.Get(key)
	if err != nil {
		return false, execution.Abort(xerrors.Errorf("failed to read '%s': %v", key, err))
	}

	if data == nil {
		return false, nil
	}

	err = decode(data, v)
	if err != nil {
		return false, execution.Abort(xerrors.Errorf("failed to decode '%s': %v", key, err))
	}

	return true, nil
}

func (r reader) config() (Config, error) {
	cfg := Config{}

	found, err := r.get(keyConfig, &cfg)
	if err != nil {
		return cfg, err
	}

	if !found {
		return cfg, ErrNotInitialized
	}

	return cfg, nil
}

func (r reader) isInitialized() (bool, error) {
	found, err := store.Has(r.store, keyConfig)
	if err != nil {
		return false, execution.Abort(xerrors.Errorf("failed to read config: %v", err))
	}

	return found, nil
}

func (r reader) current() (Auction, error) {
	a := Auction{}

	_, err := r.get(keyCurrent, &a)

	return a, err
}

func (r reader) last() (Auction, error) {
	a := Auction{}

	_, err := r.get(keyLast, &a)

	return a, err
}

func (r reader) historyIndex() ([]uint64, error) {
	index := []uint64{}

	_, err := r.get(keyHistoryIndex, &index)

	return index, err
}

func (r reader) auction(id uint64) (Auction, bool, error) {
	a := Auction{}

	found, err := r.get(historyKey(id), &a)

	return a, found, err
}

// history returns the retained closed auctions in ascending id order.
func (r reader) history() ([]Auction, error) {
	index, err := r.historyIndex()
	if err != nil {
		return nil, err
	}

	auctions := make([]Auction, 0, len(index))

	for _, id := range index {
		a, found, err := r.auction(id)
		if err != nil {
			return nil, err
		}

		if found {
			auctions = append(auctions, a)
		}
	}

	return auctions, nil
}

// writer updates the records of the contract in a snapshot.
type writer struct {
	reader

	snap store.Snapshot
}

func newWriter(snap store.Snapshot) writer {
	prefixedSnap := prefixed.Snapshot(Namespace, snap)

	return writer{
		reader: reader{store: prefixedSnap},
		snap:   prefixedSnap,
	}
}

func (w writer) set(key []byte, v interface{}) error {
	data, err := encode(v)
	if err != nil {
		return execution.Abort(xerrors.Errorf("failed to encode '%s': %v", key, err))
	}

	err = w.snap.Set(key, data)
	if err != nil {
		return execution.Abort(xerrors.Errorf("failed to write '%s': %v", key, err))
	}

	return nil
}

func (w writer) setConfig(cfg Config) error {
	return w.set(keyConfig, cfg)
}

func (w writer) setCurrent(a Auction) error {
	return w.set(keyCurrent, a)
}

func (w writer) setLast(a Auction) error {
	return w.set(keyLast, a)
}

// record writes the closed auction into the history. When more than capacity
// auctions are retained, the oldest ones are dropped. A capacity of zero keeps
// every auction.
func (w writer) record(a Auction, capacity int) error {
	index, err := w.historyIndex()
	if err != nil {
		return err
	}

	err = w.set(historyKey(a.ID), a)
	if err != nil {
		return err
	}

	index = insertID(index, a.ID)

	for capacity > 0 && len(index) > capacity {
		err = w.snap.Delete(historyKey(index[0]))
		if err != nil {
			return execution.Abort(xerrors.Errorf("failed to evict auction %d: %v", index[0], err))
		}

		index = index[1:]
	}

	return w.set(keyHistoryIndex, index)
}

// insertID inserts the id in the ascending list if it is not already there.
func insertID(index []uint64, id uint64) []uint64 {
	for i, value := range index {
		if value == id {
			return index
		}

		if value > id {
			index = append(index[:i], append([]uint64{id}, index[i:]...)...)
			return index
		}
	}

	return append(index, id)
}
