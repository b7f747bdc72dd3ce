// Package validation defines how a batch of ordered transactions is checked
// and applied to the state.
package validation

import (
	"go.dedis.ch/blitz/core/access"
	"go.dedis.ch/blitz/core/execution"
	"go.dedis.ch/blitz/core/store"
	"go.dedis.ch/blitz/core/txn"
)

// TxResult is the outcome of a transaction. A refused transaction has a reason.
type TxResult struct {
	Tx       txn.Transaction
	Accepted bool
	Reason   string
}

// Result is the outcome of a batch.
type Result struct {
	Txs []TxResult

	// Events are the notifications of the accepted transactions, in emission
	// order.
	Events []execution.Event
}

// Service checks the transactions of a batch and writes the effects of the
// accepted ones to the snapshot.
type Service interface {
	// GetNonce returns the nonce of the next transaction of the identity.
	GetNonce(store.Readable, access.Identity) (uint64, error)

	// Validate processes the batch at the given time, in seconds since the
	// Unix epoch. An error means the batch could not be processed.
	Validate(snap store.Snapshot, txs []txn.Transaction, now uint64) (Result, error)
}
