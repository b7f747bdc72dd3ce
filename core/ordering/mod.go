// Package ordering defines the interface of the ordering service. The
// high-level purpose of this service is to order the transactions submitted by
// the clients and to commit their effects.
package ordering

import (
	"context"

	"go.dedis.ch/blitz/core/access"
	"go.dedis.ch/blitz/core/execution"
	"go.dedis.ch/blitz/core/store"
	"go.dedis.ch/blitz/core/txn"
	"go.dedis.ch/blitz/core/validation"
)

// Event is the notification of a committed batch of transactions.
type Event struct {
	Index     uint64
	Timestamp uint64

	// Transactions are the results of the transactions of the batch, accepted
	// or not.
	Transactions []validation.TxResult

	// Events are the notifications of the accepted transactions.
	Events []execution.Event
}

// Service is the interface of an ordering service. It provides the primitives
// to order transactions and to read the committed state.
type Service interface {
	// Submit orders the transaction and returns its result once its effects,
	// if any, are committed.
	Submit(ctx context.Context, tx txn.Transaction) (validation.TxResult, error)

	// GetNonce returns the nonce the next transaction of the identity must
	// use.
	GetNonce(ident access.Identity) (uint64, error)

	// GetStore returns a read-only view of the committed state.
	GetStore() store.Readable

	// Watch returns a channel populated with the committed batches until the
	// context is done.
	Watch(ctx context.Context) <-chan Event
}
