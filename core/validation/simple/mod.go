// Package simple validates the transactions one after the other.
//
// A transaction must carry a valid signature, when it can be verified, and the
// next nonce of its identity. The nonce is consumed even when the contract
// refuses the transaction, so that it cannot be replayed later.
package simple

import (
	"encoding/binary"

	"go.dedis.ch/blitz/core/access"
	"go.dedis.ch/blitz/core/execution"
	"go.dedis.ch/blitz/core/store"
	"go.dedis.ch/blitz/core/store/mem"
	"go.dedis.ch/blitz/core/store/prefixed"
	"go.dedis.ch/blitz/core/txn"
	"go.dedis.ch/blitz/core/validation"
	"golang.org/x/xerrors"
)

const noncePrefix = "go.dedis.ch/blitz.Nonce"

type verifiable interface {
	Verify() error
}

// Service checks the signature and the nonce of each transaction before it
// runs the contract.
//
// - implements validation.Service
type Service struct {
	execution execution.Service
}

// NewService returns a validation service running the contracts of exec.
func NewService(exec execution.Service) Service {
	return Service{execution: exec}
}

// GetNonce implements validation.Service.
func (s Service) GetNonce(r store.Readable, ident access.Identity) (uint64, error) {
	key, err := nonceKey(ident)
	if err != nil {
		return 0, err
	}

	value, err := prefixed.Readable(noncePrefix, r).Get(key)
	if err != nil {
		return 0, xerrors.Errorf("store: %v", err)
	}

	if len(value) != 8 {
		return 0, nil
	}

	return binary.LittleEndian.Uint64(value) + 1, nil
}

// Validate implements validation.Service. The effects and the events of a
// refused transaction are discarded, but its nonce is consumed.
func (s Service) Validate(snap store.Snapshot, txs []txn.Transaction, now uint64) (validation.Result, error) {
	result := validation.Result{
		Txs:    make([]validation.TxResult, 0, len(txs)),
		Events: []execution.Event{},
	}

	previous := []txn.Transaction{}

	for _, tx := range txs {
		res, evts, err := s.validateTx(snap, tx, previous, now)
		if err != nil {
			return validation.Result{}, xerrors.Errorf("tx %#x: %v", tx.GetID(), err)
		}

		result.Txs = append(result.Txs, res)

		if res.Accepted {
			result.Events = append(result.Events, evts...)
			previous = append(previous, tx)
		}
	}

	return result, nil
}

func (s Service) validateTx(snap store.Snapshot, tx txn.Transaction,
	previous []txn.Transaction, now uint64) (validation.TxResult, []execution.Event, error) {

	refuse := func(format string, args ...interface{}) (validation.TxResult, []execution.Event, error) {
		return validation.TxResult{Tx: tx, Reason: xerrors.Errorf(format, args...).Error()}, nil, nil
	}

	if tx.GetIdentity() == nil {
		return validation.TxResult{}, nil, xerrors.New("nonce: missing identity in transaction")
	}

	v, ok := tx.(verifiable)
	if ok {
		err := v.Verify()
		if err != nil {
			return refuse("signature: %v", err)
		}
	}

	expected, err := s.GetNonce(snap, tx.GetIdentity())
	if err != nil {
		return validation.TxResult{}, nil, xerrors.Errorf("nonce: %v", err)
	}

	if tx.GetNonce() != expected {
		return refuse("nonce '%d' != '%d'", tx.GetNonce(), expected)
	}

	err = s.set(snap, tx.GetIdentity(), tx.GetNonce())
	if err != nil {
		return validation.TxResult{}, nil, xerrors.Errorf("failed to set nonce: %v", err)
	}

	stage := mem.NewSnapshot(snap)
	buffer := execution.NewEventBuffer()

	step := execution.Step{
		Previous:  previous,
		Current:   tx,
		Timestamp: now,
		Emitter:   buffer,
	}

	res, err := s.execution.Execute(stage, step)
	if err != nil {
		return validation.TxResult{}, nil, xerrors.Errorf("failed to execute tx: %v", err)
	}

	if !res.Accepted {
		return validation.TxResult{Tx: tx, Reason: res.Message}, nil, nil
	}

	err = stage.Apply(snap)
	if err != nil {
		return validation.TxResult{}, nil, xerrors.Errorf("failed to apply: %v", err)
	}

	return validation.TxResult{Tx: tx, Accepted: true}, buffer.Flush(), nil
}

func (s Service) set(snap store.Snapshot, ident access.Identity, nonce uint64) error {
	key, err := nonceKey(ident)
	if err != nil {
		return err
	}

	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, nonce)

	err = prefixed.Snapshot(noncePrefix, snap).Set(key, buffer)
	if err != nil {
		return xerrors.Errorf("store: %v", err)
	}

	return nil
}

// nonceKey returns the key of the nonce of the identity. The namespace
// already hashes it.
func nonceKey(ident access.Identity) ([]byte, error) {
	text, err := ident.MarshalText()
	if err != nil {
		return nil, xerrors.Errorf("key: failed to marshal identity: %v", err)
	}

	return text, nil
}
