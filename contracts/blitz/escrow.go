package blitz

import (
	"go.dedis.ch/blitz/contracts/token"
	"go.dedis.ch/blitz/core/store"
	"golang.org/x/xerrors"
)

// EscrowAccount is the account of the token ledger holding the funds of the
// highest bidder.
const EscrowAccount = "contract:" + ContractName

// Escrow moves the funds between the bidders, the contract and the platform
// wallet.
type Escrow interface {
	// Lock moves the amount from the account into the escrow.
	Lock(snap store.Snapshot, from string, amount uint64) error

	// Release moves the amount from the escrow to the account.
	Release(snap store.Snapshot, to string, amount uint64) error

	// Balance returns the amount held by the escrow.
	Balance(r store.Readable) (uint64, error)
}

// tokenEscrow is an escrow backed by the token ledger.
//
// - implements blitz.Escrow
type tokenEscrow struct {
	account string
}

// NewEscrow returns the escrow of the contract on the token ledger.
func NewEscrow() Escrow {
	return tokenEscrow{account: EscrowAccount}
}

// Lock implements blitz.Escrow.
func (e tokenEscrow) Lock(snap store.Snapshot, from string, amount uint64) error {
	err := token.Transfer(snap, from, e.account, amount)
	if err != nil {
		return xerrors.Errorf("failed to lock funds of '%s': %w", from, err)
	}

	return nil
}

// Release implements blitz.Escrow.
func (e tokenEscrow) Release(snap store.Snapshot, to string, amount uint64) error {
	err := token.Transfer(snap, e.account, to, amount)
	if err != nil {
		return xerrors.Errorf("failed to release funds to '%s': %w", to, err)
	}

	return nil
}

// Balance implements blitz.Escrow.
func (e tokenEscrow) Balance(r store.Readable) (uint64, error) {
	return token.BalanceOf(r, e.account)
}
