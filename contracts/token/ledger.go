package token

import (
	"encoding/binary"

	"go.dedis.ch/blitz/core/execution"
	"go.dedis.ch/blitz/core/store"
	"go.dedis.ch/blitz/core/store/prefixed"
	"golang.org/x/xerrors"
)

var (
	// ErrInsufficientBalance is returned when the source account cannot cover
	// the amount of a transfer.
	ErrInsufficientBalance = xerrors.New("insufficient balance")

	// ErrInvalidAmount is returned when the amount is zero or would overflow a
	// balance.
	ErrInvalidAmount = xerrors.New("invalid amount")
)

func balanceKey(account string) []byte {
	return []byte("balance:" + account)
}

// BalanceOf returns the balance of the account in the smallest unit of the
// asset. An unknown account has a zero balance.
func BalanceOf(r store.Readable, account string) (uint64, error) {
	value, err := prefixed.Readable(ContractName, r).Get(balanceKey(account))
	if err != nil {
		return 0, execution.Abort(xerrors.Errorf("failed to read balance: %v", err))
	}

	if len(value) != 8 {
		return 0, nil
	}

	return binary.BigEndian.Uint64(value), nil
}

// Transfer moves the amount from one account to another. The snapshot is left
// untouched when an error is returned.
func Transfer(snap store.Snapshot, from, to string, amount uint64) error {
	if amount == 0 {
		return xerrors.Errorf("zero transfer: %w", ErrInvalidAmount)
	}

	balance, err := BalanceOf(snap, from)
	if err != nil {
		return err
	}

	if balance < amount {
		return xerrors.Errorf("'%s' holds %d < %d: %w", from, balance, amount, ErrInsufficientBalance)
	}

	if from == to {
		return nil
	}

	target, err := BalanceOf(snap, to)
	if err != nil {
		return err
	}

	if target+amount < target {
		return xerrors.Errorf("balance of '%s' overflows: %w", to, ErrInvalidAmount)
	}

	err = setBalance(snap, from, balance-amount)
	if err != nil {
		return err
	}

	return setBalance(snap, to, target+amount)
}

// Mint creates the amount on the account.
func Mint(snap store.Snapshot, to string, amount uint64) error {
	if amount == 0 {
		return xerrors.Errorf("zero mint: %w", ErrInvalidAmount)
	}

	balance, err := BalanceOf(snap, to)
	if err != nil {
		return err
	}

	if balance+amount < balance {
		return xerrors.Errorf("balance of '%s' overflows: %w", to, ErrInvalidAmount)
	}

	return setBalance(snap, to, balance+amount)
}

func setBalance(snap store.Snapshot, account string, balance uint64) error {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, balance)

	err := prefixed.Snapshot(ContractName, snap).Set(balanceKey(account), buffer)
	if err != nil {
		return execution.Abort(xerrors.Errorf("failed to write balance: %v", err))
	}

	return nil
}
