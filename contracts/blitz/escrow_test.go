package blitz

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/blitz/contracts/token"
	"go.dedis.ch/blitz/internal/testing/fake"
	"golang.org/x/xerrors"
)

func TestEscrow_LockRelease(t *testing.T) {
	escrow := NewEscrow()
	snap := fake.NewSnapshot()

	require.NoError(t, token.Mint(snap, "alice", 100))

	require.NoError(t, escrow.Lock(snap, "alice", 60))

	balance, err := escrow.Balance(snap)
	require.NoError(t, err)
	require.Equal(t, uint64(60), balance)

	err = escrow.Lock(snap, "alice", 41)
	require.True(t, xerrors.Is(err, token.ErrInsufficientBalance))
	require.Contains(t, err.Error(), "failed to lock funds of 'alice'")

	require.NoError(t, escrow.Release(snap, "bob", 60))

	balance, err = token.BalanceOf(snap, "bob")
	require.NoError(t, err)
	require.Equal(t, uint64(60), balance)

	err = escrow.Release(snap, "bob", 1)
	require.True(t, xerrors.Is(err, token.ErrInsufficientBalance))
	require.Contains(t, err.Error(), "failed to release funds to 'bob'")
}
