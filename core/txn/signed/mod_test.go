package signed

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/blitz/core/access"
	"go.dedis.ch/blitz/core/txn"
	"go.dedis.ch/blitz/crypto/ed25519"
	"go.dedis.ch/blitz/internal/testing/fake"
	"golang.org/x/xerrors"
)

func TestTransaction_New(t *testing.T) {
	alice := ed25519.NewSigner()

	tx, err := NewTransaction(3, alice.GetPublicKey(),
		WithArg("amount", []byte("10")), WithArg("action", []byte("bid")))
	require.NoError(t, err)
	require.Len(t, tx.GetID(), 32)
	require.Equal(t, uint64(3), tx.GetNonce())
	require.Equal(t, alice.GetPublicKey(), tx.GetIdentity())
	require.Equal(t, []byte("10"), tx.GetArg("amount"))
	require.Nil(t, tx.GetArg("unknown"))

	same, err := NewTransaction(3, alice.GetPublicKey(),
		WithArg("action", []byte("bid")), WithArg("amount", []byte("10")))
	require.NoError(t, err)
	require.Equal(t, tx.GetID(), same.GetID())

	require.NoError(t, tx.Sign(alice))

	signed, err := NewTransaction(3, alice.GetPublicKey(),
		WithArg("action", []byte("bid")), WithArg("amount", []byte("10")), WithSignature(tx.sig))
	require.NoError(t, err)
	require.NoError(t, signed.Verify())

	_, err = NewTransaction(4, alice.GetPublicKey(), WithSignature(tx.sig))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid signature: signature mismatch")

	_, err = NewTransaction(0, fake.NewBadPublicKey())
	require.EqualError(t, err, fake.Err("failed to marshal identity"))
}

func TestTransaction_Identifier(t *testing.T) {
	alice := ed25519.NewSigner().GetPublicKey()
	bob := ed25519.NewSigner().GetPublicKey()

	ids := [][]byte{}
	for _, args := range [][]Option{
		{WithArg("ab", []byte("c"))},
		{WithArg("a", []byte("bc"))},
		{WithArg("ab", []byte("c")), WithArg("d", nil)},
	} {
		tx, err := NewTransaction(1, alice, args...)
		require.NoError(t, err)

		ids = append(ids, tx.GetID())
	}

	other, err := NewTransaction(2, alice, WithArg("ab", []byte("c")))
	require.NoError(t, err)
	ids = append(ids, other.GetID())

	other, err = NewTransaction(1, bob, WithArg("ab", []byte("c")))
	require.NoError(t, err)
	ids = append(ids, other.GetID())

	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			require.NotEqual(t, ids[i], ids[j], "%d vs %d", i, j)
		}
	}
}

func TestTransaction_Sign(t *testing.T) {
	alice := ed25519.NewSigner()

	tx, err := NewTransaction(0, alice.GetPublicKey())
	require.NoError(t, err)
	require.EqualError(t, tx.Verify(), "missing signature")

	require.NoError(t, tx.Sign(alice))
	require.NoError(t, tx.Verify())

	err = tx.Sign(ed25519.NewSigner())
	require.EqualError(t, err, "signer is not the identity of the transaction")

	err = (&Transaction{}).Sign(alice)
	require.EqualError(t, err, "transaction has no identifier")

	tx, err = NewTransaction(0, fake.PublicKey{}, WithArg("A", []byte{1}))
	require.NoError(t, err)

	err = tx.Sign(fake.NewBadSigner())
	require.EqualError(t, err, fake.Err("failed to sign"))

	replayed, err := NewTransaction(1, alice.GetPublicKey(), WithArg("A", []byte{1}))
	require.NoError(t, err)

	replayed.sig = tx.sig
	require.Error(t, replayed.Verify())
}

func TestTransaction_JSON(t *testing.T) {
	alice := ed25519.NewSigner()

	tx, err := NewTransaction(2, alice.GetPublicKey(), WithArg("amount", []byte("7")))
	require.NoError(t, err)
	require.NoError(t, tx.Sign(alice))

	data, err := tx.MarshalJSON()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, tx.GetID(), decoded.GetID())
	require.Equal(t, []byte("7"), decoded.GetArg("amount"))
	require.NoError(t, decoded.Verify())

	_, err = Decode([]byte("{"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed transaction: ")

	_, err = Decode([]byte(`{"identity":"alice"}`))
	require.EqualError(t, err, "malformed identity: identity 'alice' lacks prefix 'schnorr:'")

	unsigned, err := NewTransaction(2, alice.GetPublicKey())
	require.NoError(t, err)

	data, err = unsigned.MarshalJSON()
	require.NoError(t, err)
	require.NotContains(t, string(data), "signature")

	_, err = Decode(data)
	require.EqualError(t, err, "missing signature")

	_, err = (&Transaction{pubkey: fake.NewBadPublicKey()}).MarshalJSON()
	require.EqualError(t, err, fake.Err("failed to marshal identity"))
}

func TestManager_Make(t *testing.T) {
	alice := ed25519.NewSigner()
	mgr := NewManager(alice, fakeClient{})

	tx, err := mgr.Make(txn.Arg{Key: "amount", Value: []byte("5")})
	require.NoError(t, err)
	require.Equal(t, uint64(0), tx.GetNonce())
	require.Equal(t, []byte("5"), tx.GetArg("amount"))
	require.NoError(t, tx.(*Transaction).Verify())

	tx, err = mgr.Make()
	require.NoError(t, err)
	require.Equal(t, uint64(1), tx.GetNonce())

	mgr.signer = fake.NewBadSigner()
	_, err = mgr.Make()
	require.EqualError(t, err, fake.Err("failed to sign tx: failed to sign"))
	require.Equal(t, uint64(2), mgr.nonce)
}

func TestManager_Sync(t *testing.T) {
	mgr := NewManager(ed25519.NewSigner(), fakeClient{nonce: 42})

	require.NoError(t, mgr.Sync())
	require.Equal(t, uint64(42), mgr.nonce)

	mgr.client = fakeClient{err: fake.GetError()}
	require.EqualError(t, mgr.Sync(), fake.Err("failed to fetch nonce"))
	require.Equal(t, uint64(42), mgr.nonce)
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeClient struct {
	nonce uint64
	err   error
}

func (c fakeClient) GetNonce(access.Identity) (uint64, error) {
	if c.err != nil {
		return 0, xerrors.Errorf("%w", c.err)
	}

	return c.nonce, nil
}
