// Package signed implements transactions authenticated by the signature of
// their identity.
//
// The identifier of a transaction is the digest of its canonical CBOR
// encoding, which covers the nonce, the arguments and the identity. The
// signature is made over that identifier. A nonce is consumed once per
// identity, which prevents the replay of a transaction.
package signed

import (
	"github.com/fxamacker/cbor/v2"
	"go.dedis.ch/blitz"
	"go.dedis.ch/blitz/core/access"
	"go.dedis.ch/blitz/core/txn"
	"go.dedis.ch/blitz/crypto"
	"golang.org/x/xerrors"
)

var canonical cbor.EncMode

func init() {
	var err error

	canonical, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// Transaction is a transaction signed by its identity.
//
// - implements txn.Transaction
type Transaction struct {
	nonce  uint64
	args   map[string][]byte
	pubkey crypto.PublicKey
	sig    crypto.Signature
	id     []byte
}

// payload is the signed content of a transaction.
type payload struct {
	Nonce    uint64            `cbor:"1,keyasint"`
	Args     map[string][]byte `cbor:"2,keyasint"`
	Identity []byte            `cbor:"3,keyasint"`
}

// Option sets a field of a new transaction.
type Option func(*Transaction)

// WithArg sets the value of an argument.
func WithArg(key string, value []byte) Option {
	return func(tx *Transaction) {
		tx.args[key] = value
	}
}

// WithSignature attaches a signature, which is verified against the identity.
func WithSignature(sig crypto.Signature) Option {
	return func(tx *Transaction) {
		tx.sig = sig
	}
}

// NewTransaction returns a transaction of the identity for the nonce.
func NewTransaction(nonce uint64, pk crypto.PublicKey, opts ...Option) (*Transaction, error) {
	tx := &Transaction{
		nonce:  nonce,
		pubkey: pk,
		args:   make(map[string][]byte),
	}

	for _, opt := range opts {
		opt(tx)
	}

	identity, err := pk.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal identity: %v", err)
	}

	data, err := canonical.Marshal(payload{Nonce: nonce, Args: tx.args, Identity: identity})
	if err != nil {
		return nil, xerrors.Errorf("failed to encode payload: %v", err)
	}

	tx.id = crypto.Digest(data)

	if tx.sig != nil {
		err = tx.Verify()
		if err != nil {
			return nil, err
		}
	}

	return tx, nil
}

// GetID implements txn.Transaction.
func (t *Transaction) GetID() []byte {
	return t.id
}

// GetNonce implements txn.Transaction.
func (t *Transaction) GetNonce() uint64 {
	return t.nonce
}

// GetIdentity implements txn.Transaction. It returns the public key of the
// signer.
func (t *Transaction) GetIdentity() access.Identity {
	return t.pubkey
}

// GetArg implements txn.Transaction. A missing argument is nil.
func (t *Transaction) GetArg(key string) []byte {
	return t.args[key]
}

// Sign signs the identifier with the key of the identity.
func (t *Transaction) Sign(signer crypto.Signer) error {
	if len(t.id) == 0 {
		return xerrors.New("transaction has no identifier")
	}

	if !signer.GetPublicKey().Equal(t.pubkey) {
		return xerrors.New("signer is not the identity of the transaction")
	}

	sig, err := signer.Sign(t.id)
	if err != nil {
		return xerrors.Errorf("failed to sign: %v", err)
	}

	t.sig = sig

	return nil
}

// Verify returns nil when the transaction is signed by its identity.
func (t *Transaction) Verify() error {
	if t.sig == nil {
		return xerrors.New("missing signature")
	}

	err := t.pubkey.Verify(t.id, t.sig)
	if err != nil {
		return xerrors.Errorf("invalid signature: %v", err)
	}

	return nil
}

// Client returns the next nonce of an identity.
type Client interface {
	GetNonce(access.Identity) (uint64, error)
}

// Manager creates the transactions of a signer. It increments the nonce after
// each transaction and must be synchronized when one is refused.
//
// - implements txn.Manager
type Manager struct {
	client Client
	signer crypto.Signer
	nonce  uint64
}

// NewManager returns a manager for the signer, starting at nonce zero.
func NewManager(signer crypto.Signer, client Client) *Manager {
	return &Manager{
		client: client,
		signer: signer,
	}
}

// Make implements txn.Manager.
func (mgr *Manager) Make(args ...txn.Arg) (txn.Transaction, error) {
	opts := make([]Option, len(args))
	for i, arg := range args {
		opts[i] = WithArg(arg.Key, arg.Value)
	}

	tx, err := NewTransaction(mgr.nonce, mgr.signer.GetPublicKey(), opts...)
	if err != nil {
		return nil, xerrors.Errorf("failed to create tx: %v", err)
	}

	err = tx.Sign(mgr.signer)
	if err != nil {
		return nil, xerrors.Errorf("failed to sign tx: %v", err)
	}

	mgr.nonce++

	return tx, nil
}

// Sync implements txn.Manager. It fetches the next nonce of the signer.
func (mgr *Manager) Sync() error {
	nonce, err := mgr.client.GetNonce(mgr.signer.GetPublicKey())
	if err != nil {
		return xerrors.Errorf("failed to fetch nonce: %v", err)
	}

	mgr.nonce = nonce

	blitz.Logger.Debug().Uint64("nonce", nonce).Msg("nonce synchronized")

	return nil
}
