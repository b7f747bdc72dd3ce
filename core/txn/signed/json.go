package signed

import (
	"encoding/json"

	"go.dedis.ch/blitz/crypto/ed25519"
	"golang.org/x/xerrors"
)

type transactionJSON struct {
	Nonce     uint64            `json:"nonce"`
	Args      map[string][]byte `json:"args,omitempty"`
	Identity  string            `json:"identity"`
	Signature []byte            `json:"signature,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	identity, err := t.pubkey.MarshalText()
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal identity: %v", err)
	}

	m := transactionJSON{
		Nonce:    t.nonce,
		Args:     t.args,
		Identity: string(identity),
	}

	if t.sig != nil {
		m.Signature, err = t.sig.MarshalBinary()
		if err != nil {
			return nil, xerrors.Errorf("failed to marshal signature: %v", err)
		}
	}

	return json.Marshal(m)
}

// Decode reads a transaction from its JSON form. The transaction must be
// signed by its identity.
func Decode(data []byte) (*Transaction, error) {
	var m transactionJSON

	err := json.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("malformed transaction: %v", err)
	}

	pk, err := ed25519.ParsePublicKey(m.Identity)
	if err != nil {
		return nil, xerrors.Errorf("malformed identity: %v", err)
	}

	if len(m.Signature) == 0 {
		return nil, xerrors.New("missing signature")
	}

	opts := []Option{WithSignature(ed25519.Signature(m.Signature))}
	for key, value := range m.Args {
		opts = append(opts, WithArg(key, value))
	}

	return NewTransaction(m.Nonce, pk, opts...)
}
