package fake

import (
	"go.dedis.ch/blitz/crypto"
	"golang.org/x/xerrors"
)

// PublicKey is a named identity. Signatures are accepted when they carry the
// name of the key.
//
// - implements crypto.PublicKey
type PublicKey struct {
	Name string
	err  error
}

// NewPublicKey returns the identity of the name.
func NewPublicKey(name string) PublicKey {
	return PublicKey{Name: name}
}

// NewBadPublicKey returns an identity that cannot be marshaled.
func NewBadPublicKey() PublicKey {
	return PublicKey{err: fakeErr}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	return []byte(pk.Name), pk.err
}

// MarshalText implements encoding.TextMarshaler.
func (pk PublicKey) MarshalText() ([]byte, error) {
	if pk.err != nil {
		return nil, pk.err
	}

	return []byte(pk.String()), nil
}

// Verify implements crypto.PublicKey.
func (pk PublicKey) Verify(msg []byte, sig crypto.Signature) error {
	if sig == nil || !sig.Equal(Signature(pk.Name)) {
		return xerrors.Errorf("not signed by %s", pk)
	}

	return nil
}

// Equal implements crypto.PublicKey.
func (pk PublicKey) Equal(other interface{}) bool {
	o, ok := other.(PublicKey)

	return ok && o.Name == pk.Name
}

// String implements fmt.Stringer.
func (pk PublicKey) String() string {
	return "fake:" + pk.Name
}

// Signature is the name of the signer.
//
// - implements crypto.Signature
type Signature string

// MarshalBinary implements encoding.BinaryMarshaler.
func (sig Signature) MarshalBinary() ([]byte, error) {
	return []byte(sig), nil
}

// Equal implements crypto.Signature.
func (sig Signature) Equal(other crypto.Signature) bool {
	o, ok := other.(Signature)

	return ok && o == sig
}

// Signer signs any message with its name.
//
// - implements crypto.Signer
type Signer struct {
	pk  PublicKey
	err error
}

// NewSigner returns a signer of the named identity.
func NewSigner(name string) Signer {
	return Signer{pk: NewPublicKey(name)}
}

// NewBadSigner returns a signer that always fails to sign.
func NewBadSigner() Signer {
	return Signer{err: fakeErr}
}

// MarshalBinary implements crypto.Signer.
func (s Signer) MarshalBinary() ([]byte, error) {
	return []byte(s.pk.Name), s.err
}

// GetPublicKey implements crypto.Signer.
func (s Signer) GetPublicKey() crypto.PublicKey {
	return s.pk
}

// Sign implements crypto.Signer.
func (s Signer) Sign([]byte) (crypto.Signature, error) {
	if s.err != nil {
		return nil, s.err
	}

	return Signature(s.pk.Name), nil
}
