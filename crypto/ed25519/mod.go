// Package ed25519 provides the keys of the participants. Signatures follow the
// Schnorr scheme on the Edwards 25519 curve.
//
// A participant is identified by the text form of its public key, which is the
// prefix "schnorr:" followed by the point in hexadecimal.
package ed25519

import (
	"bytes"
	"encoding/hex"
	"strings"

	"go.dedis.ch/blitz/crypto"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/group/edwards25519"
	"go.dedis.ch/kyber/v3/sign/schnorr"
	"golang.org/x/xerrors"
)

// IdentityPrefix starts the text form of every public key.
const IdentityPrefix = "schnorr:"

var suite = edwards25519.NewBlakeSHA256Ed25519()

// PublicKey is a point of the curve.
//
// - implements crypto.PublicKey
type PublicKey struct {
	point kyber.Point
}

// NewPublicKey unmarshals a public key from its binary form.
func NewPublicKey(data []byte) (PublicKey, error) {
	point := suite.Point()

	err := point.UnmarshalBinary(data)
	if err != nil {
		return PublicKey{}, xerrors.Errorf("invalid point: %v", err)
	}

	return PublicKey{point: point}, nil
}

// ParsePublicKey reads a public key from an identity.
func ParsePublicKey(ident string) (PublicKey, error) {
	encoded := strings.TrimPrefix(ident, IdentityPrefix)
	if len(encoded) == len(ident) {
		return PublicKey{}, xerrors.Errorf("identity '%s' lacks prefix '%s'", ident, IdentityPrefix)
	}

	data, err := hex.DecodeString(encoded)
	if err != nil {
		return PublicKey{}, xerrors.Errorf("identity '%s' is not hexadecimal: %v", ident, err)
	}

	return NewPublicKey(data)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	return pk.point.MarshalBinary()
}

// MarshalText implements encoding.TextMarshaler. It returns the identity of
// the key.
func (pk PublicKey) MarshalText() ([]byte, error) {
	data, err := pk.point.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal point: %v", err)
	}

	return []byte(IdentityPrefix + hex.EncodeToString(data)), nil
}

// Verify implements crypto.PublicKey.
func (pk PublicKey) Verify(msg []byte, sig crypto.Signature) error {
	schnorrSig, ok := sig.(Signature)
	if !ok {
		return xerrors.Errorf("unsupported signature %T", sig)
	}

	err := schnorr.Verify(suite, pk.point, msg, schnorrSig)
	if err != nil {
		return xerrors.Errorf("signature mismatch: %v", err)
	}

	return nil
}

// Equal implements crypto.PublicKey.
func (pk PublicKey) Equal(other interface{}) bool {
	o, ok := other.(PublicKey)

	return ok && o.point != nil && pk.point != nil && o.point.Equal(pk.point)
}

// String implements fmt.Stringer. It shortens the identity for the logs.
func (pk PublicKey) String() string {
	text, err := pk.MarshalText()
	if err != nil {
		return IdentityPrefix + "?"
	}

	return string(text[:len(IdentityPrefix)+16])
}

// Signature is a Schnorr signature.
//
// - implements crypto.Signature
type Signature []byte

// MarshalBinary implements encoding.BinaryMarshaler.
func (sig Signature) MarshalBinary() ([]byte, error) {
	return append([]byte{}, sig...), nil
}

// Equal implements crypto.Signature.
func (sig Signature) Equal(other crypto.Signature) bool {
	o, ok := other.(Signature)

	return ok && bytes.Equal(sig, o)
}

// Signer holds a private key.
//
// - implements crypto.Signer
type Signer struct {
	secret kyber.Scalar
	public kyber.Point
}

// NewSigner picks a random private key.
func NewSigner() Signer {
	secret := suite.Scalar().Pick(suite.RandomStream())

	return Signer{
		secret: secret,
		public: suite.Point().Mul(secret, nil),
	}
}

// NewSignerFromBytes restores a signer from its binary form.
func NewSignerFromBytes(data []byte) (Signer, error) {
	secret := suite.Scalar()

	err := secret.UnmarshalBinary(data)
	if err != nil {
		return Signer{}, xerrors.Errorf("invalid scalar: %v", err)
	}

	return Signer{
		secret: secret,
		public: suite.Point().Mul(secret, nil),
	}, nil
}

// GenerateKey returns the binary form of a new private key.
func GenerateKey() ([]byte, error) {
	return NewSigner().MarshalBinary()
}

// MarshalBinary implements crypto.Signer. It returns the private key.
func (s Signer) MarshalBinary() ([]byte, error) {
	return s.secret.MarshalBinary()
}

// GetPublicKey implements crypto.Signer.
func (s Signer) GetPublicKey() crypto.PublicKey {
	return PublicKey{point: s.public}
}

// Sign implements crypto.Signer.
func (s Signer) Sign(msg []byte) (crypto.Signature, error) {
	sig, err := schnorr.Sign(suite, s.secret, msg)
	if err != nil {
		return nil, xerrors.Errorf("failed to sign: %v", err)
	}

	return Signature(sig), nil
}
