// Package crypto defines the keys identifying the participants of the auction.
// The text form of a public key is the identity stored by the contracts, and a
// signature proves that the sender of a transaction controls it.
package crypto

import (
	"encoding"
)

// PublicKey identifies a participant.
type PublicKey interface {
	encoding.BinaryMarshaler
	encoding.TextMarshaler

	// Verify returns nil if the signature was produced by the private key of
	// this public key on the message.
	Verify(msg []byte, sig Signature) error

	Equal(other interface{}) bool
}

// Signature is the proof that a message was signed by a private key.
type Signature interface {
	encoding.BinaryMarshaler

	Equal(other Signature) bool
}

// Signer holds a private key. Its binary form is the private key itself.
type Signer interface {
	encoding.BinaryMarshaler

	GetPublicKey() PublicKey

	Sign(msg []byte) (Signature, error)
}
