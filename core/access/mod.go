// Package access defines the interfaces for the Access Rights Control.
package access

import (
	"encoding"
	"strings"

	"go.dedis.ch/blitz/core/store"
)

// Identity is an abstraction to uniquely identify a signer.
type Identity interface {
	encoding.TextMarshaler

	Equal(other interface{}) bool
}

// Credential is an abstraction of an entity that allows one or several
// identities to access a given scope.
type Credential interface {
	GetID() []byte

	GetRule() string
}

// Service is an access service that stores and verifies the access of
// identities to a credential.
type Service interface {
	// Match returns nil if at least one of the identities has access to the
	// credential, otherwise an error explaining why.
	Match(store store.Readable, creds Credential, idents ...Identity) error

	// Grant updates or creates the credential and grants the access to the
	// identities.
	Grant(store store.Snapshot, creds Credential, idents ...Identity) error

	// Revoke removes the access of the identities to the credential.
	Revoke(store store.Snapshot, creds Credential, idents ...Identity) error
}

// Compile returns a compacted rule from the string segments.
func Compile(segments ...string) string {
	return strings.Join(segments, ":")
}
