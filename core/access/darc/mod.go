// Package darc implements the Distributed Access Rights Control. A permission
// maps each rule to the set of identities allowed for it and is stored in the
// snapshot under the identifier of the credential.
package darc

import (
	"go.dedis.ch/blitz/core/access"
	"go.dedis.ch/blitz/core/store"
	"golang.org/x/xerrors"
)

// Service is an implementation of an access service that will allow one to
// store and verify access for a group of identities.
//
// - implements access.Service
type Service struct{}

// NewService creates a new service.
func NewService() Service {
	return Service{}
}

// Match implements access.Service. It returns nil if one of the identities has
// access to the given credentials, otherwise a meaningful error on the reason
// it does not have access.
func (srvc Service) Match(store store.Readable, creds access.Credential, idents ...access.Identity) error {
	perm, err := srvc.readPermission(store, creds)
	if err != nil {
		return xerrors.Errorf("store failed: %v", err)
	}

	if perm == nil {
		return xerrors.Errorf("permission %#x not found", creds.GetID())
	}

	err = perm.Match(creds.GetRule(), idents...)
	if err != nil {
		return xerrors.Errorf("permission: %v", err)
	}

	return nil
}

// Grant implements access.Service. It updates or creates the credentials and
// grants the access to the group of identities.
func (srvc Service) Grant(store store.Snapshot, creds access.Credential, idents ...access.Identity) error {
	return srvc.evolve(store, creds, true, idents)
}

// Revoke implements access.Service. It removes the access of the group of
// identities to the credentials.
func (srvc Service) Revoke(store store.Snapshot, creds access.Credential, idents ...access.Identity) error {
	return srvc.evolve(store, creds, false, idents)
}

func (srvc Service) evolve(store store.Snapshot, creds access.Credential,
	grant bool, idents []access.Identity) error {

	perm, err := srvc.readPermission(store, creds)
	if err != nil {
		return xerrors.Errorf("store failed: %v", err)
	}

	if perm == nil {
		perm = NewPermission()
	}

	err = perm.Evolve(creds.GetRule(), grant, idents...)
	if err != nil {
		return xerrors.Errorf("permission: %v", err)
	}

	value, err := perm.Serialize()
	if err != nil {
		return xerrors.Errorf("failed to serialize: %v", err)
	}

	err = store.Set(creds.GetID(), value)
	if err != nil {
		return xerrors.Errorf("store failed to write: %v", err)
	}

	return nil
}

func (srvc Service) readPermission(store store.Readable, creds access.Credential) (*Permission, error) {
	value, err := store.Get(creds.GetID())
	if err != nil {
		return nil, xerrors.Errorf("while reading: %v", err)
	}

	if value == nil {
		return nil, nil
	}

	perm, err := PermissionOf(value)
	if err != nil {
		return nil, xerrors.Errorf("permission malformed: %v", err)
	}

	return perm, nil
}
