// Package txn defines the transactions submitted to the contracts.
//
// A transaction is identified by a digest of its content. Its nonce orders the
// transactions of an identity, and each nonce is used only once.
package txn

import "go.dedis.ch/blitz/core/access"

// Transaction is the input of a contract.
type Transaction interface {
	// GetID returns the digest identifying the transaction.
	GetID() []byte

	// GetNonce returns the sequence number of the transaction for its
	// identity.
	GetNonce() uint64

	// GetIdentity returns the author of the transaction.
	GetIdentity() access.Identity

	// GetArg returns the value of the argument, or nil when it is missing.
	GetArg(key string) []byte
}

// Arg is an argument of a transaction.
type Arg struct {
	Key   string
	Value []byte
}

// Pairs returns the arguments of alternating keys and values. A trailing key
// without a value is ignored.
func Pairs(kv ...string) []Arg {
	args := make([]Arg, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		args = append(args, Arg{Key: kv[i], Value: []byte(kv[i+1])})
	}

	return args
}

// Manager creates the transactions of an identity and keeps track of its
// nonce.
type Manager interface {
	Make(args ...Arg) (Transaction, error)

	// Sync fetches the nonce of the next transaction.
	Sync() error
}
