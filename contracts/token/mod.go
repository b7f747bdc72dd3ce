// Package token implements the native contract of the fungible asset used to
// pay for the auctions. Balances are kept per account in the smallest unit of
// the asset.
//
// An account is the text form of an identity, or the name of a contract for
// the funds it holds on behalf of its users.
package token

import (
	"strconv"

	"go.dedis.ch/blitz"
	"go.dedis.ch/blitz/core/access"
	"go.dedis.ch/blitz/core/execution"
	"go.dedis.ch/blitz/core/execution/native"
	"go.dedis.ch/blitz/core/store"
	"golang.org/x/xerrors"
)

// commands defines the commands of the token contract. This interface helps in
// testing the contract.
type commands interface {
	mint(snap store.Snapshot, step execution.Step) error
	transfer(snap store.Snapshot, step execution.Step) error
}

const (
	// ContractName is the name of the contract.
	ContractName = "go.dedis.ch/blitz.Token"

	// ToArg is the argument's name in the transaction that contains the
	// account credited by the command.
	ToArg = "token:to"

	// AmountArg is the argument's name in the transaction that contains the
	// amount in the smallest unit, as a decimal string.
	AmountArg = "token:amount"

	// CmdArg is the argument's name to indicate the kind of command we want to
	// run on the contract. Should be one of the Command type.
	CmdArg = "token:command"
)

// Command defines a type of command for the token contract.
type Command string

const (
	// CmdMint defines the command to create funds on an account. Only the
	// identities granted by the access service can mint.
	CmdMint Command = "MINT"

	// CmdTransfer defines the command to move funds from the signer of the
	// transaction to another account.
	CmdTransfer Command = "TRANSFER"
)

// accessID is the identifier of the credential of the contract.
var accessID = []byte(ContractName + ":access")

// NewCreds creates the credentials to run a command of the contract.
func NewCreds(cmd Command) access.Credential {
	return access.ContractCredential{ID: accessID, Contract: ContractName, Command: string(cmd)}
}

// RegisterContract registers the token contract to the given execution service.
func RegisterContract(exec *native.Service, c Contract) {
	exec.Set(ContractName, c)
}

// Bootstrap grants the minting right to the identity. It is used when the
// ledger is created.
func Bootstrap(snap store.Snapshot, srvc access.Service, admin access.Identity) error {
	err := srvc.Grant(snap, NewCreds(CmdMint), admin)
	if err != nil {
		return xerrors.Errorf("failed to grant: %v", err)
	}

	return nil
}

// Contract is the native contract of the payment asset.
//
// - implements native.Contract
type Contract struct {
	access access.Service
	cmd    commands
}

// NewContract creates a new token contract.
func NewContract(srvc access.Service) Contract {
	contract := Contract{
		access: srvc,
	}

	contract.cmd = tokenCommand{Contract: &contract}

	return contract
}

// Execute implements native.Contract. It runs the appropriate command.
func (c Contract) Execute(snap store.Snapshot, step execution.Step) error {
	cmd := step.Current.GetArg(CmdArg)
	if len(cmd) == 0 {
		return xerrors.Errorf("'%s' not found in tx arg", CmdArg)
	}

	switch Command(cmd) {
	case CmdMint:
		err := c.cmd.mint(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to MINT: %w", err)
		}
	case CmdTransfer:
		err := c.cmd.transfer(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to TRANSFER: %w", err)
		}
	default:
		return xerrors.Errorf("unknown command: %s", cmd)
	}

	return nil
}

// tokenCommand implements the commands of the token contract.
//
// - implements commands
type tokenCommand struct {
	*Contract
}

// mint implements commands. It performs the MINT command.
func (c tokenCommand) mint(snap store.Snapshot, step execution.Step) error {
	signer := step.Current.GetIdentity()

	err := c.access.Match(snap, NewCreds(CmdMint), signer)
	if err != nil {
		return xerrors.Errorf("identity not authorized: %v (%v)", signer, err)
	}

	to, amount, err := parseArgs(step)
	if err != nil {
		return err
	}

	err = Mint(snap, to, amount)
	if err != nil {
		return err
	}

	step.Emit(execution.NewEvent(ContractName, "mint", map[string]string{
		"to":     to,
		"amount": strconv.FormatUint(amount, 10),
	}))

	blitz.Logger.Info().Str("contract", "token").Str("to", to).
		Uint64("amount", amount).Msg("minted")

	return nil
}

// transfer implements commands. It performs the TRANSFER command.
func (c tokenCommand) transfer(snap store.Snapshot, step execution.Step) error {
	from, err := step.Current.GetIdentity().MarshalText()
	if err != nil {
		return xerrors.Errorf("failed to marshal identity: %v", err)
	}

	to, amount, err := parseArgs(step)
	if err != nil {
		return err
	}

	err = Transfer(snap, string(from), to, amount)
	if err != nil {
		return err
	}

	step.Emit(execution.NewEvent(ContractName, "transfer", map[string]string{
		"from":   string(from),
		"to":     to,
		"amount": strconv.FormatUint(amount, 10),
	}))

	return nil
}

func parseArgs(step execution.Step) (string, uint64, error) {
	to := step.Current.GetArg(ToArg)
	if len(to) == 0 {
		return "", 0, xerrors.Errorf("'%s' not found in tx arg", ToArg)
	}

	amount, err := strconv.ParseUint(string(step.Current.GetArg(AmountArg)), 10, 64)
	if err != nil {
		return "", 0, xerrors.Errorf("'%s' is malformed (%v): %w", AmountArg, err, ErrInvalidAmount)
	}

	return string(to), amount, nil
}
