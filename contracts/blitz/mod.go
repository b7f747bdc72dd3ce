// Package blitz implements the native contract of a recurring open ascending
// auction with escrow.
//
// One auction slot exists at a time. Bidders lock their funds in the escrow of
// the contract when they bid, the previous highest bidder is refunded when
// outbid, and the winning bid is paid to the platform wallet when the auction
// closes. The payload of the winner, typically a URL, is then displayed for a
// fixed window.
//
// Every operation is executed against a snapshot that the caller discards
// when an error is returned, so that no operation is partially applied.
package blitz

import (
	"strconv"

	"go.dedis.ch/blitz/core/execution"
	"go.dedis.ch/blitz/core/execution/native"
	"go.dedis.ch/blitz/core/store"
	"go.dedis.ch/blitz/crypto/ed25519"
	"golang.org/x/xerrors"
)

// commands defines the commands of the auction contract. This interface helps
// in testing the contract.
type commands interface {
	initialize(snap store.Snapshot, step execution.Step) error
	start(snap store.Snapshot, step execution.Step) error
	bid(snap store.Snapshot, step execution.Step) error
	end(snap store.Snapshot, step execution.Step) error
	setMinIncrement(snap store.Snapshot, step execution.Step) error
	setMinStartingBid(snap store.Snapshot, step execution.Step) error
	setPlatformWallet(snap store.Snapshot, step execution.Step) error
	transferOwnership(snap store.Snapshot, step execution.Step) error
}

const (
	// ContractName is the name of the contract.
	ContractName = "go.dedis.ch/blitz.Auction"

	// CmdArg is the argument's name to indicate the kind of command we want to
	// run on the contract. Should be one of the Command type.
	CmdArg = "blitz:command"

	// OwnerArg is the argument's name in the transaction that contains the
	// identity of the owner.
	OwnerArg = "blitz:owner"

	// WalletArg is the argument's name in the transaction that contains the
	// account of the platform wallet.
	WalletArg = "blitz:platform_wallet"

	// AssetArg is the argument's name in the transaction that contains the
	// name of the payment asset.
	AssetArg = "blitz:payment_asset"

	// BidderArg is the argument's name in the transaction that contains the
	// identity of the bidder. It defaults to the signer.
	BidderArg = "blitz:bidder"

	// AmountArg is the argument's name in the transaction that contains the
	// amount of a bid in the smallest unit, as a decimal string.
	AmountArg = "blitz:amount"

	// PayloadArg is the argument's name in the transaction that contains the
	// payload of a bid.
	PayloadArg = "blitz:payload"

	// ValueArg is the argument's name in the transaction that contains the
	// new value of a setting, as a decimal string.
	ValueArg = "blitz:value"

	// IdentityArg is the argument's name in the transaction that contains the
	// new identity of a setting.
	IdentityArg = "blitz:identity"
)

// Command defines a type of command for the auction contract.
type Command string

const (
	// CmdInitialize creates the configuration of the contract.
	CmdInitialize Command = "INITIALIZE"

	// CmdStart starts a new auction.
	CmdStart Command = "START"

	// CmdBid places a bid on the current auction.
	CmdBid Command = "BID"

	// CmdEnd closes the current auction.
	CmdEnd Command = "END"

	// CmdSetMinIncrement updates the minimum bid increment.
	CmdSetMinIncrement Command = "SET_MIN_INCREMENT"

	// CmdSetMinStartingBid updates the minimum starting bid.
	CmdSetMinStartingBid Command = "SET_MIN_STARTING_BID"

	// CmdSetPlatformWallet updates the platform wallet.
	CmdSetPlatformWallet Command = "SET_PLATFORM_WALLET"

	// CmdTransferOwnership transfers the ownership of the contract.
	CmdTransferOwnership Command = "TRANSFER_OWNERSHIP"
)

// RegisterContract registers the auction contract to the given execution
// service.
func RegisterContract(exec *native.Service, c Contract) {
	exec.Set(ContractName, c)
}

// Contract is the native contract of the auction.
//
// - implements native.Contract
type Contract struct {
	machine Machine
	escrow  Escrow
	cmd     commands
}

// NewContract creates a new auction contract on top of the state machine.
func NewContract(m Machine) Contract {
	contract := Contract{
		machine: m,
		escrow:  m.escrow,
	}

	contract.cmd = auctionCommand{Contract: &contract}

	return contract
}

// Execute implements native.Contract. It runs the appropriate command.
func (c Contract) Execute(snap store.Snapshot, step execution.Step) error {
	cmd := step.Current.GetArg(CmdArg)
	if len(cmd) == 0 {
		return xerrors.Errorf("'%s' not found in tx arg", CmdArg)
	}

	var err error

	switch Command(cmd) {
	case CmdInitialize:
		err = c.cmd.initialize(snap, step)
	case CmdStart:
		err = c.cmd.start(snap, step)
	case CmdBid:
		err = c.cmd.bid(snap, step)
	case CmdEnd:
		err = c.cmd.end(snap, step)
	case CmdSetMinIncrement:
		err = c.cmd.setMinIncrement(snap, step)
	case CmdSetMinStartingBid:
		err = c.cmd.setMinStartingBid(snap, step)
	case CmdSetPlatformWallet:
		err = c.cmd.setPlatformWallet(snap, step)
	case CmdTransferOwnership:
		err = c.cmd.transferOwnership(snap, step)
	default:
		return xerrors.Errorf("unknown command: %s", cmd)
	}

	if err != nil {
		return xerrors.Errorf("failed to %s: %w", cmd, err)
	}

	return nil
}

// auctionCommand implements the commands of the auction contract.
//
// - implements commands
type auctionCommand struct {
	*Contract
}

// initialize implements commands. It performs the INITIALIZE command.
func (c auctionCommand) initialize(snap store.Snapshot, step execution.Step) error {
	owner := string(step.Current.GetArg(OwnerArg))
	wallet := string(step.Current.GetArg(WalletArg))
	asset := string(step.Current.GetArg(AssetArg))

	return c.machine.Initialize(NewEnv(snap, step), owner, wallet, asset)
}

// start implements commands. It performs the START command.
func (c auctionCommand) start(snap store.Snapshot, step execution.Step) error {
	closed, err := c.wasOpen(snap)
	if err != nil {
		return err
	}

	err = c.machine.StartAuction(NewEnv(snap, step))
	if err != nil {
		return err
	}

	promStarted.Inc()
	if closed {
		promClosed.Inc()
	}

	c.updateEscrow(snap)

	return nil
}

// bid implements commands. It performs the BID command.
func (c auctionCommand) bid(snap store.Snapshot, step execution.Step) error {
	err := c.placeBid(snap, step)
	promBids.WithLabelValues(bidResult(err)).Inc()

	if err != nil {
		return err
	}

	c.updateEscrow(snap)

	return nil
}

func (c auctionCommand) placeBid(snap store.Snapshot, step execution.Step) error {
	env := NewEnv(snap, step)

	bidder := string(step.Current.GetArg(BidderArg))
	if bidder == "" {
		caller, err := env.caller()
		if err != nil {
			return err
		}

		bidder = caller
	}

	amount, err := parseUint(step, AmountArg)
	if err != nil {
		return err
	}

	payload := string(step.Current.GetArg(PayloadArg))

	return c.machine.PlaceBid(env, bidder, amount, payload)
}

// end implements commands. It performs the END command.
func (c auctionCommand) end(snap store.Snapshot, step execution.Step) error {
	err := c.machine.EndAuction(NewEnv(snap, step))
	if err != nil {
		return err
	}

	promClosed.Inc()
	c.updateEscrow(snap)

	return nil
}

// setMinIncrement implements commands. It performs the SET_MIN_INCREMENT
// command.
func (c auctionCommand) setMinIncrement(snap store.Snapshot, step execution.Step) error {
	value, err := parseUint(step, ValueArg)
	if err != nil {
		return err
	}

	return c.machine.SetMinBidIncrement(NewEnv(snap, step), value)
}

// setMinStartingBid implements commands. It performs the SET_MIN_STARTING_BID
// command.
func (c auctionCommand) setMinStartingBid(snap store.Snapshot, step execution.Step) error {
	value, err := parseUint(step, ValueArg)
	if err != nil {
		return err
	}

	return c.machine.SetMinStartingBid(NewEnv(snap, step), value)
}

// setPlatformWallet implements commands. It performs the SET_PLATFORM_WALLET
// command.
func (c auctionCommand) setPlatformWallet(snap store.Snapshot, step execution.Step) error {
	wallet := string(step.Current.GetArg(IdentityArg))

	return c.machine.SetPlatformWallet(NewEnv(snap, step), wallet)
}

// transferOwnership implements commands. It performs the TRANSFER_OWNERSHIP
// command.
func (c auctionCommand) transferOwnership(snap store.Snapshot, step execution.Step) error {
	owner, err := ed25519.ParsePublicKey(string(step.Current.GetArg(IdentityArg)))
	if err != nil {
		return xerrors.Errorf("malformed identity (%v): %w", err, ErrInvalidValue)
	}

	return c.machine.TransferOwnership(NewEnv(snap, step), owner)
}

// wasOpen returns true if the current auction is started and not closed.
func (c auctionCommand) wasOpen(snap store.Snapshot) (bool, error) {
	current, err := newReader(snap).current()
	if err != nil {
		return false, err
	}

	return current.IsStarted() && !current.Closed, nil
}

func (c auctionCommand) updateEscrow(snap store.Snapshot) {
	balance, err := c.escrow.Balance(snap)
	if err == nil {
		promEscrow.Set(float64(balance))
	}
}

func parseUint(step execution.Step, key string) (uint64, error) {
	value, err := strconv.ParseUint(string(step.Current.GetArg(key)), 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("'%s' is malformed (%v): %w", key, err, ErrInvalidValue)
	}

	return value, nil
}
