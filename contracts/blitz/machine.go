package blitz

import (
	"strconv"

	"go.dedis.ch/blitz"
	"go.dedis.ch/blitz/contracts/token"
	"go.dedis.ch/blitz/core/access"
	"go.dedis.ch/blitz/core/execution"
	"go.dedis.ch/blitz/core/store"
	"golang.org/x/xerrors"
)

// accessID is the identifier of the credential of the contract.
var accessID = []byte(ContractName + ":access")

// NewOwnerCreds returns the credential of the owner of the contract.
func NewOwnerCreds() access.Credential {
	return access.ContractCredential{ID: accessID, Contract: ContractName, Command: "owner"}
}

// Env is the context of an operation: the snapshot it updates, the current
// time, the identity that signed the transaction and the sink of the
// notifications.
type Env struct {
	Snapshot store.Snapshot
	Now      uint64
	Caller   access.Identity
	Emitter  execution.Emitter
}

// NewEnv creates the context of an operation from an execution step.
func NewEnv(snap store.Snapshot, step execution.Step) Env {
	env := Env{
		Snapshot: snap,
		Now:      step.Timestamp,
		Emitter:  step.Emitter,
	}

	if step.Current != nil {
		env.Caller = step.Current.GetIdentity()
	}

	return env
}

func (env Env) emit(name string, attrs map[string]string) {
	if env.Emitter == nil {
		return
	}

	evt := execution.NewEvent(ContractName, name, attrs)
	evt.Timestamp = env.Now

	env.Emitter.Emit(evt)
}

func (env Env) caller() (string, error) {
	if env.Caller == nil {
		return "", xerrors.Errorf("missing identity: %w", ErrUnauthorized)
	}

	text, err := env.Caller.MarshalText()
	if err != nil {
		return "", xerrors.Errorf("malformed identity (%v): %w", err, ErrUnauthorized)
	}

	return string(text), nil
}

// Machine applies the transitions of the auction slot. Each operation either
// succeeds or returns an error, in which case the snapshot must be discarded
// by the caller.
type Machine struct {
	access   access.Service
	escrow   Escrow
	capacity int
}

// NewMachine creates a state machine. The capacity is the number of closed
// auctions kept in the history, or zero to keep all of them.
func NewMachine(srvc access.Service, escrow Escrow, capacity int) Machine {
	return Machine{
		access:   srvc,
		escrow:   escrow,
		capacity: capacity,
	}
}

// Initialize creates the configuration and the empty auction slot. The caller
// must be the owner.
func (m Machine) Initialize(env Env, owner, wallet, asset string) error {
	caller, err := env.caller()
	if err != nil {
		return err
	}

	if caller != owner {
		return xerrors.Errorf("'%s' is not the owner: %w", caller, ErrUnauthorized)
	}

	w := newWriter(env.Snapshot)

	found, err := w.isInitialized()
	if err != nil {
		return err
	}

	if found {
		return ErrAlreadyInitialized
	}

	err = checkWallet(wallet)
	if err != nil {
		return err
	}

	if asset == "" {
		asset = token.ContractName
	}

	if asset != token.ContractName {
		return xerrors.Errorf("unsupported payment asset '%s': %w", asset, ErrInvalidValue)
	}

	cfg := Config{
		Owner:           owner,
		PlatformWallet:  wallet,
		PaymentAsset:    asset,
		AuctionCounter:  0,
		MinBidIncrement: DefaultMinBidIncrement,
		MinStartingBid:  DefaultMinStartingBid,
	}

	empty := Auction{
		HighestBidder: owner,
		Closed:        true,
	}

	err = w.setConfig(cfg)
	if err != nil {
		return err
	}

	err = w.setCurrent(empty)
	if err != nil {
		return err
	}

	err = w.setLast(empty)
	if err != nil {
		return err
	}

	err = m.access.Grant(env.Snapshot, NewOwnerCreds(), env.Caller)
	if err != nil {
		return execution.Abort(xerrors.Errorf("failed to grant owner: %v", err))
	}

	env.emit("initialized", map[string]string{
		"owner":           owner,
		"platform_wallet": wallet,
		"payment_asset":   asset,
	})

	return nil
}

// StartAuction opens a new auction. A started auction that is not closed yet
// is closed first. The caller must be the owner.
func (m Machine) StartAuction(env Env) error {
	cfg, err := m.authorizeOwner(env)
	if err != nil {
		return err
	}

	w := newWriter(env.Snapshot)

	current, err := w.current()
	if err != nil {
		return err
	}

	if current.IsStarted() && !current.Closed {
		err = m.close(env, w, cfg, current)
		if err != nil {
			return xerrors.Errorf("failed to close auction %d: %w", current.ID, err)
		}
	}

	cfg.AuctionCounter++

	auction := Auction{
		ID:            cfg.AuctionCounter,
		StartTime:     env.Now,
		EndTime:       env.Now + AuctionDuration,
		HighestBidder: cfg.Owner,
	}

	err = w.setConfig(cfg)
	if err != nil {
		return err
	}

	err = w.setCurrent(auction)
	if err != nil {
		return err
	}

	env.emit("started", map[string]string{
		"auction_id": strconv.FormatUint(auction.ID, 10),
		"start_time": strconv.FormatUint(auction.StartTime, 10),
		"end_time":   strconv.FormatUint(auction.EndTime, 10),
	})

	blitz.Logger.Info().Str("contract", "blitz").Uint64("id", auction.ID).
		Uint64("end", auction.EndTime).Msg("auction started")

	return nil
}

// PlaceBid accepts the bid if it is at least the minimum bid of the current
// auction. The previous highest bidder is refunded unless it is the bidder
// itself, then the amount is locked in the escrow. The caller must be the
// bidder.
func (m Machine) PlaceBid(env Env, bidder string, amount uint64, payload string) error {
	caller, err := env.caller()
	if err != nil {
		return err
	}

	if caller != bidder {
		return xerrors.Errorf("'%s' cannot bid for '%s': %w", caller, bidder, ErrUnauthorized)
	}

	w := newWriter(env.Snapshot)

	cfg, err := w.config()
	if err != nil {
		return err
	}

	current, err := w.current()
	if err != nil {
		return err
	}

	if !current.IsStarted() {
		return ErrNoActiveAuction
	}

	if env.Now >= current.EndTime || current.Closed {
		return ErrAuctionEnded
	}

	if payload == "" {
		return ErrEmptyPayload
	}

	minimum, ok := minimumBid(cfg, current)
	if !ok {
		return xerrors.Errorf("minimum bid overflows: %w", ErrBidTooLow)
	}

	if amount < minimum {
		return xerrors.Errorf("%d < %d: %w", amount, minimum, ErrBidTooLow)
	}

	if current.HighestBidder != bidder && current.HighestBid > 0 {
		err = m.escrow.Release(env.Snapshot, current.HighestBidder, current.HighestBid)
		if err != nil {
			return xerrors.Errorf("failed to refund: %w", err)
		}
	}

	err = m.escrow.Lock(env.Snapshot, bidder, amount)
	if err != nil {
		return xerrors.Errorf("failed to escrow bid: %w", err)
	}

	current.HighestBid = amount
	current.HighestBidder = bidder
	current.PreferredPayload = payload

	err = w.setCurrent(current)
	if err != nil {
		return err
	}

	env.emit("bid_placed", map[string]string{
		"auction_id": strconv.FormatUint(current.ID, 10),
		"bidder":     bidder,
		"amount":     strconv.FormatUint(amount, 10),
		"payload":    payload,
		"timestamp":  strconv.FormatUint(env.Now, 10),
	})

	return nil
}

// EndAuction closes the current auction once its end time has passed. Anyone
// can close it.
func (m Machine) EndAuction(env Env) error {
	w := newWriter(env.Snapshot)

	cfg, err := w.config()
	if err != nil {
		return err
	}

	current, err := w.current()
	if err != nil {
		return err
	}

	if !current.IsStarted() {
		return ErrNoAuctionToEnd
	}

	if env.Now <= current.EndTime {
		return xerrors.Errorf("ends at %d: %w", current.EndTime, ErrAuctionNotEnded)
	}

	if current.Closed {
		return ErrAlreadyEnded
	}

	return m.close(env, w, cfg, current)
}

// close pays the winning bid to the platform wallet and finalizes the
// auction into the history, the last auction and the current slot.
func (m Machine) close(env Env, w writer, cfg Config, auction Auction) error {
	if auction.HighestBid > 0 {
		err := m.escrow.Release(env.Snapshot, cfg.PlatformWallet, auction.HighestBid)
		if err != nil {
			return xerrors.Errorf("failed to pay platform: %w", err)
		}
	}

	auction.Closed = true
	auction.PayloadExpiryTime = env.Now + DisplayDuration

	err := w.record(auction, m.capacity)
	if err != nil {
		return err
	}

	err = w.setLast(auction)
	if err != nil {
		return err
	}

	err = w.setCurrent(auction)
	if err != nil {
		return err
	}

	env.emit("ended", map[string]string{
		"auction_id":          strconv.FormatUint(auction.ID, 10),
		"winner":              auction.HighestBidder,
		"amount":              strconv.FormatUint(auction.HighestBid, 10),
		"payload":             auction.PreferredPayload,
		"closed_at":           strconv.FormatUint(env.Now, 10),
		"payload_expiry_time": strconv.FormatUint(auction.PayloadExpiryTime, 10),
	})

	blitz.Logger.Info().Str("contract", "blitz").Uint64("id", auction.ID).
		Uint64("amount", auction.HighestBid).Msg("auction closed")

	return nil
}

// SetMinBidIncrement updates the minimum bid increment. The caller must be the
// owner.
func (m Machine) SetMinBidIncrement(env Env, value uint64) error {
	return m.updateConfig(env, "min_increment", func(cfg *Config) (map[string]string, error) {
		if value == 0 {
			return nil, xerrors.Errorf("zero increment: %w", ErrInvalidValue)
		}

		cfg.MinBidIncrement = value

		return map[string]string{"min_bid_increment": strconv.FormatUint(value, 10)}, nil
	})
}

// SetMinStartingBid updates the minimum starting bid. The caller must be the
// owner.
func (m Machine) SetMinStartingBid(env Env, value uint64) error {
	return m.updateConfig(env, "min_starting_bid", func(cfg *Config) (map[string]string, error) {
		if value == 0 {
			return nil, xerrors.Errorf("zero starting bid: %w", ErrInvalidValue)
		}

		cfg.MinStartingBid = value

		return map[string]string{"min_starting_bid": strconv.FormatUint(value, 10)}, nil
	})
}

// SetPlatformWallet updates the account receiving the winning bids. The caller
// must be the owner.
func (m Machine) SetPlatformWallet(env Env, wallet string) error {
	return m.updateConfig(env, "platform_wallet", func(cfg *Config) (map[string]string, error) {
		err := checkWallet(wallet)
		if err != nil {
			return nil, err
		}

		cfg.PlatformWallet = wallet

		return map[string]string{"platform_wallet": wallet}, nil
	})
}

// TransferOwnership moves the ownership to the identity. The caller must be
// the owner and loses its rights.
func (m Machine) TransferOwnership(env Env, owner access.Identity) error {
	return m.updateConfig(env, "owner", func(cfg *Config) (map[string]string, error) {
		if owner == nil {
			return nil, xerrors.Errorf("missing owner: %w", ErrInvalidValue)
		}

		text, err := owner.MarshalText()
		if err != nil {
			return nil, xerrors.Errorf("malformed owner (%v): %w", err, ErrInvalidValue)
		}

		err = m.access.Revoke(env.Snapshot, NewOwnerCreds(), env.Caller)
		if err != nil {
			return nil, execution.Abort(xerrors.Errorf("failed to revoke owner: %v", err))
		}

		err = m.access.Grant(env.Snapshot, NewOwnerCreds(), owner)
		if err != nil {
			return nil, execution.Abort(xerrors.Errorf("failed to grant owner: %v", err))
		}

		previous := cfg.Owner
		cfg.Owner = string(text)

		return map[string]string{"previous_owner": previous, "owner": cfg.Owner}, nil
	})
}

func (m Machine) updateConfig(env Env, event string,
	fn func(*Config) (map[string]string, error)) error {

	cfg, err := m.authorizeOwner(env)
	if err != nil {
		return err
	}

	attrs, err := fn(&cfg)
	if err != nil {
		return err
	}

	err = newWriter(env.Snapshot).setConfig(cfg)
	if err != nil {
		return err
	}

	env.emit(event, attrs)

	return nil
}

// authorizeOwner returns the configuration if the caller is the owner.
func (m Machine) authorizeOwner(env Env) (Config, error) {
	cfg, err := newReader(env.Snapshot).config()
	if err != nil {
		return cfg, err
	}

	caller, err := env.caller()
	if err != nil {
		return cfg, err
	}

	err = m.access.Match(env.Snapshot, NewOwnerCreds(), env.Caller)
	if err != nil {
		return cfg, xerrors.Errorf("'%s' is not the owner (%v): %w", caller, err, ErrUnauthorized)
	}

	return cfg, nil
}

// checkWallet rejects the accounts that cannot receive the winning bids. The
// escrow would pay itself and keep the bids locked.
func checkWallet(wallet string) error {
	if wallet == "" {
		return xerrors.Errorf("missing platform wallet: %w", ErrInvalidValue)
	}

	if wallet == EscrowAccount {
		return xerrors.Errorf("platform wallet is the escrow: %w", ErrInvalidValue)
	}

	return nil
}

// minimumBid returns the minimum amount of the next bid, or false if it
// overflows.
func minimumBid(cfg Config, a Auction) (uint64, bool) {
	if a.HighestBid == 0 {
		return cfg.MinStartingBid, true
	}

	minimum := a.HighestBid + cfg.MinBidIncrement
	if minimum < a.HighestBid {
		return 0, false
	}

	return minimum, true
}
