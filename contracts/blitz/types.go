package blitz

import (
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/xerrors"
)

const (
	// AuctionDuration is the duration in seconds of an auction.
	AuctionDuration = 24 * 60 * 60

	// DisplayDuration is the duration in seconds during which the payload of
	// the winner is displayed after the auction is closed.
	DisplayDuration = 24 * 60 * 60

	// DefaultMinBidIncrement is the minimum increment of a bid over the
	// highest one, in the smallest unit of the asset.
	DefaultMinBidIncrement uint64 = 1_000_000

	// DefaultMinStartingBid is the minimum amount of the first bid of an
	// auction, in the smallest unit of the asset.
	DefaultMinStartingBid uint64 = 10_000_000

	// DefaultHistoryCapacity is the number of closed auctions kept in the
	// history.
	DefaultHistoryCapacity = 5
)

// Auction is the record of an auction. Timestamps are in seconds since the
// Unix epoch and amounts in the smallest unit of the asset.
type Auction struct {
	ID                uint64 `cbor:"1,keyasint" json:"id"`
	StartTime         uint64 `cbor:"2,keyasint" json:"start_time"`
	EndTime           uint64 `cbor:"3,keyasint" json:"end_time"`
	HighestBid        uint64 `cbor:"4,keyasint" json:"highest_bid,string"`
	HighestBidder     string `cbor:"5,keyasint" json:"highest_bidder"`
	PreferredPayload  string `cbor:"6,keyasint" json:"preferred_payload"`
	Closed            bool   `cbor:"7,keyasint" json:"is_closed"`
	PayloadExpiryTime uint64 `cbor:"8,keyasint" json:"payload_expiry_time"`
}

// IsStarted returns true if the slot was started at least once.
func (a Auction) IsStarted() bool {
	return a.StartTime > 0
}

// IsActive returns true if the auction accepts bids at the given time.
func (a Auction) IsActive(now uint64) bool {
	return a.StartTime > 0 && now < a.EndTime && !a.Closed
}

// Config is the configuration of the contract.
type Config struct {
	Owner           string `cbor:"1,keyasint" json:"owner"`
	PlatformWallet  string `cbor:"2,keyasint" json:"platform_wallet"`
	PaymentAsset    string `cbor:"3,keyasint" json:"payment_asset"`
	AuctionCounter  uint64 `cbor:"4,keyasint" json:"auction_counter"`
	MinBidIncrement uint64 `cbor:"5,keyasint" json:"min_bid_increment,string"`
	MinStartingBid  uint64 `cbor:"6,keyasint" json:"min_starting_bid,string"`
}

// ContractInfo is the public view of the configuration.
type ContractInfo Config

// Display status of the payload.
const (
	StatusAuctionActive = "auction_active"
	StatusWinnerDisplay = "winner_display"
	StatusDefault       = "default"
)

// QRStatus tells which source supplies the displayed payload.
type QRStatus struct {
	Status string `json:"status"`
	Source string `json:"source"`
}

// Summary bundles what a front-end needs to render the auction.
type Summary struct {
	CurrentAuction Auction  `json:"current_auction"`
	LastAuction    Auction  `json:"last_auction"`
	IsActive       bool     `json:"is_active"`
	TimeRemaining  uint64   `json:"time_remaining"`
	MinimumBid     uint64   `json:"minimum_bid,string"`
	HasActiveQR    bool     `json:"has_active_qr"`
	QRURL          string   `json:"qr_url"`
	DisplayPayload string   `json:"display_payload"`
	DisplayStatus  QRStatus `json:"display_status"`
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

func encode(v interface{}) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, xerrors.Errorf("CBOR format: failed to marshal: %v", err)
	}

	return data, nil
}

func decode(data []byte, v interface{}) error {
	err := cbor.Unmarshal(data, v)
	if err != nil {
		return xerrors.Errorf("CBOR format: failed to unmarshal: %v", err)
	}

	return nil
}
