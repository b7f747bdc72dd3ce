package blitz

import (
	"math"

	"go.dedis.ch/blitz/core/store"
)

// Query is the read model of the contract. It never modifies the store, and
// each of its reads loads the records of a single committed state.
type Query struct {
	store store.Readable
}

// NewQuery returns the read model over the store.
func NewQuery(r store.Readable) Query {
	return Query{store: r}
}

// View loads the state of the contract at the given time, in seconds since
// the Unix epoch.
func (q Query) View(now uint64) (View, error) {
	view := View{now: now}

	err := store.View(q.store, func(r store.Readable) error {
		rd := newReader(r)

		var err error

		view.cfg, err = rd.config()
		if err != nil {
			return err
		}

		view.current, err = rd.current()
		if err != nil {
			return err
		}

		view.last, err = rd.last()

		return err
	})
	if err != nil {
		return View{}, err
	}

	return view, nil
}

// History returns the retained closed auctions in ascending id order.
func (q Query) History() ([]Auction, error) {
	var history []Auction

	err := store.View(q.store, func(r store.Readable) error {
		var err error
		history, err = newReader(r).history()

		return err
	})
	if err != nil {
		return nil, err
	}

	return history, nil
}

// Auction returns the closed auction with the id if it is still retained in
// the history.
func (q Query) Auction(id uint64) (Auction, bool, error) {
	var a Auction
	var found bool

	err := store.View(q.store, func(r store.Readable) error {
		var err error
		a, found, err = newReader(r).auction(id)

		return err
	})
	if err != nil {
		return Auction{}, false, err
	}

	return a, found, nil
}

// View is the state of the contract at a given time. Every method is a pure
// function of that state.
type View struct {
	cfg     Config
	current Auction
	last    Auction
	now     uint64
}

// Now returns the time of the view.
func (v View) Now() uint64 {
	return v.now
}

// CurrentAuction returns the record of the current slot.
func (v View) CurrentAuction() Auction {
	return v.current
}

// LastAuction returns the last closed auction.
func (v View) LastAuction() Auction {
	return v.last
}

// AuctionCounter returns the id of the last started auction.
func (v View) AuctionCounter() uint64 {
	return v.cfg.AuctionCounter
}

// ContractInfo returns the configuration of the contract.
func (v View) ContractInfo() ContractInfo {
	return ContractInfo(v.cfg)
}

// IsActive returns true if the current auction accepts bids.
func (v View) IsActive() bool {
	return v.current.IsActive(v.now)
}

// TimeRemaining returns the number of seconds before the end of the current
// auction, or zero if it is not active.
func (v View) TimeRemaining() uint64 {
	if !v.IsActive() {
		return 0
	}

	return v.current.EndTime - v.now
}

// MinimumBid returns the minimum amount of the next bid. It returns the
// largest amount when the computation overflows, which no bid can reach.
func (v View) MinimumBid() uint64 {
	minimum, ok := minimumBid(v.cfg, v.current)
	if !ok {
		return math.MaxUint64
	}

	return minimum
}

// CurrentDisplayPayload returns the payload of the highest bidder of the
// active auction, or an empty string.
func (v View) CurrentDisplayPayload() string {
	if v.IsActive() {
		return v.current.PreferredPayload
	}

	return ""
}

// WinnerDisplayPayload returns the payload of the winner of the last auction
// while its display window is open, or an empty string.
func (v View) WinnerDisplayPayload() string {
	if v.winnerDisplayed() && v.last.PreferredPayload != "" {
		return v.last.PreferredPayload
	}

	return ""
}

// HasActiveQR returns true if the payload of a winner is displayed.
func (v View) HasActiveQR() bool {
	return v.WinnerDisplayPayload() != ""
}

// DisplayPayload returns the payload to display. The payload of the active
// auction takes precedence over the one of the winner.
func (v View) DisplayPayload() string {
	payload := v.CurrentDisplayPayload()
	if payload != "" {
		return payload
	}

	return v.WinnerDisplayPayload()
}

// DisplayStatus returns which source supplies the displayed payload.
func (v View) DisplayStatus() QRStatus {
	if v.CurrentDisplayPayload() != "" {
		return QRStatus{Status: StatusAuctionActive, Source: "Current Auction"}
	}

	if v.WinnerDisplayPayload() != "" {
		return QRStatus{Status: StatusWinnerDisplay, Source: "Winner Display"}
	}

	return QRStatus{Status: StatusDefault, Source: "Default"}
}

// DisplayExpiry returns the time at which the displayed payload expires. While
// the active auction has a payload, it is the end of the auction plus the
// display window. Otherwise it is the expiry of the payload of the winner if
// it is not reached yet, or zero.
func (v View) DisplayExpiry() uint64 {
	if v.CurrentDisplayPayload() != "" {
		return v.current.EndTime + DisplayDuration
	}

	if v.winnerDisplayed() {
		return v.last.PayloadExpiryTime
	}

	return 0
}

// Summary returns the aggregate of the views.
func (v View) Summary() Summary {
	return Summary{
		CurrentAuction: v.current,
		LastAuction:    v.last,
		IsActive:       v.IsActive(),
		TimeRemaining:  v.TimeRemaining(),
		MinimumBid:     v.MinimumBid(),
		HasActiveQR:    v.HasActiveQR(),
		QRURL:          v.WinnerDisplayPayload(),
		DisplayPayload: v.DisplayPayload(),
		DisplayStatus:  v.DisplayStatus(),
	}
}

func (v View) winnerDisplayed() bool {
	return v.last.Closed && v.now < v.last.PayloadExpiryTime
}
