package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.dedis.ch/blitz/contracts/blitz"
	"go.dedis.ch/blitz/contracts/token"
	"golang.org/x/xerrors"
)

// AuctionJSON is an auction with its highest bid formatted in units of the
// asset.
type AuctionJSON struct {
	blitz.Auction

	HighestBidAmount string `json:"highest_bid_amount"`
}

// SummaryJSON is the summary of the auction with the amounts formatted in
// units of the asset.
type SummaryJSON struct {
	blitz.Summary

	MinimumBidAmount string `json:"minimum_bid_amount"`
	Now              uint64 `json:"now"`
}

// MinimumBidJSON is the response of the minimum bid.
type MinimumBidJSON struct {
	MinimumBid uint64 `json:"minimum_bid,string"`
	Amount     string `json:"amount"`
}

// URLJSON is the response of a payload query.
type URLJSON struct {
	URL string `json:"url"`
}

func newAuctionJSON(a blitz.Auction) AuctionJSON {
	return AuctionJSON{
		Auction:          a,
		HighestBidAmount: token.FormatAmount(a.HighestBid),
	}
}

// view loads the read model at the current time of the node and writes the
// error if it fails.
func (s *Server) view(w http.ResponseWriter) (blitz.View, bool) {
	view, err := blitz.NewQuery(s.node.GetStore()).View(s.node.Now())
	if err != nil {
		writeStateError(w, err)
		return view, false
	}

	return view, true
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w)
	if ok {
		writeJSON(w, http.StatusOK, newAuctionJSON(view.CurrentAuction()))
	}
}

func (s *Server) handleLast(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w)
	if ok {
		writeJSON(w, http.StatusOK, newAuctionJSON(view.LastAuction()))
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w)
	if !ok {
		return
	}

	summary := view.Summary()

	writeJSON(w, http.StatusOK, SummaryJSON{
		Summary:          summary,
		MinimumBidAmount: token.FormatAmount(summary.MinimumBid),
		Now:              view.Now(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := blitz.NewQuery(s.node.GetStore()).History()
	if err != nil {
		writeStateError(w, err)
		return
	}

	auctions := make([]AuctionJSON, len(history))
	for i, a := range history {
		auctions[i] = newAuctionJSON(a)
	}

	writeJSON(w, http.StatusOK, auctions)
}

func (s *Server) handleAuction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, xerrors.Errorf("malformed id: %v", err))
		return
	}

	a, found, err := blitz.NewQuery(s.node.GetStore()).Auction(id)
	if err != nil {
		writeStateError(w, err)
		return
	}

	if !found {
		writeError(w, http.StatusNotFound, xerrors.Errorf("auction %d not found", id))
		return
	}

	writeJSON(w, http.StatusOK, newAuctionJSON(a))
}

func (s *Server) handleMinimumBid(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w)
	if ok {
		minimum := view.MinimumBid()

		writeJSON(w, http.StatusOK, MinimumBidJSON{
			MinimumBid: minimum,
			Amount:     token.FormatAmount(minimum),
		})
	}
}

func (s *Server) handleCounter(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w)
	if ok {
		writeJSON(w, http.StatusOK, map[string]uint64{"auction_counter": view.AuctionCounter()})
	}
}

func (s *Server) handleTimeRemaining(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w)
	if ok {
		writeJSON(w, http.StatusOK, map[string]uint64{"time_remaining": view.TimeRemaining()})
	}
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w)
	if ok {
		writeJSON(w, http.StatusOK, map[string]bool{"is_active": view.IsActive()})
	}
}

func (s *Server) handleContract(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w)
	if ok {
		writeJSON(w, http.StatusOK, view.ContractInfo())
	}
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w)
	if ok {
		writeJSON(w, http.StatusOK, URLJSON{URL: view.WinnerDisplayPayload()})
	}
}

func (s *Server) handleQRCurrent(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w)
	if ok {
		writeJSON(w, http.StatusOK, URLJSON{URL: view.CurrentDisplayPayload()})
	}
}

func (s *Server) handleQRDisplay(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w)
	if ok {
		writeJSON(w, http.StatusOK, URLJSON{URL: view.DisplayPayload()})
	}
}

func (s *Server) handleQRActive(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w)
	if ok {
		writeJSON(w, http.StatusOK, map[string]bool{"has_active_qr": view.HasActiveQR()})
	}
}

func (s *Server) handleQRStatus(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w)
	if ok {
		writeJSON(w, http.StatusOK, view.DisplayStatus())
	}
}

func (s *Server) handleQRExpiry(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w)
	if ok {
		writeJSON(w, http.StatusOK, map[string]uint64{"expiry_time": view.DisplayExpiry()})
	}
}
