package blitz

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.dedis.ch/blitz"
	"golang.org/x/xerrors"
)

var (
	promBids = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blitz_auction_bids_total",
		Help: "total number of bids by result",
	}, []string{"result"})

	promStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blitz_auction_started_total",
		Help: "total number of auctions started",
	})

	promClosed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blitz_auction_closed_total",
		Help: "total number of auctions closed",
	})

	promEscrow = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "blitz_auction_escrow_amount",
		Help: "amount held in escrow after the last operation",
	})
)

func init() {
	blitz.PromCollectors = append(blitz.PromCollectors, promBids, promStarted,
		promClosed, promEscrow)
}

// bidResult returns the label of the outcome of a bid.
func bidResult(err error) string {
	if err == nil {
		return "accepted"
	}

	var e *Error
	if xerrors.As(err, &e) {
		return e.Name
	}

	return "failed"
}
