// Package api implements the HTTP surface of a node. It serves the read model
// of the auction, the token balances and the nonces, accepts signed
// transactions and streams the committed notifications over a websocket.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.dedis.ch/blitz"
	blitzc "go.dedis.ch/blitz/contracts/blitz"
	"go.dedis.ch/blitz/core/execution"
	"go.dedis.ch/blitz/core/ordering"
	"golang.org/x/xerrors"
)

// Node is the interface of the services the API is built on.
type Node interface {
	ordering.Service

	// Now returns the current time of the node in seconds since the Unix
	// epoch.
	Now() uint64
}

// Server serves the API of a node.
type Server struct {
	node    Node
	checker URLChecker
	origins []string
}

// Option is the type of option to create a server.
type Option func(*Server)

// WithURLChecker sets the checker used to tell if a payload can be embedded.
func WithURLChecker(checker URLChecker) Option {
	return func(s *Server) {
		s.checker = checker
	}
}

// WithOrigins restricts the origins of the browsers allowed to open the
// stream of notifications. An origin can hold one wildcard, like
// "https://*.example.com". Any origin is allowed when none is given.
func WithOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// NewServer creates the API of the node.
func NewServer(node Node, opts ...Option) *Server {
	s := &Server{
		node:    node,
		checker: NewURLChecker(&http.Client{Timeout: checkTimeout}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RegisterRoutes registers the routes of the API to the router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/transactions", s.handleSubmit)
	r.Get("/nonces/{identity}", s.handleNonce)
	r.Get("/balances/*", s.handleBalance)

	r.Route("/auction", func(r chi.Router) {
		r.Get("/current", s.handleCurrent)
		r.Get("/last", s.handleLast)
		r.Get("/summary", s.handleSummary)
		r.Get("/history", s.handleHistory)
		r.Get("/minimum-bid", s.handleMinimumBid)
		r.Get("/counter", s.handleCounter)
		r.Get("/time-remaining", s.handleTimeRemaining)
		r.Get("/active", s.handleActive)
		r.Get("/{id}", s.handleAuction)
	})

	r.Get("/contract", s.handleContract)

	r.Route("/qr", func(r chi.Router) {
		r.Get("/", s.handleQR)
		r.Get("/current", s.handleQRCurrent)
		r.Get("/display", s.handleQRDisplay)
		r.Get("/active", s.handleQRActive)
		r.Get("/status", s.handleQRStatus)
		r.Get("/expiry", s.handleQRExpiry)
	})

	r.Get("/events", s.handleEvents)
	r.Post("/checkurl", s.handleCheckURL)
}

// Handler returns a router serving the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.RegisterRoutes(r)

	return r
}

// ErrorJSON is the body of a failed request.
type ErrorJSON struct {
	Error string `json:"error"`
	Code  uint32 `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		blitz.Logger.Warn().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorJSON{Error: err.Error(), Code: blitzc.CodeOf(err)})
}

// writeStateError writes the failure to read the state of the contract.
func writeStateError(w http.ResponseWriter, err error) {
	switch {
	case xerrors.Is(err, blitzc.ErrNotInitialized):
		writeError(w, http.StatusNotFound, err)
	case execution.IsAbort(err):
		blitz.Logger.Err(err).Msg("failed to read state")
		writeError(w, http.StatusInternalServerError, xerrors.New("failed to read state"))
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

const checkTimeout = 5 * time.Second
