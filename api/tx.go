package api

import (
	"encoding/hex"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.dedis.ch/blitz"
	"go.dedis.ch/blitz/contracts/token"
	"go.dedis.ch/blitz/core/txn/signed"
	"go.dedis.ch/blitz/crypto/ed25519"
	"golang.org/x/xerrors"
)

// maxBodySize is the maximum size of a transaction in bytes.
const maxBodySize = 64 * 1024

// ResultJSON is the response of a submitted transaction.
type ResultJSON struct {
	ID       string `json:"id"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// NonceJSON is the response of the nonce of an identity.
type NonceJSON struct {
	Nonce uint64 `json:"nonce"`
}

// BalanceJSON is the response of the balance of an account.
type BalanceJSON struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance,string"`
	Amount  string `json:"amount"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, xerrors.Errorf("failed to read body: %v", err))
		return
	}

	tx, err := signed.Decode(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, xerrors.Errorf("malformed transaction: %v", err))
		return
	}

	res, err := s.node.Submit(r.Context(), tx)
	if err != nil {
		blitz.Logger.Err(err).Hex("tx", tx.GetID()).Msg("failed to submit")
		writeError(w, http.StatusInternalServerError, xerrors.New("failed to submit transaction"))
		return
	}

	writeJSON(w, http.StatusOK, ResultJSON{
		ID:       hex.EncodeToString(tx.GetID()),
		Accepted: res.Accepted,
		Reason:   res.Reason,
	})
}

func (s *Server) handleNonce(w http.ResponseWriter, r *http.Request) {
	ident, err := ed25519.ParsePublicKey(chi.URLParam(r, "identity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, xerrors.Errorf("malformed identity: %v", err))
		return
	}

	nonce, err := s.node.GetNonce(ident)
	if err != nil {
		writeStateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, NonceJSON{Nonce: nonce})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "*")
	if account == "" {
		writeError(w, http.StatusBadRequest, xerrors.New("missing account"))
		return
	}

	balance, err := token.BalanceOf(s.node.GetStore(), account)
	if err != nil {
		writeStateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceJSON{
		Account: account,
		Balance: balance,
		Amount:  token.FormatAmount(balance),
	})
}
