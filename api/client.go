package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.dedis.ch/blitz/contracts/blitz"
	"go.dedis.ch/blitz/core/access"
	"go.dedis.ch/blitz/core/txn"
	"golang.org/x/xerrors"
)

// Client is a client of the API of a node.
//
// - implements signed.Client
type Client struct {
	addr   string
	client *http.Client
}

// NewClient returns a client of the node at the address, for instance
// "http://127.0.0.1:8080".
func NewClient(addr string, client *http.Client) Client {
	if client == nil {
		client = http.DefaultClient
	}

	return Client{
		addr:   strings.TrimSuffix(addr, "/"),
		client: client,
	}
}

// GetNonce implements signed.Client. It returns the nonce the next
// transaction of the identity must use.
func (c Client) GetNonce(ident access.Identity) (uint64, error) {
	text, err := ident.MarshalText()
	if err != nil {
		return 0, xerrors.Errorf("failed to marshal identity: %v", err)
	}

	var res NonceJSON

	err = c.get(context.Background(), "/nonces/"+url.PathEscape(string(text)), &res)
	if err != nil {
		return 0, err
	}

	return res.Nonce, nil
}

// Submit sends the transaction to the node and returns its result.
func (c Client) Submit(ctx context.Context, tx txn.Transaction) (ResultJSON, error) {
	var res ResultJSON

	data, err := json.Marshal(tx)
	if err != nil {
		return res, xerrors.Errorf("failed to marshal tx: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.addr+"/transactions",
		bytes.NewReader(data))
	if err != nil {
		return res, xerrors.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")

	err = c.do(req, &res)

	return res, err
}

// Summary returns the summary of the auction.
func (c Client) Summary(ctx context.Context) (SummaryJSON, error) {
	var res SummaryJSON

	err := c.get(ctx, "/auction/summary", &res)

	return res, err
}

// ContractInfo returns the configuration of the contract.
func (c Client) ContractInfo(ctx context.Context) (blitz.ContractInfo, error) {
	var res blitz.ContractInfo

	err := c.get(ctx, "/contract", &res)

	return res, err
}

// History returns the retained closed auctions.
func (c Client) History(ctx context.Context) ([]AuctionJSON, error) {
	var res []AuctionJSON

	err := c.get(ctx, "/auction/history", &res)

	return res, err
}

// Balance returns the balance of the account.
func (c Client) Balance(ctx context.Context, account string) (BalanceJSON, error) {
	var res BalanceJSON

	err := c.get(ctx, "/balances/"+account, &res)

	return res, err
}

func (c Client) get(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.addr+path, nil)
	if err != nil {
		return xerrors.Errorf("failed to create request: %v", err)
	}

	return c.do(req, v)
}

func (c Client) do(req *http.Request, v interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return xerrors.Errorf("failed to reach node: %v", err)
	}

	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return xerrors.Errorf("failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e ErrorJSON

		err = json.Unmarshal(data, &e)
		if err != nil || e.Error == "" {
			return xerrors.Errorf("unexpected status %d: %s", resp.StatusCode, data)
		}

		return xerrors.Errorf("node replied %d: %s", resp.StatusCode, e.Error)
	}

	err = json.Unmarshal(data, v)
	if err != nil {
		return xerrors.Errorf("failed to decode response: %v", err)
	}

	return nil
}
