package controller

import (
	"context"
	"fmt"
	"io"

	"go.dedis.ch/blitz/api"
	"go.dedis.ch/blitz/cli"
	"go.dedis.ch/blitz/cli/node"
	auction "go.dedis.ch/blitz/contracts/blitz"
	"go.dedis.ch/blitz/contracts/token"
	"go.dedis.ch/blitz/core/txn/signed"
	"go.dedis.ch/blitz/crypto"
	"go.dedis.ch/blitz/crypto/ed25519"
	"go.dedis.ch/blitz/crypto/loader"
	"golang.org/x/xerrors"
)

const (
	nodeFlag    = "node"
	keyFlag     = "key"
	ownerFlag   = "owner"
	assetFlag   = "asset"
	payloadFlag = "payload"
	bidderFlag  = "bidder"
	accountFlag = "account"

	defaultNode = "http://127.0.0.1:8080"
)

var nodeAddrFlag = cli.StringFlag{
	Name:  nodeFlag,
	Usage: "address of the node",
	Value: defaultNode,
	Env:   "BLITZ_NODE",
}

var keyPathFlag = cli.StringFlag{
	Name:     keyFlag,
	Usage:    "path to the private key signing the transactions",
	Required: true,
	Env:      "BLITZ_KEY",
}

// txCommand is the definition of a command sending a transaction.
type txCommand struct {
	name        string
	description string
	flags       []cli.Flag
	contract    string
	args        func(cli.Flags) ([]string, error)
}

func requiredFlag(name, usage string) cli.Flag {
	return cli.StringFlag{Name: name, Usage: usage, Required: true}
}

func txCommands() []txCommand {
	return []txCommand{
		{
			name:        "initialize",
			description: "initialize the auction",
			flags: []cli.Flag{
				requiredFlag(ownerFlag, "identity of the owner"),
				requiredFlag(walletFlag, "account receiving the winning bids"),
				cli.StringFlag{Name: assetFlag, Usage: "name of the payment asset"},
			},
			contract: auction.ContractName,
			args: func(flags cli.Flags) ([]string, error) {
				return []string{
					auction.CmdArg, string(auction.CmdInitialize),
					auction.OwnerArg, flags.String(ownerFlag),
					auction.WalletArg, flags.String(walletFlag),
					auction.AssetArg, flags.String(assetFlag),
				}, nil
			},
		},
		{
			name:        "start",
			description: "start a new auction",
			contract:    auction.ContractName,
			args:        command(auction.CmdStart),
		},
		{
			name:        "bid",
			description: "place a bid on the current auction",
			flags: []cli.Flag{
				requiredFlag(amountFlag, "amount in the display unit, e.g. 1.5"),
				requiredFlag(payloadFlag, "URL displayed if the bid wins"),
				cli.StringFlag{Name: bidderFlag, Usage: "identity of the bidder, the signer by default"},
			},
			contract: auction.ContractName,
			args: func(flags cli.Flags) ([]string, error) {
				amount, err := parseAmount(flags)
				if err != nil {
					return nil, err
				}

				return []string{
					auction.CmdArg, string(auction.CmdBid),
					auction.AmountArg, amount,
					auction.PayloadArg, flags.String(payloadFlag),
					auction.BidderArg, flags.String(bidderFlag),
				}, nil
			},
		},
		{
			name:        "end",
			description: "close the current auction once it has expired",
			contract:    auction.ContractName,
			args:        command(auction.CmdEnd),
		},
		{
			name:        "set-increment",
			description: "set the minimum increment of a bid",
			flags:       []cli.Flag{requiredFlag(amountFlag, "amount in the display unit")},
			contract:    auction.ContractName,
			args:        valueCommand(auction.CmdSetMinIncrement),
		},
		{
			name:        "set-starting-bid",
			description: "set the minimum amount of the first bid",
			flags:       []cli.Flag{requiredFlag(amountFlag, "amount in the display unit")},
			contract:    auction.ContractName,
			args:        valueCommand(auction.CmdSetMinStartingBid),
		},
		{
			name:        "set-wallet",
			description: "set the account receiving the winning bids",
			flags:       []cli.Flag{requiredFlag(walletFlag, "account receiving the winning bids")},
			contract:    auction.ContractName,
			args: func(flags cli.Flags) ([]string, error) {
				return []string{
					auction.CmdArg, string(auction.CmdSetPlatformWallet),
					auction.IdentityArg, flags.String(walletFlag),
				}, nil
			},
		},
		{
			name:        "transfer-ownership",
			description: "transfer the ownership of the auction",
			flags:       []cli.Flag{requiredFlag(ownerFlag, "identity of the new owner")},
			contract:    auction.ContractName,
			args: func(flags cli.Flags) ([]string, error) {
				return []string{
					auction.CmdArg, string(auction.CmdTransferOwnership),
					auction.IdentityArg, flags.String(ownerFlag),
				}, nil
			},
		},
		{
			name:        "mint",
			description: "create funds on an account",
			flags: []cli.Flag{
				requiredFlag(toFlag, "account credited"),
				requiredFlag(amountFlag, "amount in the display unit"),
			},
			contract: token.ContractName,
			args:     tokenCommand(token.CmdMint),
		},
		{
			name:        "transfer",
			description: "move funds of the signer to an account",
			flags: []cli.Flag{
				requiredFlag(toFlag, "account credited"),
				requiredFlag(amountFlag, "amount in the display unit"),
			},
			contract: token.ContractName,
			args:     tokenCommand(token.CmdTransfer),
		},
	}
}

func command(cmd auction.Command) func(cli.Flags) ([]string, error) {
	return func(cli.Flags) ([]string, error) {
		return []string{auction.CmdArg, string(cmd)}, nil
	}
}

func valueCommand(cmd auction.Command) func(cli.Flags) ([]string, error) {
	return func(flags cli.Flags) ([]string, error) {
		amount, err := parseAmount(flags)
		if err != nil {
			return nil, err
		}

		return []string{auction.CmdArg, string(cmd), auction.ValueArg, amount}, nil
	}
}

func tokenCommand(cmd token.Command) func(cli.Flags) ([]string, error) {
	return func(flags cli.Flags) ([]string, error) {
		amount, err := parseAmount(flags)
		if err != nil {
			return nil, err
		}

		return []string{
			token.CmdArg, string(cmd),
			token.ToArg, flags.String(toFlag),
			token.AmountArg, amount,
		}, nil
	}
}

func parseAmount(flags cli.Flags) (string, error) {
	amount, err := token.ParseAmount(flags.String(amountFlag))
	if err != nil {
		return "", xerrors.Errorf("failed to parse amount: %v", err)
	}

	return fmt.Sprint(amount), nil
}

// setClientCommands sets the commands that a client runs against the API of
// a node.
func (c controller) setClientCommands(builder node.Builder) {
	cmd := builder.SetCommand("keygen")
	cmd.SetDescription("create a private key and print its identity")
	cmd.SetFlags(cli.StringFlag{
		Name:     keyFlag,
		Usage:    "path to the private key",
		Required: true,
	})
	cmd.SetAction(c.keygen)

	cmd = builder.SetCommand("tx")
	cmd.SetDescription("sign and send a transaction to a node")

	for _, tx := range txCommands() {
		sub := cmd.SetSubCommand(tx.name)
		sub.SetDescription(tx.description)
		sub.SetFlags(append([]cli.Flag{nodeAddrFlag, keyPathFlag}, tx.flags...)...)
		sub.SetAction(c.makeTx(tx))
	}

	cmd = builder.SetCommand("show")
	cmd.SetDescription("print the state of the ledger of a node")

	sub := cmd.SetSubCommand("summary")
	sub.SetDescription("print the summary of the auction")
	sub.SetFlags(nodeAddrFlag)
	sub.SetAction(c.showSummary)

	sub = cmd.SetSubCommand("contract")
	sub.SetDescription("print the configuration of the auction")
	sub.SetFlags(nodeAddrFlag)
	sub.SetAction(c.showContract)

	sub = cmd.SetSubCommand("history")
	sub.SetDescription("print the closed auctions")
	sub.SetFlags(nodeAddrFlag)
	sub.SetAction(c.showHistory)

	sub = cmd.SetSubCommand("balance")
	sub.SetDescription("print the balance of an account")
	sub.SetFlags(nodeAddrFlag, requiredFlag(accountFlag, "account, e.g. the identity of a bidder"))
	sub.SetAction(c.showBalance)
}

func (c controller) keygen(flags cli.Flags) error {
	data, err := loader.LoadOrCreate(flags.String(keyFlag), ed25519.GenerateKey)
	if err != nil {
		return xerrors.Errorf("failed to load key: %v", err)
	}

	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return xerrors.Errorf("failed to unmarshal signer: %v", err)
	}

	text, err := identityText(signer.GetPublicKey())
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, text)

	return nil
}

func (c controller) makeTx(cmd txCommand) cli.Action {
	return func(flags cli.Flags) error {
		args, err := cmd.args(flags)
		if err != nil {
			return err
		}

		signer, err := readSigner(flags.String(keyFlag))
		if err != nil {
			return err
		}

		client := c.client(flags)

		mgr := signed.NewManager(signer, client)

		err = mgr.Sync()
		if err != nil {
			return xerrors.Errorf("failed to sync manager: %v", err)
		}

		tx, err := mgr.Make(makeArgs(cmd.contract, args...)...)
		if err != nil {
			return xerrors.Errorf("failed to make transaction: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()

		res, err := client.Submit(ctx, tx)
		if err != nil {
			return xerrors.Errorf("failed to submit: %v", err)
		}

		if !res.Accepted {
			return xerrors.Errorf("transaction %s refused: %s", res.ID, res.Reason)
		}

		fmt.Fprintf(c.out, "transaction %s accepted\n", res.ID)

		return nil
	}
}

func (c controller) showSummary(flags cli.Flags) error {
	summary, err := c.client(flags).Summary(context.Background())
	if err != nil {
		return xerrors.Errorf("failed to get summary: %v", err)
	}

	printSummary(c.out, summary.Summary)

	return nil
}

func (c controller) showContract(flags cli.Flags) error {
	info, err := c.client(flags).ContractInfo(context.Background())
	if err != nil {
		return xerrors.Errorf("failed to get contract: %v", err)
	}

	fmt.Fprintf(c.out, "owner: %s\n", info.Owner)
	fmt.Fprintf(c.out, "platform wallet: %s\n", info.PlatformWallet)
	fmt.Fprintf(c.out, "payment asset: %s\n", info.PaymentAsset)
	fmt.Fprintf(c.out, "auctions: %d\n", info.AuctionCounter)
	fmt.Fprintf(c.out, "minimum increment: %s\n", token.FormatAmount(info.MinBidIncrement))
	fmt.Fprintf(c.out, "minimum starting bid: %s\n", token.FormatAmount(info.MinStartingBid))

	return nil
}

func (c controller) showHistory(flags cli.Flags) error {
	history, err := c.client(flags).History(context.Background())
	if err != nil {
		return xerrors.Errorf("failed to get history: %v", err)
	}

	for _, a := range history {
		fmt.Fprintf(c.out, "#%d %s by %s: %s\n", a.ID, a.HighestBidAmount,
			orNone(a.HighestBidder), orNone(a.PreferredPayload))
	}

	return nil
}

func (c controller) showBalance(flags cli.Flags) error {
	balance, err := c.client(flags).Balance(context.Background(), flags.String(accountFlag))
	if err != nil {
		return xerrors.Errorf("failed to get balance: %v", err)
	}

	fmt.Fprintf(c.out, "%s: %s\n", balance.Account, balance.Amount)

	return nil
}

func (c controller) client(flags cli.Flags) api.Client {
	addr := flags.String(nodeFlag)
	if addr == "" {
		addr = defaultNode
	}

	return api.NewClient(addr, c.httpClient)
}

// readSigner reads the private key of a client. Contrary to the key of the
// node, it is never created implicitly.
func readSigner(path string) (crypto.Signer, error) {
	data, err := loader.Load(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to load key: %v", err)
	}

	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return nil, xerrors.Errorf("failed to unmarshal signer: %v", err)
	}

	return signer, nil
}

func printSummary(out io.Writer, s auction.Summary) {
	current := s.CurrentAuction

	fmt.Fprintf(out, "auction #%d: active=%t remaining=%ds\n", current.ID,
		s.IsActive, s.TimeRemaining)
	fmt.Fprintf(out, "highest bid: %s by %s\n", token.FormatAmount(current.HighestBid),
		orNone(current.HighestBidder))
	fmt.Fprintf(out, "minimum bid: %s\n", token.FormatAmount(s.MinimumBid))
	fmt.Fprintf(out, "display: %s (%s)\n", orNone(s.DisplayPayload), s.DisplayStatus.Status)
}

func orNone(value string) string {
	if value == "" {
		return "none"
	}

	return value
}
