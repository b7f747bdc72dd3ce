package controller

import (
	"context"
	"fmt"
	"time"

	"go.dedis.ch/blitz/cli/node"
	"go.dedis.ch/blitz/config"
	auction "go.dedis.ch/blitz/contracts/blitz"
	"go.dedis.ch/blitz/contracts/token"
	"go.dedis.ch/blitz/core/access"
	"go.dedis.ch/blitz/core/execution/native"
	"go.dedis.ch/blitz/core/ordering/serial"
	"go.dedis.ch/blitz/core/txn"
	"go.dedis.ch/blitz/core/txn/signed"
	"go.dedis.ch/blitz/crypto"
	"golang.org/x/xerrors"
)

const (
	walletFlag = "wallet"
	toFlag     = "to"
	amountFlag = "amount"
)

const submitTimeout = 10 * time.Second

// identityAction is an action to print the identity of the node.
//
// - implements node.ActionTemplate
type identityAction struct{}

// Execute implements node.ActionTemplate.
func (identityAction) Execute(ctx node.Context) error {
	var signer crypto.Signer

	err := ctx.Injector.Resolve(&signer)
	if err != nil {
		return xerrors.Errorf("failed to resolve signer: %v", err)
	}

	text, err := identityText(signer.GetPublicKey())
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.Out, text)

	return nil
}

// initializeAction is an action to initialize the auction with the node as
// the owner and the payment asset of the configuration.
//
// - implements node.ActionTemplate
type initializeAction struct{}

// Execute implements node.ActionTemplate.
func (initializeAction) Execute(ctx node.Context) error {
	var cfg config.Node

	err := ctx.Injector.Resolve(&cfg)
	if err != nil {
		return xerrors.Errorf("failed to resolve config: %v", err)
	}

	var signer crypto.Signer

	err = ctx.Injector.Resolve(&signer)
	if err != nil {
		return xerrors.Errorf("failed to resolve signer: %v", err)
	}

	owner, err := identityText(signer.GetPublicKey())
	if err != nil {
		return err
	}

	return submit(ctx, auction.ContractName,
		auction.CmdArg, string(auction.CmdInitialize),
		auction.OwnerArg, owner,
		auction.WalletArg, ctx.Flags.String(walletFlag),
		auction.AssetArg, cfg.Asset)
}

// mintAction is an action to create funds with the key of the node.
//
// - implements node.ActionTemplate
type mintAction struct{}

// Execute implements node.ActionTemplate.
func (mintAction) Execute(ctx node.Context) error {
	amount, err := token.ParseAmount(ctx.Flags.String(amountFlag))
	if err != nil {
		return xerrors.Errorf("failed to parse amount: %v", err)
	}

	return submit(ctx, token.ContractName,
		token.CmdArg, string(token.CmdMint),
		token.ToArg, ctx.Flags.String(toFlag),
		token.AmountArg, fmt.Sprint(amount))
}

// statusAction is an action to print the state of the auction.
//
// - implements node.ActionTemplate
type statusAction struct{}

// Execute implements node.ActionTemplate.
func (statusAction) Execute(ctx node.Context) error {
	var srvc *serial.Service

	err := ctx.Injector.Resolve(&srvc)
	if err != nil {
		return xerrors.Errorf("failed to resolve ordering: %v", err)
	}

	view, err := auction.NewQuery(srvc.GetStore()).View(srvc.Now())
	if err != nil {
		return xerrors.Errorf("failed to read auction: %v", err)
	}

	printSummary(ctx.Out, view.Summary())

	return nil
}

// submit signs the transaction with the key of the node and orders it.
func submit(ctx node.Context, contract string, args ...string) error {
	var signer crypto.Signer

	err := ctx.Injector.Resolve(&signer)
	if err != nil {
		return xerrors.Errorf("failed to resolve signer: %v", err)
	}

	var srvc *serial.Service

	err = ctx.Injector.Resolve(&srvc)
	if err != nil {
		return xerrors.Errorf("failed to resolve ordering: %v", err)
	}

	mgr := signed.NewManager(signer, srvc)

	err = mgr.Sync()
	if err != nil {
		return xerrors.Errorf("failed to sync manager: %v", err)
	}

	tx, err := mgr.Make(makeArgs(contract, args...)...)
	if err != nil {
		return xerrors.Errorf("failed to make transaction: %v", err)
	}

	submitCtx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	res, err := srvc.Submit(submitCtx, tx)
	if err != nil {
		return xerrors.Errorf("failed to submit: %v", err)
	}

	if !res.Accepted {
		return xerrors.Errorf("transaction refused: %s", res.Reason)
	}

	fmt.Fprintf(ctx.Out, "transaction %x accepted\n", tx.GetID())

	return nil
}

// makeArgs returns the arguments of a transaction to the contract.
func makeArgs(contract string, pairs ...string) []txn.Arg {
	return txn.Pairs(append([]string{native.ContractArg, contract}, pairs...)...)
}

func identityText(ident access.Identity) (string, error) {
	data, err := ident.MarshalText()
	if err != nil {
		return "", xerrors.Errorf("failed to marshal identity: %v", err)
	}

	return string(data), nil
}
