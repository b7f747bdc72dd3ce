// Package controller implements the initializer of an auction node. It opens
// the database, assembles the ledger running the token and auction contracts,
// and exposes it through the HTTP proxy. It also provides the commands used by
// the clients to sign and send transactions to a node.
package controller

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"go.dedis.ch/blitz"
	"go.dedis.ch/blitz/api"
	"go.dedis.ch/blitz/cli"
	"go.dedis.ch/blitz/cli/node"
	"go.dedis.ch/blitz/config"
	auction "go.dedis.ch/blitz/contracts/blitz"
	"go.dedis.ch/blitz/contracts/token"
	"go.dedis.ch/blitz/core/access"
	"go.dedis.ch/blitz/core/access/darc"
	"go.dedis.ch/blitz/core/execution/native"
	"go.dedis.ch/blitz/core/ordering/serial"
	"go.dedis.ch/blitz/core/store"
	"go.dedis.ch/blitz/core/store/kv"
	"go.dedis.ch/blitz/core/store/mem"
	"go.dedis.ch/blitz/core/validation/simple"
	"go.dedis.ch/blitz/crypto"
	"go.dedis.ch/blitz/crypto/ed25519"
	"go.dedis.ch/blitz/crypto/loader"
	"go.dedis.ch/blitz/proxy"
	"golang.org/x/xerrors"
)

// controller is the initializer of an auction node.
//
// - implements node.Initializer
type controller struct {
	out        io.Writer
	httpClient *http.Client
	newDB      func(path string) (kv.DB, error)
	clock      serial.Clock
}

// NewController returns a new initializer of an auction node.
func NewController() node.Initializer {
	return controller{
		out:        os.Stdout,
		httpClient: &http.Client{},
		newDB:      kv.Open,
	}
}

// SetCommands implements node.Initializer. It sets the flags of the node, the
// commands executed by the daemon with the key of the node, and the commands
// of the clients.
func (c controller) SetCommands(builder node.Builder) {
	builder.SetStartFlags(
		cli.StringFlag{
			Name:  config.DatabaseFlag,
			Usage: "path to the database file",
		},
		cli.StringFlag{
			Name:  config.BucketFlag,
			Usage: "name of the bucket of the ledger in the database",
		},
		cli.StringFlag{
			Name:  config.HistoryFlag,
			Usage: "number of closed auctions kept, 0 keeps all of them",
		},
		cli.StringFlag{
			Name:  config.KeyFlag,
			Usage: "path to the private key of the node",
		},
		cli.StringFlag{
			Name:  config.AssetFlag,
			Usage: "name of the payment asset",
		},
	)

	cmd := builder.SetCommand("node")
	cmd.SetDescription("administrate the node with its own key")

	sub := cmd.SetSubCommand("identity")
	sub.SetDescription("print the identity of the node")
	sub.SetAction(builder.MakeAction("node identity", identityAction{}))

	sub = cmd.SetSubCommand("initialize")
	sub.SetDescription("initialize the auction with the node as the owner")
	sub.SetFlags(cli.StringFlag{
		Name:     walletFlag,
		Usage:    "account receiving the winning bids",
		Required: true,
	})
	sub.SetAction(builder.MakeAction("node initialize", initializeAction{}))

	sub = cmd.SetSubCommand("mint")
	sub.SetDescription("create funds on an account")
	sub.SetFlags(
		cli.StringFlag{
			Name:     toFlag,
			Usage:    "account credited",
			Required: true,
		},
		cli.StringFlag{
			Name:     amountFlag,
			Usage:    "amount in the display unit, e.g. 1.5",
			Required: true,
		},
	)
	sub.SetAction(builder.MakeAction("node mint", mintAction{}))

	sub = cmd.SetSubCommand("status")
	sub.SetDescription("print the state of the auction")
	sub.SetAction(builder.MakeAction("node status", statusAction{}))

	c.setClientCommands(builder)
}

// OnStart implements node.Initializer. It opens the database, creates the
// ledger and registers its handlers on the proxy.
func (c controller) OnStart(flags cli.Flags, inj node.Injector) error {
	cfg, err := config.Load(flags)
	if err != nil {
		return xerrors.Errorf("failed to load config: %v", err)
	}

	signer, err := loadSigner(cfg.Key)
	if err != nil {
		return xerrors.Errorf("failed to load key: %v", err)
	}

	db, err := c.newDB(cfg.Database)
	if err != nil {
		return xerrors.Errorf("failed to open database: %v", err)
	}

	st := db.Bucket(cfg.Bucket)

	srvc := darc.NewService()

	exec := native.NewService()
	token.RegisterContract(exec, token.NewContract(srvc))

	machine := auction.NewMachine(srvc, auction.NewEscrow(), cfg.History)
	auction.RegisterContract(exec, auction.NewContract(machine))

	var opts []serial.Option
	if c.clock != nil {
		opts = append(opts, serial.WithClock(c.clock))
	}

	ordering := serial.NewService(st, simple.NewService(exec), opts...)

	err = bootstrap(st, srvc, signer.GetPublicKey())
	if err != nil {
		db.Close()
		return xerrors.Errorf("failed to bootstrap: %v", err)
	}

	var srv proxy.Proxy
	err = inj.Resolve(&srv)
	if err != nil {
		db.Close()
		return xerrors.Errorf("failed to resolve proxy: %v", err)
	}

	srv.RegisterHandler("/*", api.NewServer(ordering, api.WithOrigins(cfg.Origins...)).Handler())

	inj.Inject(cfg)
	inj.Inject(db)
	inj.Inject(exec)
	inj.Inject(ordering)
	inj.Inject(signer)

	blitz.Logger.Info().
		Str("database", cfg.Database).
		Strs("contracts", exec.Names()).
		Str("identity", fmt.Sprint(signer.GetPublicKey())).
		Msg("auction node started")

	return nil
}

// OnStop implements node.Initializer. It closes the database.
func (c controller) OnStop(inj node.Injector) error {
	var db kv.DB

	err := inj.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("failed to resolve database: %v", err)
	}

	err = db.Close()
	if err != nil {
		return xerrors.Errorf("failed to close database: %v", err)
	}

	return nil
}

// loadSigner loads the key of the node, or creates it on the first start.
func loadSigner(path string) (crypto.Signer, error) {
	data, err := loader.LoadOrCreate(path, ed25519.GenerateKey)
	if err != nil {
		return nil, err
	}

	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return nil, xerrors.Errorf("failed to unmarshal signer: %v", err)
	}

	return signer, nil
}

// bootstrap grants the minting right to the node.
func bootstrap(st store.Store, srvc access.Service, admin access.Identity) error {
	snap := mem.NewSnapshot(st)

	err := token.Bootstrap(snap, srvc, admin)
	if err != nil {
		return err
	}

	return st.Update(snap.Apply)
}
