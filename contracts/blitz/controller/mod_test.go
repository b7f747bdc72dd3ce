package controller

import (
	"bytes"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/blitz/cli"
	"go.dedis.ch/blitz/cli/node"
	"go.dedis.ch/blitz/config"
	auction "go.dedis.ch/blitz/contracts/blitz"
	"go.dedis.ch/blitz/core/store/kv"
	"go.dedis.ch/blitz/internal/testing/fake"
	proxyhttp "go.dedis.ch/blitz/proxy/http"
)

func TestController_SetCommands(t *testing.T) {
	builder := &fakeBuilder{}

	NewController().SetCommands(builder)
	require.Len(t, builder.flags, 5)
	require.Equal(t, 4, builder.actions)
	require.Equal(t, []string{"node", "keygen", "tx", "show"}, builder.commands)
}

func TestController_Scenario(t *testing.T) {
	env := newTestEnv(t)

	// The node initializes the auction and funds the bidders.
	nodeID := env.exec(identityAction{}, nil)
	require.Contains(t, nodeID, "schnorr:")

	env.exec(initializeAction{}, node.FlagSet{walletFlag: "platform"})

	aliceKey := filepath.Join(env.dir, "alice.key")
	require.NoError(t, env.ctrl.keygen(node.FlagSet{keyFlag: aliceKey}))
	alice := env.output()

	env.exec(mintAction{}, node.FlagSet{toFlag: alice, amountFlag: "5"})

	err := env.tx("start", node.FlagSet{keyFlag: env.nodeKey})
	require.NoError(t, err)
	require.Contains(t, env.output(), "accepted")

	err = env.tx("bid", node.FlagSet{
		keyFlag:     aliceKey,
		amountFlag:  "1",
		payloadFlag: "https://alice.example",
	})
	require.NoError(t, err)
	env.output()

	err = env.tx("bid", node.FlagSet{
		keyFlag:     aliceKey,
		amountFlag:  "1.05",
		payloadFlag: "https://alice.example",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "BidTooLow")

	require.NoError(t, env.ctrl.showSummary(env.flags()))
	summary := env.output()
	require.Contains(t, summary, "auction #1: active=true")
	require.Contains(t, summary, "highest bid: 1.0000000 by "+alice)
	require.Contains(t, summary, "minimum bid: 1.1000000")
	require.Contains(t, summary, "display: https://alice.example (auction_active)")

	balance := env.flags()
	balance[accountFlag] = alice
	require.NoError(t, env.ctrl.showBalance(balance))
	require.Equal(t, alice+": 4.0000000", env.output())

	env.now = env.now.Add((auction.AuctionDuration + 1) * time.Second)

	err = env.tx("end", node.FlagSet{keyFlag: aliceKey})
	require.NoError(t, err)
	env.output()

	require.NoError(t, env.ctrl.showHistory(env.flags()))
	require.Equal(t, "#1 1.0000000 by "+alice+": https://alice.example", env.output())

	require.NoError(t, env.ctrl.showContract(env.flags()))
	info := env.output()
	require.Contains(t, info, "owner: "+nodeID)
	require.Contains(t, info, "platform wallet: platform")
	require.Contains(t, info, "payment asset: BLITZ")
	require.Contains(t, info, "auctions: 1")

	status := env.exec(statusAction{}, nil)
	require.Contains(t, status, "auction #1: active=false")
	require.Contains(t, status, "display: https://alice.example (winner_display)")

	err = env.tx("set-increment", node.FlagSet{keyFlag: env.nodeKey, amountFlag: "0.5"})
	require.NoError(t, err)
	env.output()

	err = env.tx("set-increment", node.FlagSet{keyFlag: aliceKey, amountFlag: "0.5"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Unauthorized")

	err = env.tx("transfer", node.FlagSet{keyFlag: aliceKey, toFlag: "bob", amountFlag: "1"})
	require.NoError(t, err)
	env.output()

	balance[accountFlag] = "bob"
	require.NoError(t, env.ctrl.showBalance(balance))
	require.Equal(t, "bob: 1.0000000", env.output())
}

func TestController_TxFailures(t *testing.T) {
	ctrl := NewController().(controller)
	ctrl.out = io.Discard

	err := ctrl.makeTx(findTx(t, "bid"))(node.FlagSet{amountFlag: "abc"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse amount: ")

	err = ctrl.makeTx(findTx(t, "start"))(node.FlagSet{keyFlag: filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load key: ")

	key := filepath.Join(t.TempDir(), "key")
	require.NoError(t, ctrl.keygen(node.FlagSet{keyFlag: key}))

	err = ctrl.makeTx(findTx(t, "start"))(node.FlagSet{keyFlag: key, nodeFlag: "http://127.0.0.1:1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to sync manager: ")

	err = ctrl.showSummary(node.FlagSet{nodeFlag: "http://127.0.0.1:1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to get summary: ")
}

func TestController_OnStart_Failures(t *testing.T) {
	ctrl := NewController().(controller)
	dir := t.TempDir()

	err := ctrl.OnStart(node.FlagSet{node.ConfigFlag: dir, config.HistoryFlag: "x"}, node.NewInjector())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load config: ")

	err = ctrl.OnStart(node.FlagSet{node.ConfigFlag: dir, config.KeyFlag: dir}, node.NewInjector())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load key: ")

	ctrl.newDB = func(string) (kv.DB, error) {
		return nil, fake.GetError()
	}

	err = ctrl.OnStart(node.FlagSet{node.ConfigFlag: dir}, node.NewInjector())
	require.EqualError(t, err, fake.Err("failed to open database"))

	ctrl.newDB = kv.Open

	err = ctrl.OnStart(node.FlagSet{node.ConfigFlag: dir}, node.NewInjector())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to resolve proxy: ")
}

func TestController_OnStop(t *testing.T) {
	ctrl := NewController()

	err := ctrl.OnStop(node.NewInjector())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to resolve database: ")

	inj := node.NewInjector()
	inj.Inject(badDB{})

	err = ctrl.OnStop(inj)
	require.EqualError(t, err, fake.Err("failed to close database"))
}

func TestActions_MissingDependencies(t *testing.T) {
	ctx := node.Context{
		Injector: node.NewInjector(),
		Flags:    node.FlagSet{amountFlag: "1"},
		Out:      new(bytes.Buffer),
	}

	err := identityAction{}.Execute(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to resolve signer: ")

	err = initializeAction{}.Execute(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to resolve config: ")

	err = mintAction{}.Execute(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to resolve signer: ")

	err = statusAction{}.Execute(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to resolve ordering: ")

	ctx.Flags = node.FlagSet{amountFlag: "-1"}
	err = mintAction{}.Execute(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse amount: ")
}

// -----------------------------------------------------------------------------
// Utility functions

type testEnv struct {
	t       *testing.T
	dir     string
	nodeKey string
	now     time.Time
	out     *bytes.Buffer
	inj     node.Injector
	ctrl    controller
	addr    string
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		t:   t,
		dir: t.TempDir(),
		now: time.Unix(1_700_000_000, 0),
		out: new(bytes.Buffer),
		inj: node.NewInjector(),
	}

	env.nodeKey = filepath.Join(env.dir, "private.key")

	srv := proxyhttp.NewServer("127.0.0.1:0")
	require.NoError(t, srv.Listen())

	t.Cleanup(func() { srv.Close() })

	env.addr = "http://" + srv.GetAddr().String()
	env.inj.Inject(srv)

	env.ctrl = controller{
		out:        env.out,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		newDB:      kv.Open,
		clock:      func() time.Time { return env.now },
	}

	err := env.ctrl.OnStart(node.FlagSet{node.ConfigFlag: env.dir}, env.inj)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, env.ctrl.OnStop(env.inj))
	})

	return env
}

func (env *testEnv) exec(action node.ActionTemplate, flags node.FlagSet) string {
	if flags == nil {
		flags = node.FlagSet{}
	}

	out := new(bytes.Buffer)

	err := action.Execute(node.Context{Injector: env.inj, Flags: flags, Out: out})
	require.NoError(env.t, err)

	return strings.TrimSpace(out.String())
}

func (env *testEnv) flags() node.FlagSet {
	return node.FlagSet{nodeFlag: env.addr}
}

func (env *testEnv) tx(name string, flags node.FlagSet) error {
	flags[nodeFlag] = env.addr

	return env.ctrl.makeTx(findTx(env.t, name))(flags)
}

// output returns the trimmed output of the client commands and resets it.
func (env *testEnv) output() string {
	text := strings.TrimSpace(env.out.String())
	env.out.Reset()

	return text
}

func findTx(t *testing.T, name string) txCommand {
	for _, cmd := range txCommands() {
		if cmd.name == name {
			return cmd
		}
	}

	t.Fatalf("command %s not found", name)

	return txCommand{}
}

type badDB struct {
	kv.DB
}

func (badDB) Close() error {
	return fake.GetError()
}

type fakeBuilder struct {
	node.Builder

	flags    []cli.Flag
	actions  int
	commands []string
}

func (b *fakeBuilder) SetStartFlags(flags ...cli.Flag) {
	b.flags = append(b.flags, flags...)
}

func (b *fakeBuilder) SetCommand(name string) cli.CommandBuilder {
	b.commands = append(b.commands, name)

	return fakeCommandBuilder{}
}

func (b *fakeBuilder) MakeAction(string, node.ActionTemplate) cli.Action {
	b.actions++

	return nil
}

type fakeCommandBuilder struct {
	cli.CommandBuilder
}

func (fakeCommandBuilder) SetDescription(string) {}

func (fakeCommandBuilder) SetAction(cli.Action) {}

func (fakeCommandBuilder) SetFlags(...cli.Flag) {}

func (b fakeCommandBuilder) SetSubCommand(string) cli.CommandBuilder {
	return b
}
