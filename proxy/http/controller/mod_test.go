package controller

import (
	"bytes"
	"io"
	"net"
	gohttp "net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/blitz"
	"go.dedis.ch/blitz/cli"
	"go.dedis.ch/blitz/cli/node"
	"go.dedis.ch/blitz/config"
	"go.dedis.ch/blitz/internal/testing/fake"
	"go.dedis.ch/blitz/proxy"
)

func TestController_SetCommands(t *testing.T) {
	builder := &fakeBuilder{}

	NewController().SetCommands(builder)
	require.Len(t, builder.flags, 3)
	require.Equal(t, 1, builder.actions)
}

func TestController_OnStart(t *testing.T) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blitz_test_counter_total",
		Help: "counter of the test",
	})
	counter.Add(3)

	saved := blitz.PromCollectors
	blitz.PromCollectors = append([]prometheus.Collector{counter}, saved...)
	defer func() { blitz.PromCollectors = saved }()

	inj := node.NewInjector()
	flags := node.FlagSet{
		node.ConfigFlag:    t.TempDir(),
		config.ListenFlag:  "127.0.0.1:0",
		config.MetricsFlag: "/metrics",
	}

	ctrl := NewController()

	err := ctrl.OnStart(flags, inj)
	require.NoError(t, err)

	var srv proxy.Proxy
	require.NoError(t, inj.Resolve(&srv))

	resp, err := gohttp.Get("http://" + srv.GetAddr().String() + "/metrics")
	require.NoError(t, err)

	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Contains(t, string(data), "blitz_test_counter_total 3")

	out := new(bytes.Buffer)
	err = addrAction{}.Execute(node.Context{Injector: inj, Out: out})
	require.NoError(t, err)
	require.Equal(t, "http://"+srv.GetAddr().String()+"\n", out.String())

	require.NoError(t, ctrl.OnStop(inj))
}

func TestController_Failures_OnStart(t *testing.T) {
	ctrl := controller{
		proxyFac: func(string, ...string) proxy.Proxy {
			return &fakeProxy{}
		},
	}

	dir := t.TempDir()

	err := ctrl.OnStart(node.FlagSet{node.ConfigFlag: dir, config.HistoryFlag: "x"}, node.NewInjector())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load config: ")

	inj := node.NewInjector()
	ctrl.proxyFac = func(string, ...string) proxy.Proxy {
		return &fakeProxy{err: fake.GetError()}
	}

	err = ctrl.OnStart(node.FlagSet{node.ConfigFlag: dir}, inj)
	require.EqualError(t, err, fake.Err("failed to start proxy"))
	require.Error(t, inj.Resolve(new(proxy.Proxy)))

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blitz_test_duplicate_total",
		Help: "counter registered twice",
	})

	saved := blitz.PromCollectors
	blitz.PromCollectors = []prometheus.Collector{counter, counter}
	defer func() { blitz.PromCollectors = saved }()

	err = ctrl.OnStart(node.FlagSet{node.ConfigFlag: dir}, node.NewInjector())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to register collector: ")
}

func TestController_Failures_OnStop(t *testing.T) {
	err := NewController().OnStop(node.NewInjector())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to resolve proxy: ")

	err = addrAction{}.Execute(node.Context{Injector: node.NewInjector()})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to resolve proxy: ")

	inj := node.NewInjector()
	inj.Inject(&fakeProxy{err: fake.GetError()})

	err = NewController().OnStop(inj)
	require.EqualError(t, err, fake.Err("failed to stop proxy"))
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeProxy struct {
	proxy.Proxy

	err error
}

func (p *fakeProxy) Listen() error {
	return p.err
}

func (p *fakeProxy) Close() error {
	return p.err
}

func (p *fakeProxy) RegisterHandler(string, gohttp.Handler) {}

func (p *fakeProxy) GetAddr() net.Addr {
	return nil
}

type fakeBuilder struct {
	node.Builder

	flags   []cli.Flag
	actions int
}

func (b *fakeBuilder) SetStartFlags(flags ...cli.Flag) {
	b.flags = append(b.flags, flags...)
}

func (b *fakeBuilder) SetCommand(name string) cli.CommandBuilder {
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
