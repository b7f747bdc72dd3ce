package node

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.dedis.ch/blitz"
	"go.dedis.ch/blitz/cli"
	"go.dedis.ch/blitz/cli/ucli"
	"golang.org/x/xerrors"
)

const (
	// ConfigFlag is the global flag of the configuration folder.
	ConfigFlag = "config"

	// DefaultConfigDir is the configuration folder used when the flag is not
	// given.
	DefaultConfigDir = ".blitz"
)

// CLIBuilder builds the application of a node from its initializers.
//
// - implements node.Builder
// - implements cli.Builder
type CLIBuilder struct {
	*ucli.Builder

	inits      []Initializer
	startFlags []cli.Flag
	injector   Injector
	actions    actions
	factory    DaemonFactory

	// sigs receives the signal that stops the node. It is only subscribed to
	// the process signals when it was not provided.
	sigs   chan os.Signal
	notify bool
}

// NewBuilder returns a builder writing the output of the actions to stdout.
func NewBuilder(name string, inits ...Initializer) *CLIBuilder {
	return NewBuilderWithCfg(name, nil, nil, inits...)
}

// NewBuilderWithCfg returns a builder with a custom stop channel and output.
// Nil values are replaced by the process signals and stdout.
func NewBuilderWithCfg(name string, sigs chan os.Signal, out io.Writer,
	inits ...Initializer) *CLIBuilder {

	b := &CLIBuilder{
		Builder: ucli.NewBuilder(name, cli.StringFlag{
			Name:  ConfigFlag,
			Usage: "path to the configuration folder of the node",
			Value: DefaultConfigDir,
			Env:   "BLITZ_CONFIG",
		}),
		inits:    inits,
		injector: NewInjector(),
		actions:  make(actions),
		sigs:     sigs,
	}

	if out == nil {
		out = os.Stdout
	}

	if b.sigs == nil {
		b.sigs = make(chan os.Signal, 1)
		b.notify = true
	}

	b.factory = socketFactory{
		injector: b.injector,
		actions:  b.actions,
		out:      out,
	}

	return b
}

// SetStartFlags implements node.Builder.
func (b *CLIBuilder) SetStartFlags(flags ...cli.Flag) {
	b.startFlags = append(b.startFlags, flags...)
}

// MakeAction implements node.Builder. It panics if the name is already taken.
func (b *CLIBuilder) MakeAction(name string, tmpl ActionTemplate) cli.Action {
	if _, found := b.actions[name]; found {
		panic("action '" + name + "' is already registered")
	}

	b.actions[name] = tmpl

	return func(flags cli.Flags) error {
		client, err := b.factory.ClientFromContext(flags)
		if err != nil {
			return xerrors.Errorf("failed to create client: %v", err)
		}

		fset := FlagSet(ucli.Values(flags))
		if fset == nil {
			fset = FlagSet{}
		}

		err = client.Send(name, fset)
		if err != nil {
			return xerrors.Errorf("failed to send action: %v", err)
		}

		return nil
	}
}

// Build implements cli.Builder. The start command is declared after the
// commands of the initializers.
func (b *CLIBuilder) Build() cli.Application {
	for _, initializer := range b.inits {
		initializer.SetCommands(b)
	}

	start := b.SetCommand("start")
	start.SetDescription("start the node")
	start.SetFlags(b.startFlags...)
	start.SetAction(b.start)

	return b.Builder.Build()
}

func (b *CLIBuilder) start(flags cli.Flags) error {
	if b.notify {
		signal.Notify(b.sigs, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(b.sigs)
	}

	dir := flags.String(ConfigFlag)
	if dir != "" {
		err := os.MkdirAll(dir, 0700)
		if err != nil {
			return xerrors.Errorf("failed to create config folder: %v", err)
		}
	}

	daemon, err := b.factory.DaemonFromContext(flags)
	if err != nil {
		return xerrors.Errorf("failed to create daemon: %v", err)
	}

	for _, initializer := range b.inits {
		err = initializer.OnStart(flags, b.injector)
		if err != nil {
			return xerrors.Errorf("failed to start component: %v", err)
		}
	}

	// Actions are accepted once every component is running.
	err = daemon.Listen()
	if err != nil {
		return xerrors.Errorf("failed to start daemon: %v", err)
	}

	defer daemon.Close()

	blitz.Logger.Info().Str("config", dir).Msg("node started")

	sig := <-b.sigs

	blitz.Logger.Info().Stringer("signal", sig).Msg("stopping node")

	for i := len(b.inits) - 1; i >= 0; i-- {
		err = b.inits[i].OnStop(b.injector)
		if err != nil {
			return xerrors.Errorf("failed to stop component: %v", err)
		}
	}

	blitz.Logger.Info().Msg("node stopped")

	return nil
}
