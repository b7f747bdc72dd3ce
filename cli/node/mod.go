// Package node builds the command-line application of a blitz node.
//
// The application always has a start command, which runs the components until
// the process receives SIGINT or SIGTERM. Components are Initializers: they
// declare their commands, start when the node starts and stop in the reverse
// order. A command made with MakeAction is not executed by the CLI process but
// forwarded to the running node through a UNIX socket in the configuration
// folder, so that it can use the components of the node.
package node

import (
	"io"

	"go.dedis.ch/blitz/cli"
)

// Builder is given to the initializers to declare their commands.
type Builder interface {
	SetCommand(name string) cli.CommandBuilder

	// SetStartFlags adds flags to the start command.
	SetStartFlags(...cli.Flag)

	// MakeAction returns an action that forwards its flags to the running node,
	// which executes the template registered under the name.
	MakeAction(name string, tmpl ActionTemplate) cli.Action
}

// ActionTemplate is an action executed by the running node.
type ActionTemplate interface {
	Execute(Context) error
}

// Context is given to an action executed by the node. Out is forwarded to the
// output of the CLI that sent the action.
type Context struct {
	Injector Injector
	Flags    cli.Flags
	Out      io.Writer
}

// Injector shares the components started by the initializers.
type Injector interface {
	// Resolve sets the pointer to the most recent component assignable to
	// it.
	Resolve(interface{}) error

	// Inject adds the component. It replaces a component of the same type.
	Inject(interface{})
}

// Initializer is a component of the node.
type Initializer interface {
	SetCommands(Builder)

	// OnStart starts the component and injects what it provides.
	OnStart(cli.Flags, Injector) error

	OnStop(Injector) error
}

// Client sends actions to a running node.
type Client interface {
	Send(action string, flags FlagSet) error
}

// Daemon receives the actions on the node side.
type Daemon interface {
	Listen() error
	Close() error
}

// DaemonFactory creates the two sides of the communication from the flags of
// a command.
type DaemonFactory interface {
	ClientFromContext(cli.Flags) (Client, error)
	DaemonFromContext(cli.Flags) (Daemon, error)
}
