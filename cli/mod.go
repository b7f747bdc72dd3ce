// Package cli declares the commands of the blitz application independently of
// the library that parses the command line.
//
// Components receive a Builder and declare their own commands:
//
//	show := builder.SetCommand("show")
//	summary := show.SetSubCommand("summary")
//	summary.SetDescription("print the current auction")
//	summary.SetFlags(StringFlag{Name: "node", Env: "BLITZ_NODE"})
//	summary.SetAction(func(flags Flags) error {
//		return printSummary(flags.String("node"))
//	})
package cli

// Builder collects the top-level commands of an application.
type Builder interface {
	// SetCommand adds a top-level command and returns it so that it can be
	// populated.
	SetCommand(name string) CommandBuilder

	// Build returns the application with every declared command.
	Build() Application
}

// Application runs a command line.
type Application interface {
	Run(arguments []string) error
}

// CommandBuilder populates a command.
type CommandBuilder interface {
	SetDescription(value string)

	// SetFlags replaces the flags of the command.
	SetFlags(...Flag)

	SetAction(Action)

	// SetSubCommand adds a command nested under this one.
	SetSubCommand(name string) CommandBuilder
}

// Action is executed when its command is invoked.
type Action func(Flags) error

// Flag is the definition of a command-line flag. The supported definitions
// are StringFlag and StringSliceFlag.
type Flag interface {
	flag()
}

// Flags gives an action the values of the flags of its command and of every
// parent command. A flag that is not set reads as its zero value.
type Flags interface {
	String(name string) string

	StringSlice(name string) []string
}
