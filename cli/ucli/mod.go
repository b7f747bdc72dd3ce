// Package ucli implements the cli builder on top of urfave/cli.
package ucli

import (
	"fmt"

	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/blitz/cli"
)

// Builder builds an urfave/cli application. The application itself is the
// root of the command tree and its flags are visible from every command.
//
// - implements cli.Builder
type Builder struct {
	root command
}

// NewBuilder returns a builder for an application with the given global
// flags.
func NewBuilder(name string, flags ...cli.Flag) *Builder {
	b := &Builder{}
	b.root.name = name
	b.root.SetFlags(flags...)

	return b
}

// SetUsage sets the one-line description of the application.
func (b *Builder) SetUsage(usage string) {
	b.root.usage = usage
}

// SetCommand implements cli.Builder.
func (b *Builder) SetCommand(name string) cli.CommandBuilder {
	return b.root.add(name)
}

// Build implements cli.Builder. It returns an *urfave.App.
func (b *Builder) Build() cli.Application {
	app := &urfave.App{
		Name:        b.root.name,
		Usage:       b.root.usage,
		Flags:       b.root.flags,
		Commands:    b.root.subcommands(),
		HideVersion: true,
	}

	app.Setup()

	return app
}

// command is a node of the command tree.
//
// - implements cli.CommandBuilder
type command struct {
	name     string
	usage    string
	flags    []urfave.Flag
	action   cli.Action
	children []*command
}

// SetDescription implements cli.CommandBuilder.
func (c *command) SetDescription(value string) {
	c.usage = value
}

// SetFlags implements cli.CommandBuilder.
func (c *command) SetFlags(flags ...cli.Flag) {
	c.flags = make([]urfave.Flag, len(flags))
	for i, f := range flags {
		c.flags[i] = convertFlag(f)
	}
}

// SetAction implements cli.CommandBuilder.
func (c *command) SetAction(action cli.Action) {
	c.action = action
}

// SetSubCommand implements cli.CommandBuilder.
func (c *command) SetSubCommand(name string) cli.CommandBuilder {
	return c.add(name)
}

func (c *command) add(name string) *command {
	child := &command{name: name}
	c.children = append(c.children, child)

	return child
}

func (c *command) subcommands() []*urfave.Command {
	if len(c.children) == 0 {
		return nil
	}

	cmds := make([]*urfave.Command, len(c.children))
	for i, child := range c.children {
		cmds[i] = &urfave.Command{
			Name:        child.name,
			Usage:       child.usage,
			Flags:       child.flags,
			Action:      wrapAction(child.action),
			Subcommands: child.subcommands(),
		}
	}

	return cmds
}

// Values returns the value of every string flag visible from the command that
// produced the flags, including the global ones. Flags added by the library,
// like help, are ignored. It returns nil when the flags
// do not come from an application of this package.
func Values(flags cli.Flags) map[string]interface{} {
	ctx, ok := flags.(*urfave.Context)
	if !ok {
		return nil
	}

	values := make(map[string]interface{})

	for _, c := range ctx.Lineage() {
		var defined []urfave.Flag
		if c.Command != nil {
			defined = append(defined, c.Command.Flags...)
		}
		if c.App != nil {
			defined = append(defined, c.App.Flags...)
		}

		for _, f := range defined {
			// Lookups go through the parent contexts so the command context
			// can resolve any flag of the lineage.
			switch flag := f.(type) {
			case *urfave.StringFlag:
				if _, found := values[flag.Name]; !found {
					values[flag.Name] = ctx.String(flag.Name)
				}
			case *urfave.StringSliceFlag:
				if _, found := values[flag.Name]; !found {
					values[flag.Name] = ctx.StringSlice(flag.Name)
				}
			}
		}
	}

	return values
}

func convertFlag(f cli.Flag) urfave.Flag {
	switch flag := f.(type) {
	case cli.StringFlag:
		return &urfave.StringFlag{
			Name:     flag.Name,
			Usage:    flag.Usage,
			Required: flag.Required,
			Value:    flag.Value,
			EnvVars:  envVars(flag.Env),
		}
	case cli.StringSliceFlag:
		return &urfave.StringSliceFlag{
			Name:    flag.Name,
			Usage:   flag.Usage,
			Value:   urfave.NewStringSlice(flag.Value...),
			EnvVars: envVars(flag.Env),
		}
	default:
		panic(fmt.Sprintf("unsupported flag definition %T", f))
	}
}

func envVars(name string) []string {
	if name == "" {
		return nil
	}

	return []string{name}
}

func wrapAction(action cli.Action) urfave.ActionFunc {
	if action == nil {
		return nil
	}

	return func(ctx *urfave.Context) error {
		return action(ctx)
	}
}
