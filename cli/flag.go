package cli

// StringFlag is a flag holding a single value. Amounts, identities and paths
// are all read as strings and parsed by the action.
//
// - implements cli.Flag
type StringFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    string

	// Env is the environment variable read when the flag is not given.
	Env string
}

func (StringFlag) flag() {}

// StringSliceFlag is a flag that can be repeated to give several values.
//
// - implements cli.Flag
type StringSliceFlag struct {
	Name  string
	Usage string
	Value []string
	Env   string
}

func (StringSliceFlag) flag() {}
