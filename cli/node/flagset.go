package node

// FlagSet is the set of flag values sent with an action to the node. It is
// encoded in JSON, which turns a slice of strings into a []interface{}.
//
// - implements cli.Flags
type FlagSet map[string]interface{}

// String implements cli.Flags.
func (fset FlagSet) String(name string) string {
	value, _ := fset[name].(string)

	return value
}

// StringSlice implements cli.Flags.
func (fset FlagSet) StringSlice(name string) []string {
	switch value := fset[name].(type) {
	case []string:
		return value
	case []interface{}:
		res := make([]string, 0, len(value))
		for _, elem := range value {
			if str, ok := elem.(string); ok {
				res = append(res, str)
			}
		}

		return res
	default:
		return nil
	}
}
