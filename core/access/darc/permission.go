package darc

import (
	"sort"

	"github.com/fxamacker/cbor/v2"
	"go.dedis.ch/blitz/core/access"
	"golang.org/x/xerrors"
)

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// Permission is the set of rules of a credential. Each rule lists the text
// form of the identities allowed for it.
type Permission struct {
	rules map[string][]string
}

// NewPermission returns a new empty permission.
func NewPermission() *Permission {
	return &Permission{
		rules: make(map[string][]string),
	}
}

// PermissionOf decodes a permission from its canonical CBOR encoding.
func PermissionOf(data []byte) (*Permission, error) {
	rules := make(map[string][]string)

	err := cbor.Unmarshal(data, &rules)
	if err != nil {
		return nil, xerrors.Errorf("CBOR format: failed to unmarshal: %v", err)
	}

	return &Permission{rules: rules}, nil
}

// Serialize returns the canonical CBOR encoding of the permission.
func (perm *Permission) Serialize() ([]byte, error) {
	data, err := encMode.Marshal(perm.rules)
	if err != nil {
		return nil, xerrors.Errorf("CBOR format: failed to marshal: %v", err)
	}

	return data, nil
}

// GetRules returns the list of rules with the allowed identities.
func (perm *Permission) GetRules() map[string][]string {
	rules := make(map[string][]string, len(perm.rules))
	for rule, set := range perm.rules {
		rules[rule] = append([]string{}, set...)
	}

	return rules
}

// Evolve grants or removes the access of the identities to the rule. A rule
// without any identity left is removed.
func (perm *Permission) Evolve(rule string, grant bool, idents ...access.Identity) error {
	set := perm.rules[rule]

	for _, ident := range idents {
		text, err := ident.MarshalText()
		if err != nil {
			return xerrors.Errorf("failed to marshal identity: %v", err)
		}

		index := indexOf(set, string(text))

		if grant && index < 0 {
			set = append(set, string(text))
		} else if !grant && index >= 0 {
			set = append(set[:index], set[index+1:]...)
		}
	}

	if len(set) == 0 {
		delete(perm.rules, rule)
		return nil
	}

	sort.Strings(set)
	perm.rules[rule] = set

	return nil
}

// Match returns nil if at least one of the identities is allowed for the
// rule, otherwise it returns the reason why it failed.
func (perm *Permission) Match(rule string, idents ...access.Identity) error {
	set, found := perm.rules[rule]
	if !found {
		return xerrors.Errorf("rule '%s' not found", rule)
	}

	for _, ident := range idents {
		text, err := ident.MarshalText()
		if err != nil {
			return xerrors.Errorf("failed to marshal identity: %v", err)
		}

		if indexOf(set, string(text)) >= 0 {
			return nil
		}
	}

	return xerrors.Errorf("rule '%s': unauthorized: %v", rule, idents)
}

func indexOf(set []string, text string) int {
	for i, value := range set {
		if value == text {
			return i
		}
	}

	return -1
}
