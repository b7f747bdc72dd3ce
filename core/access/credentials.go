package access

// ContractCredential grants a command of a contract on the resource of the
// identifier.
//
// - implements access.Credential
type ContractCredential struct {
	ID       []byte
	Contract string
	Command  string
}

// GetID implements access.Credential. It returns a copy of the identifier.
func (c ContractCredential) GetID() []byte {
	return append([]byte{}, c.ID...)
}

// GetRule implements access.Credential.
func (c ContractCredential) GetRule() string {
	return Compile(c.Contract, c.Command)
}
