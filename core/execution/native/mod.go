// Package native runs the contracts compiled into the node. A transaction
// selects its contract with the ContractArg argument.
package native

import (
	"sort"

	"go.dedis.ch/blitz"
	"go.dedis.ch/blitz/core/execution"
	"go.dedis.ch/blitz/core/store"
	"golang.org/x/xerrors"
)

// ContractArg is the argument naming the contract of a transaction.
const ContractArg = "go.dedis.ch/blitz.ContractArg"

// Contract is a contract compiled into the node. Its errors refuse the
// transaction, except for aborts which fail the whole batch.
type Contract interface {
	Execute(store.Snapshot, execution.Step) error
}

// Service dispatches the transactions to the registered contracts.
//
// - implements execution.Service
type Service struct {
	contracts map[string]Contract
}

// NewService returns a service without contracts.
func NewService() *Service {
	return &Service{contracts: make(map[string]Contract)}
}

// Set registers the contract under the name. It panics when the name is
// taken, as two contracts would then share the same transactions.
func (s *Service) Set(name string, contract Contract) {
	_, found := s.contracts[name]
	if found {
		panic(xerrors.Errorf("contract '%s' already registered", name))
	}

	s.contracts[name] = contract
}

// Names returns the sorted names of the contracts.
func (s *Service) Names() []string {
	names := make([]string, 0, len(s.contracts))
	for name := range s.contracts {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Execute implements execution.Service.
func (s *Service) Execute(snap store.Snapshot, step execution.Step) (execution.Result, error) {
	name := string(step.Current.GetArg(ContractArg))

	contract, found := s.contracts[name]
	if !found {
		return execution.Result{Message: xerrors.Errorf("unknown contract '%s'", name).Error()}, nil
	}

	err := contract.Execute(snap, step)
	if err == nil {
		return execution.Result{Accepted: true}, nil
	}

	if execution.IsAbort(err) {
		return execution.Result{}, xerrors.Errorf("contract '%s' aborted: %v", name, err)
	}

	blitz.Logger.Debug().Str("contract", name).Err(err).Msg("transaction refused")

	return execution.Result{Message: err.Error()}, nil
}
