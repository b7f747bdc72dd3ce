package node

import (
	"reflect"

	"golang.org/x/xerrors"
)

// sliceInjector keeps the components in the order they were injected so that
// the resolution of an interface does not depend on map ordering.
//
// - implements node.Injector
type sliceInjector struct {
	deps []interface{}
}

// NewInjector returns an empty injector.
func NewInjector() Injector {
	return &sliceInjector{}
}

// Resolve implements node.Injector.
func (inj *sliceInjector) Resolve(v interface{}) error {
	ptr := reflect.ValueOf(v)
	if ptr.Kind() != reflect.Ptr || ptr.IsNil() {
		return xerrors.Errorf("expected a non-nil pointer but got %T", v)
	}

	target := ptr.Elem()

	if dep := inj.find(target.Type()); dep != nil {
		target.Set(reflect.ValueOf(dep))
		return nil
	}

	return xerrors.Errorf("no component of type %v", target.Type())
}

// Inject implements node.Injector.
func (inj *sliceInjector) Inject(v interface{}) {
	if v == nil {
		return
	}

	typ := reflect.TypeOf(v)

	for i, dep := range inj.deps {
		if reflect.TypeOf(dep) == typ {
			inj.deps[i] = v
			return
		}
	}

	inj.deps = append(inj.deps, v)
}

func (inj *sliceInjector) find(typ reflect.Type) interface{} {
	for i := len(inj.deps) - 1; i >= 0; i-- {
		if reflect.TypeOf(inj.deps[i]).AssignableTo(typ) {
			return inj.deps[i]
		}
	}

	return nil
}
