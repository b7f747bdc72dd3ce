package node

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInjector_Resolve(t *testing.T) {
	inj := NewInjector()

	buf := new(bytes.Buffer)
	inj.Inject(buf)
	inj.Inject(nil)

	var res *bytes.Buffer
	require.NoError(t, inj.Resolve(&res))
	require.Same(t, buf, res)

	var w io.Writer
	require.NoError(t, inj.Resolve(&w))
	require.Same(t, buf, w)

	var count int
	err := inj.Resolve(&count)
	require.EqualError(t, err, "no component of type int")

	err = inj.Resolve(count)
	require.EqualError(t, err, "expected a non-nil pointer but got int")

	err = inj.Resolve((*io.Writer)(nil))
	require.EqualError(t, err, "expected a non-nil pointer but got *io.Writer")
}

func TestInjector_ResolveOrder(t *testing.T) {
	inj := NewInjector()

	first := new(bytes.Buffer)
	second := new(strings.Builder)

	inj.Inject(first)
	inj.Inject(second)

	// The most recent component wins among the assignable ones.
	var w io.Writer
	require.NoError(t, inj.Resolve(&w))
	require.Same(t, second, w)

	// Replacing a component keeps its position.
	replaced := new(bytes.Buffer)
	inj.Inject(replaced)

	require.NoError(t, inj.Resolve(&w))
	require.Same(t, second, w)

	var buf *bytes.Buffer
	require.NoError(t, inj.Resolve(&buf))
	require.Same(t, replaced, buf)
}

func TestInjector_Replace(t *testing.T) {
	inj := NewInjector()

	inj.Inject("blitz.db")
	inj.Inject("other.db")

	var path string
	require.NoError(t, inj.Resolve(&path))
	require.Equal(t, "other.db", path)
	require.Len(t, inj.(*sliceInjector).deps, 1)
}

func TestInjector_Interface(t *testing.T) {
	inj := NewInjector()

	component := &fakeInitializer{}
	inj.Inject(component)

	var initializer Initializer
	require.NoError(t, inj.Resolve(&initializer))
	require.Same(t, component, initializer)
}
