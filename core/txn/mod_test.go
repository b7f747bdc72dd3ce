package txn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPairs(t *testing.T) {
	require.Equal(t, []Arg{
		{Key: "command", Value: []byte("BID")},
		{Key: "amount", Value: []byte("12")},
	}, Pairs("command", "BID", "amount", "12", "tag"))

	require.Empty(t, Pairs())
}
