package blitz

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/blitz/internal/testing/fake"
	"golang.org/x/xerrors"
)

func TestError_Error(t *testing.T) {
	require.EqualError(t, ErrBidTooLow, "bid is too low (BidTooLow #3)")
	require.EqualError(t, ErrEmptyPayload, "payload is empty (EmptyUrl #4)")
}

func TestCodeOf(t *testing.T) {
	require.Equal(t, uint32(1), CodeOf(ErrAuctionEnded))
	require.Equal(t, uint32(11), CodeOf(xerrors.Errorf("bad: %w", ErrInvalidValue)))
	require.Equal(t, uint32(0), CodeOf(fake.GetError()))
	require.Equal(t, uint32(0), CodeOf(nil))
}
