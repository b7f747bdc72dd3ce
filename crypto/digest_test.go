package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigest(t *testing.T) {
	digest := Digest([]byte("BLTZ"), []byte("config"))
	require.Len(t, digest, DigestSize)
	require.Equal(t, digest, Digest([]byte("BLTZ"), []byte("config")))

	require.NotEqual(t, Digest([]byte("ab"), []byte("c")), Digest([]byte("a"), []byte("bc")))
	require.NotEqual(t, Digest([]byte("abc")), Digest([]byte("ab"), []byte("c")))
	require.NotEqual(t, Digest(), Digest(nil))

	// SHA3-256 of the empty input.
	require.Equal(t,
		"a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a",
		hex.EncodeToString(Digest()))
}
