package ed25519

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublicKey_Binary(t *testing.T) {
	pk := NewSigner().GetPublicKey()

	data, err := pk.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, 32)

	decoded, err := NewPublicKey(data)
	require.NoError(t, err)
	require.True(t, decoded.Equal(pk))

	_, err = NewPublicKey(nil)
	require.EqualError(t, err, "invalid point: invalid Ed25519 curve point")
}

func TestPublicKey_Identity(t *testing.T) {
	pk := NewSigner().GetPublicKey().(PublicKey)

	text, err := pk.MarshalText()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(text), IdentityPrefix))
	require.Len(t, text, len(IdentityPrefix)+64)
	require.Equal(t, string(text[:len(IdentityPrefix)+16]), pk.String())

	parsed, err := ParsePublicKey(string(text))
	require.NoError(t, err)
	require.True(t, parsed.Equal(pk))

	_, err = ParsePublicKey("alice")
	require.EqualError(t, err, "identity 'alice' lacks prefix 'schnorr:'")

	_, err = ParsePublicKey("schnorr:xyz")
	require.Error(t, err)
	require.Contains(t, err.Error(), "identity 'schnorr:xyz' is not hexadecimal")

	_, err = ParsePublicKey("schnorr:abcd")
	require.EqualError(t, err, "invalid point: invalid Ed25519 curve point")
}

func TestPublicKey_Verify(t *testing.T) {
	signer := NewSigner()

	sig, err := signer.Sign([]byte("bid 10"))
	require.NoError(t, err)

	require.NoError(t, signer.GetPublicKey().Verify([]byte("bid 10"), sig))

	err = signer.GetPublicKey().Verify([]byte("bid 11"), sig)
	require.Error(t, err)
	require.Contains(t, err.Error(), "signature mismatch: ")

	err = NewSigner().GetPublicKey().Verify([]byte("bid 10"), sig)
	require.Error(t, err)

	err = signer.GetPublicKey().Verify([]byte("bid 10"), nil)
	require.EqualError(t, err, "unsupported signature <nil>")
}

func TestPublicKey_Equal(t *testing.T) {
	signer := NewSigner()

	require.True(t, signer.GetPublicKey().Equal(signer.GetPublicKey()))
	require.False(t, signer.GetPublicKey().Equal(NewSigner().GetPublicKey()))
	require.False(t, signer.GetPublicKey().Equal(PublicKey{}))
	require.False(t, signer.GetPublicKey().Equal(nil))
}

func TestSignature(t *testing.T) {
	sig := Signature{1, 2}

	data, err := sig.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, data)

	data[0] = 9
	require.Equal(t, Signature{1, 2}, sig)

	require.True(t, sig.Equal(Signature{1, 2}))
	require.False(t, sig.Equal(Signature{1}))
	require.False(t, sig.Equal(nil))
}

func TestSigner_Restore(t *testing.T) {
	data, err := GenerateKey()
	require.NoError(t, err)
	require.Len(t, data, 32)

	signer, err := NewSignerFromBytes(data)
	require.NoError(t, err)

	again, err := NewSignerFromBytes(data)
	require.NoError(t, err)
	require.True(t, signer.GetPublicKey().Equal(again.GetPublicKey()))

	encoded, err := signer.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, data, encoded)

	sig, err := again.Sign([]byte("A"))
	require.NoError(t, err)
	require.NoError(t, signer.GetPublicKey().Verify([]byte("A"), sig))

	_, err = NewSignerFromBytes([]byte{1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid scalar: ")
}
