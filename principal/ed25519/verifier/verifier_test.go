package verifier

import (
	"crypto/ed25519"
	"testing"

	"github.com/storacha/go-esign/crypto/signature"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	str := "did:key:z6MkgZN5cRgWqesJeaZCEs7eKzyQsfpzmhnSEqTL6FZt56Ym"
	v, err := Parse(str)
	require.NoError(t, err)
	require.Equal(t, str, v.DID().String())
}

func TestParseNotEd25519(t *testing.T) {
	_, err := Parse("did:web:esign.example.com")
	require.Error(t, err)
}

func TestFromRaw(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	v, err := FromRaw(pub)
	require.NoError(t, err)
	require.Equal(t, pub, ed25519.PublicKey(v.Raw()))

	v2, err := Decode(v.Encode())
	require.NoError(t, err)
	require.Equal(t, v.DID(), v2.DID())
}

func TestVerify(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	v, err := FromRaw(pub)
	require.NoError(t, err)

	msg := []byte("employee bafkrei")
	sig := signature.NewSignature(signature.EdDSA, ed25519.Sign(priv, msg))

	require.True(t, v.Verify(msg, sig))
	require.False(t, v.Verify([]byte("manager bafkrei"), sig))
	require.False(t, v.Verify(msg, signature.NewSignature(0x1234, sig.Raw())))
	require.False(t, v.Verify(msg, nil))
}
