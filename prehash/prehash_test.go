package prehash

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btc-vision/threshold-mldsa/pkg/mldsa"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	var seed [32]byte
	seed[0] = 0x55
	p, err := mldsa.ByLevel(44)
	require.NoError(t, err)
	pk, sk, err := mldsa.GenerateKey(p, seed)
	require.NoError(t, err)

	for _, h := range []Hash{SHA512, SHAKE256} {
		msg := []byte("a HashML-DSA message")
		ctx := []byte("prehash-test")

		sig, err := Sign(sk, h, ctx, msg)
		require.NoError(t, err)
		require.True(t, Verify(pk, h, ctx, msg, sig), "hash kind %v", h)

		// A pure-mode signature over the same message must not verify
		// under the prehash representative: the 0x00/0x01 domain
		// separator byte alone must change mu.
		pureSig, err := mldsa.Sign(sk, ctx, msg)
		require.NoError(t, err)
		require.False(t, Verify(pk, h, ctx, msg, pureSig))
	}
}

func TestVerifyRejectsWrongHashKind(t *testing.T) {
	var seed [32]byte
	seed[0] = 0x66
	p, err := mldsa.ByLevel(44)
	require.NoError(t, err)
	pk, sk, err := mldsa.GenerateKey(p, seed)
	require.NoError(t, err)

	msg := []byte("message")
	ctx := []byte{}

	sig, err := Sign(sk, SHA512, ctx, msg)
	require.NoError(t, err)
	require.False(t, Verify(pk, SHAKE256, ctx, msg, sig))
}

func TestSignRejectsUnsupportedHash(t *testing.T) {
	var seed [32]byte
	seed[0] = 0x77
	p, err := mldsa.ByLevel(44)
	require.NoError(t, err)
	_, sk, err := mldsa.GenerateKey(p, seed)
	require.NoError(t, err)

	_, err = Sign(sk, Hash(99), []byte{}, []byte("x"))
	require.ErrorIs(t, err, ErrUnsupportedHash)
}
