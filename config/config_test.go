package config

import (
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"github.com/btc-vision/threshold-mldsa/threshold/dealer"
)

func sampleShare(t *testing.T) *dealer.ThresholdKeyShare {
	t.Helper()
	var seed [32]byte
	seed[0] = 3
	_, shares, err := dealer.GenerateShares(2, 3, 44, seed)
	require.NoError(t, err)
	return shares[0]
}

func TestConfigRoundTripsThroughJSON(t *testing.T) {
	c := New(sampleShare(t))
	require.NoError(t, c.Validate())

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var got Config
	require.NoError(t, json.Unmarshal(data, &got))

	require.Equal(t, c.ID, got.ID)
	require.Equal(t, c.Level, got.Level)
	require.Equal(t, c.Rho, got.Rho)
	require.Equal(t, c.Tr, got.Tr)
	require.Equal(t, c.T1, got.T1)
	require.Equal(t, c.Shares, got.Shares)
}

func TestConfigRoundTripsThroughCBOR(t *testing.T) {
	c := New(sampleShare(t))

	data, err := cbor.Marshal(c)
	require.NoError(t, err)

	var got Config
	require.NoError(t, cbor.Unmarshal(data, &got))

	require.Equal(t, c.ID, got.ID)
	require.Equal(t, c.Rho, got.Rho)
	require.Equal(t, c.T1, got.T1)
	require.Equal(t, c.Shares, got.Shares)
}

func TestConfigCopyIsDeep(t *testing.T) {
	c := New(sampleShare(t))
	cp := c.Copy()

	for b, sh := range cp.Shares {
		sh.S1Hat[0][0] ^= 1
		orig := c.Shares[b]
		require.NotEqual(t, sh.S1Hat[0][0], orig.S1Hat[0][0])
		break
	}
}

func TestConfigValidateRejectsEmptyShares(t *testing.T) {
	c := New(sampleShare(t))
	c.Shares = nil
	require.Error(t, c.Validate())
}
