package dealer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btc-vision/threshold-mldsa/pkg/party"
	"github.com/btc-vision/threshold-mldsa/pkg/ring"
	"github.com/btc-vision/threshold-mldsa/pkg/sample"
	"github.com/btc-vision/threshold-mldsa/threshold/params"
)

func findByID(tks []*ThresholdKeyShare, id party.ID) *ThresholdKeyShare {
	for _, tk := range tks {
		if tk.ID == id {
			return tk
		}
	}
	return nil
}

// reconstruct recombines the NTT-domain active share for activeIDs
// using the canonical share-recovery pattern, mirroring what
// threshold/sign's round3 will do.
func reconstruct(t *testing.T, tks []*ThresholdKeyShare, activeIDs party.IDSlice, tt, n int) (ring.Vec, ring.Vec) {
	t.Helper()
	if tt == n {
		var s1Hat, s2Hat ring.Vec
		for _, id := range activeIDs {
			tk := findByID(tks, id)
			require.Len(t, tk.Shares, 1)
			for _, sh := range tk.Shares {
				if s1Hat == nil {
					s1Hat = sh.S1Hat.Clone()
					s2Hat = sh.S2Hat.Clone()
				} else {
					s1Hat = ring.AddVec(s1Hat, sh.S1Hat)
					s2Hat = ring.AddVec(s2Hat, sh.S2Hat)
				}
			}
		}
		return s1Hat, s2Hat
	}
	pat := params.ReferencePattern(tt, n)
	permuted := params.Permute(pat, activeIDs, n)

	var s1Hat, s2Hat ring.Vec
	for _, id := range activeIDs {
		tk := findByID(tks, id)
		for _, b := range permuted[id] {
			sh, ok := tk.Shares[b]
			require.True(t, ok, "party %d missing bitmask %d it was assigned", id, b)
			if s1Hat == nil {
				s1Hat = sh.S1Hat.Clone()
				s2Hat = sh.S2Hat.Clone()
			} else {
				s1Hat = ring.AddVec(s1Hat, sh.S1Hat)
				s2Hat = ring.AddVec(s2Hat, sh.S2Hat)
			}
		}
	}
	return s1Hat, s2Hat
}

func TestGenerateSharesReconstructsPublicKey(t *testing.T) {
	var seed [32]byte
	seed[0] = 42

	pk, tks, err := GenerateShares(2, 3, 44, seed)
	require.NoError(t, err)
	require.Len(t, tks, 3)

	a, err := sample.ExpandA(pk.Rho[:], pk.Params.K, pk.Params.L)
	require.NoError(t, err)

	for _, activeIDs := range []party.IDSlice{{0, 1}, {0, 2}, {1, 2}} {
		s1Hat, s2Hat := reconstruct(t, tks, activeIDs, 2, 3)

		tHat := ring.MatrixMulNTT(a, pk.Params.K, pk.Params.L, s1Hat)
		tPart := tHat.Clone()
		ring.InvNTTVec(tPart)

		s2 := s2Hat.Clone()
		ring.InvNTTVec(s2)

		tAll := ring.AddVec(tPart, s2)
		t1, _ := ring.Power2RoundVec(tAll)

		require.Equal(t, pk.T1, t1, "active set %v failed to reconstruct t1", activeIDs)
	}
}

func TestGenerateSharesDegenerateTEqualsN(t *testing.T) {
	var seed [32]byte
	seed[1] = 5

	pk, tks, err := GenerateShares(3, 3, 44, seed)
	require.NoError(t, err)
	for _, tk := range tks {
		require.Len(t, tk.Shares, 1)
	}

	a, err := sample.ExpandA(pk.Rho[:], pk.Params.K, pk.Params.L)
	require.NoError(t, err)

	s1Hat, s2Hat := reconstruct(t, tks, party.IDSlice{0, 1, 2}, 3, 3)

	tHat := ring.MatrixMulNTT(a, pk.Params.K, pk.Params.L, s1Hat)
	tPart := tHat.Clone()
	ring.InvNTTVec(tPart)
	s2 := s2Hat.Clone()
	ring.InvNTTVec(s2)
	tAll := ring.AddVec(tPart, s2)
	t1, _ := ring.Power2RoundVec(tAll)

	require.Equal(t, pk.T1, t1)
}

func TestGenerateSharesRejectsInvalidThreshold(t *testing.T) {
	var seed [32]byte
	_, _, err := GenerateShares(1, 3, 44, seed)
	require.ErrorIs(t, err, params.ErrInvalidThreshold)
}
