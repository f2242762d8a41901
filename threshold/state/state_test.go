package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btc-vision/threshold-mldsa/pkg/party"
)

func TestRound1StateDestroyPoisons(t *testing.T) {
	s := NewRound1State([][]float64{{1, 2, 3}}, []byte{9, 9, 9})
	stw, err := s.Stw()
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3}, stw[0])

	s.Destroy()

	_, err = s.Stw()
	require.ErrorIs(t, err, ErrDestroyed)
	_, err = s.PackedCommitment()
	require.ErrorIs(t, err, ErrDestroyed)
	require.Equal(t, []float64{0, 0, 0}, stw[0])
}

func TestRound2StateDestroyPoisons(t *testing.T) {
	hashes := map[party.ID][]byte{0: {1, 2}, 1: {3, 4}}
	var mu [64]byte
	mu[0] = 7
	s := NewRound2State(hashes, mu, 0b11, party.IDSlice{0, 1})

	_, err := s.Mu()
	require.NoError(t, err)

	s.Destroy()

	_, err = s.Mu()
	require.ErrorIs(t, err, ErrDestroyed)
	_, err = s.Round1Hashes()
	require.ErrorIs(t, err, ErrDestroyed)
	require.Equal(t, []byte{0, 0}, hashes[0])
}

func TestPhase1StateDestroyPoisons(t *testing.T) {
	var rho [32]byte
	rho[0] = 1
	seeds := map[uint32][32]byte{1: {2}}
	s := NewPhase1State(rho, seeds)

	s.Destroy()

	_, err := s.Rho()
	require.ErrorIs(t, err, ErrDestroyed)
	_, err = s.BitmaskSeeds()
	require.ErrorIs(t, err, ErrDestroyed)
}

func TestPhase2StateDestroyPoisons(t *testing.T) {
	s := NewPhase2State(map[uint32][32]byte{1: {9}}, nil, nil)

	s.Destroy()

	_, err := s.CombinedSeeds()
	require.ErrorIs(t, err, ErrDestroyed)
}
