package dkg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btc-vision/threshold-mldsa/pkg/mldsa"
	"github.com/btc-vision/threshold-mldsa/pkg/party"
	"github.com/btc-vision/threshold-mldsa/pkg/ring"
	"github.com/btc-vision/threshold-mldsa/threshold/dealer"
	"github.com/btc-vision/threshold-mldsa/threshold/params"
	tsign "github.com/btc-vision/threshold-mldsa/threshold/sign"
	"github.com/btc-vision/threshold-mldsa/threshold/state"
)

// runDKG drives a full 2-of-3 DKG session to completion and returns the
// group public key (identical across parties, asserted below) and each
// party's resulting ThresholdKeyShare.
func runDKG(t *testing.T, sessionID [32]byte, tt, n, level int) (*mldsa.PublicKey, []*dealer.ThresholdKeyShare) {
	t.Helper()

	p, err := params.Validate(tt, n, level)
	require.NoError(t, err)

	masks, holders, generators := Setup(tt, n)

	broadcasts := make(map[party.ID]Phase1Broadcast, n)
	st1s := make(map[party.ID]*state.Phase1State, n)
	for i := 0; i < n; i++ {
		id := party.ID(i)
		bc, st1, err := Phase1(sessionID, id, holders)
		require.NoError(t, err)
		broadcasts[id] = bc
		st1s[id] = st1
	}

	reveals := make(map[party.ID]Phase2Reveal, n)
	for i := 0; i < n; i++ {
		id := party.ID(i)
		rv, err := Phase2(st1s[id])
		require.NoError(t, err)
		reveals[id] = rv
	}

	rhos := make(map[party.ID][32]byte, n)
	sharesByParty := make(map[party.ID]map[uint32]dealer.Share, n)
	st2s := make(map[party.ID]*state.Phase2State, n)
	for i := 0; i < n; i++ {
		id := party.ID(i)
		rho, shares, st2, err := Phase2Finalize(sessionID, id, tt, n, p, masks, holders, generators, broadcasts, reveals)
		require.NoError(t, err)
		rhos[id] = rho
		sharesByParty[id] = shares
		st2s[id] = st2
	}
	for i := 1; i < n; i++ {
		require.Equal(t, rhos[0], rhos[party.ID(i)], "all parties must derive the same combined rho")
	}

	rjByParty := make(map[party.ID]ring.Vec, n)
	for i := 0; i < n; i++ {
		id := party.ID(i)
		received := make(map[party.ID]ring.Vec)
		for g := 0; g < n; g++ {
			gid := party.ID(g)
			if gid == id {
				continue
			}
			pieces, err := st2s[gid].MaskPieces()
			require.NoError(t, err)
			if piece, ok := pieces[id]; ok {
				received[gid] = piece
			}
		}
		rj, err := Phase4(st2s[id], received)
		require.NoError(t, err)
		rjByParty[id] = rj
	}

	pks := make([]*mldsa.PublicKey, n)
	shares := make([]*dealer.ThresholdKeyShare, n)
	for i := 0; i < n; i++ {
		id := party.ID(i)
		pk, share, err := Finalize(id, tt, n, p, rhos[id], sharesByParty[id], rjByParty)
		require.NoError(t, err)
		pks[i] = pk
		shares[i] = share
	}
	for i := 1; i < n; i++ {
		require.Equal(t, pks[0].Rho, pks[i].Rho)
		require.Equal(t, pks[0].T1, pks[i].T1, "all parties must finalize to the same t1")
		require.Equal(t, shares[0].Tr, shares[i].Tr, "all parties must derive the same tr")
	}

	for i := 0; i < n; i++ {
		st1s[party.ID(i)].Destroy()
		st2s[party.ID(i)].Destroy()
	}

	return pks[0], shares
}

func TestDKGProducesConsistentKeyAcrossParties(t *testing.T) {
	var sessionID [32]byte
	sessionID[0] = 0xAB
	runDKG(t, sessionID, 2, 3, 44)
}

func TestDKGSharesProduceVerifiableSignatures(t *testing.T) {
	var sessionID [32]byte
	sessionID[0] = 0xCD

	pk, shares := runDKG(t, sessionID, 2, 3, 44)

	entry, err := params.Lookup(2, 3, 44)
	require.NoError(t, err)

	byID := func(id party.ID) *dealer.ThresholdKeyShare {
		for _, sh := range shares {
			if sh.ID == id {
				return sh
			}
		}
		return nil
	}

	ctx := []byte("dkg-sign-test")
	msg := []byte("TEST")

	for _, activeIDs := range []party.IDSlice{{0, 1}, {0, 2}, {1, 2}} {
		var sigBytes []byte
		const maxAttempts = 25
		for attempt := uint16(0); attempt < maxAttempts; attempt++ {
			round1States := make(map[party.ID]*state.Round1State, len(activeIDs))
			round1Hashes := make(map[party.ID][]byte, len(activeIDs))
			for _, id := range activeIDs {
				var rnd [32]byte
				hash, st1, err := tsign.Round1(byID(id), id, entry, attempt, rnd)
				require.NoError(t, err)
				round1States[id] = st1
				round1Hashes[id] = hash
			}

			round2States := make(map[party.ID]*state.Round2State, len(activeIDs))
			commitments := make(map[party.ID][]byte, len(activeIDs))
			for _, id := range activeIDs {
				packed, st2, err := tsign.Round2(byID(id), activeIDs, ctx, msg, round1Hashes, round1States[id])
				require.NoError(t, err)
				round2States[id] = st2
				commitments[id] = packed
			}

			responses := make(map[party.ID][]byte, len(activeIDs))
			failed := false
			for _, id := range activeIDs {
				resp, err := tsign.Round3(byID(id), activeIDs, commitments, entry, round1States[id], round2States[id])
				if err != nil {
					failed = true
					break
				}
				responses[id] = resp
			}
			for _, id := range activeIDs {
				round1States[id].Destroy()
				round2States[id].Destroy()
			}
			if failed {
				continue
			}

			got, err := tsign.Combine(pk, ctx, msg, entry.KIter, commitments, responses)
			if err == nil {
				sigBytes = got
				break
			}
		}
		require.NotNil(t, sigBytes, "DKG active set %v never produced a valid combined signature", activeIDs)

		sig, err := mldsa.DecodeSignature(pk.Params, sigBytes)
		require.NoError(t, err)
		require.True(t, mldsa.Verify(pk, ctx, msg, sig), "DKG-combined signature for active set %v failed verification", activeIDs)
	}
}
