package sign

import (
	"github.com/btc-vision/threshold-mldsa/pkg/mldsa"
	"github.com/btc-vision/threshold-mldsa/pkg/party"
	"github.com/btc-vision/threshold-mldsa/threshold/dealer"
	"github.com/btc-vision/threshold-mldsa/threshold/state"
	"github.com/btc-vision/threshold-mldsa/threshold/tprotoerr"
)

// Round2 validates the active signer set, derives mu the way
// mldsa.ComputeMu does (tr || FIPS-204-framed message), and returns
// this holder's packed round-1 commitment to broadcast alongside the
// Round2State it must keep for round3's binding check.
//
// round1Hashes must contain every active party's round-1 commitment
// hash, keyed by id, gathered out of band before calling Round2.
func Round2(share *dealer.ThresholdKeyShare, activeIDs party.IDSlice, ctx, msg []byte, round1Hashes map[party.ID][]byte, st1 *state.Round1State) ([]byte, *state.Round2State, error) {
	if len(activeIDs) < share.T {
		return nil, nil, tprotoerr.ErrTooFewActiveParties
	}
	if !party.Unique(activeIDs) {
		return nil, nil, tprotoerr.ErrDuplicateParty
	}
	for _, id := range activeIDs {
		if _, ok := round1Hashes[id]; !ok {
			return nil, nil, tprotoerr.ErrWrongBroadcastCount
		}
	}

	mu, err := mldsa.ComputeMu(share.Tr, ctx, msg)
	if err != nil {
		return nil, nil, err
	}

	packed, err := st1.PackedCommitment()
	if err != nil {
		return nil, nil, err
	}
	// Broadcast a copy: st1.Destroy zeroes its own buffer, and Combine
	// still reads the broadcast after the round states are destroyed.
	packed = append([]byte(nil), packed...)

	var mask uint32
	for _, id := range activeIDs {
		mask |= 1 << uint(id)
	}

	hashesCopy := make(map[party.ID][]byte, len(round1Hashes))
	for id, h := range round1Hashes {
		hashesCopy[id] = append([]byte(nil), h...)
	}

	st2 := state.NewRound2State(hashesCopy, mu, mask, party.Sorted(activeIDs))
	return packed, st2, nil
}
