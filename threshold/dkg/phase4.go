package dkg

import (
	"github.com/btc-vision/threshold-mldsa/pkg/party"
	"github.com/btc-vision/threshold-mldsa/pkg/ring"
	"github.com/btc-vision/threshold-mldsa/threshold/state"
)

// Phase4 aggregates every mask piece this party received from other
// generators with its own retained pieces into R_j, the value this
// party broadcasts for Finalize to sum across all parties.
//
// received must contain, for each generator that sent this party a
// piece, the piece that generator assigned it — gathered out of band
// from that generator's Phase2Finalize MaskPieces() output.
func Phase4(st2 *state.Phase2State, received map[party.ID]ring.Vec) (ring.Vec, error) {
	own, err := st2.OwnMaskPieces()
	if err != nil {
		return nil, err
	}
	rj := own.Clone()
	for _, piece := range received {
		rj = ring.AddVec(rj, piece)
	}
	return rj, nil
}
