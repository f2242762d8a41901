package dkg

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"sort"

	"golang.org/x/crypto/sha3"

	"github.com/btc-vision/threshold-mldsa/pkg/mldsa"
	"github.com/btc-vision/threshold-mldsa/pkg/party"
	"github.com/btc-vision/threshold-mldsa/pkg/ring"
	"github.com/btc-vision/threshold-mldsa/pkg/sample"
	"github.com/btc-vision/threshold-mldsa/threshold/dealer"
	"github.com/btc-vision/threshold-mldsa/threshold/state"
	"github.com/btc-vision/threshold-mldsa/threshold/tprotoerr"
)

// Phase2Finalize verifies every peer's Phase1 commitments against its
// Phase2 opening, derives the combined per-bitmask secret seed for
// every bitmask this party holds, and — for every bitmask this party
// generates — splits its contribution A*NTT(s1_b)+s2_b into one
// additive mask piece per holder, retaining its own piece and handing
// the rest back for the caller to route privately.
//
// broadcasts and reveals must both be keyed by every party in holders'
// union (i.e. every participant of the DKG run), including selfID.
func Phase2Finalize(
	sessionID [32]byte,
	selfID party.ID,
	t, n int,
	p mldsa.Params,
	masks []uint32,
	holders map[uint32]party.IDSlice,
	generators map[uint32]party.ID,
	broadcasts map[party.ID]Phase1Broadcast,
	reveals map[party.ID]Phase2Reveal,
) ([32]byte, map[uint32]dealer.Share, *state.Phase2State, error) {
	ids := make(party.IDSlice, 0, len(reveals))
	for id := range reveals {
		ids = append(ids, id)
	}
	sort.Sort(ids)

	for _, id := range ids {
		bc, ok := broadcasts[id]
		if !ok {
			return [32]byte{}, nil, nil, tprotoerr.ErrWrongBroadcastCount
		}
		rv := reveals[id]
		if bc.SessionID != sessionID {
			return [32]byte{}, nil, nil, fmt.Errorf("%w: party %d", tprotoerr.ErrBadSessionID, id)
		}
		if rhoCommit(sessionID, id, rv.Rho) != bc.RhoCommit {
			return [32]byte{}, nil, nil, fmt.Errorf("%w: party %d", tprotoerr.ErrRhoCommitmentMismatch, id)
		}
	}

	var rhoBuf bytes.Buffer
	for _, id := range ids {
		r := reveals[id].Rho
		rhoBuf.Write(r[:])
	}
	rho := combinedRho(sessionID, rhoBuf.Bytes())

	a, err := sample.ExpandA(rho[:], p.K, p.L)
	if err != nil {
		return [32]byte{}, nil, nil, err
	}

	combinedSeeds := make(map[uint32][32]byte)
	shares := make(map[uint32]dealer.Share)
	ownPieces := ring.NewVec(p.K)
	outgoing := make(map[party.ID]ring.Vec)

	for _, b := range masks {
		hs := holders[b]
		if !party.Contains(hs, selfID) {
			continue
		}
		sorted := append(party.IDSlice(nil), hs...)
		sort.Sort(sorted)

		var seedBuf bytes.Buffer
		for _, h := range sorted {
			bc, ok := broadcasts[h]
			if !ok {
				return [32]byte{}, nil, nil, tprotoerr.ErrWrongBroadcastCount
			}
			rv, ok := reveals[h]
			if !ok {
				return [32]byte{}, nil, nil, tprotoerr.ErrWrongBroadcastCount
			}
			seed, ok := rv.Seeds[b]
			if !ok {
				return [32]byte{}, nil, nil, fmt.Errorf("%w: party %d bitmask %d", tprotoerr.ErrMissingShare, h, b)
			}
			want, ok := bc.BitmaskCommits[b]
			if !ok || bitmaskCommit(sessionID, h, b, seed) != want {
				return [32]byte{}, nil, nil, fmt.Errorf("%w: party %d bitmask %d", tprotoerr.ErrSeedCommitmentMismatch, h, b)
			}
			seedBuf.Write(seed[:])
		}

		sB := combinedBitmaskSeed(sessionID, b, seedBuf.Bytes())
		combinedSeeds[b] = sB

		shareSeed, err := expandShareSeed(sB)
		if err != nil {
			return [32]byte{}, nil, nil, err
		}
		s1b, s2b, err := sample.ExpandS(shareSeed[:], p.Eta, p.K, p.L)
		if err != nil {
			return [32]byte{}, nil, nil, err
		}
		s1Hat := s1b.Clone()
		ring.NTTVec(s1Hat)
		s2Hat := s2b.Clone()
		ring.NTTVec(s2Hat)
		shares[b] = dealer.Share{S1Hat: s1Hat, S2Hat: s2Hat}

		if generators[b] != selfID {
			continue
		}

		tHat := ring.MatrixMulNTT(a, p.K, p.L, s1Hat)
		contribution := tHat.Clone()
		ring.InvNTTVec(contribution)
		s2 := s2Hat.Clone()
		ring.InvNTTVec(s2)
		contribution = ring.AddVec(contribution, s2)

		pieces, err := splitContribution(contribution, len(sorted), p.K)
		if err != nil {
			return [32]byte{}, nil, nil, err
		}
		for i, recipient := range sorted {
			if recipient == selfID {
				ownPieces = ring.AddVec(ownPieces, pieces[i])
				continue
			}
			if existing, ok := outgoing[recipient]; ok {
				outgoing[recipient] = ring.AddVec(existing, pieces[i])
			} else {
				outgoing[recipient] = pieces[i]
			}
		}
	}

	st2 := state.NewPhase2State(combinedSeeds, outgoing, ownPieces)
	return rho, shares, st2, nil
}

// combinedRho derives the session's shared rho from every party's
// opened rho share: SHAKE256 of the sorted concatenation, uniformly
// random as long as at least one contributor is honest.
func combinedRho(sessionID [32]byte, openedRhos []byte) [32]byte {
	var out [32]byte
	h := sha3.NewShake256()
	h.Write(sessionID[:])
	h.Write([]byte("rho-combine"))
	h.Write(openedRhos)
	_, _ = h.Read(out[:])
	return out
}

// combinedBitmaskSeed derives S_b = H(sessionId || b || concatenated
// per-holder seeds in ascending party order).
func combinedBitmaskSeed(sessionID [32]byte, b uint32, openedSeeds []byte) [32]byte {
	var out [32]byte
	h := sha3.NewShake256()
	h.Write(sessionID[:])
	h.Write(bitmaskBytes(b))
	h.Write(openedSeeds)
	_, _ = h.Read(out[:])
	return out
}

// expandShareSeed stretches S_b into the 64-byte seed sample.ExpandS
// consumes, mirroring threshold/dealer's own seed-to-share derivation
// so a bitmask's DKG-derived (s1_b,s2_b) is distributed identically to
// its trusted-dealer counterpart.
func expandShareSeed(sB [32]byte) ([64]byte, error) {
	var out [64]byte
	h := sha3.NewShake256()
	h.Write(sB[:])
	_, err := h.Read(out[:])
	return out, err
}

// splitContribution splits v into count random additive pieces summing
// to v mod Q: count-1 pieces are drawn uniformly from Z_q via rejection
// sampling, the last is fixed so the sum matches exactly.
func splitContribution(v ring.Vec, count, k int) ([]ring.Vec, error) {
	pieces := make([]ring.Vec, count)
	acc := ring.NewVec(k)
	for i := 0; i < count-1; i++ {
		piece, err := randomRingVec(k)
		if err != nil {
			return nil, err
		}
		pieces[i] = piece
		acc = ring.AddVec(acc, piece)
	}
	pieces[count-1] = ring.SubVec(v, acc)
	return pieces, nil
}

// randomRingVec draws a uniformly random vector of k polynomials with
// coefficients in [0,Q) via rejection sampling over 4-byte little-
// endian reads, matching the module's general rejection-sampling style
// (pkg/sample) rather than a biased mod-Q reduction of raw bytes.
func randomRingVec(k int) (ring.Vec, error) {
	out := ring.NewVec(k)
	buf := make([]byte, 4)
	for i := 0; i < k; i++ {
		for j := 0; j < ring.N; j++ {
			for {
				if _, err := rand.Read(buf); err != nil {
					return nil, err
				}
				v := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
				v &= 0x7FFFFF // 23 bits, comfortably above Q's 23-bit range
				if v < uint32(ring.Q) {
					out[i][j] = int32(v)
					break
				}
			}
		}
	}
	return out, nil
}
