// Package sign implements the three-round threshold signing protocol
// (spec.md §4.8): each holder independently draws K_iter hyperball
// masks, commits to them, reveals and binds those commitments, then
// responds; any observer combines the responses into a standard FIPS
// 204 signature. Every step is a plain function call rather than a
// network-facing state machine, matching spec.md §5's model of a
// single-threaded cooperative actor per party that suspends only at
// round boundaries.
package sign

import (
	"encoding/binary"
	"math"

	"golang.org/x/crypto/sha3"

	"github.com/btc-vision/threshold-mldsa/pkg/party"
	"github.com/btc-vision/threshold-mldsa/pkg/ring"
	"github.com/btc-vision/threshold-mldsa/pkg/sample"
	"github.com/btc-vision/threshold-mldsa/threshold/dealer"
	"github.com/btc-vision/threshold-mldsa/threshold/params"
	"github.com/btc-vision/threshold-mldsa/threshold/state"
)

// Round1 draws this holder's K_iter hyperball masks for one signing
// attempt, derives the per-iteration commitment w_i = A*y + e, packs
// all K_iter commitments, and returns the 32-byte commitment hash this
// holder broadcasts plus the Round1State it must keep until round3 (or
// until the attempt is abandoned, in which case the caller still calls
// Destroy on it).
//
// rnd supplies hedged entropy the way mldsa.SignRandomized does; pass
// the zero value for deterministic (test-reproducible) signing.
func Round1(share *dealer.ThresholdKeyShare, selfID party.ID, entry params.Entry, nonce uint16, rnd [32]byte) ([]byte, *state.Round1State, error) {
	p := share.Params
	k, l := p.K, p.L

	a, err := sample.ExpandA(share.Rho[:], k, l)
	if err != nil {
		return nil, nil, err
	}

	rhoPrime, err := deriveRhoPrime(share.Tr, selfID, nonce, rnd)
	if err != nil {
		return nil, nil, err
	}

	stw := make([][]float64, entry.KIter)
	packed := make([]byte, 0, entry.KIter*k*poly23Size)
	for iter := 0; iter < entry.KIter; iter++ {
		draw := sample.Hyperball(entry.RPrime, params.Nu, k, l, rhoPrime, uint16(int(nonce)*entry.KIter+iter))
		stw[iter] = draw

		y, e := roundHyperball(draw, k, l)
		yHat := y.Clone()
		ring.NTTVec(yHat)
		wHat := ring.MatrixMulNTT(a, k, l, yHat)
		w := wHat.Clone()
		ring.InvNTTVec(w)
		w = ring.AddVec(w, e)

		packed = append(packed, PackVec23(w)...)
	}

	commitmentHash := commitHash(share.Tr, selfID, packed)
	st := state.NewRound1State(stw, packed)
	return commitmentHash, st, nil
}

// roundHyperball splits a hyperball draw of dimension 256*(k+l) into
// its y (l polynomials, the L-block) and e (k polynomials, the
// K-block) integer vectors, rounding to the nearest integer and
// wrapping negative values into [0,Q) per spec.md §4.8.
func roundHyperball(draw []float64, k, l int) (y, e ring.Vec) {
	y = make(ring.Vec, l)
	e = make(ring.Vec, k)
	idx := 0
	for i := 0; i < l; i++ {
		for j := 0; j < ring.N; j++ {
			y[i][j] = roundToRing(draw[idx])
			idx++
		}
	}
	for i := 0; i < k; i++ {
		for j := 0; j < ring.N; j++ {
			e[i][j] = roundToRing(draw[idx])
			idx++
		}
	}
	return y, e
}

func roundToRing(x float64) int32 {
	c := int32(math.Round(x))
	if c < 0 {
		c += ring.Q
	}
	return c
}

// commitHash computes SHAKE256(tr || partyId || packed, 32), the round-1
// commitment binding round3 later re-derives and compares byte-for-byte.
func commitHash(tr [64]byte, id party.ID, packed []byte) []byte {
	h := sha3.NewShake256()
	h.Write(tr[:])
	h.Write([]byte{byte(id)})
	h.Write(packed)
	out := make([]byte, 32)
	_, _ = h.Read(out)
	return out
}

// deriveRhoPrime derives this attempt's hyperball seed from the group's
// tr, this party's id, the attempt nonce, and optional hedged entropy,
// in the spirit of mldsa's own rhoDoublePrime derivation (K'||rnd||mu), so a
// fresh nonce always yields an independent mask even with an all-zero
// rnd.
func deriveRhoPrime(tr [64]byte, id party.ID, nonce uint16, rnd [32]byte) ([]byte, error) {
	h := sha3.NewShake256()
	h.Write(tr[:])
	h.Write([]byte{byte(id)})
	var nb [2]byte
	binary.LittleEndian.PutUint16(nb[:], nonce)
	h.Write(nb[:])
	h.Write(rnd[:])
	out := make([]byte, 64)
	if _, err := h.Read(out); err != nil {
		return nil, err
	}
	return out, nil
}
