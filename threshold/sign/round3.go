package sign

import (
	"bytes"
	"fmt"

	"github.com/btc-vision/threshold-mldsa/pkg/mldsa"
	"github.com/btc-vision/threshold-mldsa/pkg/party"
	"github.com/btc-vision/threshold-mldsa/pkg/ring"
	"github.com/btc-vision/threshold-mldsa/pkg/sample"
	"github.com/btc-vision/threshold-mldsa/threshold/dealer"
	"github.com/btc-vision/threshold-mldsa/threshold/params"
	"github.com/btc-vision/threshold-mldsa/threshold/state"
	"github.com/btc-vision/threshold-mldsa/threshold/tprotoerr"
)

// Round3 re-derives every active peer's round-1 commitment hash and
// compares it byte-for-byte against the hash recorded in round2,
// aborting on the first mismatch (spec.md §4.8/§7: a protocol-binding
// failure is fatal, never silently tolerated). It then recovers this
// party's active combined share, aggregates every peer's commitment
// into wfinal, and for each of the K_iter transcripts produces a
// response polynomial vector — zeroed for any iteration whose masked
// response would exceed the radius bound r, to keep the acceptance
// pattern independent of which iterations were secretly rejected.
//
// commitments must contain every active party's packed round-1
// commitment (including this party's own), keyed by id.
func Round3(share *dealer.ThresholdKeyShare, activeIDs party.IDSlice, commitments map[party.ID][]byte, entry params.Entry, st1 *state.Round1State, st2 *state.Round2State) ([]byte, error) {
	hashes, err := st2.Round1Hashes()
	if err != nil {
		return nil, err
	}
	mu, err := st2.Mu()
	if err != nil {
		return nil, err
	}

	for _, id := range activeIDs {
		packed, ok := commitments[id]
		if !ok {
			return nil, tprotoerr.ErrWrongBroadcastCount
		}
		want, ok := hashes[id]
		if !ok {
			return nil, tprotoerr.ErrWrongBroadcastCount
		}
		got := commitHash(share.Tr, id, packed)
		if !bytes.Equal(got, want) {
			return nil, fmt.Errorf("%w: party %d", tprotoerr.ErrCommitmentMismatch, id)
		}
	}

	s1Hat, s2Hat, err := recoverActiveShare(share, activeIDs)
	if err != nil {
		return nil, err
	}
	defer func() {
		ring.ZeroVec(s1Hat)
		ring.ZeroVec(s2Hat)
	}()

	p := share.Params
	k, l := p.K, p.L

	wfinal := make([]ring.Vec, entry.KIter)
	for _, id := range activeIDs {
		packed := commitments[id]
		for iter := 0; iter < entry.KIter; iter++ {
			chunk := packed[iter*k*poly23Size : (iter+1)*k*poly23Size]
			v, err := UnpackVec23(chunk, k)
			if err != nil {
				return nil, err
			}
			if wfinal[iter] == nil {
				wfinal[iter] = v
			} else {
				wfinal[iter] = ring.AddVec(wfinal[iter], v)
			}
		}
	}

	stw, err := st1.Stw()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, entry.KIter*l*poly23Size)
	for iter := 0; iter < entry.KIter; iter++ {
		w1 := ring.HighBitsVec(wfinal[iter], p.Gamma2)
		cTilde, err := mldsa.ChallengeSeed(mu, w1, p.Gamma2, p.CTildeBytes)
		if err != nil {
			return nil, err
		}
		c, err := sample.SampleInBall(cTilde, p.Tau)
		if err != nil {
			return nil, err
		}
		cHat := c
		ring.NTT(&cHat)

		cs1 := ntMulVec(cHat, s1Hat)
		cs2 := ntMulVec(cHat, s2Hat)

		fv := floatFromPoly(cs1)
		fv = append(fv, floatFromPoly(cs2)...)
		fv = addFloat(fv, stw[iter])

		// fvecRound always runs, even when the excess check below
		// will discard its output: the rounding itself must not
		// leak which iterations were secretly rejected.
		zPoly := fvecRound(fv, l)
		if fvecExcess(fv, entry.R, params.Nu, k, l) {
			zPoly = ring.NewVec(l)
		}
		out = append(out, PackVec23(zPoly)...)

		ring.ZeroVec(cs1)
		ring.ZeroVec(cs2)
		for i := range fv {
			fv[i] = 0
		}
	}
	return out, nil
}

// recoverActiveShare reconstructs this party's slice of the active
// combined share for activeIDs, either trivially (T==N, one share per
// party) or via the permuted hardcoded share-recovery pattern.
func recoverActiveShare(share *dealer.ThresholdKeyShare, activeIDs party.IDSlice) (s1Hat, s2Hat ring.Vec, err error) {
	if share.T == share.N {
		for _, sh := range share.Shares {
			return sh.S1Hat.Clone(), sh.S2Hat.Clone(), nil
		}
		return nil, nil, tprotoerr.ErrMissingShare
	}

	pat := params.ReferencePattern(share.T, share.N)
	permuted := params.Permute(pat, activeIDs, share.N)
	masks, ok := permuted[share.ID]
	if !ok {
		return nil, nil, tprotoerr.ErrMissingShare
	}
	for _, b := range masks {
		sh, ok := share.Shares[b]
		if !ok {
			return nil, nil, tprotoerr.ErrMissingShare
		}
		if s1Hat == nil {
			s1Hat = sh.S1Hat.Clone()
			s2Hat = sh.S2Hat.Clone()
		} else {
			s1Hat = ring.AddVec(s1Hat, sh.S1Hat)
			s2Hat = ring.AddVec(s2Hat, sh.S2Hat)
		}
	}
	return s1Hat, s2Hat, nil
}

// ntMulVec returns c*s rowwise for s already in NTT domain, mirroring
// pkg/mldsa's unexported ntVecMul: multiply in NTT domain, then
// inverse-transform each row back to the coefficient domain.
func ntMulVec(cHat ring.Poly, sHat ring.Vec) ring.Vec {
	out := make(ring.Vec, len(sHat))
	for i := range sHat {
		t := ring.MultiplyNTTs(cHat, sHat[i])
		ring.InvNTT(&t)
		out[i] = t
	}
	return out
}

// floatFromPoly converts every row of v to its centered-form float
// representation, concatenated in row order.
func floatFromPoly(v ring.Vec) []float64 {
	out := make([]float64, 0, len(v)*ring.N)
	for _, p := range v {
		for _, c := range p {
			out = append(out, float64(ring.Smod(c)))
		}
	}
	return out
}

// addFloat returns the elementwise sum of two equal-length float
// vectors.
func addFloat(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

// fvecExcess reports whether v's weighted L2 norm squared exceeds r^2,
// where the first 256*l entries (the L-block) are divided by nu^2
// before accumulating, per spec.md §4.8's response-rejection rule.
func fvecExcess(v []float64, r, nu float64, k, l int) bool {
	var sq float64
	lLen := ring.N * l
	nu2 := nu * nu
	for i, x := range v {
		if i < lLen {
			sq += (x * x) / nu2
		} else {
			sq += x * x
		}
	}
	return sq > r*r
}

// fvecRound rounds the first 256*l entries of v (the L-block, the only
// part that becomes the signature response z) to the nearest integer,
// reduced into [0,Q).
func fvecRound(v []float64, l int) ring.Vec {
	out := make(ring.Vec, l)
	idx := 0
	for i := 0; i < l; i++ {
		for j := 0; j < ring.N; j++ {
			out[i][j] = ring.Mod32(roundToRing(v[idx]))
			idx++
		}
	}
	return out
}
