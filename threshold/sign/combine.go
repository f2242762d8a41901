package sign

import (
	"github.com/btc-vision/threshold-mldsa/pkg/encode"
	"github.com/btc-vision/threshold-mldsa/pkg/mldsa"
	"github.com/btc-vision/threshold-mldsa/pkg/party"
	"github.com/btc-vision/threshold-mldsa/pkg/ring"
	"github.com/btc-vision/threshold-mldsa/pkg/sample"
	"github.com/btc-vision/threshold-mldsa/threshold/tprotoerr"
)

// Combine aggregates every active party's packed round-1 commitment and
// round-3 response into a standard FIPS 204 signature, verifiable by an
// unmodified ML-DSA verifier with no knowledge of the threshold
// structure. Any observer holding only the group public key can call
// this — it needs no secret material.
//
// If every one of the K_iter transcripts fails its norm checks, Combine
// returns tprotoerr.ErrNoValidIter: the caller should retry the three
// rounds with a fresh nonce, up to the bounded attempt count spec.md §7
// assigns to the baseline signer (500).
func Combine(pk *mldsa.PublicKey, ctx, msg []byte, kIter int, commitments, responses map[party.ID][]byte) ([]byte, error) {
	tr, err := trOf(pk)
	if err != nil {
		return nil, err
	}
	mu, err := mldsa.ComputeMu(tr, ctx, msg)
	if err != nil {
		return nil, err
	}
	return CombineInternal(pk, mu, kIter, commitments, responses)
}

// CombineInternal combines against a precomputed mu, the entry point
// used when the caller already derived mu during round2 and wants to
// avoid re-hashing tr||message.
func CombineInternal(pk *mldsa.PublicKey, mu [64]byte, kIter int, commitments, responses map[party.ID][]byte) ([]byte, error) {
	p := pk.Params
	k, l := p.K, p.L

	wfinal, err := aggregateVec(commitments, kIter, k)
	if err != nil {
		return nil, err
	}
	zfinal, err := aggregateVec(responses, kIter, l)
	if err != nil {
		return nil, err
	}

	a, err := sample.ExpandA(pk.Rho[:], k, l)
	if err != nil {
		return nil, err
	}
	t1Shifted := ring.ShiftlVec(pk.T1)
	t1Hat := t1Shifted.Clone()
	ring.NTTVec(t1Hat)

	for iter := 0; iter < kIter; iter++ {
		if ring.ChkNormVec(zfinal[iter], p.Gamma1-p.Beta) {
			continue
		}

		w1 := ring.HighBitsVec(wfinal[iter], p.Gamma2)
		w0 := ring.LowBitsVec(wfinal[iter], p.Gamma2)

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

		zHat := zfinal[iter].Clone()
		ring.NTTVec(zHat)
		az := ring.MatrixMulNTT(a, k, l, zHat)

		ct1 := make(ring.Vec, k)
		for i := range ct1 {
			ct1[i] = ring.MultiplyNTTs(cHat, t1Hat[i])
		}

		resultHat := ring.SubVec(az, ct1)
		result := resultHat.Clone()
		ring.InvNTTVec(result)

		f := ring.SubVec(result, wfinal[iter])
		if ring.ChkNormVec(f, p.Gamma2) {
			continue
		}

		h, ones := ring.MakeHintVec(ring.AddVec(w0, f), w1, p.Gamma2)
		if ones > p.Omega {
			continue
		}

		return encode.Signature(cTilde, p.Gamma1, zfinal[iter], h, k, p.Omega)
	}
	return nil, tprotoerr.ErrNoValidIter
}

// aggregateVec unpacks and sums, per iteration, every party's packed
// n-polynomial vector.
func aggregateVec(packedByParty map[party.ID][]byte, kIter, n int) ([]ring.Vec, error) {
	out := make([]ring.Vec, kIter)
	for _, packed := range packedByParty {
		for iter := 0; iter < kIter; iter++ {
			chunk := packed[iter*n*poly23Size : (iter+1)*n*poly23Size]
			v, err := UnpackVec23(chunk, n)
			if err != nil {
				return nil, err
			}
			if out[iter] == nil {
				out[iter] = v
			} else {
				out[iter] = ring.AddVec(out[iter], v)
			}
		}
	}
	return out, nil
}

func trOf(pk *mldsa.PublicKey) ([64]byte, error) {
	return mldsa.TrOf(pk)
}
