package mldsa

import (
	"errors"

	"golang.org/x/crypto/sha3"

	"github.com/btc-vision/threshold-mldsa/pkg/encode"
	"github.com/btc-vision/threshold-mldsa/pkg/ring"
	"github.com/btc-vision/threshold-mldsa/pkg/sample"
)

// maxSignAttempts bounds the internal rejection loop. The baseline and
// threshold signers both surface a hard failure rather than looping
// forever; 500 attempts is astronomically unlikely to be exhausted by an
// honest signer.
const maxSignAttempts = 500

// ErrSignAttemptsExceeded is returned when the rejection loop fails to
// produce an acceptable signature within maxSignAttempts tries.
var ErrSignAttemptsExceeded = errors.New("mldsa: exceeded signing attempt budget")

// ErrContextTooLong is returned when a caller-supplied context string
// exceeds the 255-byte domain-separation limit.
var ErrContextTooLong = errors.New("mldsa: context string longer than 255 bytes")

// Signature is a decoded ML-DSA signature.
type Signature struct {
	CTilde []byte
	Z      ring.Vec
	H      ring.Vec
}

// Encode packs sig the way FIPS 204 wire-encodes a signature.
func (sig *Signature) Encode(p Params) ([]byte, error) {
	return encode.Signature(sig.CTilde, p.Gamma1, sig.Z, sig.H, p.K, p.Omega)
}

// DecodeSignature reverses Encode for a known Params.
func DecodeSignature(p Params, buf []byte) (*Signature, error) {
	cTilde, z, h, err := encode.DecodeSignature(buf, p.Gamma1, p.K, p.L, p.Omega, p.CTildeBytes)
	if err != nil {
		return nil, err
	}
	return &Signature{CTilde: cTilde, Z: z, H: h}, nil
}

// messageRepresentative builds the domain-separated M' FIPS 204 hashes
// into mu: 0x00 || len(ctx) || ctx || msg for the pure (non-prehash)
// variant this package implements.
func messageRepresentative(ctx, msg []byte) ([]byte, error) {
	if len(ctx) > 255 {
		return nil, ErrContextTooLong
	}
	out := make([]byte, 0, 2+len(ctx)+len(msg))
	out = append(out, 0x00, byte(len(ctx)))
	out = append(out, ctx...)
	out = append(out, msg...)
	return out, nil
}

// ComputeMu derives mu = H(tr || M', 64). threshold/sign calls it in
// each party's Round2 (which keeps mu in its Round2State for Round3) and
// again in Combine.
func ComputeMu(tr [64]byte, ctx, msg []byte) ([64]byte, error) {
	var mu [64]byte
	mPrime, err := messageRepresentative(ctx, msg)
	if err != nil {
		return mu, err
	}
	h := sha3.NewShake256()
	h.Write(tr[:])
	h.Write(mPrime)
	if _, err := h.Read(mu[:]); err != nil {
		return mu, err
	}
	return mu, nil
}

// Sign produces a signature over msg under the given context string,
// using an all-zero 32-byte randomizer for deterministic output. Most
// callers want this; SignRandomized is for callers that want the
// hedged variant FIPS 204 allows.
func Sign(sk *SecretKey, ctx, msg []byte) (*Signature, error) {
	var zero [32]byte
	return sign(sk, ctx, msg, zero)
}

// SignRandomized behaves like Sign but mixes rnd into rhoDoublePrime,
// matching FIPS 204's optional hedged-signing mode.
func SignRandomized(sk *SecretKey, ctx, msg []byte, rnd [32]byte) (*Signature, error) {
	return sign(sk, ctx, msg, rnd)
}

func sign(sk *SecretKey, ctx, msg []byte, rnd [32]byte) (*Signature, error) {
	mu, err := ComputeMu(sk.Tr, ctx, msg)
	if err != nil {
		return nil, err
	}
	return SignInternal(sk, mu, rnd)
}

// SignInternal signs a precomputed mu directly, skipping message
// hashing entirely. prehash and the acvp runner call it; threshold/sign
// does not (it holds no full secret key) and instead reuses ComputeMu,
// ChallengeSeed, and the same signature encoder, so its combined output
// has this package's wire format.
func SignInternal(sk *SecretKey, mu [64]byte, rnd [32]byte) (*Signature, error) {
	p := sk.Params

	a, err := sample.ExpandA(sk.Rho[:], p.K, p.L)
	if err != nil {
		return nil, err
	}
	s1Hat := sk.S1.Clone()
	ring.NTTVec(s1Hat)
	s2Hat := sk.S2.Clone()
	ring.NTTVec(s2Hat)
	t0Hat := sk.T0.Clone()
	ring.NTTVec(t0Hat)

	rhoDoublePrime, err := deriveRhoDoublePrime(sk.Kprime, rnd, mu)
	if err != nil {
		return nil, err
	}

	kappa := 0
	for attempt := 0; attempt < maxSignAttempts; attempt++ {
		y, err := sample.ExpandMask(rhoDoublePrime[:], kappa, p.Gamma1, p.L)
		if err != nil {
			return nil, err
		}
		kappa += p.L

		yHat := y.Clone()
		ring.NTTVec(yHat)
		wHat := ring.MatrixMulNTT(a, p.K, p.L, yHat)
		w := wHat.Clone()
		ring.InvNTTVec(w)
		w1 := ring.HighBitsVec(w, p.Gamma2)

		cTilde, err := challengeSeed(mu, w1, p.Gamma2, p.CTildeBytes)
		if err != nil {
			return nil, err
		}
		c, err := sample.SampleInBall(cTilde, p.Tau)
		if err != nil {
			return nil, err
		}
		cHat := c
		ring.NTT(&cHat)

		cs1 := ntVecMul(cHat, s1Hat)
		z := ring.AddVec(y, cs1)
		if ring.ChkNormVec(z, p.Gamma1-p.Beta) {
			continue
		}

		cs2 := ntVecMul(cHat, s2Hat)
		wcs2 := ring.SubVec(w, cs2)
		r0 := ring.LowBitsVec(wcs2, p.Gamma2)
		if ring.ChkNormVec(r0, p.Gamma2-p.Beta) {
			continue
		}

		ct0 := ntVecMul(cHat, t0Hat)
		if ring.ChkNormVec(ct0, p.Gamma2) {
			continue
		}

		h, ones := ring.MakeHintVec(ring.AddVec(r0, ct0), w1, p.Gamma2)
		if ones > p.Omega {
			continue
		}

		return &Signature{CTilde: cTilde, Z: z, H: h}, nil
	}
	return nil, ErrSignAttemptsExceeded
}

// ntVecMul returns c*s for every row of s, where cHat is already in NTT
// domain: it multiplies in NTT domain and inverse-transforms each row.
func ntVecMul(cHat ring.Poly, sHat ring.Vec) ring.Vec {
	out := make(ring.Vec, len(sHat))
	for i := range sHat {
		t := ring.MultiplyNTTs(cHat, sHat[i])
		ring.InvNTT(&t)
		out[i] = t
	}
	return out
}

// deriveRhoDoublePrime computes SHAKE256(K' || rnd || mu, 64), the
// per-signature seed the mask-expansion nonce schedule is keyed from.
func deriveRhoDoublePrime(kprime, rnd [32]byte, mu [64]byte) ([64]byte, error) {
	var out [64]byte
	h := sha3.NewShake256()
	h.Write(kprime[:])
	h.Write(rnd[:])
	h.Write(mu[:])
	_, err := h.Read(out[:])
	return out, err
}

// ChallengeSeed computes c-tilde = SHAKE256(mu || W1Encode(w1), len). It
// is exported so the threshold signing protocol's round3 and combine
// steps derive the challenge exactly the way this package's own
// rejection loop does, without duplicating the hash construction.
func ChallengeSeed(mu [64]byte, w1 ring.Vec, gamma2 int32, outLen int) ([]byte, error) {
	return challengeSeed(mu, w1, gamma2, outLen)
}

// challengeSeed computes c-tilde = SHAKE256(mu || W1Encode(w1), len).
func challengeSeed(mu [64]byte, w1 ring.Vec, gamma2 int32, outLen int) ([]byte, error) {
	h := sha3.NewShake256()
	h.Write(mu[:])
	h.Write(encode.EncodeW1Vec(w1, gamma2))
	out := make([]byte, outLen)
	if _, err := h.Read(out); err != nil {
		return nil, err
	}
	return out, nil
}
