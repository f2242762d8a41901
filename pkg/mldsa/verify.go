package mldsa

import (
	"bytes"

	"golang.org/x/crypto/sha3"

	"github.com/btc-vision/threshold-mldsa/pkg/encode"
	"github.com/btc-vision/threshold-mldsa/pkg/ring"
	"github.com/btc-vision/threshold-mldsa/pkg/sample"
)

// TrOf recomputes H(pk,64); public keys don't cache it since verifiers
// only ever need it once per call. Exported so the threshold signing
// protocol's combine step (which holds only a public key, no secret
// key with a cached Tr) can derive mu the same way a baseline verifier
// does.
func TrOf(pk *PublicKey) ([64]byte, error) {
	var tr [64]byte
	h := sha3.NewShake256()
	h.Write(pk.Encode())
	_, err := h.Read(tr[:])
	return tr, err
}

func trOf(pk *PublicKey) ([64]byte, error) {
	return TrOf(pk)
}

// Verify checks sig against msg under ctx for pk, returning false on any
// structural or cryptographic failure (it never panics or returns an
// error; malformed input is simply not a valid signature).
func Verify(pk *PublicKey, ctx, msg []byte, sig *Signature) bool {
	tr, err := trOf(pk)
	if err != nil {
		return false
	}
	mu, err := ComputeMu(tr, ctx, msg)
	if err != nil {
		return false
	}
	return VerifyInternal(pk, mu, sig)
}

// VerifyInternal verifies sig against a precomputed mu. Verify and
// prehash call it; threshold/sign has no verifier of its own, so a
// combined group signature is checked through Verify exactly the way a
// baseline signature is.
func VerifyInternal(pk *PublicKey, mu [64]byte, sig *Signature) bool {
	p := pk.Params

	if len(sig.Z) != p.L || len(sig.H) != p.K {
		return false
	}
	if ring.ChkNormVec(sig.Z, p.Gamma1-p.Beta) {
		return false
	}
	if encode.Popcount(sig.H) > p.Omega {
		return false
	}

	a, err := sample.ExpandA(pk.Rho[:], p.K, p.L)
	if err != nil {
		return false
	}
	c, err := sample.SampleInBall(sig.CTilde, p.Tau)
	if err != nil {
		return false
	}
	cHat := c
	ring.NTT(&cHat)

	zHat := sig.Z.Clone()
	ring.NTTVec(zHat)
	az := ring.MatrixMulNTT(a, p.K, p.L, zHat)

	t1Shifted := ring.ShiftlVec(pk.T1)
	t1Hat := t1Shifted.Clone()
	ring.NTTVec(t1Hat)
	ct1 := make(ring.Vec, p.K)
	for i := range ct1 {
		ct1[i] = ring.MultiplyNTTs(cHat, t1Hat[i])
	}

	wApproxHat := ring.SubVec(az, ct1)
	wApprox := wApproxHat.Clone()
	ring.InvNTTVec(wApprox)

	w1 := ring.UseHintVec(sig.H, wApprox, p.Gamma2)

	cTildePrime, err := challengeSeed(mu, w1, p.Gamma2, p.CTildeBytes)
	if err != nil {
		return false
	}
	return bytes.Equal(cTildePrime, sig.CTilde)
}
