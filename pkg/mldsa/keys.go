package mldsa

import (
	"golang.org/x/crypto/sha3"

	"github.com/btc-vision/threshold-mldsa/pkg/encode"
	"github.com/btc-vision/threshold-mldsa/pkg/ring"
	"github.com/btc-vision/threshold-mldsa/pkg/sample"
)

// PublicKey is a decoded ML-DSA public key: the matrix seed rho and the
// high bits of t = A*s1 + s2.
type PublicKey struct {
	Params Params
	Rho    [32]byte
	T1     ring.Vec
}

// SecretKey is a decoded ML-DSA secret key. Kprime, S1, S2, and T0 are
// the values a signer must keep confidential (Destroy zeroes exactly
// these); Tr caches H(pk,64) so signing
// never has to re-hash the public key.
type SecretKey struct {
	Params Params
	Rho    [32]byte
	Kprime [32]byte
	Tr     [64]byte
	S1     ring.Vec
	S2     ring.Vec
	T0     ring.Vec
}

// Destroy zeroizes every secret-derived field of sk. Callers that hold a
// SecretKey past its signing session should call this explicitly; Go has
// no destructors, so this relies on the caller's discipline, matching
// the threshold layer's own Destroy methods on round state.
func (sk *SecretKey) Destroy() {
	ring.ZeroVec(sk.S1)
	ring.ZeroVec(sk.S2)
	ring.ZeroVec(sk.T0)
	for i := range sk.Kprime {
		sk.Kprime[i] = 0
	}
}

// GenerateKey derives a keypair from a 32-byte seed, following FIPS 204's
// ExpandA/ExpandS keygen pipeline: the seed is domain-separated by (K,L)
// and stretched to 128 bytes (rho, rhoPrime, K') via SHAKE256, then A is
// expanded from rho and (s1,s2) from rhoPrime.
func GenerateKey(p Params, seed [32]byte) (*PublicKey, *SecretKey, error) {
	h := sha3.NewShake256()
	h.Write(seed[:])
	h.Write([]byte{byte(p.K), byte(p.L)})
	var expanded [128]byte
	if _, err := h.Read(expanded[:]); err != nil {
		return nil, nil, err
	}

	var rho [32]byte
	var rhoPrime [64]byte
	var kprime [32]byte
	copy(rho[:], expanded[:32])
	copy(rhoPrime[:], expanded[32:96])
	copy(kprime[:], expanded[96:128])

	a, err := sample.ExpandA(rho[:], p.K, p.L)
	if err != nil {
		return nil, nil, err
	}
	s1, s2, err := sample.ExpandS(rhoPrime[:], p.Eta, p.K, p.L)
	if err != nil {
		return nil, nil, err
	}

	s1Hat := s1.Clone()
	ring.NTTVec(s1Hat)
	tHat := ring.MatrixMulNTT(a, p.K, p.L, s1Hat)
	t := tHat.Clone()
	ring.InvNTTVec(t)
	t = ring.AddVec(t, s2)

	t1, t0 := ring.Power2RoundVec(t)

	pk := &PublicKey{Params: p, Rho: rho, T1: t1}
	pkBytes := encode.PublicKey(rho, t1)

	trH := sha3.NewShake256()
	trH.Write(pkBytes)
	var tr [64]byte
	if _, err := trH.Read(tr[:]); err != nil {
		return nil, nil, err
	}

	sk := &SecretKey{
		Params: p,
		Rho:    rho,
		Kprime: kprime,
		Tr:     tr,
		S1:     s1,
		S2:     s2,
		T0:     t0,
	}
	return pk, sk, nil
}

// Encode packs pk the way FIPS 204 wire-encodes a public key.
func (pk *PublicKey) Encode() []byte {
	return encode.PublicKey(pk.Rho, pk.T1)
}

// DecodePublicKey reverses Encode for a known Params.
func DecodePublicKey(p Params, buf []byte) (*PublicKey, error) {
	rho, t1, err := encode.DecodePublicKey(buf, p.K)
	if err != nil {
		return nil, err
	}
	return &PublicKey{Params: p, Rho: rho, T1: t1}, nil
}

// Encode packs sk the way FIPS 204 wire-encodes a secret key.
func (sk *SecretKey) Encode() []byte {
	return encode.SecretKey(sk.Rho, sk.Kprime, sk.Tr, sk.Params.Eta, sk.S1, sk.S2, sk.T0)
}

// DecodeSecretKey reverses Encode for a known Params.
func DecodeSecretKey(p Params, buf []byte) (*SecretKey, error) {
	rho, kprime, tr, s1, s2, t0, err := encode.DecodeSecretKey(buf, p.K, p.L, p.Eta)
	if err != nil {
		return nil, err
	}
	return &SecretKey{Params: p, Rho: rho, Kprime: kprime, Tr: tr, S1: s1, S2: s2, T0: t0}, nil
}
