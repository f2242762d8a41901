// Package mldsa implements the baseline FIPS 204 ML-DSA keygen, sign,
// and verify operations, including the "external mu" entry points
// (SignInternal/VerifyInternal) and the exported helpers (ComputeMu,
// ChallengeSeed, TrOf) the threshold signing layer uses to keep its
// on-wire signatures in this package's own format.
//
// Per the design notes, variants are modeled as one Params value
// consumed by construction rather than as per-level types: every
// function below takes a Params and works for level 44, 65, or 87
// alike.
package mldsa

import (
	"errors"

	"github.com/btc-vision/threshold-mldsa/pkg/ring"
)

// Params collects the fixed constants of one ML-DSA security level.
type Params struct {
	Name        string
	Level       int // 44, 65, or 87
	K, L        int
	Eta         int
	Gamma1      int32
	Gamma2      int32
	Tau         int
	Omega       int
	Beta        int32
	CTildeBytes int
}

// CRHBytes and TRBytes are fixed across all parameter sets.
const (
	CRHBytes = 64
	TRBytes  = 64
	SeedSize = 32
)

// L2, L3, L5 are the three NIST security levels this module supports,
// named for their spec.md table entries (44, 65, 87).
var (
	L2 = Params{
		Name: "ML-DSA-44", Level: 44,
		K: 4, L: 4, Eta: 2,
		Gamma1: 1 << 17, Gamma2: (ring.Q - 1) / 88,
		Tau: 39, Omega: 80, Beta: 39 * 2, CTildeBytes: 32,
	}
	L3 = Params{
		Name: "ML-DSA-65", Level: 65,
		K: 6, L: 5, Eta: 4,
		Gamma1: 1 << 19, Gamma2: (ring.Q - 1) / 32,
		Tau: 49, Omega: 55, Beta: 49 * 4, CTildeBytes: 48,
	}
	L5 = Params{
		Name: "ML-DSA-87", Level: 87,
		K: 8, L: 7, Eta: 2,
		Gamma1: 1 << 19, Gamma2: (ring.Q - 1) / 32,
		Tau: 60, Omega: 75, Beta: 60 * 2, CTildeBytes: 64,
	}
)

// ErrUnsupportedLevel is returned by ByLevel for anything other than
// {44,65,87} (or their threshold security-level aliases).
var ErrUnsupportedLevel = errors.New("mldsa: unsupported security level")

// ByLevel returns the Params for a NIST security level, accepting both
// the ML-DSA level numbers (44,65,87) and their bit-security aliases
// (128,192,256) the threshold layer's parameter tables are indexed by.
func ByLevel(level int) (Params, error) {
	switch level {
	case 44, 128:
		return L2, nil
	case 65, 192:
		return L3, nil
	case 87, 256:
		return L5, nil
	default:
		return Params{}, ErrUnsupportedLevel
	}
}

// PublicKeySize returns the encoded public-key length for this Params.
func (p Params) PublicKeySize() int {
	return 32 + 320*p.K
}

// SecretKeySize returns the encoded secret-key length for this Params.
func (p Params) SecretKeySize() int {
	etaSize := 96
	if p.Eta == 4 {
		etaSize = 128
	}
	return 128 + etaSize*(p.L+p.K) + 416*p.K
}

// SignatureSize returns the encoded signature length for this Params.
func (p Params) SignatureSize() int {
	zSize := 640
	if p.Gamma1 == 1<<17 {
		zSize = 576
	}
	return p.CTildeBytes + zSize*p.L + p.Omega + p.K
}
