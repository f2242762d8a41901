// Package prehash implements HashML-DSA, FIPS 204's prehash signing
// mode: the message is first digested under a named hash function, and
// an OID identifying that function is folded into the domain-separated
// representative mu alongside the digest, rather than the raw message
// mldsa's pure variant hashes directly. It is a thin wrapper over
// mldsa's external-mu entry points (SignInternal/VerifyInternal).
package prehash

import (
	"crypto/sha512"
	"errors"

	"golang.org/x/crypto/sha3"

	"github.com/btc-vision/threshold-mldsa/pkg/mldsa"
)

// Hash identifies the FIPS 204 Table 2 prehash function to use.
type Hash int

const (
	// SHA512 prehashes with the standard library's SHA-512.
	SHA512 Hash = iota
	// SHAKE256 prehashes with a 64-byte SHAKE256 output, matching the
	// XOF this module already uses for every other protocol hash.
	SHAKE256
)

// oids are the FIPS 204 Table 2 DER-encoded OIDs identifying each
// supported prehash function.
var oids = map[Hash][]byte{
	SHA512:   {0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x03},
	SHAKE256: {0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x0C},
}

// ErrUnsupportedHash is returned for a Hash value with no registered OID.
var ErrUnsupportedHash = errors.New("prehash: unsupported hash function")

// ErrContextTooLong mirrors mldsa.ErrContextTooLong for this package's
// own message-representative construction.
var ErrContextTooLong = errors.New("prehash: context string longer than 255 bytes")

func digest(h Hash, msg []byte) ([]byte, error) {
	switch h {
	case SHA512:
		sum := sha512.Sum512(msg)
		return sum[:], nil
	case SHAKE256:
		out := make([]byte, 64)
		xof := sha3.NewShake256()
		xof.Write(msg)
		if _, err := xof.Read(out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, ErrUnsupportedHash
	}
}

// messageRepresentative builds HashML-DSA's M': 0x01 || len(ctx) || ctx
// || OID || PH(msg), the prehash counterpart of mldsa's pure-mode
// 0x00-prefixed framing.
func messageRepresentative(h Hash, ctx, msg []byte) ([]byte, error) {
	if len(ctx) > 255 {
		return nil, ErrContextTooLong
	}
	oid, ok := oids[h]
	if !ok {
		return nil, ErrUnsupportedHash
	}
	ph, err := digest(h, msg)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 2+len(ctx)+len(oid)+len(ph))
	out = append(out, 0x01, byte(len(ctx)))
	out = append(out, ctx...)
	out = append(out, oid...)
	out = append(out, ph...)
	return out, nil
}

// computeMu derives HashML-DSA's mu the same way mldsa.ComputeMu does
// for the pure variant, substituting the prehash representative.
func computeMu(tr [64]byte, h Hash, ctx, msg []byte) ([64]byte, error) {
	var mu [64]byte
	mPrime, err := messageRepresentative(h, ctx, msg)
	if err != nil {
		return mu, err
	}
	x := sha3.NewShake256()
	x.Write(tr[:])
	x.Write(mPrime)
	if _, err := x.Read(mu[:]); err != nil {
		return mu, err
	}
	return mu, nil
}

// Sign produces a deterministic HashML-DSA signature over msg under
// the given hash function and context string.
func Sign(sk *mldsa.SecretKey, h Hash, ctx, msg []byte) (*mldsa.Signature, error) {
	var zero [32]byte
	mu, err := computeMu(sk.Tr, h, ctx, msg)
	if err != nil {
		return nil, err
	}
	return mldsa.SignInternal(sk, mu, zero)
}

// SignRandomized behaves like Sign but mixes rnd into the internal
// nonce derivation, matching FIPS 204's optional hedged prehash mode.
func SignRandomized(sk *mldsa.SecretKey, h Hash, ctx, msg []byte, rnd [32]byte) (*mldsa.Signature, error) {
	mu, err := computeMu(sk.Tr, h, ctx, msg)
	if err != nil {
		return nil, err
	}
	return mldsa.SignInternal(sk, mu, rnd)
}

// Verify checks a HashML-DSA signature against pk, ctx, and msg under
// the given hash function.
func Verify(pk *mldsa.PublicKey, h Hash, ctx, msg []byte, sig *mldsa.Signature) bool {
	tr, err := mldsa.TrOf(pk)
	if err != nil {
		return false
	}
	mu, err := computeMu(tr, h, ctx, msg)
	if err != nil {
		return false
	}
	return mldsa.VerifyInternal(pk, mu, sig)
}
