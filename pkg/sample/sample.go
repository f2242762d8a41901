// Package sample implements the SHAKE-driven rejection samplers FIPS
// 204 defines: uniform NTT-domain polynomials, bounded-coefficient
// polynomials, the SampleInBall challenge, ExpandMask, and the
// hyperball Gaussian draw the threshold signing protocol layers on top.
package sample

import (
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/sha3"

	"github.com/btc-vision/threshold-mldsa/pkg/ring"
)

// ErrShortBlock is returned when an XOF read is not a multiple of the
// sampler's chunk size, which cannot happen with a correctly
// implemented XOF but is checked anyway since this is the one place a
// misbehaving collaborator could desynchronize the whole protocol.
var ErrShortBlock = errors.New("sample: xof block not a multiple of chunk size")

const shake128Rate = 168
const shake256Rate = 136

// RejNTTPoly samples a uniformly random polynomial already in NTT
// domain by rejection sampling 3-byte chunks from a SHAKE128 stream
// seeded by rho||j||i (FIPS 204 Algorithm 30, RejNTTPoly).
func RejNTTPoly(rho []byte, i, j byte) (ring.Poly, error) {
	h := sha3.NewShake128()
	h.Write(rho)
	h.Write([]byte{j, i})

	var out ring.Poly
	n := 0
	buf := make([]byte, shake128Rate)
	for n < ring.N {
		if _, err := h.Read(buf); err != nil {
			return out, err
		}
		if len(buf)%3 != 0 {
			return out, ErrShortBlock
		}
		for off := 0; off+3 <= len(buf) && n < ring.N; off += 3 {
			d := uint32(buf[off]) | uint32(buf[off+1])<<8 | uint32(buf[off+2])<<16
			d &= 0x7fffff
			if int32(d) < ring.Q {
				out[n] = int32(d)
				n++
			}
		}
	}
	return out, nil
}

// ExpandA expands the public matrix A (k rows, l columns) from rho,
// each entry already in NTT domain.
func ExpandA(rho []byte, k, l int) (ring.Vec, error) {
	a := make(ring.Vec, k*l)
	for i := 0; i < k; i++ {
		for j := 0; j < l; j++ {
			p, err := RejNTTPoly(rho, byte(i), byte(j))
			if err != nil {
				return nil, err
			}
			a[i*l+j] = p
		}
	}
	return a, nil
}

// RejBoundedPoly samples a polynomial with coefficients in [-eta, eta]
// by rejection from 4-bit nibbles of a SHAKE256 stream seeded by
// seed||nonce (FIPS 204 Algorithm 31, RejBoundedPoly). Only eta in
// {2,4} is defined, matching the parameter sets this module supports.
func RejBoundedPoly(seed []byte, eta int, nonce uint16) (ring.Poly, error) {
	h := sha3.NewShake256()
	h.Write(seed)
	h.Write([]byte{byte(nonce), byte(nonce >> 8)})

	var out ring.Poly
	n := 0
	buf := make([]byte, shake256Rate)
	for n < ring.N {
		if _, err := h.Read(buf); err != nil {
			return out, err
		}
		for off := 0; off < len(buf) && n < ring.N; off++ {
			b := buf[off]
			z0 := b & 0x0f
			z1 := b >> 4
			if v, ok := acceptEta(z0, eta); ok {
				out[n] = v
				n++
			}
			if n < ring.N {
				if v, ok := acceptEta(z1, eta); ok {
					out[n] = v
					n++
				}
			}
		}
	}
	return out, nil
}

func acceptEta(nibble byte, eta int) (int32, bool) {
	switch eta {
	case 2:
		if nibble >= 15 {
			return 0, false
		}
		return 2 - int32(nibble%5), true
	case 4:
		if nibble >= 9 {
			return 0, false
		}
		return 4 - int32(nibble), true
	default:
		return 0, false
	}
}

// ExpandS samples the l secret-vector-1 polynomials and k secret-vector-2
// polynomials from rhoPrime, matching FIPS 204 keygen's nonce assignment
// (s1 uses nonces [0,l), s2 uses nonces [l,l+k)).
func ExpandS(rhoPrime []byte, eta, k, l int) (s1, s2 ring.Vec, err error) {
	s1 = make(ring.Vec, l)
	for i := 0; i < l; i++ {
		s1[i], err = RejBoundedPoly(rhoPrime, eta, uint16(i))
		if err != nil {
			return nil, nil, err
		}
	}
	s2 = make(ring.Vec, k)
	for i := 0; i < k; i++ {
		s2[i], err = RejBoundedPoly(rhoPrime, eta, uint16(l+i))
		if err != nil {
			return nil, nil, err
		}
	}
	return s1, s2, nil
}

// SampleInBall consumes SHAKE256(seed) and returns a polynomial with
// exactly tau nonzero coefficients in {-1,+1}, using the Fisher-Yates
// style swap FIPS 204 Algorithm 29 specifies: the first 8 bytes supply
// sign bits (one per selected position, read as a little-endian uint64
// and consumed from bit 0 upward, i.e. LSB-first within each byte),
// subsequent bytes are rejection-sampled indices b <= i.
func SampleInBall(seed []byte, tau int) (ring.Poly, error) {
	h := sha3.NewShake256()
	h.Write(seed)

	var signBytes [8]byte
	if _, err := h.Read(signBytes[:]); err != nil {
		return ring.Poly{}, err
	}
	signs := binary.LittleEndian.Uint64(signBytes[:])

	var c ring.Poly
	var b [1]byte
	for i := ring.N - tau; i < ring.N; i++ {
		var j int
		for {
			if _, err := h.Read(b[:]); err != nil {
				return ring.Poly{}, err
			}
			j = int(b[0])
			if j <= i {
				break
			}
		}
		c[i] = c[j]
		sign := int32(1)
		if signs&1 == 1 {
			sign = -1
		}
		signs >>= 1
		c[j] = sign
	}
	return c, nil
}

// ExpandMask derives the masking vector y (l polynomials whose
// coefficients are the mod-Q normal-form representatives, in [0,Q), of
// values in [-(gamma1-1), gamma1]) from rhoPrime and the rejection-loop
// counter kappa, via SHAKE256 and the Z-range unpacker's mapping.
func ExpandMask(rhoPrime []byte, kappa, gamma1, l int) (ring.Vec, error) {
	bitlen := 20
	if gamma1 == 1<<17 {
		bitlen = 18
	}
	y := make(ring.Vec, l)
	buf := make([]byte, (ring.N*bitlen)/8)
	for i := 0; i < l; i++ {
		nonce := uint16(kappa + i)
		h := sha3.NewShake256()
		h.Write(rhoPrime)
		h.Write([]byte{byte(nonce), byte(nonce >> 8)})
		if _, err := h.Read(buf); err != nil {
			return nil, err
		}
		y[i] = unpackMaskPoly(buf, bitlen, int32(gamma1))
	}
	return y, nil
}

// unpackMaskPoly applies the Z coder's decode mapping (v -> gamma1-v,
// reduced here into [0,Q) rather than centered) directly on raw
// bit-packed little-endian groups, used only by ExpandMask where the bit
// width matches the Z coder's.
func unpackMaskPoly(buf []byte, bitlen int, gamma1 int32) ring.Poly {
	var out ring.Poly
	bitPos := 0
	for i := 0; i < ring.N; i++ {
		v := extractBits(buf, bitPos, bitlen)
		bitPos += bitlen
		out[i] = ring.Mod32(gamma1 - int32(v))
	}
	return out
}

func extractBits(buf []byte, bitPos, bitlen int) uint32 {
	var v uint64
	byteIdx := bitPos / 8
	bitOff := bitPos % 8
	need := bitlen
	shift := 0
	for need > 0 {
		avail := 8 - bitOff
		take := avail
		if take > need {
			take = need
		}
		chunk := (uint64(buf[byteIdx]) >> uint(bitOff)) & ((1 << uint(take)) - 1)
		v |= chunk << uint(shift)
		shift += take
		need -= take
		bitOff = 0
		byteIdx++
	}
	return uint32(v)
}
