package sign

import (
	"github.com/btc-vision/threshold-mldsa/pkg/ring"
	"github.com/btc-vision/threshold-mldsa/threshold/tprotoerr"
)

// poly23Bits and poly23Size are the commitment/response wire format's
// fixed bit width and per-polynomial byte count: 256 coefficients at 23
// bits each, little-endian, no padding between polynomials or
// iterations (spec.md §4.8 and §6).
const (
	poly23Bits = 23
	poly23Size = (ring.N*poly23Bits + 7) / 8 // 736
)

// PackVec23 packs every polynomial of v at 23 bits/coefficient,
// concatenated with no padding. Used for both the K-polynomial
// commitment and the L-polynomial response.
func PackVec23(v ring.Vec) []byte {
	out := make([]byte, 0, poly23Size*len(v))
	for _, p := range v {
		out = append(out, packPoly23(p)...)
	}
	return out
}

// UnpackVec23 reverses PackVec23 for n polynomials, rejecting any
// coefficient >= ring.Q per spec.md §6's commitment-packing contract.
func UnpackVec23(buf []byte, n int) (ring.Vec, error) {
	if len(buf) < poly23Size*n {
		return nil, tprotoerr.ErrInvalidCoefficient
	}
	v := make(ring.Vec, n)
	for i := 0; i < n; i++ {
		p, err := unpackPoly23(buf[i*poly23Size : (i+1)*poly23Size])
		if err != nil {
			return nil, err
		}
		v[i] = p
	}
	return v, nil
}

func packPoly23(p ring.Poly) []byte {
	out := make([]byte, poly23Size)
	bitPos := 0
	for _, c := range p {
		v := uint64(uint32(c))
		take := poly23Bits
		shift := 0
		for take > 0 {
			byteIdx := bitPos / 8
			bitOff := bitPos % 8
			avail := 8 - bitOff
			n := avail
			if n > take {
				n = take
			}
			mask := byte((1 << uint(n)) - 1)
			out[byteIdx] |= byte(v>>uint(shift)) & mask << uint(bitOff)
			shift += n
			take -= n
			bitPos += n
		}
	}
	return out
}

func unpackPoly23(buf []byte) (ring.Poly, error) {
	var p ring.Poly
	bitPos := 0
	for i := range p {
		var v uint64
		need := poly23Bits
		shift := 0
		for need > 0 {
			byteIdx := bitPos / 8
			bitOff := bitPos % 8
			avail := 8 - bitOff
			n := avail
			if n > need {
				n = need
			}
			mask := byte((1 << uint(n)) - 1)
			chunk := (buf[byteIdx] >> uint(bitOff)) & mask
			v |= uint64(chunk) << uint(shift)
			shift += n
			need -= n
			bitPos += n
		}
		if int32(v) >= ring.Q {
			return p, tprotoerr.ErrInvalidCoefficient
		}
		p[i] = int32(v)
	}
	return p, nil
}
