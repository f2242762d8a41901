package encode

import (
	"errors"

	"github.com/btc-vision/threshold-mldsa/pkg/ring"
)

// ErrInvalidCoefficient is returned when an unpacked coefficient falls
// outside the range its coder promises.
var ErrInvalidCoefficient = errors.New("encode: unpacked coefficient out of range")

// PolyCoder maps a polynomial to and from a fixed number of bytes at a
// fixed bit width, with compress/decompress callbacks centering the
// range the way each named coder (T1, T0, ETA, Z, W1) requires.
type PolyCoder struct {
	Bitlen    int
	compress  func(c int32) uint32
	decompress func(v uint32) (int32, error)
}

// Size returns the number of bytes one polynomial encodes to.
func (pc PolyCoder) Size() int {
	return (ring.N*pc.Bitlen + 7) / 8
}

// Encode packs p into Size() bytes.
func (pc PolyCoder) Encode(p ring.Poly) []byte {
	vals := make([]uint32, ring.N)
	for i, c := range p {
		vals[i] = pc.compress(c)
	}
	return packBits(vals, pc.Bitlen)
}

// Decode unpacks Size() bytes of buf into a polynomial.
func (pc PolyCoder) Decode(buf []byte) (ring.Poly, error) {
	vals := unpackBits(buf, ring.N, pc.Bitlen)
	var p ring.Poly
	for i, v := range vals {
		c, err := pc.decompress(v)
		if err != nil {
			return p, err
		}
		p[i] = c
	}
	return p, nil
}

// EncodeVec packs each polynomial of v in order, concatenated with no
// padding between entries.
func (pc PolyCoder) EncodeVec(v ring.Vec) []byte {
	out := make([]byte, 0, pc.Size()*len(v))
	for _, p := range v {
		out = append(out, pc.Encode(p)...)
	}
	return out
}

// DecodeVec unpacks n concatenated polynomials from buf.
func (pc PolyCoder) DecodeVec(buf []byte, n int) (ring.Vec, error) {
	size := pc.Size()
	if len(buf) < size*n {
		return nil, errors.New("encode: short vector buffer")
	}
	v := make(ring.Vec, n)
	for i := 0; i < n; i++ {
		p, err := pc.Decode(buf[i*size : (i+1)*size])
		if err != nil {
			return nil, err
		}
		v[i] = p
	}
	return v, nil
}

// T1Coder packs the unsigned 10-bit public-key HighBits.
func T1Coder() PolyCoder {
	const bitlen = 10
	return PolyCoder{
		Bitlen: bitlen,
		compress: func(c int32) uint32 {
			return uint32(c)
		},
		decompress: func(v uint32) (int32, error) {
			if v >= 1<<bitlen {
				return 0, ErrInvalidCoefficient
			}
			return int32(v), nil
		},
	}
}

// T0Coder packs the 13-bit secret-key low bits, centered around 2^(D-1).
func T0Coder() PolyCoder {
	const bitlen = ring.D
	const center = int32(1) << (ring.D - 1)
	return PolyCoder{
		Bitlen: bitlen,
		compress: func(c int32) uint32 {
			return uint32(center - c)
		},
		decompress: func(v uint32) (int32, error) {
			if v >= 1<<bitlen {
				return 0, ErrInvalidCoefficient
			}
			return center - int32(v), nil
		},
	}
}

// EtaCoder packs coefficients in [-eta,eta], eta in {2,4}.
func EtaCoder(eta int) PolyCoder {
	bitlen := 3
	if eta == 4 {
		bitlen = 4
	}
	etaI := int32(eta)
	return PolyCoder{
		Bitlen: bitlen,
		compress: func(c int32) uint32 {
			return uint32(etaI - c)
		},
		decompress: func(v uint32) (int32, error) {
			if int32(v) > 2*etaI {
				return 0, ErrInvalidCoefficient
			}
			return etaI - int32(v), nil
		},
	}
}

// ZCoder packs centered z coefficients in [-(gamma1-1), gamma1].
func ZCoder(gamma1 int32) PolyCoder {
	bitlen := 20
	if gamma1 == 1<<17 {
		bitlen = 18
	}
	return PolyCoder{
		Bitlen: bitlen,
		compress: func(c int32) uint32 {
			return uint32(ring.Mod32(gamma1 - c))
		},
		decompress: func(v uint32) (int32, error) {
			if v >= 1<<bitlen {
				return 0, ErrInvalidCoefficient
			}
			return ring.Smod(gamma1 - int32(v)), nil
		},
	}
}

// W1Coder packs unsigned HighBits values; bitlen is 6 for gamma2=(Q-1)/88
// and 4 for gamma2=(Q-1)/32.
func W1Coder(gamma2 int32) PolyCoder {
	bitlen := 4
	if gamma2 == (ring.Q-1)/88 {
		bitlen = 6
	}
	return PolyCoder{
		Bitlen: bitlen,
		compress: func(c int32) uint32 {
			return uint32(c)
		},
		decompress: func(v uint32) (int32, error) {
			if v >= 1<<bitlen {
				return 0, ErrInvalidCoefficient
			}
			return int32(v), nil
		},
	}
}
