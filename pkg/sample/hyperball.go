package sample

import (
	"encoding/binary"
	"math"

	"golang.org/x/crypto/sha3"
)

// hyperballTag is the domain-separation byte ('H') prefixed to every
// hyperball draw.
const hyperballTag = 0x48

// Hyperball draws a uniform point on the ball of radius rPrime in
// R^(256*(k+l)), stretching the l-block (the y-part of the draw) by nu
// relative to the k-block (the e-part), per spec's Box-Muller-over-SHAKE
// construction. nonce is the caller-assigned per-iteration counter
// (nonce*K_iter+iter in the threshold signing protocol).
//
// Cross-platform bit-identical floats are not guaranteed: log/sqrt/
// cos/sin rounding differs across platforms. Per-platform determinism
// is sufficient because each party samples independently and only the
// rounded integer vector is ever transmitted.
func Hyperball(rPrime, nu float64, k, l int, rhoPrime []byte, nonce uint16) []float64 {
	dim := 256 * (k + l)
	count := dim + 2 // even, for pairwise Box-Muller

	h := sha3.NewShake256()
	h.Write([]byte{hyperballTag})
	h.Write(rhoPrime)
	var nb [2]byte
	binary.LittleEndian.PutUint16(nb[:], nonce)
	h.Write(nb[:])

	raw := make([]byte, 8*count)
	if _, err := h.Read(raw); err != nil {
		panic(err) // SHAKE256 reads never fail on a live XOF
	}

	u := make([]uint64, count)
	for i := 0; i < count; i++ {
		u[i] = binary.LittleEndian.Uint64(raw[i*8 : i*8+8])
	}

	out := make([]float64, dim)
	var sq float64
	idx := 0
	for pair := 0; pair*2 < count; pair++ {
		u1 := toUnitFloat(u[pair*2])
		u2 := toUnitFloat(u[pair*2+1])
		radius := math.Sqrt(-2 * math.Log(u1))
		theta := 2 * math.Pi * u2
		z1 := radius * math.Cos(theta)
		z2 := radius * math.Sin(theta)
		sq += z1*z1 + z2*z2
		if idx < dim {
			out[idx] = z1
			idx++
		}
		if idx < dim {
			out[idx] = z2
			idx++
		}
	}

	lBlock := 256 * l
	for i := 0; i < lBlock && i < dim; i++ {
		out[i] *= nu
	}

	scale := rPrime / math.Sqrt(sq)
	for i := range out {
		out[i] *= scale
	}
	return out
}

// toUnitFloat converts a uint64 to a float64 in [0,1) using the top 53
// bits, clamping an exact-zero draw to the smallest positive subnormal
// so log(0) never occurs.
func toUnitFloat(x uint64) float64 {
	top53 := x >> 11
	f := float64(top53) * math.Exp2(-53)
	if f == 0 {
		f = math.SmallestNonzeroFloat64
	}
	return f
}
