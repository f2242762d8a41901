package ring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randomPoly(r *rand.Rand) Poly {
	var p Poly
	for i := range p {
		p[i] = int32(r.Intn(int(Q)))
	}
	return p
}

func TestNTTRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for trial := 0; trial < 8; trial++ {
		p := randomPoly(r)
		got := p
		NTT(&got)
		InvNTT(&got)
		require.Equal(t, p, got, "NTT/InvNTT must round-trip")
	}
}

func TestMultiplyNTTsMatchesSchoolbook(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	a := randomPoly(r)
	b := randomPoly(r)

	want := schoolbookMul(a, b)

	aHat, bHat := a, b
	NTT(&aHat)
	NTT(&bHat)
	cHat := MultiplyNTTs(aHat, bHat)
	InvNTT(&cHat)

	require.Equal(t, want, cHat)
}

// schoolbookMul computes a*b mod (x^256+1, Q) the slow way for testing.
func schoolbookMul(a, b Poly) Poly {
	var wide [2 * N]int64
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			wide[i+j] += int64(a[i]) * int64(b[j])
		}
	}
	var out Poly
	for i := 0; i < N; i++ {
		out[i] = mod(wide[i] - wide[i+N])
	}
	return out
}

func TestSmodCentered(t *testing.T) {
	require.Equal(t, int32(0), Smod(0))
	require.Equal(t, int32(Q/2), Smod(Q/2))
	require.Equal(t, int32(-(Q/2)), Smod(Q/2+1))
	require.Equal(t, int32(1), Smod(Q+1))
}

func TestPower2RoundRecombines(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for trial := 0; trial < 64; trial++ {
		v := int32(r.Intn(int(Q)))
		t1, t0 := Power2Round(v)
		recombined := mod(int64(t1)<<D + int64(t0))
		require.Equal(t, v, recombined)
	}
}

func TestDecomposeRecombines(t *testing.T) {
	const gamma2 = (Q - 1) / 88
	r := rand.New(rand.NewSource(4))
	for trial := 0; trial < 256; trial++ {
		v := int32(r.Intn(int(Q)))
		r1, r0 := Decompose(v, gamma2)
		recombined := mod(int64(r1)*int64(2*gamma2) + int64(r0))
		require.Equal(t, v, recombined)
	}
}

func TestUseHintRecoversHighBits(t *testing.T) {
	const gamma2 = (Q - 1) / 88
	r := rand.New(rand.NewSource(5))
	for trial := 0; trial < 256; trial++ {
		v := int32(r.Intn(int(Q)))
		r1, _ := Decompose(v, gamma2)
		got := UseHint(0, v, gamma2)
		require.Equal(t, r1, got)
	}
}
