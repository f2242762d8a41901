package sample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btc-vision/threshold-mldsa/pkg/ring"
)

func TestRejBoundedPolyRange(t *testing.T) {
	seed := make([]byte, 64)
	for eta := range []int{2, 4} {
		etaVal := []int{2, 4}[eta]
		p, err := RejBoundedPoly(seed, etaVal, 0)
		require.NoError(t, err)
		for _, c := range p {
			s := ring.Smod(c)
			require.LessOrEqual(t, s, int32(etaVal))
			require.GreaterOrEqual(t, s, -int32(etaVal))
		}
	}
}

func TestSampleInBallWeight(t *testing.T) {
	seed := make([]byte, 32)
	const tau = 39
	c, err := SampleInBall(seed, tau)
	require.NoError(t, err)
	nonzero := 0
	for _, v := range c {
		if v != 0 {
			require.True(t, v == 1 || v == -1)
			nonzero++
		}
	}
	require.Equal(t, tau, nonzero)
}

func TestHyperballNormBound(t *testing.T) {
	rho := make([]byte, 64)
	const rPrime = 100.0
	const nu = 3.0
	v := Hyperball(rPrime, nu, 4, 4, rho, 0)
	require.Len(t, v, 256*8)

	var weighted float64
	lBlock := 256 * 4
	for i, x := range v {
		if i < lBlock {
			weighted += (x / nu) * (x / nu)
		} else {
			weighted += x * x
		}
	}
	require.LessOrEqual(t, math.Sqrt(weighted), rPrime*1.01)
}

func TestHyperballDeterministic(t *testing.T) {
	rho := make([]byte, 64)
	for i := range rho {
		rho[i] = byte(i)
	}
	a := Hyperball(10, 3.0, 4, 4, rho, 7)
	b := Hyperball(10, 3.0, 4, 4, rho, 7)
	require.Equal(t, a, b)
}
