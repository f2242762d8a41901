package params

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btc-vision/threshold-mldsa/pkg/party"
)

func TestValidateRange(t *testing.T) {
	_, err := Validate(1, 3, 44)
	require.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = Validate(2, 7, 44)
	require.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = Validate(2, 3, 999)
	require.ErrorIs(t, err, ErrUnsupportedLevel)

	_, err = Validate(2, 3, 44)
	require.NoError(t, err)
}

func TestBitmasksHaveCorrectWeightAndCount(t *testing.T) {
	for n := 2; n <= 6; n++ {
		for w := 1; w <= n; w++ {
			masks := Bitmasks(n, w)
			require.Equal(t, int(binomial(n, w)), len(masks))
			for _, m := range masks {
				require.Equal(t, w, popcount32(m))
				require.Less(t, m, uint32(1)<<uint(n))
			}
		}
	}
}

func TestReferencePatternCoversEveryBitmaskExactlyOnce(t *testing.T) {
	for n := 3; n <= 6; n++ {
		for tt := 2; tt < n; tt++ {
			pat := ReferencePattern(tt, n)
			seen := make(map[uint32]bool)
			total := 0
			for i := 0; i < tt; i++ {
				for _, b := range pat[party.ID(i)] {
					require.False(t, seen[b], "bitmask %d claimed twice", b)
					seen[b] = true
					total++
				}
			}
			require.Equal(t, len(Bitmasks(n, n-tt+1)), total)
		}
	}
}

func TestPermuteIsBitCountPreserving(t *testing.T) {
	pat := ReferencePattern(2, 4)
	active := party.IDSlice{1, 3}
	permuted := Permute(pat, active, 4)

	total := 0
	for _, masks := range permuted {
		for _, b := range masks {
			total += popcount32(b)
		}
	}
	refTotal := 0
	for _, masks := range pat {
		for _, b := range masks {
			refTotal += popcount32(b)
		}
	}
	require.Equal(t, refTotal, total)
}

func TestLookupRadiiAndIterationsAreSane(t *testing.T) {
	for n := 2; n <= 6; n++ {
		for tt := 2; tt <= n; tt++ {
			entry, err := Lookup(tt, n, 44)
			require.NoError(t, err)
			require.Greater(t, entry.R, 0.0)
			require.Greater(t, entry.RPrime, entry.R, "(%d,%d): r' must exceed r", tt, n)
			require.GreaterOrEqual(t, entry.KIter, 2)
			require.LessOrEqual(t, entry.KIter, 100)
		}
	}
}

func TestSecurityLevelAlias(t *testing.T) {
	lvl, err := SecurityLevelAlias(128)
	require.NoError(t, err)
	require.Equal(t, 44, lvl)

	_, err = SecurityLevelAlias(0)
	require.ErrorIs(t, err, ErrUnsupportedLevel)
}

func popcount32(v uint32) int {
	n := 0
	for v != 0 {
		n += int(v & 1)
		v >>= 1
	}
	return n
}

func binomial(n, k int) int64 {
	if k < 0 || k > n {
		return 0
	}
	var res int64 = 1
	for i := 0; i < k; i++ {
		res = res * int64(n-i) / int64(i+1)
	}
	return res
}
