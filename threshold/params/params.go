// Package params holds the threshold-signing constant tables: the
// per-(T,N,level) Fiat-Shamir transcript count and norm-rejection radii,
// the security-level alias mapping, bitmask enumeration via Gosper's
// hack, and the share-recovery pattern table threshold/sign and
// threshold/dealer both consume.
package params

import (
	"errors"
	"sort"

	"github.com/btc-vision/threshold-mldsa/pkg/mldsa"
	"github.com/btc-vision/threshold-mldsa/pkg/party"
)

// Nu stretches the L-block of a hyperball draw relative to the K-block.
const Nu = 3.0

// ErrInvalidThreshold is returned when (T,N) falls outside 2<=T<=N<=6.
var ErrInvalidThreshold = errors.New("params: threshold out of range, require 2<=T<=N<=6")

// ErrUnsupportedLevel mirrors mldsa.ErrUnsupportedLevel for the
// {44,65,87,128,192,256} alias set this package accepts.
var ErrUnsupportedLevel = errors.New("params: unsupported security level")

// Entry is one (K_iter, r, r') row of the threshold parameter table.
type Entry struct {
	KIter  int
	R      float64
	RPrime float64
}

// Validate checks 2<=T<=N<=6 and returns the mldsa.Params for level.
func Validate(t, n, level int) (mldsa.Params, error) {
	if t < 2 || n < t || n > 6 {
		return mldsa.Params{}, ErrInvalidThreshold
	}
	p, err := mldsa.ByLevel(level)
	if err != nil {
		return mldsa.Params{}, ErrUnsupportedLevel
	}
	return p, nil
}

// Lookup returns the threshold parameter row for (t,n,level) from the
// embedded table below. Entries for every level come from the same
// radius-scaling formula (see derivedTable); the module treats the
// level-44 rows as authoritative, and the 65/87 rows, scaled by each
// level's (K,L,gamma1), are — per the module's open-question decision —
// NOT independently validated against an external reference and
// should be re-derived before production use at those levels.
func Lookup(t, n, level int) (Entry, error) {
	if _, err := Validate(t, n, level); err != nil {
		return Entry{}, err
	}
	entry, ok := derivedTable[levelThreshold{Level: level, T: t}]
	if !ok {
		return Entry{}, ErrInvalidThreshold
	}
	return entry, nil
}

// levelThreshold keys the embedded (K_iter, r, r') table. N does not
// appear: the radius-scaling formula below r and r' (and the
// per-transcript acceptance probability behind K_iter) were derived
// from only the security level's (K,L,gamma1,beta) and the threshold T
// itself, so the row is identical for every N a given T appears under
// (e.g. (T=2,N=3) and (T=2,N=4) share one row) — confirmed against the
// generating formula in the comment below before the table was frozen.
type levelThreshold struct {
	Level int
	T     int
}

// derivedTable is the frozen (K_iter, r, r') table spec.md §4.6/§9
// requires to be embedded verbatim rather than recomputed at runtime.
// It was produced once by evaluating the formula below for every
// (level, T) pair in range and transcribing the result; nothing in this
// package recomputes it at runtime.
//
// Generating formula (for reference, not executed here):
//
//	dim := 256 * (K + L)
//	r := sqrt(dim/2) * (gamma1-beta) / (5.5 * sqrt(T) * Nu)
//	rPrime := r / pow(0.7, 1/dim)
//	perIterProb := pow(0.7, T)
//	kIter := ceil(log(0.001) / log(1-perIterProb)), clamped to [2,100]
//
// r bounds the weighted L2 norm (L-block divided by nu^2) a single
// party's own masked response must fall within to be accepted rather
// than zeroed. It is sized from the combined signature's own bound:
// summing T accepted per-party L-block contributions, each with
// weighted energy concentrated near r^2 split proportionally across
// the L-block's share of the total dimension, gives a per-coefficient
// standard deviation of about nu*r/sqrt(2*256*L); r is chosen so 5.5
// sigma of that combined spread still clears gamma1-beta. r' is fixed
// just above r: at dimensions in the thousands, the probability a point
// drawn uniformly inside a ball of radius r' lands inside the smaller
// ball of radius r concentrates sharply as (r/r')^dim, so r' only needs
// to clear r by an O(1/dim) margin for a reasonable per-party acceptance
// probability — not the far larger gap an earlier draft of this table
// used, which made single-party acceptance probability underflow to
// zero at these dimensions.
//
// K_iter is chosen, assuming independent per-party acceptance, so that
// at least one of the K_iter parallel transcripts has every active
// party accept with ~99.9% probability, clamped to the spec's [2,100]
// range. A T close to N may fall short of 99.9% within that cap; the
// caller's outer per-attempt nonce retry (spec.md §7's bounded retry
// loop) covers the remainder.
var derivedTable = map[levelThreshold]Entry{
	{Level: 44, T: 2}: {KIter: 11, R: 179639.74922618296, RPrime: 179671.0375939617},
	{Level: 44, T: 3}: {KIter: 17, R: 146675.24104189253, RPrime: 146700.78788720668},
	{Level: 44, T: 4}: {KIter: 26, R: 127024.48484848485, RPrime: 127046.60906551346},
	{Level: 44, T: 5}: {KIter: 38, R: 113614.15317124168, RPrime: 113633.94167253164},
	{Level: 44, T: 6}: {KIter: 56, R: 103715.05757289364, RPrime: 103733.1219204532},

	{Level: 65, T: 2}: {KIter: 11, R: 842771.6458797295, RPrime: 842878.3982117915},
	{Level: 65, T: 3}: {KIter: 17, R: 688120.1673636315, RPrime: 688207.3302777662},
	{Level: 65, T: 4}: {KIter: 26, R: 595929.5457933045, RPrime: 596005.031091213},
	{Level: 65, T: 5}: {KIter: 38, R: 533015.5896777611, RPrime: 533083.1057807312},
	{Level: 65, T: 6}: {KIter: 56, R: 486574.43661404593, RPrime: 486636.0701016985},

	{Level: 87, T: 2}: {KIter: 11, R: 984287.9682981085, RPrime: 984379.3972462511},
	{Level: 87, T: 3}: {KIter: 17, R: 803667.7607637037, RPrime: 803742.41218726},
	{Level: 87, T: 4}: {KIter: 26, R: 695996.6970239222, RPrime: 696061.3470531506},
	{Level: 87, T: 5}: {KIter: 38, R: 622518.3706643262, RPrime: 622576.195408367},
	{Level: 87, T: 6}: {KIter: 56, R: 568278.923457023, RPrime: 568331.7099848448},
}

// SecurityLevelAlias maps the threshold API's accepted security-level
// values to the underlying ML-DSA level number.
func SecurityLevelAlias(level int) (int, error) {
	switch level {
	case 44, 128:
		return 44, nil
	case 65, 192:
		return 65, nil
	case 87, 256:
		return 87, nil
	default:
		return 0, ErrUnsupportedLevel
	}
}

// Bitmasks enumerates every N-bit mask with exactly weight bits set, in
// ascending numeric order, via Gosper's hack starting at the smallest
// such mask and stopping once the weight changes (i.e. once bit N is
// reached).
func Bitmasks(n, weight int) []uint32 {
	if weight <= 0 || weight > n {
		return nil
	}
	var out []uint32
	v := uint32(1)<<uint(weight) - 1
	limit := uint32(1) << uint(n)
	for v < limit {
		out = append(out, v)
		c := v & -v
		r := v + c
		v = (((r ^ v) >> 2) / c) | r
	}
	return out
}

// HoldersOf returns the party IDs whose bit is set in bitmask b.
func HoldersOf(b uint32, n int) party.IDSlice {
	var out party.IDSlice
	for i := 0; i < n; i++ {
		if b&(1<<uint(i)) != 0 {
			out = append(out, party.ID(i))
		}
	}
	return out
}

// SharePattern maps, for one party position, the list of bitmasks it
// must sum (in the NTT domain) to recover its slice of the combined
// active share.
type SharePattern map[party.ID][]uint32

// tn keys the embedded share-recovery pattern table by (T,N).
type tn struct {
	T int
	N int
}

// referencePatterns is the frozen (T,N) share-recovery pattern table
// spec.md §4.6/§9 requires to be embedded verbatim ("do not attempt to
// re-derive at runtime"; "the table fits in roughly 10 lines per
// (T,N)"; "the table for N<=6 is small (ten (T,N) entries)" — exactly
// the ten T<N pairs below). Each row is the canonical pattern for the
// active set {0,...,T-1}: the Ito-Saito-Nishizeki/CNF construction's
// natural reconstruction rule, assigning every weight-(N-T+1) bitmask
// to the smallest-indexed active party it intersects. Since any
// T-sized set cannot be a subset of any (T-1)-sized complement, every
// bitmask is claimed by exactly one active party, and the resulting
// partition recovers the full additive secret. No external reference
// table for these exact constants exists in the retrieval pack (see
// DESIGN.md), so this table was produced once by running that
// construction and transcribing its output; ReferencePattern below only
// looks the result up, it does not recompute it.
var referencePatterns = map[tn]SharePattern{
	{T: 2, N: 3}: {0: {3, 5}, 1: {6}},
	{T: 2, N: 4}: {0: {7, 11, 13}, 1: {14}},
	{T: 3, N: 4}: {0: {3, 5, 9}, 1: {6, 10}, 2: {12}},
	{T: 2, N: 5}: {0: {15, 23, 27, 29}, 1: {30}},
	{T: 3, N: 5}: {0: {7, 11, 13, 19, 21, 25}, 1: {14, 22, 26}, 2: {28}},
	{T: 4, N: 5}: {0: {3, 5, 9, 17}, 1: {6, 10, 18}, 2: {12, 20}, 3: {24}},
	{T: 2, N: 6}: {0: {31, 47, 55, 59, 61}, 1: {62}},
	{T: 3, N: 6}: {0: {15, 23, 27, 29, 39, 43, 45, 51, 53, 57}, 1: {30, 46, 54, 58}, 2: {60}},
	{T: 4, N: 6}: {0: {7, 11, 13, 19, 21, 25, 35, 37, 41, 49}, 1: {14, 22, 26, 38, 42, 50}, 2: {28, 44, 52}, 3: {56}},
	{T: 5, N: 6}: {0: {3, 5, 9, 17, 33}, 1: {6, 10, 18, 34}, 2: {12, 20, 36}, 3: {24, 40}, 4: {48}},
}

// ReferencePattern returns the canonical (T,N) share-recovery pattern
// for the active set {0,...,T-1} from the embedded table above. T==N is
// the degenerate case where each party already holds its sole share.
func ReferencePattern(t, n int) SharePattern {
	if t == n {
		return nil
	}
	stored := referencePatterns[tn{T: t, N: n}]
	pat := make(SharePattern, len(stored))
	for id, masks := range stored {
		pat[id] = append([]uint32(nil), masks...)
	}
	return pat
}

// Permute translates the reference pattern (built for active set
// {0,...,T-1}) onto an arbitrary active set, by mapping bit position i
// of the reference (i in [0,T)) to activeIDs[i] in ascending order, and
// the remaining bit positions [T,N) onto the non-active IDs in
// ascending order.
func Permute(pat SharePattern, activeIDs party.IDSlice, n int) SharePattern {
	sorted := append(party.IDSlice(nil), activeIDs...)
	sort.Sort(sorted)
	t := len(sorted)

	nonActive := make(party.IDSlice, 0, n-t)
	isActive := make(map[party.ID]bool, t)
	for _, id := range sorted {
		isActive[id] = true
	}
	for i := 0; i < n; i++ {
		if !isActive[party.ID(i)] {
			nonActive = append(nonActive, party.ID(i))
		}
	}

	// posMap[refPos] = actual party ID occupying that reference position.
	posMap := make([]party.ID, n)
	copy(posMap, sorted)
	copy(posMap[t:], nonActive)

	out := make(SharePattern, t)
	for refPos, masks := range pat {
		actualMasks := make([]uint32, len(masks))
		for mi, b := range masks {
			actualMasks[mi] = remapBitmask(b, posMap)
		}
		out[posMap[refPos]] = actualMasks
	}
	return out
}

// remapBitmask rewrites bitmask b (expressed over reference positions)
// into the bitmask over actual party IDs given posMap[refPos]=actualID.
func remapBitmask(b uint32, posMap []party.ID) uint32 {
	var out uint32
	for refPos := 0; refPos < len(posMap); refPos++ {
		if b&(1<<uint(refPos)) != 0 {
			out |= 1 << uint(posMap[refPos])
		}
	}
	return out
}
