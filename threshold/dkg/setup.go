// Package dkg implements the four-phase distributed key generation
// protocol (spec.md §4.9): Phase1 commits to per-party entropy, Phase2
// reveals it under those commitments, Phase2Finalize derives the
// per-bitmask shared secrets and splits each generator's contribution
// into additive mask pieces, and Phase4/Finalize aggregate those pieces
// into the same (public key, per-party ThresholdKeyShare) distribution
// threshold/dealer's trusted dealer produces — without any single party
// ever holding the full secret. As in threshold/sign, each phase is a
// plain function call; the calling harness is responsible for routing
// broadcasts and private messages between parties.
package dkg

import (
	"sort"

	"github.com/btc-vision/threshold-mldsa/pkg/party"
	"github.com/btc-vision/threshold-mldsa/threshold/params"
)

// Setup computes the deterministic, network-free preamble every party
// derives identically from (t, n): the bitmask enumeration,
// the holder set of each bitmask, and a generator assignment giving
// each bitmask to the holder carrying the smallest load so far (ties
// broken by ascending party id), balancing how many bitmasks each
// party ends up generating.
func Setup(t, n int) (masks []uint32, holders map[uint32]party.IDSlice, generators map[uint32]party.ID) {
	weight := n - t + 1
	masks = params.Bitmasks(n, weight)
	holders = make(map[uint32]party.IDSlice, len(masks))
	generators = make(map[uint32]party.ID, len(masks))

	load := make(map[party.ID]int, n)
	for _, b := range masks {
		hs := params.HoldersOf(b, n)
		holders[b] = hs

		candidates := append(party.IDSlice(nil), hs...)
		sort.Sort(candidates)

		best := candidates[0]
		for _, id := range candidates[1:] {
			if load[id] < load[best] {
				best = id
			}
		}
		generators[b] = best
		load[best]++
	}
	return masks, holders, generators
}
