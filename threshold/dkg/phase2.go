package dkg

import (
	"github.com/btc-vision/threshold-mldsa/threshold/state"
)

// Phase2Reveal is the opening one party sends after Phase1. Rho is
// broadcast to everyone; Seeds holds this party's opening for every
// bitmask it holds. Per spec.md §4.9 the routing layer — not this
// function — is responsible for only forwarding Seeds[b] to b's fellow
// holders, never to a non-holder of b.
type Phase2Reveal struct {
	Rho   [32]byte
	Seeds map[uint32][32]byte
}

// Phase2 opens the commitments made in Phase1.
func Phase2(st1 *state.Phase1State) (Phase2Reveal, error) {
	rho, err := st1.Rho()
	if err != nil {
		return Phase2Reveal{}, err
	}
	seeds, err := st1.BitmaskSeeds()
	if err != nil {
		return Phase2Reveal{}, err
	}
	return Phase2Reveal{Rho: rho, Seeds: seeds}, nil
}
