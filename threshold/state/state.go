// Package state defines the destroyable round/phase state objects the
// threshold signing and DKG protocols thread between steps. Each type
// owns sensitive material exclusively and exposes a one-shot Destroy
// that zeroes every owned buffer and poisons further access.
package state

import (
	"errors"

	"github.com/btc-vision/threshold-mldsa/pkg/party"
	"github.com/btc-vision/threshold-mldsa/pkg/ring"
)

// ErrDestroyed is returned by any accessor called on a state after
// Destroy; it is a fatal error for the caller, not a retryable one.
var ErrDestroyed = errors.New("state: accessed after destroy")

// destroyable tracks whether a state has been wiped. Embedding this
// rather than duplicating the poison flag keeps Destroy's "set once,
// never clear" invariant in one place.
type destroyable struct {
	poisoned bool
}

func (d *destroyable) checkAlive() error {
	if d.poisoned {
		return ErrDestroyed
	}
	return nil
}

func (d *destroyable) poison() {
	d.poisoned = true
}

// Round1State holds a signer's hyperball draws and the commitment it
// packed from them, from Round1 until Round3 (Round2 reads the packed
// commitment, Round3 the draws).
type Round1State struct {
	destroyable
	stw              [][]float64
	packedCommitment []byte
}

// NewRound1State takes ownership of stw and packedCommitment.
func NewRound1State(stw [][]float64, packedCommitment []byte) *Round1State {
	return &Round1State{stw: stw, packedCommitment: packedCommitment}
}

// Stw returns the per-iteration hyperball draws.
func (s *Round1State) Stw() ([][]float64, error) {
	if err := s.checkAlive(); err != nil {
		return nil, err
	}
	return s.stw, nil
}

// PackedCommitment returns the packed w commitment.
func (s *Round1State) PackedCommitment() ([]byte, error) {
	if err := s.checkAlive(); err != nil {
		return nil, err
	}
	return s.packedCommitment, nil
}

// Destroy zeroes stw and packedCommitment and poisons the state.
func (s *Round1State) Destroy() {
	for _, v := range s.stw {
		for i := range v {
			v[i] = 0
		}
	}
	for i := range s.packedCommitment {
		s.packedCommitment[i] = 0
	}
	s.poison()
}

// Round2State holds the round-1 commitment hashes (for round-3
// binding), the derived mu, and the active-set bookkeeping, from Round2
// until Round3.
type Round2State struct {
	destroyable
	round1Hashes map[party.ID][]byte
	mu           [64]byte
	activeMask   uint32
	activeIDs    party.IDSlice
}

// NewRound2State takes ownership of round1Hashes.
func NewRound2State(round1Hashes map[party.ID][]byte, mu [64]byte, activeMask uint32, activeIDs party.IDSlice) *Round2State {
	return &Round2State{round1Hashes: round1Hashes, mu: mu, activeMask: activeMask, activeIDs: activeIDs}
}

// Round1Hashes returns the stored commitment hashes keyed by party.
func (s *Round2State) Round1Hashes() (map[party.ID][]byte, error) {
	if err := s.checkAlive(); err != nil {
		return nil, err
	}
	return s.round1Hashes, nil
}

// Mu returns the derived message digest.
func (s *Round2State) Mu() ([64]byte, error) {
	var zero [64]byte
	if err := s.checkAlive(); err != nil {
		return zero, err
	}
	return s.mu, nil
}

// ActiveMask returns the active-set bitmask.
func (s *Round2State) ActiveMask() (uint32, error) {
	if err := s.checkAlive(); err != nil {
		return 0, err
	}
	return s.activeMask, nil
}

// ActiveIDs returns the sorted active party list.
func (s *Round2State) ActiveIDs() (party.IDSlice, error) {
	if err := s.checkAlive(); err != nil {
		return nil, err
	}
	return s.activeIDs, nil
}

// Destroy zeroes every stored commitment hash and mu, and poisons the
// state.
func (s *Round2State) Destroy() {
	for _, h := range s.round1Hashes {
		for i := range h {
			h[i] = 0
		}
	}
	for i := range s.mu {
		s.mu[i] = 0
	}
	s.poison()
}

// Phase1State holds a DKG participant's rho and per-bitmask seed
// openings between Phase1 and Phase2.
type Phase1State struct {
	destroyable
	rho          [32]byte
	bitmaskSeeds map[uint32][32]byte
}

// NewPhase1State takes ownership of rho and bitmaskSeeds.
func NewPhase1State(rho [32]byte, bitmaskSeeds map[uint32][32]byte) *Phase1State {
	return &Phase1State{rho: rho, bitmaskSeeds: bitmaskSeeds}
}

// Rho returns the participant's drawn rho share.
func (s *Phase1State) Rho() ([32]byte, error) {
	var zero [32]byte
	if err := s.checkAlive(); err != nil {
		return zero, err
	}
	return s.rho, nil
}

// BitmaskSeeds returns the per-bitmask seed openings this party owes a
// reveal for.
func (s *Phase1State) BitmaskSeeds() (map[uint32][32]byte, error) {
	if err := s.checkAlive(); err != nil {
		return nil, err
	}
	return s.bitmaskSeeds, nil
}

// Destroy zeroes rho and every bitmask seed, and poisons the state.
func (s *Phase1State) Destroy() {
	for i := range s.rho {
		s.rho[i] = 0
	}
	for b, seed := range s.bitmaskSeeds {
		for i := range seed {
			seed[i] = 0
		}
		s.bitmaskSeeds[b] = seed
	}
	s.poison()
}

// Phase2State holds a DKG participant's combined per-bitmask seeds and
// the mask pieces it must send to (or retains from) the aggregation
// step, between Phase2Finalize and Phase4.
type Phase2State struct {
	destroyable
	combinedSeeds map[uint32][32]byte
	maskPieces    map[party.ID]ring.Vec
	ownMaskPieces ring.Vec
}

// NewPhase2State takes ownership of combinedSeeds, maskPieces, and
// ownMaskPieces.
func NewPhase2State(combinedSeeds map[uint32][32]byte, maskPieces map[party.ID]ring.Vec, ownMaskPieces ring.Vec) *Phase2State {
	return &Phase2State{combinedSeeds: combinedSeeds, maskPieces: maskPieces, ownMaskPieces: ownMaskPieces}
}

// CombinedSeeds returns the per-bitmask combined secret seeds S_b this
// party derived as a holder.
func (s *Phase2State) CombinedSeeds() (map[uint32][32]byte, error) {
	if err := s.checkAlive(); err != nil {
		return nil, err
	}
	return s.combinedSeeds, nil
}

// MaskPieces returns the per-recipient mask pieces this party must send
// in its generator role.
func (s *Phase2State) MaskPieces() (map[party.ID]ring.Vec, error) {
	if err := s.checkAlive(); err != nil {
		return nil, err
	}
	return s.maskPieces, nil
}

// OwnMaskPieces returns the mask pieces this party retains locally.
func (s *Phase2State) OwnMaskPieces() (ring.Vec, error) {
	if err := s.checkAlive(); err != nil {
		return nil, err
	}
	return s.ownMaskPieces, nil
}

// Destroy zeroes every combined seed and mask-piece vector, and
// poisons the state.
func (s *Phase2State) Destroy() {
	for b, seed := range s.combinedSeeds {
		for i := range seed {
			seed[i] = 0
		}
		s.combinedSeeds[b] = seed
	}
	for _, v := range s.maskPieces {
		ring.ZeroVec(v)
	}
	ring.ZeroVec(s.ownMaskPieces)
	s.poison()
}
