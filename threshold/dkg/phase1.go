package dkg

import (
	"crypto/rand"

	"github.com/cronokirby/saferith"
	"golang.org/x/crypto/sha3"

	"github.com/btc-vision/threshold-mldsa/pkg/party"
	"github.com/btc-vision/threshold-mldsa/threshold/state"
)

// tag bytes for the two commitment families spec.md §6 requires to be
// domain-separated: a rho commitment and a bitmask-seed commitment must
// never collide even if their payloads happened to coincide.
const (
	tagRho byte = 0x01
	tagBM  byte = 0x02
)

// Phase1Broadcast is the session-bound commitment set one party
// publishes to every other party at the start of a DKG run.
type Phase1Broadcast struct {
	SessionID      [32]byte
	RhoCommit      [32]byte
	BitmaskCommits map[uint32][32]byte
}

// Phase1 draws this party's rho share and, for every bitmask it holds,
// a 32-byte seed opening, and commits to all of them. The returned
// Phase1State must be kept until Phase2Finalize (or destroyed if the
// run is abandoned).
//
// sessionID must be 32 bytes and unique per DKG run: spec.md §8's
// session-isolation property depends on commitments from one session
// never verifying against broadcasts from another.
func Phase1(sessionID [32]byte, selfID party.ID, holders map[uint32]party.IDSlice) (Phase1Broadcast, *state.Phase1State, error) {
	var rho [32]byte
	if _, err := rand.Read(rho[:]); err != nil {
		return Phase1Broadcast{}, nil, err
	}

	seeds := make(map[uint32][32]byte)
	commits := make(map[uint32][32]byte)
	for b, hs := range holders {
		if !party.Contains(hs, selfID) {
			continue
		}
		var seed [32]byte
		if _, err := rand.Read(seed[:]); err != nil {
			return Phase1Broadcast{}, nil, err
		}
		seeds[b] = seed
		commits[b] = bitmaskCommit(sessionID, selfID, b, seed)
	}

	broadcast := Phase1Broadcast{
		SessionID:      sessionID,
		RhoCommit:      rhoCommit(sessionID, selfID, rho),
		BitmaskCommits: commits,
	}
	return broadcast, state.NewPhase1State(rho, seeds), nil
}

func rhoCommit(sessionID [32]byte, id party.ID, rho [32]byte) [32]byte {
	return commitHash(sessionID, tagRho, id, nil, rho[:])
}

func bitmaskCommit(sessionID [32]byte, id party.ID, b uint32, seed [32]byte) [32]byte {
	return commitHash(sessionID, tagBM, id, bitmaskBytes(b), seed[:])
}

// bitmaskBytes encodes a bitmask index as a constant-width 4-byte big
// endian value via saferith.Nat, the same Nat-from-uint64 construction
// the teacher's sign/round2.go uses before folding a bounded integer
// into a transcript hash. The fixed width matters here: commitHash's
// input framing has no length prefix between extra and payload, so two
// different (tag, extra) pairs must never serialize to the same bytes.
func bitmaskBytes(b uint32) []byte {
	nat := new(saferith.Nat).SetUint64(uint64(b))
	buf := make([]byte, 4)
	nat.FillBytes(buf)
	return buf
}

// commitHash computes SHAKE256(sessionId || tag || partyId || extra || payload, 32).
func commitHash(sessionID [32]byte, tag byte, id party.ID, extra, payload []byte) [32]byte {
	var out [32]byte
	h := sha3.NewShake256()
	h.Write(sessionID[:])
	h.Write([]byte{tag})
	h.Write([]byte{byte(id)})
	h.Write(extra)
	h.Write(payload)
	_, _ = h.Read(out[:])
	return out
}
