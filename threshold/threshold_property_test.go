package threshold_test

import (
	"testing/quick"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/btc-vision/threshold-mldsa/pkg/mldsa"
	"github.com/btc-vision/threshold-mldsa/pkg/party"
	"github.com/btc-vision/threshold-mldsa/pkg/ring"
	"github.com/btc-vision/threshold-mldsa/threshold/dealer"
	"github.com/btc-vision/threshold-mldsa/threshold/dkg"
	"github.com/btc-vision/threshold-mldsa/threshold/params"
	"github.com/btc-vision/threshold-mldsa/threshold/sign"
	"github.com/btc-vision/threshold-mldsa/threshold/state"
)

const propertyLevel = 44

func byShareID(shares []*dealer.ThresholdKeyShare, id party.ID) *dealer.ThresholdKeyShare {
	for _, sh := range shares {
		if sh.ID == id {
			return sh
		}
	}
	return nil
}

// runSignAttempt drives round1->round2->round3->combine for activeIDs,
// retrying with a fresh nonce up to 25 times, the same bound
// cmd/thresholdcli and sign_test.go use for the rejection-sampling tail.
func runSignAttempt(shares []*dealer.ThresholdKeyShare, activeIDs party.IDSlice, entry params.Entry, ctx, msg []byte) ([]byte, error) {
	const maxAttempts = 25
	var lastErr error
	for attempt := uint16(0); attempt < maxAttempts; attempt++ {
		round1States := make(map[party.ID]*state.Round1State, len(activeIDs))
		round1Hashes := make(map[party.ID][]byte, len(activeIDs))
		for _, id := range activeIDs {
			var rnd [32]byte
			hash, st1, err := sign.Round1(byShareID(shares, id), id, entry, attempt, rnd)
			if err != nil {
				return nil, err
			}
			round1States[id] = st1
			round1Hashes[id] = hash
		}

		round2States := make(map[party.ID]*state.Round2State, len(activeIDs))
		commitments := make(map[party.ID][]byte, len(activeIDs))
		for _, id := range activeIDs {
			packed, st2, err := sign.Round2(byShareID(shares, id), activeIDs, ctx, msg, round1Hashes, round1States[id])
			if err != nil {
				return nil, err
			}
			round2States[id] = st2
			commitments[id] = packed
		}

		responses := make(map[party.ID][]byte, len(activeIDs))
		failed := false
		for _, id := range activeIDs {
			resp, err := sign.Round3(byShareID(shares, id), activeIDs, commitments, entry, round1States[id], round2States[id])
			if err != nil {
				failed = true
				break
			}
			responses[id] = resp
		}
		for _, id := range activeIDs {
			round1States[id].Destroy()
			round2States[id].Destroy()
		}
		if failed {
			continue
		}

		pk := &mldsa.PublicKey{Params: shares[0].Params, Rho: shares[0].Rho, T1: shares[0].T1}
		sigBytes, err := sign.Combine(pk, ctx, msg, entry.KIter, commitments, responses)
		if err == nil {
			return sigBytes, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// runDKGRoundTrip drives a full four-phase DKG session and returns the
// resulting group public key and per-party shares.
func runDKGRoundTrip(sessionID [32]byte, tt, n, level int) (*mldsa.PublicKey, []*dealer.ThresholdKeyShare, error) {
	p, err := params.Validate(tt, n, level)
	if err != nil {
		return nil, nil, err
	}

	masks, holders, generators := dkg.Setup(tt, n)

	broadcasts := make(map[party.ID]dkg.Phase1Broadcast, n)
	st1s := make(map[party.ID]*state.Phase1State, n)
	for i := 0; i < n; i++ {
		id := party.ID(i)
		bc, st1, err := dkg.Phase1(sessionID, id, holders)
		if err != nil {
			return nil, nil, err
		}
		broadcasts[id] = bc
		st1s[id] = st1
	}

	reveals := make(map[party.ID]dkg.Phase2Reveal, n)
	for i := 0; i < n; i++ {
		id := party.ID(i)
		rv, err := dkg.Phase2(st1s[id])
		if err != nil {
			return nil, nil, err
		}
		reveals[id] = rv
	}

	rhos := make(map[party.ID][32]byte, n)
	sharesByParty := make(map[party.ID]map[uint32]dealer.Share, n)
	st2s := make(map[party.ID]*state.Phase2State, n)
	for i := 0; i < n; i++ {
		id := party.ID(i)
		rho, shares, st2, err := dkg.Phase2Finalize(sessionID, id, tt, n, p, masks, holders, generators, broadcasts, reveals)
		if err != nil {
			return nil, nil, err
		}
		rhos[id] = rho
		sharesByParty[id] = shares
		st2s[id] = st2
	}

	rjVecs := make(map[party.ID]ring.Vec, n)
	for i := 0; i < n; i++ {
		id := party.ID(i)
		received := make(map[party.ID]ring.Vec)
		for g := 0; g < n; g++ {
			gid := party.ID(g)
			if gid == id {
				continue
			}
			pieces, err := st2s[gid].MaskPieces()
			if err != nil {
				return nil, nil, err
			}
			if piece, ok := pieces[id]; ok {
				received[gid] = piece
			}
		}
		rj, err := dkg.Phase4(st2s[id], received)
		if err != nil {
			return nil, nil, err
		}
		rjVecs[id] = rj
	}

	pks := make([]*mldsa.PublicKey, n)
	shares := make([]*dealer.ThresholdKeyShare, n)
	for i := 0; i < n; i++ {
		id := party.ID(i)
		pk, share, err := dkg.Finalize(id, tt, n, p, rhos[id], sharesByParty[id], rjVecs)
		if err != nil {
			return nil, nil, err
		}
		pks[i] = pk
		shares[i] = share
	}

	for i := 0; i < n; i++ {
		st1s[party.ID(i)].Destroy()
		st2s[party.ID(i)].Destroy()
	}

	return pks[0], shares, nil
}

var _ = Describe("Threshold signing", func() {
	It("produces a verifiable signature for every quorum of a trusted-dealer group", func() {
		var seed [32]byte
		seed[0] = 0x42

		pk, shares, err := dealer.GenerateShares(2, 3, propertyLevel, seed)
		Expect(err).NotTo(HaveOccurred())

		entry, err := params.Lookup(2, 3, propertyLevel)
		Expect(err).NotTo(HaveOccurred())

		ctx := []byte("ginkgo-suite")
		msg := []byte("property-tested threshold message")

		for _, activeIDs := range []party.IDSlice{{0, 1}, {0, 2}, {1, 2}} {
			By("signing with active set " + activeIDsLabel(activeIDs))
			sigBytes, err := runSignAttempt(shares, activeIDs, entry, ctx, msg)
			Expect(err).NotTo(HaveOccurred())

			sig, err := mldsa.DecodeSignature(pk.Params, sigBytes)
			Expect(err).NotTo(HaveOccurred())
			Expect(mldsa.Verify(pk, ctx, msg, sig)).To(BeTrue())
		}
	})

	It("holds for a spread of (T,N) configurations", func() {
		property := func(tRaw, spread uint8) bool {
			tt := int(tRaw%4) + 2     // [2,5]
			n := tt + int(spread%3)   // n in [tt, tt+2], capped at 6
			if n > 6 {
				n = 6
			}

			var seed [32]byte
			seed[0] = byte(tt)
			seed[1] = byte(n)

			pk, shares, err := dealer.GenerateShares(tt, n, propertyLevel, seed)
			if err != nil {
				return false
			}
			entry, err := params.Lookup(tt, n, propertyLevel)
			if err != nil {
				return false
			}

			activeIDs := make(party.IDSlice, tt)
			for i := 0; i < tt; i++ {
				activeIDs[i] = party.ID(i)
			}

			ctx := []byte("quick-property")
			msg := []byte("deterministic message for quick.Check")
			sigBytes, err := runSignAttempt(shares, activeIDs, entry, ctx, msg)
			if err != nil {
				return false
			}
			sig, err := mldsa.DecodeSignature(pk.Params, sigBytes)
			if err != nil {
				return false
			}
			return mldsa.Verify(pk, ctx, msg, sig)
		}

		Expect(quick.Check(property, &quick.Config{MaxCount: 6})).To(Succeed())
	})
})

var _ = Describe("Distributed key generation", func() {
	It("produces a key that signs and verifies identically to a trusted-dealer one", func() {
		var sessionID [32]byte
		sessionID[0] = 0x99

		pk, shares, err := runDKGRoundTrip(sessionID, 2, 3, propertyLevel)
		Expect(err).NotTo(HaveOccurred())

		entry, err := params.Lookup(2, 3, propertyLevel)
		Expect(err).NotTo(HaveOccurred())

		ctx := []byte("dkg-suite")
		msg := []byte("a message signed by a DKG-derived 2-of-3 group")
		activeIDs := party.IDSlice{0, 2}

		sigBytes, err := runSignAttempt(shares, activeIDs, entry, ctx, msg)
		Expect(err).NotTo(HaveOccurred())

		sig, err := mldsa.DecodeSignature(pk.Params, sigBytes)
		Expect(err).NotTo(HaveOccurred())
		Expect(mldsa.Verify(pk, ctx, msg, sig)).To(BeTrue())
	})
})

func activeIDsLabel(ids party.IDSlice) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += string(rune('0' + id))
	}
	return out
}
