package dkg

import (
	"github.com/btc-vision/threshold-mldsa/pkg/mldsa"
	"github.com/btc-vision/threshold-mldsa/pkg/party"
	"github.com/btc-vision/threshold-mldsa/pkg/ring"
	"github.com/btc-vision/threshold-mldsa/threshold/dealer"
)

// Finalize sums every party's broadcast R_j into t = A*s1+s2, splits it
// via Power2Round, and assembles the group public key and this party's
// ThresholdKeyShare. Every honest party, given the same rjByParty and
// the same shares it derived in Phase2Finalize, computes byte-identical
// pk, rho, and tr — spec.md §8's DKG-equivalence property.
func Finalize(selfID party.ID, t, n int, p mldsa.Params, rho [32]byte, shares map[uint32]dealer.Share, rjByParty map[party.ID]ring.Vec) (*mldsa.PublicKey, *dealer.ThresholdKeyShare, error) {
	tAll := ring.NewVec(p.K)
	for _, rj := range rjByParty {
		tAll = ring.AddVec(tAll, rj)
	}
	t1, _ := ring.Power2RoundVec(tAll)

	pk := &mldsa.PublicKey{Params: p, Rho: rho, T1: t1}
	tr, err := mldsa.TrOf(pk)
	if err != nil {
		return nil, nil, err
	}

	share := &dealer.ThresholdKeyShare{
		Params: p,
		T:      t,
		N:      n,
		ID:     selfID,
		Rho:    rho,
		Tr:     tr,
		T1:     t1,
		Shares: shares,
	}
	return pk, share, nil
}
