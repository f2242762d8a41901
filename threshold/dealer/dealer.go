// Package dealer implements trusted-dealer threshold keygen: a single
// party with access to a seed derives a public key and a per-party
// ThresholdKeyShare, following the (N choose N-T+1) bitmask sharing
// scheme threshold/sign reconstructs shares from.
package dealer

import (
	"golang.org/x/crypto/sha3"

	"github.com/btc-vision/threshold-mldsa/pkg/encode"
	"github.com/btc-vision/threshold-mldsa/pkg/mldsa"
	"github.com/btc-vision/threshold-mldsa/pkg/party"
	"github.com/btc-vision/threshold-mldsa/pkg/ring"
	"github.com/btc-vision/threshold-mldsa/pkg/sample"
	"github.com/btc-vision/threshold-mldsa/threshold/params"
)

// Share is one bitmask's NTT-domain contribution to this party's active
// share, as recovered during threshold/sign's round3.
type Share struct {
	S1Hat ring.Vec
	S2Hat ring.Vec
}

// ThresholdKeyShare is one party's persistent, immutable-after-keygen
// share material.
type ThresholdKeyShare struct {
	Params mldsa.Params
	T, N   int
	ID     party.ID
	Rho    [32]byte
	Tr     [64]byte
	T1     ring.Vec
	Shares map[uint32]Share
}

// GenerateShares runs trusted-dealer keygen for a (T,N,level) group from
// a 32-byte seed, returning the group's public key and one
// ThresholdKeyShare per party. It mirrors pkg/mldsa.GenerateKey's
// seed-expansion and Power2Round steps but assembles the secret vectors
// as a sum over bitmask-indexed shares instead of one ExpandS draw.
func GenerateShares(t, n, level int, seed [32]byte) (*mldsa.PublicKey, []*ThresholdKeyShare, error) {
	p, err := params.Validate(t, n, level)
	if err != nil {
		return nil, nil, err
	}

	rho, err := deriveRho(seed, p.K, p.L)
	if err != nil {
		return nil, nil, err
	}
	a, err := sample.ExpandA(rho[:], p.K, p.L)
	if err != nil {
		return nil, nil, err
	}

	weight := n - t + 1
	masks := params.Bitmasks(n, weight)

	shares := make([]map[uint32]Share, n)
	for i := range shares {
		shares[i] = make(map[uint32]Share)
	}

	totalS1 := ring.NewVec(p.L)
	totalS2 := ring.NewVec(p.K)

	for _, b := range masks {
		shareSeed, err := deriveShareSeed(seed, b)
		if err != nil {
			return nil, nil, err
		}
		s1b, s2b, err := sample.ExpandS(shareSeed[:], p.Eta, p.K, p.L)
		if err != nil {
			return nil, nil, err
		}
		totalS1 = ring.AddVec(totalS1, s1b)
		totalS2 = ring.AddVec(totalS2, s2b)

		s1Hat := s1b.Clone()
		ring.NTTVec(s1Hat)
		s2Hat := s2b.Clone()
		ring.NTTVec(s2Hat)

		holders := params.HoldersOf(b, n)
		for _, h := range holders {
			shares[h][b] = Share{S1Hat: s1Hat, S2Hat: s2Hat}
		}
	}

	s1Hat := totalS1.Clone()
	ring.NTTVec(s1Hat)
	tHat := ring.MatrixMulNTT(a, p.K, p.L, s1Hat)
	tAll := tHat.Clone()
	ring.InvNTTVec(tAll)
	tAll = ring.AddVec(tAll, totalS2)
	t1, _ := ring.Power2RoundVec(tAll)

	pk := &mldsa.PublicKey{Params: p, Rho: rho, T1: t1}

	tr, err := trOf(pk)
	if err != nil {
		return nil, nil, err
	}

	out := make([]*ThresholdKeyShare, n)
	for i := 0; i < n; i++ {
		out[i] = &ThresholdKeyShare{
			Params: p,
			T:      t,
			N:      n,
			ID:     party.ID(i),
			Rho:    rho,
			Tr:     tr,
			T1:     t1,
			Shares: shares[i],
		}
	}
	return pk, out, nil
}

func deriveRho(seed [32]byte, k, l int) ([32]byte, error) {
	var rho [32]byte
	h := sha3.NewShake256()
	h.Write(seed[:])
	h.Write([]byte{byte(k), byte(l)})
	_, err := h.Read(rho[:])
	return rho, err
}

func deriveShareSeed(seed [32]byte, bitmask uint32) ([64]byte, error) {
	var out [64]byte
	h := sha3.NewShake256()
	h.Write(seed[:])
	h.Write([]byte{'s', 'h', 'a', 'r', 'e'})
	h.Write([]byte{byte(bitmask), byte(bitmask >> 8), byte(bitmask >> 16), byte(bitmask >> 24)})
	_, err := h.Read(out[:])
	return out, err
}

func trOf(pk *mldsa.PublicKey) ([64]byte, error) {
	var tr [64]byte
	h := sha3.NewShake256()
	h.Write(encode.PublicKey(pk.Rho, pk.T1))
	_, err := h.Read(tr[:])
	return tr, err
}
