// Package config implements long-term, on-disk storage for one party's
// threshold key-share material: the security level, threshold, group
// member count, this party's id, the group's rho/tr, and the bitmask-
// indexed shares threshold/sign and threshold/dkg consume.
package config

import (
	"errors"
	"fmt"

	"github.com/btc-vision/threshold-mldsa/pkg/mldsa"
	"github.com/btc-vision/threshold-mldsa/pkg/party"
	"github.com/btc-vision/threshold-mldsa/pkg/ring"
	"github.com/btc-vision/threshold-mldsa/threshold/dealer"
)

// Config is the long-term storage for a threshold-mldsa party, built
// from a dealer.ThresholdKeyShare (whether produced by trusted-dealer
// keygen or by DKG) plus enough metadata to reconstruct its
// mldsa.Params on load.
type Config struct {
	ID    party.ID
	Level int
	T, N  int
	Rho   [32]byte
	Tr    [64]byte
	T1    ring.Vec
	Shares map[uint32]dealer.Share
}

func partyIDFrom(raw uint8) party.ID {
	return party.ID(raw)
}

// New builds a Config from a share produced by threshold/dealer or
// threshold/dkg.
func New(share *dealer.ThresholdKeyShare) *Config {
	return &Config{
		ID:     share.ID,
		Level:  share.Params.Level,
		T:      share.T,
		N:      share.N,
		Rho:    share.Rho,
		Tr:     share.Tr,
		T1:     share.T1,
		Shares: share.Shares,
	}
}

// Share reconstructs the dealer.ThresholdKeyShare this Config was built
// from, re-deriving Params from Level.
func (c *Config) Share() (*dealer.ThresholdKeyShare, error) {
	p, err := mldsa.ByLevel(c.Level)
	if err != nil {
		return nil, err
	}
	return &dealer.ThresholdKeyShare{
		Params: p,
		T:      c.T,
		N:      c.N,
		ID:     c.ID,
		Rho:    c.Rho,
		Tr:     c.Tr,
		T1:     c.T1,
		Shares: c.Shares,
	}, nil
}

// Validate checks the Config is internally consistent and complete
// enough to use: a valid (T,N,level), a non-empty share set, and a T1
// vector sized to the level's K.
func (c *Config) Validate() error {
	p, err := mldsa.ByLevel(c.Level)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.T < 2 || c.N < c.T || c.N > 6 {
		return errors.New("config: threshold out of range")
	}
	if int(c.ID) >= c.N {
		return errors.New("config: party id out of range for N")
	}
	if len(c.T1) != p.K {
		return fmt.Errorf("config: t1 has %d rows, want %d", len(c.T1), p.K)
	}
	if len(c.Shares) == 0 {
		return errors.New("config: no shares present")
	}
	for b, sh := range c.Shares {
		if len(sh.S1Hat) != p.L || len(sh.S2Hat) != p.K {
			return fmt.Errorf("config: share for bitmask %d has wrong dimensions", b)
		}
	}
	return nil
}

// Copy returns a deep copy: every ring.Vec and map is freshly
// allocated, so mutating the copy never aliases the original's
// backing arrays.
func (c *Config) Copy() *Config {
	out := &Config{
		ID:    c.ID,
		Level: c.Level,
		T:     c.T,
		N:     c.N,
		Rho:   c.Rho,
		Tr:    c.Tr,
		T1:    c.T1.Clone(),
		Shares: make(map[uint32]dealer.Share, len(c.Shares)),
	}
	for b, sh := range c.Shares {
		out.Shares[b] = dealer.Share{S1Hat: sh.S1Hat.Clone(), S2Hat: sh.S2Hat.Clone()}
	}
	return out
}
