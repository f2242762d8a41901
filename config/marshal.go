package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/btc-vision/threshold-mldsa/pkg/ring"
	"github.com/btc-vision/threshold-mldsa/threshold/dealer"
)

// shareJSON and configJSON mirror Config with Rho/Tr base64-encoded for
// compact human-readable storage, the same way the teacher's lss config
// base64-encodes its curve scalars and points.
type shareJSON struct {
	S1Hat ring.Vec `json:"s1_hat"`
	S2Hat ring.Vec `json:"s2_hat"`
}

type configJSON struct {
	ID     uint8                `json:"id"`
	Level  int                  `json:"level"`
	T      int                  `json:"t"`
	N      int                  `json:"n"`
	Rho    string               `json:"rho"`
	Tr     string               `json:"tr"`
	T1     ring.Vec             `json:"t1"`
	Shares map[string]shareJSON `json:"shares"`
}

// MarshalJSON implements json.Marshaler.
func (c *Config) MarshalJSON() ([]byte, error) {
	shares := make(map[string]shareJSON, len(c.Shares))
	for b, sh := range c.Shares {
		shares[fmt.Sprintf("%d", b)] = shareJSON{S1Hat: sh.S1Hat, S2Hat: sh.S2Hat}
	}
	out := configJSON{
		ID:     uint8(c.ID),
		Level:  c.Level,
		T:      c.T,
		N:      c.N,
		Rho:    base64.StdEncoding.EncodeToString(c.Rho[:]),
		Tr:     base64.StdEncoding.EncodeToString(c.Tr[:]),
		T1:     c.T1,
		Shares: shares,
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Config) UnmarshalJSON(data []byte) error {
	var in configJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	rho, err := base64.StdEncoding.DecodeString(in.Rho)
	if err != nil {
		return fmt.Errorf("config: failed to decode rho: %w", err)
	}
	if len(rho) != 32 {
		return fmt.Errorf("config: rho must decode to 32 bytes, got %d", len(rho))
	}
	tr, err := base64.StdEncoding.DecodeString(in.Tr)
	if err != nil {
		return fmt.Errorf("config: failed to decode tr: %w", err)
	}
	if len(tr) != 64 {
		return fmt.Errorf("config: tr must decode to 64 bytes, got %d", len(tr))
	}

	shares := make(map[uint32]dealer.Share, len(in.Shares))
	for bStr, sh := range in.Shares {
		var b uint32
		if _, err := fmt.Sscanf(bStr, "%d", &b); err != nil {
			return fmt.Errorf("config: invalid bitmask key %q: %w", bStr, err)
		}
		shares[b] = dealer.Share{S1Hat: sh.S1Hat, S2Hat: sh.S2Hat}
	}

	c.ID = partyIDFrom(in.ID)
	c.Level = in.Level
	c.T = in.T
	c.N = in.N
	copy(c.Rho[:], rho)
	copy(c.Tr[:], tr)
	c.T1 = in.T1
	c.Shares = shares
	return nil
}

// MarshalCBOR encodes a Config with fxamacker/cbor for compact binary
// on-disk storage.
func (c *Config) MarshalCBOR() ([]byte, error) {
	aux := struct {
		ID     uint8
		Level  int
		T, N   int
		Rho    [32]byte
		Tr     [64]byte
		T1     ring.Vec
		Shares map[uint32]dealer.Share
	}{uint8(c.ID), c.Level, c.T, c.N, c.Rho, c.Tr, c.T1, c.Shares}
	return cbor.Marshal(aux)
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (c *Config) UnmarshalCBOR(data []byte) error {
	var aux struct {
		ID     uint8
		Level  int
		T, N   int
		Rho    [32]byte
		Tr     [64]byte
		T1     ring.Vec
		Shares map[uint32]dealer.Share
	}
	if err := cbor.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.ID = partyIDFrom(aux.ID)
	c.Level = aux.Level
	c.T = aux.T
	c.N = aux.N
	c.Rho = aux.Rho
	c.Tr = aux.Tr
	c.T1 = aux.T1
	c.Shares = aux.Shares
	return nil
}
