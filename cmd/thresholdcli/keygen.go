package main

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/btc-vision/threshold-mldsa/config"
	"github.com/btc-vision/threshold-mldsa/threshold/dealer"
	"github.com/btc-vision/threshold-mldsa/xlog"
)

var (
	keygenT     int
	keygenN     int
	keygenLevel int

	keygenCmd = &cobra.Command{
		Use:   "keygen",
		Short: "Run trusted-dealer keygen for a (T,N) threshold group",
		RunE:  runKeygen,
	}
)

func init() {
	keygenCmd.Flags().IntVarP(&keygenT, "threshold", "t", 0, "threshold T (required)")
	keygenCmd.Flags().IntVarP(&keygenN, "parties", "n", 0, "total parties N (required)")
	keygenCmd.Flags().IntVarP(&keygenLevel, "level", "l", 44, "ML-DSA security level: 44, 65, or 87")
	_ = keygenCmd.MarkFlagRequired("threshold")
	_ = keygenCmd.MarkFlagRequired("parties")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	log := xlog.New("keygen", verbosity())

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("keygen: creating config dir: %w", err)
	}

	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return fmt.Errorf("keygen: reading entropy: %w", err)
	}

	xlog.Phase(log, "dealer-keygen-start", 0, "t", keygenT, "n", keygenN, "level", keygenLevel)

	pk, shares, err := dealer.GenerateShares(keygenT, keygenN, keygenLevel, seed)
	if err != nil {
		xlog.Abort(log, "dealer-keygen", 0, err)
		return err
	}

	for _, sh := range shares {
		c := config.New(sh)
		if err := writeConfig(c); err != nil {
			return err
		}
	}

	if err := writePublicKey(pk.Encode()); err != nil {
		return err
	}

	xlog.Phase(log, "dealer-keygen-done", 0, "parties", keygenN)
	fmt.Printf("wrote %d party configs and pubkey.json to %s\n", keygenN, configDir)
	return nil
}

func writeConfig(c *config.Config) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("keygen: marshaling config for party %d: %w", c.ID, err)
	}
	path := filepath.Join(configDir, fmt.Sprintf("party-%d.json", c.ID))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("keygen: writing %s: %w", path, err)
	}
	return nil
}

type publicKeyFile struct {
	PublicKeyHex string `json:"public_key_hex"`
}

func writePublicKey(encoded []byte) error {
	pkf := publicKeyFile{PublicKeyHex: fmt.Sprintf("%x", encoded)}
	data, err := json.MarshalIndent(pkf, "", "  ")
	if err != nil {
		return fmt.Errorf("keygen: marshaling public key: %w", err)
	}
	path := filepath.Join(configDir, "pubkey.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("keygen: writing %s: %w", path, err)
	}
	return nil
}

func readPublicKeyHex() (string, error) {
	path := filepath.Join(configDir, "pubkey.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	var pkf publicKeyFile
	if err := json.Unmarshal(data, &pkf); err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	return pkf.PublicKeyHex, nil
}

func readConfig(id int) (*config.Config, error) {
	path := filepath.Join(configDir, fmt.Sprintf("party-%d.json", id))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var c config.Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &c, nil
}
