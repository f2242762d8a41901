package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/btc-vision/threshold-mldsa/pkg/mldsa"
	"github.com/btc-vision/threshold-mldsa/xlog"
)

var (
	verifyPubkeyHex string
	verifySigHex    string
	verifySigFile   string
	verifyMessage   string
	verifyContext   string
	verifyLevel     int

	verifyCmd = &cobra.Command{
		Use:   "verify",
		Short: "Verify a combined threshold signature against a public key",
		RunE:  runVerify,
	}
)

func init() {
	verifyCmd.Flags().StringVar(&verifyPubkeyHex, "public-key", "", "hex-encoded public key (default: read pubkey.json from --config-dir)")
	verifyCmd.Flags().StringVar(&verifySigHex, "signature", "", "hex-encoded signature")
	verifyCmd.Flags().StringVar(&verifySigFile, "signature-file", "", "file containing the hex-encoded signature")
	verifyCmd.Flags().StringVarP(&verifyMessage, "message", "m", "", "message, hex-encoded (required)")
	verifyCmd.Flags().StringVarP(&verifyContext, "context", "c", "", "signing context string (<=255 bytes)")
	verifyCmd.Flags().IntVarP(&verifyLevel, "level", "l", 44, "ML-DSA security level: 44, 65, or 87")
	_ = verifyCmd.MarkFlagRequired("message")
}

func runVerify(cmd *cobra.Command, args []string) error {
	log := xlog.New("verify", verbosity())

	pkHex := verifyPubkeyHex
	if pkHex == "" {
		got, err := readPublicKeyHex()
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		pkHex = got
	}
	pkBytes, err := hex.DecodeString(pkHex)
	if err != nil {
		return fmt.Errorf("verify: decoding public key: %w", err)
	}

	p, err := mldsa.ByLevel(verifyLevel)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	pk, err := mldsa.DecodePublicKey(p, pkBytes)
	if err != nil {
		return fmt.Errorf("verify: decoding public key bytes: %w", err)
	}

	sigHex := verifySigHex
	if sigHex == "" && verifySigFile != "" {
		data, err := os.ReadFile(verifySigFile)
		if err != nil {
			return fmt.Errorf("verify: reading --signature-file: %w", err)
		}
		sigHex = string(trimNewline(data))
	}
	if sigHex == "" {
		return fmt.Errorf("verify: one of --signature or --signature-file is required")
	}
	sigBytes, err := hex.DecodeString(sigHex)
	if err != nil {
		return fmt.Errorf("verify: decoding signature: %w", err)
	}
	sig, err := mldsa.DecodeSignature(p, sigBytes)
	if err != nil {
		return fmt.Errorf("verify: decoding signature bytes: %w", err)
	}

	msg, err := hex.DecodeString(verifyMessage)
	if err != nil {
		return fmt.Errorf("verify: decoding --message: %w", err)
	}

	ok := mldsa.Verify(pk, []byte(verifyContext), msg, sig)
	xlog.Phase(log, "verify-done", 0, "ok", ok)
	if !ok {
		fmt.Println("INVALID")
		os.Exit(1)
	}
	fmt.Println("VALID")
	return nil
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
