package main

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/btc-vision/threshold-mldsa/pkg/mldsa"
	"github.com/btc-vision/threshold-mldsa/pkg/party"
	"github.com/btc-vision/threshold-mldsa/threshold/dealer"
	"github.com/btc-vision/threshold-mldsa/threshold/params"
	"github.com/btc-vision/threshold-mldsa/xlog"
)

var (
	benchT          int
	benchN          int
	benchLevel      int
	benchIterations int

	benchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Benchmark keygen, threshold signing, and verification",
		RunE:  runBench,
	}
)

func init() {
	benchCmd.Flags().IntVarP(&benchT, "threshold", "t", 2, "threshold T")
	benchCmd.Flags().IntVarP(&benchN, "parties", "n", 3, "total parties N")
	benchCmd.Flags().IntVarP(&benchLevel, "level", "l", 44, "ML-DSA security level: 44, 65, or 87")
	benchCmd.Flags().IntVar(&benchIterations, "iterations", 10, "number of signing iterations")
}

func runBench(cmd *cobra.Command, args []string) error {
	log := xlog.New("bench", verbosity())

	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return fmt.Errorf("bench: reading entropy: %w", err)
	}

	keygenStart := time.Now()
	pk, shares, err := dealer.GenerateShares(benchT, benchN, benchLevel, seed)
	if err != nil {
		return fmt.Errorf("bench: keygen: %w", err)
	}
	keygenElapsed := time.Since(keygenStart)

	entry, err := params.Lookup(benchT, benchN, benchLevel)
	if err != nil {
		return fmt.Errorf("bench: %w", err)
	}

	shareByID := make(map[party.ID]*dealer.ThresholdKeyShare, len(shares))
	for _, sh := range shares {
		shareByID[sh.ID] = sh
	}
	activeIDs := make(party.IDSlice, 0, benchT)
	for i := 0; i < benchT; i++ {
		activeIDs = append(activeIDs, party.ID(i))
	}

	ctx := []byte("bench")
	msg := []byte("benchmark message")

	var signTotal, verifyTotal time.Duration
	succeeded := 0
	for iter := 0; iter < benchIterations; iter++ {
		signStart := time.Now()
		var sigBytes []byte
		for attempt := uint16(0); attempt < 25; attempt++ {
			got, err := signAttempt(shareByID, activeIDs, entry, ctx, msg, attempt)
			if err == nil {
				sigBytes = got
				break
			}
		}
		signTotal += time.Since(signStart)
		if sigBytes == nil {
			continue
		}

		verifyStart := time.Now()
		sig, err := mldsa.DecodeSignature(pk.Params, sigBytes)
		if err != nil {
			continue
		}
		ok := mldsa.Verify(pk, ctx, msg, sig)
		verifyTotal += time.Since(verifyStart)
		if ok {
			succeeded++
		}
	}

	xlog.Phase(log, "bench-done", 0, "t", benchT, "n", benchN, "iterations", benchIterations, "succeeded", succeeded)

	fmt.Printf("keygen:    %v\n", keygenElapsed)
	if succeeded > 0 {
		fmt.Printf("sign avg:   %v\n", signTotal/time.Duration(benchIterations))
		fmt.Printf("verify avg: %v\n", verifyTotal/time.Duration(succeeded))
	}
	fmt.Printf("succeeded: %d/%d\n", succeeded, benchIterations)
	return nil
}
