package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/btc-vision/threshold-mldsa/pkg/mldsa"
	"github.com/btc-vision/threshold-mldsa/pkg/party"
	"github.com/btc-vision/threshold-mldsa/threshold/dealer"
	"github.com/btc-vision/threshold-mldsa/threshold/params"
	"github.com/btc-vision/threshold-mldsa/threshold/sign"
	"github.com/btc-vision/threshold-mldsa/threshold/state"
	"github.com/btc-vision/threshold-mldsa/xlog"
)

var (
	signSignersCSV string
	signMessageHex string
	signContext    string
	signOut        string
	signMaxRetries int

	signCmd = &cobra.Command{
		Use:   "sign",
		Short: "Produce a threshold signature from an active subset of parties",
		Long: `Loads each active signer's config from --config-dir, drives round1,
round2, and round3 concurrently across that subset with errgroup (each
round is still a barrier: every party's local step for round K must
finish before round K+1 starts, since round K+1 consumes round K's full
broadcast set), and combines the result into a standard FIPS 204
signature. Since each attempt's hyperball draws can fail the combiner's
norm checks, a fresh nonce is retried up to --max-retries times.`,
		RunE: runSign,
	}
)

func init() {
	signCmd.Flags().StringVarP(&signSignersCSV, "signers", "s", "", "comma-separated active party ids, e.g. 0,1,2 (required)")
	signCmd.Flags().StringVarP(&signMessageHex, "message", "m", "", "message to sign, hex-encoded (required)")
	signCmd.Flags().StringVarP(&signContext, "context", "c", "", "signing context string (<=255 bytes)")
	signCmd.Flags().StringVarP(&signOut, "output", "o", "", "output file for the hex-encoded signature (default stdout)")
	signCmd.Flags().IntVar(&signMaxRetries, "max-retries", 25, "nonce retries before giving up")
	_ = signCmd.MarkFlagRequired("signers")
	_ = signCmd.MarkFlagRequired("message")
}

func parseSigners(csv string) (party.IDSlice, error) {
	parts := strings.Split(csv, ",")
	ids := make(party.IDSlice, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid party id %q: %w", p, err)
		}
		ids = append(ids, party.ID(n))
	}
	return party.Sorted(ids), nil
}

func runSign(cmd *cobra.Command, args []string) error {
	log := xlog.New("sign", verbosity())

	activeIDs, err := parseSigners(signSignersCSV)
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}
	if !party.Unique([]party.ID(activeIDs)) {
		return fmt.Errorf("sign: duplicate party id in --signers")
	}

	msg, err := hex.DecodeString(signMessageHex)
	if err != nil {
		return fmt.Errorf("sign: decoding --message: %w", err)
	}
	ctx := []byte(signContext)

	shares := make(map[party.ID]*dealer.ThresholdKeyShare, len(activeIDs))
	var t, n, level int
	for _, id := range activeIDs {
		c, err := readConfig(int(id))
		if err != nil {
			return fmt.Errorf("sign: %w", err)
		}
		sh, err := c.Share()
		if err != nil {
			return fmt.Errorf("sign: reconstructing share for party %d: %w", id, err)
		}
		shares[id] = sh
		t, n, level = c.T, c.N, c.Level
	}

	entry, err := params.Lookup(t, n, level)
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}

	var sigBytes []byte
	for attempt := 0; attempt < signMaxRetries; attempt++ {
		got, err := signAttempt(shares, activeIDs, entry, ctx, msg, uint16(attempt))
		if err == nil {
			sigBytes = got
			break
		}
		xlog.Phase(log, "sign-attempt-rejected", 0, "attempt", attempt, "err", err.Error())
	}
	if sigBytes == nil {
		return fmt.Errorf("sign: no valid transcript found within %d attempts", signMaxRetries)
	}

	out := hex.EncodeToString(sigBytes)
	if signOut == "" {
		fmt.Println(out)
		return nil
	}
	path := signOut
	if !filepath.IsAbs(path) {
		path = filepath.Join(".", path)
	}
	if err := os.WriteFile(path, []byte(out+"\n"), 0o644); err != nil {
		return fmt.Errorf("sign: writing %s: %w", path, err)
	}
	fmt.Printf("wrote signature to %s\n", path)
	return nil
}

// signAttempt drives one full round1->round2->round3->combine pass for
// activeIDs under a single nonce, fanning each round's per-party work
// out across goroutines with errgroup since the parties' local steps
// within one round are independent of each other.
func signAttempt(shares map[party.ID]*dealer.ThresholdKeyShare, activeIDs party.IDSlice, entry params.Entry, ctx, msg []byte, nonce uint16) ([]byte, error) {
	var mu sync.Mutex

	round1States := make(map[party.ID]*state.Round1State, len(activeIDs))
	round1Hashes := make(map[party.ID][]byte, len(activeIDs))
	var g errgroup.Group
	for _, id := range activeIDs {
		id := id
		g.Go(func() error {
			var rnd [32]byte
			hash, st1, err := sign.Round1(shares[id], id, entry, nonce, rnd)
			if err != nil {
				return fmt.Errorf("round1 party %d: %w", id, err)
			}
			mu.Lock()
			round1States[id] = st1
			round1Hashes[id] = hash
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	round2States := make(map[party.ID]*state.Round2State, len(activeIDs))
	commitments := make(map[party.ID][]byte, len(activeIDs))
	g = errgroup.Group{}
	for _, id := range activeIDs {
		id := id
		g.Go(func() error {
			packed, st2, err := sign.Round2(shares[id], activeIDs, ctx, msg, round1Hashes, round1States[id])
			if err != nil {
				return fmt.Errorf("round2 party %d: %w", id, err)
			}
			mu.Lock()
			round2States[id] = st2
			commitments[id] = packed
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	responses := make(map[party.ID][]byte, len(activeIDs))
	g = errgroup.Group{}
	for _, id := range activeIDs {
		id := id
		g.Go(func() error {
			resp, err := sign.Round3(shares[id], activeIDs, commitments, entry, round1States[id], round2States[id])
			if err != nil {
				return fmt.Errorf("round3 party %d: %w", id, err)
			}
			mu.Lock()
			responses[id] = resp
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()

	for _, id := range activeIDs {
		round1States[id].Destroy()
		round2States[id].Destroy()
	}
	if err != nil {
		return nil, err
	}

	first := shares[activeIDs[0]]
	pk := &mldsa.PublicKey{Params: first.Params, Rho: first.Rho, T1: first.T1}
	return sign.Combine(pk, ctx, msg, entry.KIter, commitments, responses)
}
