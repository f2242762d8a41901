package main

import (
	"crypto/rand"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/btc-vision/threshold-mldsa/config"
	"github.com/btc-vision/threshold-mldsa/pkg/party"
	"github.com/btc-vision/threshold-mldsa/pkg/ring"
	"github.com/btc-vision/threshold-mldsa/threshold/dealer"
	"github.com/btc-vision/threshold-mldsa/threshold/dkg"
	"github.com/btc-vision/threshold-mldsa/threshold/params"
	"github.com/btc-vision/threshold-mldsa/threshold/state"
	"github.com/btc-vision/threshold-mldsa/xlog"
)

var (
	dkgT     int
	dkgN     int
	dkgLevel int

	dkgCmd = &cobra.Command{
		Use:   "dkg",
		Short: "Run distributed key generation for a (T,N) threshold group",
		Long: `Simulates every party's DKG phases in this one process, using
errgroup to run each party's local step concurrently for phase 1,
phase 2, and phase-2 finalize; phase 4 and finalize run sequentially
-- the protocol itself stays strictly per-party sequential, only the
simulation harness fans its N local copies out.`,
		RunE: runDKG,
	}
)

func init() {
	dkgCmd.Flags().IntVarP(&dkgT, "threshold", "t", 0, "threshold T (required)")
	dkgCmd.Flags().IntVarP(&dkgN, "parties", "n", 0, "total parties N (required)")
	dkgCmd.Flags().IntVarP(&dkgLevel, "level", "l", 44, "ML-DSA security level: 44, 65, or 87")
	_ = dkgCmd.MarkFlagRequired("threshold")
	_ = dkgCmd.MarkFlagRequired("parties")
}

func runDKG(cmd *cobra.Command, args []string) error {
	log := xlog.New("dkg", verbosity())

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("dkg: creating config dir: %w", err)
	}

	p, err := params.Validate(dkgT, dkgN, dkgLevel)
	if err != nil {
		return fmt.Errorf("dkg: %w", err)
	}

	var sessionID [32]byte
	if _, err := rand.Read(sessionID[:]); err != nil {
		return fmt.Errorf("dkg: reading entropy: %w", err)
	}

	masks, holders, generators := dkg.Setup(dkgT, dkgN)
	xlog.Phase(log, "dkg-setup", 0, "bitmasks", len(masks))

	broadcasts := make(map[party.ID]dkg.Phase1Broadcast, dkgN)
	st1s := make(map[party.ID]*state.Phase1State, dkgN)
	var g errgroup.Group
	var mu sync.Mutex
	for i := 0; i < dkgN; i++ {
		id := party.ID(i)
		g.Go(func() error {
			bc, st1, err := dkg.Phase1(sessionID, id, holders)
			if err != nil {
				return fmt.Errorf("phase1 party %d: %w", id, err)
			}
			mu.Lock()
			broadcasts[id] = bc
			st1s[id] = st1
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		xlog.Abort(log, "dkg-phase1", 0, err)
		return err
	}
	xlog.Phase(log, "dkg-phase1-done", 0)

	reveals := make(map[party.ID]dkg.Phase2Reveal, dkgN)
	g = errgroup.Group{}
	for i := 0; i < dkgN; i++ {
		id := party.ID(i)
		g.Go(func() error {
			rv, err := dkg.Phase2(st1s[id])
			if err != nil {
				return fmt.Errorf("phase2 party %d: %w", id, err)
			}
			mu.Lock()
			reveals[id] = rv
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		xlog.Abort(log, "dkg-phase2", 0, err)
		return err
	}
	xlog.Phase(log, "dkg-phase2-done", 0)

	rhos := make(map[party.ID][32]byte, dkgN)
	sharesByParty := make(map[party.ID]map[uint32]dealer.Share, dkgN)
	st2s := make(map[party.ID]*state.Phase2State, dkgN)
	g = errgroup.Group{}
	for i := 0; i < dkgN; i++ {
		id := party.ID(i)
		g.Go(func() error {
			rho, shares, st2, err := dkg.Phase2Finalize(sessionID, id, dkgT, dkgN, p, masks, holders, generators, broadcasts, reveals)
			if err != nil {
				return fmt.Errorf("phase2finalize party %d: %w", id, err)
			}
			mu.Lock()
			rhos[id] = rho
			sharesByParty[id] = shares
			st2s[id] = st2
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		xlog.Abort(log, "dkg-phase2-finalize", 0, err)
		return err
	}
	xlog.Phase(log, "dkg-phase2-finalize-done", 0)

	rjByParty := make(map[party.ID]ring.Vec, dkgN)
	for i := 0; i < dkgN; i++ {
		id := party.ID(i)
		received := make(map[party.ID]ring.Vec)
		for gi := 0; gi < dkgN; gi++ {
			gid := party.ID(gi)
			if gid == id {
				continue
			}
			pieces, err := st2s[gid].MaskPieces()
			if err != nil {
				return fmt.Errorf("dkg: reading mask pieces from party %d: %w", gid, err)
			}
			if piece, ok := pieces[id]; ok {
				received[gid] = piece
			}
		}
		rj, err := dkg.Phase4(st2s[id], received)
		if err != nil {
			return fmt.Errorf("dkg: phase4 party %d: %w", id, err)
		}
		rjByParty[id] = rj
	}
	xlog.Phase(log, "dkg-phase4-done", 0)

	var pubkeyEncoded []byte
	for i := 0; i < dkgN; i++ {
		id := party.ID(i)
		pk, share, err := dkg.Finalize(id, dkgT, dkgN, p, rhos[id], sharesByParty[id], rjByParty)
		if err != nil {
			return fmt.Errorf("dkg: finalize party %d: %w", id, err)
		}
		if i == 0 {
			pubkeyEncoded = pk.Encode()
		}
		if err := writeConfig(config.New(share)); err != nil {
			return err
		}
	}
	for i := 0; i < dkgN; i++ {
		st1s[party.ID(i)].Destroy()
		st2s[party.ID(i)].Destroy()
	}

	if err := writePublicKey(pubkeyEncoded); err != nil {
		return err
	}

	xlog.Phase(log, "dkg-done", 0, "parties", dkgN)
	fmt.Printf("wrote %d party configs and pubkey.json to %s\n", dkgN, configDir)
	return nil
}
