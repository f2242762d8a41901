package acvp

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btc-vision/threshold-mldsa/pkg/mldsa"
)

// Result is one test case's outcome: which case it was, whether it
// passed, and (on failure) why.
type Result struct {
	TGID, TCID int
	Passed     bool
	Err        error
}

func decodeSeed(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("acvp: want 32-byte seed, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

func decodeRnd(s string) ([32]byte, error) {
	if s == "" {
		return [32]byte{}, nil
	}
	return decodeSeed(s)
}

// RunKeyGen runs every case in groups against mldsa.GenerateKey and
// compares the encoded public/secret keys byte-for-byte.
func RunKeyGen(groups []KeyGenGroup) []Result {
	var results []Result
	for _, g := range groups {
		for _, c := range g.Cases {
			results = append(results, runKeyGenCase(g.TGID, c))
		}
	}
	return results
}

func runKeyGenCase(tgid int, c KeyGenCase) Result {
	r := Result{TGID: tgid, TCID: c.TCID}

	p, err := mldsa.ByLevel(c.Level)
	if err != nil {
		r.Err = err
		return r
	}
	seed, err := decodeSeed(c.SeedHex)
	if err != nil {
		r.Err = fmt.Errorf("decoding seed: %w", err)
		return r
	}
	pk, sk, err := mldsa.GenerateKey(p, seed)
	if err != nil {
		r.Err = fmt.Errorf("GenerateKey: %w", err)
		return r
	}

	wantPK, err := hex.DecodeString(c.PKHex)
	if err != nil {
		r.Err = fmt.Errorf("decoding expected pk: %w", err)
		return r
	}
	wantSK, err := hex.DecodeString(c.SKHex)
	if err != nil {
		r.Err = fmt.Errorf("decoding expected sk: %w", err)
		return r
	}

	gotPK := pk.Encode()
	gotSK := sk.Encode()
	sk.Destroy()

	r.Passed = bytes.Equal(gotPK, wantPK) && bytes.Equal(gotSK, wantSK)
	return r
}

// RunSigGen runs every case in groups against mldsa.SignInternal
// (reached through ComputeMu, so the same mu a baseline Sign call
// would use) and compares the encoded signature byte-for-byte.
func RunSigGen(groups []SigGenGroup) []Result {
	var results []Result
	for _, g := range groups {
		for _, c := range g.Cases {
			results = append(results, runSigGenCase(g.TGID, c))
		}
	}
	return results
}

func runSigGenCase(tgid int, c SigGenCase) Result {
	r := Result{TGID: tgid, TCID: c.TCID}

	p, err := mldsa.ByLevel(c.Level)
	if err != nil {
		r.Err = err
		return r
	}
	skBytes, err := hex.DecodeString(c.SKHex)
	if err != nil {
		r.Err = fmt.Errorf("decoding sk: %w", err)
		return r
	}
	sk, err := mldsa.DecodeSecretKey(p, skBytes)
	if err != nil {
		r.Err = fmt.Errorf("DecodeSecretKey: %w", err)
		return r
	}
	defer sk.Destroy()

	msg, err := hex.DecodeString(c.MessageHex)
	if err != nil {
		r.Err = fmt.Errorf("decoding message: %w", err)
		return r
	}
	ctx, err := hex.DecodeString(c.ContextHex)
	if err != nil {
		r.Err = fmt.Errorf("decoding context: %w", err)
		return r
	}
	rnd, err := decodeRnd(c.RndHex)
	if err != nil {
		r.Err = fmt.Errorf("decoding rnd: %w", err)
		return r
	}

	mu, err := mldsa.ComputeMu(sk.Tr, ctx, msg)
	if err != nil {
		r.Err = fmt.Errorf("ComputeMu: %w", err)
		return r
	}
	sig, err := mldsa.SignInternal(sk, mu, rnd)
	if err != nil {
		r.Err = fmt.Errorf("SignInternal: %w", err)
		return r
	}

	want, err := hex.DecodeString(c.SigHex)
	if err != nil {
		r.Err = fmt.Errorf("decoding expected signature: %w", err)
		return r
	}
	got, err := sig.Encode(p)
	if err != nil {
		r.Err = fmt.Errorf("encoding signature: %w", err)
		return r
	}

	r.Passed = bytes.Equal(got, want)
	return r
}

// RunSigVer runs every case in groups against mldsa.Verify and
// compares the result against the vector's expected testPassed verdict.
func RunSigVer(groups []SigVerGroup) []Result {
	var results []Result
	for _, g := range groups {
		for _, c := range g.Cases {
			results = append(results, runSigVerCase(g.TGID, c))
		}
	}
	return results
}

func runSigVerCase(tgid int, c SigVerCase) Result {
	r := Result{TGID: tgid, TCID: c.TCID}

	p, err := mldsa.ByLevel(c.Level)
	if err != nil {
		r.Err = err
		return r
	}
	pkBytes, err := hex.DecodeString(c.PKHex)
	if err != nil {
		r.Err = fmt.Errorf("decoding pk: %w", err)
		return r
	}
	pk, err := mldsa.DecodePublicKey(p, pkBytes)
	if err != nil {
		r.Err = fmt.Errorf("DecodePublicKey: %w", err)
		return r
	}
	sigBytes, err := hex.DecodeString(c.SigHex)
	if err != nil {
		r.Err = fmt.Errorf("decoding signature: %w", err)
		return r
	}
	sig, err := mldsa.DecodeSignature(p, sigBytes)
	if err != nil {
		// A malformed-signature vector is expected to fail
		// verification, not to fail the harness.
		r.Passed = !c.TestPassed
		return r
	}
	msg, err := hex.DecodeString(c.MessageHex)
	if err != nil {
		r.Err = fmt.Errorf("decoding message: %w", err)
		return r
	}
	ctx, err := hex.DecodeString(c.ContextHex)
	if err != nil {
		r.Err = fmt.Errorf("decoding context: %w", err)
		return r
	}

	ok := mldsa.Verify(pk, ctx, msg, sig)
	r.Passed = ok == c.TestPassed
	return r
}
