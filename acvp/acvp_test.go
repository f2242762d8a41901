package acvp

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"

	"github.com/btc-vision/threshold-mldsa/pkg/mldsa"
)

// writeVectorFile marshals doc as the ACVP-shaped {"testGroups": [...]}
// wrapper and returns its path.
func writeVectorFile(t *testing.T, dir, name string, doc any) string {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRunKeyGenAcceptsSelfConsistentVectors(t *testing.T) {
	dir := t.TempDir()

	var seed [32]byte
	seed[0] = 0x11
	p, err := mldsa.ByLevel(44)
	require.NoError(t, err)
	pk, sk, err := mldsa.GenerateKey(p, seed)
	require.NoError(t, err)

	doc := struct {
		TestGroups []KeyGenGroup `json:"testGroups"`
	}{
		TestGroups: []KeyGenGroup{{
			TGID: 1,
			Cases: []KeyGenCase{{
				TCID: 1, Level: 44,
				SeedHex: hex.EncodeToString(seed[:]),
				PKHex:   hex.EncodeToString(pk.Encode()),
				SKHex:   hex.EncodeToString(sk.Encode()),
			}},
		}},
	}
	path := writeVectorFile(t, dir, "keygen.json", doc)

	groups, err := LoadKeyGen(path)
	require.NoError(t, err)
	results := RunKeyGen(groups)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	require.True(t, results[0].Passed)
}

func TestRunKeyGenRejectsTamperedExpectedKey(t *testing.T) {
	dir := t.TempDir()

	var seed [32]byte
	seed[0] = 0x22
	p, err := mldsa.ByLevel(44)
	require.NoError(t, err)
	pk, sk, err := mldsa.GenerateKey(p, seed)
	require.NoError(t, err)

	tamperedPK := append([]byte(nil), pk.Encode()...)
	tamperedPK[0] ^= 0xFF

	doc := struct {
		TestGroups []KeyGenGroup `json:"testGroups"`
	}{
		TestGroups: []KeyGenGroup{{
			TGID: 1,
			Cases: []KeyGenCase{{
				TCID: 1, Level: 44,
				SeedHex: hex.EncodeToString(seed[:]),
				PKHex:   hex.EncodeToString(tamperedPK),
				SKHex:   hex.EncodeToString(sk.Encode()),
			}},
		}},
	}
	path := writeVectorFile(t, dir, "keygen.json", doc)

	groups, err := LoadKeyGen(path)
	require.NoError(t, err)
	results := RunKeyGen(groups)
	require.Len(t, results, 1)
	require.False(t, results[0].Passed)
}

func TestRunSigGenAcceptsSelfConsistentVectors(t *testing.T) {
	dir := t.TempDir()

	var seed [32]byte
	seed[0] = 0x33
	p, err := mldsa.ByLevel(44)
	require.NoError(t, err)
	_, sk, err := mldsa.GenerateKey(p, seed)
	require.NoError(t, err)

	msg := []byte("acvp sigGen test message")
	ctx := []byte{}
	var rnd [32]byte
	mu, err := mldsa.ComputeMu(sk.Tr, ctx, msg)
	require.NoError(t, err)
	sig, err := mldsa.SignInternal(sk, mu, rnd)
	require.NoError(t, err)
	sigBytes, err := sig.Encode(p)
	require.NoError(t, err)

	doc := struct {
		TestGroups []SigGenGroup `json:"testGroups"`
	}{
		TestGroups: []SigGenGroup{{
			TGID: 1,
			Cases: []SigGenCase{{
				TCID: 1, Level: 44,
				SKHex:      hex.EncodeToString(sk.Encode()),
				MessageHex: hex.EncodeToString(msg),
				ContextHex: hex.EncodeToString(ctx),
				RndHex:     hex.EncodeToString(rnd[:]),
				SigHex:     hex.EncodeToString(sigBytes),
			}},
		}},
	}
	path := writeVectorFile(t, dir, "siggen.json", doc)

	groups, err := LoadSigGen(path)
	require.NoError(t, err)
	results := RunSigGen(groups)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	require.True(t, results[0].Passed)
}

func TestRunSigVerDetectsBothOutcomes(t *testing.T) {
	dir := t.TempDir()

	var seed [32]byte
	seed[0] = 0x44
	p, err := mldsa.ByLevel(44)
	require.NoError(t, err)
	pk, sk, err := mldsa.GenerateKey(p, seed)
	require.NoError(t, err)

	msg := []byte("acvp sigVer test message")
	ctx := []byte{}
	sig, err := mldsa.Sign(sk, ctx, msg)
	require.NoError(t, err)
	sigBytes, err := sig.Encode(p)
	require.NoError(t, err)

	tamperedSig := append([]byte(nil), sigBytes...)
	tamperedSig[0] ^= 0xFF

	doc := struct {
		TestGroups []SigVerGroup `json:"testGroups"`
	}{
		TestGroups: []SigVerGroup{{
			TGID: 1,
			Cases: []SigVerCase{
				{
					TCID: 1, Level: 44,
					PKHex: hex.EncodeToString(pk.Encode()), MessageHex: hex.EncodeToString(msg),
					ContextHex: hex.EncodeToString(ctx), SigHex: hex.EncodeToString(sigBytes),
					TestPassed: true,
				},
				{
					TCID: 2, Level: 44,
					PKHex: hex.EncodeToString(pk.Encode()), MessageHex: hex.EncodeToString(msg),
					ContextHex: hex.EncodeToString(ctx), SigHex: hex.EncodeToString(tamperedSig),
					TestPassed: false,
				},
			},
		}},
	}
	path := writeVectorFile(t, dir, "sigver.json", doc)

	groups, err := LoadSigVer(path)
	require.NoError(t, err)
	results := RunSigVer(groups)
	require.Len(t, results, 2)
	require.True(t, results[0].Passed, "genuine signature should verify")
	require.True(t, results[1].Passed, "harness correctly predicted the tampered signature's rejection")
}

func TestVerifyManifestDetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"testGroups":[]}`), 0o644))

	hasher := blake3.New()
	_, err := hasher.Write([]byte(`{"testGroups":[]}`))
	require.NoError(t, err)
	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	entries := []ManifestEntry{{Path: path, Digest: digest}}
	require.NoError(t, VerifyManifest(entries))

	require.NoError(t, os.WriteFile(path, []byte(`{"testGroups":[1]}`), 0o644))
	err = VerifyManifest(entries)
	require.Error(t, err)
	var mismatch *ManifestMismatchError
	require.ErrorAs(t, err, &mismatch)
}
