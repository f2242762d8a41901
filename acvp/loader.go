package acvp

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/zeebo/blake3"
)

// LoadKeyGen reads an ACVP-formatted keyGen vector file: a top-level
// JSON object with a "testGroups" array of KeyGenGroup.
func LoadKeyGen(path string) ([]KeyGenGroup, error) {
	var doc struct {
		TestGroups []KeyGenGroup `json:"testGroups"`
	}
	if err := loadJSON(path, &doc); err != nil {
		return nil, fmt.Errorf("acvp: loading keyGen vectors: %w", err)
	}
	return doc.TestGroups, nil
}

// LoadSigGen reads an ACVP-formatted sigGen vector file.
func LoadSigGen(path string) ([]SigGenGroup, error) {
	var doc struct {
		TestGroups []SigGenGroup `json:"testGroups"`
	}
	if err := loadJSON(path, &doc); err != nil {
		return nil, fmt.Errorf("acvp: loading sigGen vectors: %w", err)
	}
	return doc.TestGroups, nil
}

// LoadSigVer reads an ACVP-formatted sigVer vector file.
func LoadSigVer(path string) ([]SigVerGroup, error) {
	var doc struct {
		TestGroups []SigVerGroup `json:"testGroups"`
	}
	if err := loadJSON(path, &doc); err != nil {
		return nil, fmt.Errorf("acvp: loading sigVer vectors: %w", err)
	}
	return doc.TestGroups, nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// ManifestEntry pins one vector file's path to its expected content
// digest, so a vector set pulled from an external source can be
// checked for tampering or corruption before it is trusted.
type ManifestEntry struct {
	Path   string
	Digest [32]byte
}

// ManifestMismatchError is returned by VerifyManifest when a file's
// content digest does not match its pinned entry.
type ManifestMismatchError struct {
	Path string
}

func (e *ManifestMismatchError) Error() string {
	return fmt.Sprintf("acvp: manifest digest mismatch for %s", e.Path)
}

// VerifyManifest checks every entry's file against its pinned BLAKE3
// digest. This digest is never part of the FIPS 204 protocol itself —
// it only protects the test-vector bundle's integrity on disk, which
// is why it uses BLAKE3 rather than the SHAKE functions the signing
// protocol is built on.
func VerifyManifest(entries []ManifestEntry) error {
	for _, e := range entries {
		data, err := os.ReadFile(e.Path)
		if err != nil {
			return fmt.Errorf("acvp: reading %s: %w", e.Path, err)
		}
		hasher := blake3.New()
		if _, err := hasher.Write(data); err != nil {
			return fmt.Errorf("acvp: hashing %s: %w", e.Path, err)
		}
		var got [32]byte
		copy(got[:], hasher.Sum(nil))
		if got != e.Digest {
			return &ManifestMismatchError{Path: e.Path}
		}
	}
	return nil
}
