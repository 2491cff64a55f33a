// Package metadata records and verifies the digest of a written output file.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Suffix is appended to the output path to name the sidecar file.
const Suffix = ".meta.json"

// Metadata verification errors.
var (
	ErrNoMetadataFile = errors.New("no metadata file found")
	ErrNoHashFound    = errors.New("no hash found in metadata")
	ErrHashMismatch   = errors.New("hash mismatch")
)

// Metadata describes one written result set.
type Metadata struct {
	LastModify time.Time `json:"lastModify"`
	RunID      string    `json:"runId,omitempty"`
	Hash       string    `json:"hash"`
	Version    string    `json:"version"`
	Records    int       `json:"records"`
	StartID    int       `json:"startId"`
	EndID      int       `json:"endId"`
}

// Version is the sidecar schema version.
const Version = "1"

// CalculateHash computes the SHA-256 hash of data as lowercase hex.
func CalculateHash(data []byte) string {
	hash := sha256.Sum256(data)

	return hex.EncodeToString(hash[:])
}

// PathFor returns the sidecar path for an output file.
func PathFor(outputPath string) string {
	return outputPath + Suffix
}

// Sign writes the sidecar for outputPath with a fresh timestamp.
// The hash must be the one of the bytes written to outputPath.
func Sign(outputPath string, meta Metadata) error {
	meta.Version = Version
	meta.LastModify = time.Now().UTC().Truncate(time.Second)

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(PathFor(outputPath), data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// Read loads the sidecar of outputPath.
func Read(outputPath string) (*Metadata, error) {
	data, err := os.ReadFile(PathFor(outputPath))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoMetadataFile, PathFor(outputPath))
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	return &meta, nil
}

// Verify checks that the content of outputPath matches the hash in its sidecar.
func Verify(outputPath string) (*Metadata, error) {
	meta, err := Read(outputPath)
	if err != nil {
		return nil, err
	}

	if meta.Hash == "" {
		return nil, ErrNoHashFound
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read output: %w", err)
	}

	calculated := CalculateHash(data)
	if calculated != meta.Hash {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, meta.Hash, calculated)
	}

	return meta, nil
}
