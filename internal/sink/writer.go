package sink

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pokedex/internal/models"
	"pokedex/pkg/metadata"

	"github.com/ubuntu/decorate"
)

// BackupSuffix is appended to the output path when the previous file is kept.
const BackupSuffix = ".bak"

// WriteOptions controls how the output file is written.
type WriteOptions struct {
	// CreateBackup copies an existing output file to path + BackupSuffix first.
	CreateBackup bool
}

// Encode serializes records as a JSON array with 4-space indentation.
// Non-ASCII and HTML characters are written as is. An empty set encodes as [].
func Encode(records []models.Record) ([]byte, error) {
	if records == nil {
		records = []models.Record{}
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("failed to marshal records: %w", err)
	}

	// Encoder appends a newline; the file ends at the closing bracket
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// WriteJSON writes records to path atomically and returns the SHA-256
// digest of the bytes written.
func WriteJSON(path string, records []models.Record, opts WriteOptions) (digest string, err error) {
	defer decorate.OnError(&err, "could not write records to %s", path)

	data, err := Encode(records)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if opts.CreateBackup {
		if err := backup(path); err != nil {
			return "", err
		}
	}

	if err := atomicWrite(path, data); err != nil {
		return "", err
	}

	return metadata.CalculateHash(data), nil
}

// ReadJSON reads a file written by WriteJSON.
func ReadJSON(path string) (records []models.Record, err error) {
	defer decorate.OnError(&err, "could not read records from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse records: %w", err)
	}

	if records == nil {
		records = []models.Record{}
	}

	return records, nil
}

// backup copies path to path + BackupSuffix. path itself is left in place
// until the new output replaces it.
func backup(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to read existing output: %w", err)
	}

	if err := atomicWrite(path+BackupSuffix, data); err != nil {
		return fmt.Errorf("failed to back up existing output: %w", err)
	}

	return nil
}

// renameFile is swapped in tests to simulate a failed replace.
var renameFile = os.Rename

// atomicWrite writes data to a temporary file next to path and renames it over path.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "tmp-*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temporary file: %w", err)
	}

	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("could not write to temporary file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close temporary file: %w", err)
	}

	// CreateTemp uses 0600; the output is meant to be shared
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("could not set file mode: %w", err)
	}

	if err := renameFile(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not rename temporary file: %w", err)
	}

	return nil
}
