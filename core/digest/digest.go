// Package digest computes BLAKE3 content fingerprints. Fingerprints
// identify persisted run-configuration documents and snapshot payloads so
// callers can detect external modification without diffing.
package digest

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Size is the length in bytes of a raw fingerprint.
const Size = 32

// Sum returns the hex-encoded BLAKE3 fingerprint of data.
func Sum(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SumReader fingerprints everything read from r.
func SumReader(r io.Reader) (string, error) {
	h := blake3.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hashing stream: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SumFile fingerprints the file at path.
func SumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return SumReader(f)
}

// Valid reports whether s is a well-formed hex fingerprint.
func Valid(s string) bool {
	if len(s) != Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
