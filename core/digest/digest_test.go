package digest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestSum verifies fingerprint stability and the empty-input vector.
func TestSum(t *testing.T) {
	// Known BLAKE3 vector for empty input.
	if got := Sum(nil); got != "af1349b9f5f9a1a6a0404dee36dcc9499bcb25c9adc112b7cc9a93cae41f3262" {
		t.Errorf("Sum(nil) = %s", got)
	}

	data := []byte(`<runConfigurations><configuration name="server"/></runConfigurations>`)
	first := Sum(data)
	second := Sum(data)
	if first != second {
		t.Errorf("Sum not deterministic: %s vs %s", first, second)
	}
	if len(first) != Size*2 {
		t.Errorf("fingerprint length = %d, want %d", len(first), Size*2)
	}

	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Error("distinct inputs should not collide")
	}
}

// TestSumReader verifies streaming matches one-shot hashing.
func TestSumReader(t *testing.T) {
	data := []byte(strings.Repeat("configuration data ", 1000))

	got, err := SumReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("SumReader failed: %v", err)
	}
	if want := Sum(data); got != want {
		t.Errorf("SumReader = %s, want %s", got, want)
	}
}

// TestSumFile verifies file hashing and the missing-file error.
func TestSumFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.xml")
	data := []byte(`<runConfigurations/>`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	got, err := SumFile(path)
	if err != nil {
		t.Fatalf("SumFile failed: %v", err)
	}
	if want := Sum(data); got != want {
		t.Errorf("SumFile = %s, want %s", got, want)
	}

	if _, err := SumFile(filepath.Join(t.TempDir(), "missing.xml")); err == nil {
		t.Error("SumFile should fail for a missing file")
	}
}

// TestValid verifies fingerprint syntax checking.
func TestValid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"valid", Sum([]byte("x")), true},
		{"empty", "", false},
		{"short", "abcd", false},
		{"bad hex", strings.Repeat("zz", Size), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.in); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
