package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes size filler bytes to path. A size <= 0 writes one byte so
// the asset index sees a non-empty file.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	WriteBytes(t, path, bytes.Repeat([]byte{'b'}, int(max(size, 1))))
}

// WriteBytes writes data to path, creating parent directories.
func WriteBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
