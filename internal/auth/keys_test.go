package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrGenerateKey(t *testing.T) {
	dir := t.TempDir()

	key, err := LoadOrGenerateKey(dir)
	if err != nil {
		t.Fatalf("LoadOrGenerateKey: %v", err)
	}
	if len(key) != keyLength {
		t.Fatalf("key length: got %d, want %d", len(key), keyLength)
	}

	// A second load returns the same key.
	again, err := LoadOrGenerateKey(dir)
	if err != nil {
		t.Fatalf("second LoadOrGenerateKey: %v", err)
	}
	if string(key) != string(again) {
		t.Error("key must be stable across loads")
	}
}

func TestLoadOrGenerateKey_RejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "auth.key"), []byte("short"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	if _, err := LoadOrGenerateKey(dir); err == nil {
		t.Error("expected error for corrupt key file")
	}
}
