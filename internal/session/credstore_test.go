package session

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestFileCredentialStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := NewFileCredentialStoreAt(path)

	want := &Identity{ID: "1", Username: "mina", Email: "mina@example.com", Token: "t1"}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("credentials file mode = %o, want 600", perm)
		}
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || *got != *want {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	store := NewFileCredentialStoreAt(filepath.Join(t.TempDir(), "credentials.json"))

	got, err := store.Load()
	if err != nil {
		t.Fatalf("missing file should load as absent, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil identity, got %+v", got)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := NewFileCredentialStoreAt(path)

	if err := store.Save(&Identity{Token: "t1"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
	if got, _ := store.Load(); got != nil {
		t.Errorf("credentials survived Clear: %+v", got)
	}
}
