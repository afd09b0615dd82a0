// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
)

func testStore(t *testing.T) *TokenStore {
	t.Helper()
	return NewTokenStore(filepath.Join(t.TempDir(), "tokens.toml"))
}

func TestTokenStore_Roundtrip(t *testing.T) {
	t.Parallel()
	store := testStore(t)

	if err := store.Set("psgallery", "oy2-secret"); err != nil {
		t.Fatal(err)
	}
	if err := store.Set("internal", "key-2"); err != nil {
		t.Fatal(err)
	}

	token, err := store.Get("psgallery")
	if err != nil {
		t.Fatal(err)
	}
	if token != "oy2-secret" {
		t.Errorf("token = %q", token)
	}

	names, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(names, []string{"internal", "psgallery"}) {
		t.Errorf("names = %v", names)
	}
}

func TestTokenStore_FileMode(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("POSIX file modes")
	}
	store := testStore(t)
	if err := store.Set("a", "secret"); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token store mode = %o, want 600", perm)
	}
}

func TestTokenStore_Overwrite(t *testing.T) {
	t.Parallel()
	store := testStore(t)
	if err := store.Set("a", "old"); err != nil {
		t.Fatal(err)
	}
	if err := store.Set("a", "new"); err != nil {
		t.Fatal(err)
	}
	token, err := store.Get("a")
	if err != nil {
		t.Fatal(err)
	}
	if token != "new" {
		t.Errorf("token = %q", token)
	}
}

func TestTokenStore_Delete(t *testing.T) {
	t.Parallel()
	store := testStore(t)
	if err := store.Set("a", "x"); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get("a"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}
	if err := store.Delete("a"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("double delete: expected ErrTokenNotFound, got %v", err)
	}
}

func TestTokenStore_MissingFile(t *testing.T) {
	t.Parallel()
	store := testStore(t)
	if _, err := store.Get("anything"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}
	names, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 {
		t.Errorf("names = %v", names)
	}
}

func TestTokenStore_EmptyName(t *testing.T) {
	t.Parallel()
	if err := testStore(t).Set("", "x"); err == nil {
		t.Error("expected error for empty name")
	}
}
