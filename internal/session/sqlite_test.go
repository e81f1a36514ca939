package session

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoadCredentials(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := &Credentials{AccessToken: "access-1", RefreshToken: "refresh-1"}
	if err := store.SaveCredentials(ctx, want); err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}

	got, err := store.LoadCredentials(ctx)
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if got == nil {
		t.Fatal("LoadCredentials returned nil after save")
	}
	if got.AccessToken != want.AccessToken {
		t.Errorf("AccessToken = %q, want %q", got.AccessToken, want.AccessToken)
	}
	if got.RefreshToken != want.RefreshToken {
		t.Errorf("RefreshToken = %q, want %q", got.RefreshToken, want.RefreshToken)
	}
}

func TestLoadCredentials_EmptyStore(t *testing.T) {
	store := newTestStore(t)

	got, err := store.LoadCredentials(context.Background())
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if got != nil {
		t.Errorf("LoadCredentials on empty store = %+v, want nil", got)
	}
}

func TestSaveCredentials_ReplacesPrevious(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &Credentials{AccessToken: "access-1", RefreshToken: "refresh-1"}
	if err := store.SaveCredentials(ctx, first); err != nil {
		t.Fatalf("SaveCredentials (first): %v", err)
	}
	second := &Credentials{AccessToken: "access-2", RefreshToken: "refresh-2"}
	if err := store.SaveCredentials(ctx, second); err != nil {
		t.Fatalf("SaveCredentials (second): %v", err)
	}

	got, err := store.LoadCredentials(ctx)
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if got.AccessToken != "access-2" || got.RefreshToken != "refresh-2" {
		t.Errorf("got %+v, want second pair", got)
	}
}

func TestSaveCredentials_Nil(t *testing.T) {
	store := newTestStore(t)
	if err := store.SaveCredentials(context.Background(), nil); err == nil {
		t.Error("SaveCredentials(nil) should return error")
	}
}

func TestClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveCredentials(ctx, &Credentials{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	got, err := store.LoadCredentials(ctx)
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if got != nil {
		t.Errorf("LoadCredentials after Clear = %+v, want nil", got)
	}

	// Clearing an empty store is a no-op.
	if err := store.Clear(ctx); err != nil {
		t.Errorf("Clear on empty store: %v", err)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := store.SaveCredentials(ctx, &Credentials{AccessToken: "persist-a", RefreshToken: "persist-r"}); err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore (reopen): %v", err)
	}
	defer reopened.Close()

	got, err := reopened.LoadCredentials(ctx)
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if got == nil || got.AccessToken != "persist-a" {
		t.Errorf("got %+v, want persisted pair", got)
	}
}
