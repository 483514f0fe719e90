package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/iLeonidze/OXPAHA28-bot/internal/storage/storagetest"
)

func newTestStore(t *testing.T, name string) *Store {
	t.Helper()
	// Use in-memory SQLite with shared cache for testing
	store, err := New("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	storagetest.RunRoundTrip(t, newTestStore(t, "memdb1"))
}

func TestSQLiteStore_Overwrite(t *testing.T) {
	storagetest.RunOverwrite(t, newTestStore(t, "memdb2"))
}

func TestSQLiteStore_Empty(t *testing.T) {
	storagetest.RunEmpty(t, newTestStore(t, "memdb3"))
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.db")

	store, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := store.Save(context.Background(), storagetest.SampleSnapshot()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := storagetest.Diff(storagetest.SampleSnapshot(), got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteStore_CanceledSaveKeepsPrevious(t *testing.T) {
	store := newTestStore(t, "memdb4")
	storagetest.RunRoundTrip(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	empty := storagetest.SampleSnapshot()
	empty.Sessions = nil
	if err := store.Save(ctx, empty); err == nil {
		t.Fatal("Save() error = nil, want context error")
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got.Sessions) != 2 {
		t.Errorf("Sessions = %d, want 2", len(got.Sessions))
	}
}

func TestTimeEncoding(t *testing.T) {
	zero, err := parseTime("")
	if err != nil {
		t.Fatalf("parseTime(\"\") error = %v", err)
	}
	if !zero.IsZero() {
		t.Errorf("parseTime(\"\") = %v, want zero", zero)
	}
	if got := formatTime(zero); got != "" {
		t.Errorf("formatTime(zero) = %q, want empty", got)
	}

	want := storagetest.SampleSnapshot().SavedAt
	got, err := parseTime(formatTime(want))
	if err != nil {
		t.Fatalf("parseTime() error = %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("parseTime(formatTime(%v)) = %v", want, got)
	}
}
