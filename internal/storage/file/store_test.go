package file

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iLeonidze/OXPAHA28-bot/internal/storage/storagetest"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "state", "context.yaml"), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestFileStore_RoundTrip(t *testing.T) {
	storagetest.RunRoundTrip(t, newTestStore(t))
}

func TestFileStore_RoundTripCompressed(t *testing.T) {
	store := newTestStore(t, WithCompression(true))
	storagetest.RunRoundTrip(t, store)

	raw, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.HasPrefix(raw, zstdMagic) {
		t.Error("snapshot is not zstd-compressed")
	}
}

func TestFileStore_Overwrite(t *testing.T) {
	storagetest.RunOverwrite(t, newTestStore(t))
}

func TestFileStore_Empty(t *testing.T) {
	storagetest.RunEmpty(t, newTestStore(t))
}

func TestFileStore_EmptyFile(t *testing.T) {
	store := newTestStore(t)
	if err := os.WriteFile(store.Path(), nil, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	storagetest.RunEmpty(t, store)
}

func TestFileStore_ReadsPlainWhenCompressionEnabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.yaml")

	plain, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer plain.Close()
	if err := plain.Save(context.Background(), storagetest.SampleSnapshot()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	compressed, err := New(path, WithCompression(true))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer compressed.Close()

	got, err := compressed.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := storagetest.Diff(storagetest.SampleSnapshot(), got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStore_HumanReadable(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save(context.Background(), storagetest.SampleSnapshot()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	for _, want := range []string{"version: 1", "current_step: confirm", "Ленина"} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("snapshot missing %q:\n%s", want, raw)
		}
	}
}

func TestFileStore_CorruptSnapshotMovedAside(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "invalid yaml", data: []byte("sessions: [unterminated")},
		{name: "bad zstd frame", data: append(append([]byte(nil), zstdMagic...), 0xff, 0xff, 0xff)},
		{name: "newer version", data: []byte("version: 99\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			if err := os.WriteFile(store.Path(), tt.data, 0o600); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			if _, err := store.Load(context.Background()); !errors.Is(err, ErrCorrupt) {
				t.Fatalf("Load() error = %v, want ErrCorrupt", err)
			}

			aside, err := filepath.Glob(store.Path() + ".corrupt-*")
			if err != nil || len(aside) != 1 {
				t.Fatalf("moved-aside files = %v (err %v), want 1", aside, err)
			}
			kept, err := os.ReadFile(aside[0])
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if !bytes.Equal(kept, tt.data) {
				t.Errorf("moved-aside content = %q, want %q", kept, tt.data)
			}

			// The store starts over and a later save does not touch the copy.
			if snap, err := store.Load(context.Background()); err != nil || snap != nil {
				t.Errorf("Load() after move = %v, %v, want empty", snap, err)
			}
			storagetest.RunRoundTrip(t, store)
		})
	}
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < 3; i++ {
		if err := store.Save(context.Background(), storagetest.SampleSnapshot()); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory entries = %v, want only the snapshot", names)
	}
}

func TestFileStore_FailedSaveKeepsPrevious(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	storagetest.RunRoundTrip(t, store)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if err := store.Save(canceled, nil); err == nil {
		t.Fatal("Save() error = nil, want context error")
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := storagetest.Diff(storagetest.SampleSnapshot(), got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_EmptyPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("New(\"\") error = nil, want error")
	}
}
