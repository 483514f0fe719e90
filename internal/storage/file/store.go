// Package file stores the session snapshot as a single YAML document,
// optionally zstd-compressed. Writes go to a temporary file in the same
// directory and are renamed over the previous snapshot.
package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/iLeonidze/OXPAHA28-bot/internal/core/ports"
)

// ErrCorrupt is returned by Load when the snapshot cannot be decoded. The
// file has been renamed to <path>.corrupt-<unix time> so the next Save does
// not overwrite it.
var ErrCorrupt = errors.New("corrupt snapshot")

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

type Store struct {
	mu       sync.Mutex
	path     string
	compress bool
	enc      *zstd.Encoder
	dec      *zstd.Decoder
}

var _ ports.SnapshotStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithCompression enables zstd compression of saved snapshots. Loading
// detects compressed snapshots regardless of this setting.
func WithCompression(enabled bool) Option {
	return func(s *Store) {
		s.compress = enabled
	}
}

// New creates a store writing to path. The parent directory is created if
// missing.
func New(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("snapshot path is empty")
	}

	s := &Store{path: path}
	for _, opt := range opts {
		opt(s)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	s.enc = enc
	s.dec = dec

	return s, nil
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Save(ctx context.Context, snap *ports.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.compress {
		data = s.enc.EncodeAll(data, nil)
	}

	return writeAtomic(s.path, data)
}

func (s *Store) Load(ctx context.Context) (*ports.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	if bytes.HasPrefix(data, zstdMagic) {
		data, err = s.dec.DecodeAll(data, nil)
		if err != nil {
			return nil, s.quarantine(fmt.Errorf("decompress: %w", err))
		}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var snap ports.Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, s.quarantine(fmt.Errorf("decode: %w", err))
	}
	if snap.Version > ports.SnapshotVersion {
		return nil, s.quarantine(fmt.Errorf("version %d is newer than supported %d", snap.Version, ports.SnapshotVersion))
	}

	return &snap, nil
}

// quarantine moves the unreadable snapshot aside. Must be called with s.mu
// held.
func (s *Store) quarantine(cause error) error {
	aside := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
	if err := os.Rename(s.path, aside); err != nil {
		return fmt.Errorf("%w: %w (move aside: %v)", ErrCorrupt, cause, err)
	}
	return fmt.Errorf("%w: %w (moved to %s)", ErrCorrupt, cause, aside)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dec.Close()
	return s.enc.Close()
}

// writeAtomic replaces path with data so readers see either the old or the
// new content, never a partial write.
func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
