// Package hashcache computes content digests for fixture files and
// memoizes them behind a pluggable store.
//
// A cache entry is keyed by (absolute path, size, mtime), so a changed
// file produces a new key and stale entries are simply shadowed. The
// store lock is only ever held around map access; file I/O happens
// outside it, so two concurrent requests for the same uncached file may
// both hash it. Correctness is unaffected, only work is duplicated.
package hashcache

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fakehub/fakehub/internal/metrics"
)

// readChunkSize bounds memory use while hashing arbitrarily large files.
const readChunkSize = 1024 * 1024

// Digests holds both digest forms reported by the hub API: the legacy
// 160-bit OID and the LFS-style 256-bit one.
type Digests struct {
	SHA1   string
	SHA256 string
}

// Key identifies a file state. Any content change moves size or mtime
// and therefore the key.
type Key struct {
	Path    string
	Size    int64
	ModTime int64 // unix nanoseconds
}

// Store is a digest cache backend.
type Store interface {
	Get(ctx context.Context, key Key) (Digests, bool)
	Put(ctx context.Context, key Key, d Digests)
}

// MemoryStore is a process-wide map guarded by a mutex.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[Key]Digests
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[Key]Digests)}
}

func (s *MemoryStore) Get(_ context.Context, key Key) (Digests, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.entries[key]
	return d, ok
}

func (s *MemoryStore) Put(_ context.Context, key Key, d Digests) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = d
}

// Len reports the number of cached entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Disabled is a Store that caches nothing.
type Disabled struct{}

func (Disabled) Get(context.Context, Key) (Digests, bool) { return Digests{}, false }
func (Disabled) Put(context.Context, Key, Digests)        {}

// Hasher computes digests through a Store.
type Hasher struct {
	store Store
}

// New creates a Hasher over the given store.
func New(store Store) *Hasher {
	if store == nil {
		store = Disabled{}
	}
	return &Hasher{store: store}
}

// Sum returns the digests for the file at absPath, computing them in a
// single streaming pass on cache miss.
func (h *Hasher) Sum(ctx context.Context, absPath string) (Digests, error) {
	key, err := keyFor(absPath)
	if err != nil {
		return Digests{}, err
	}

	if d, ok := h.store.Get(ctx, key); ok {
		metrics.RecordHashCacheLookup(true)
		return d, nil
	}
	metrics.RecordHashCacheLookup(false)

	d, err := computeDigests(absPath)
	if err != nil {
		return Digests{}, err
	}
	h.store.Put(ctx, key, d)
	return d, nil
}

func keyFor(absPath string) (Key, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		return Key{}, fmt.Errorf("stat %s: %w", absPath, err)
	}
	return Key{
		Path:    absPath,
		Size:    info.Size(),
		ModTime: info.ModTime().UnixNano(),
	}, nil
}

func computeDigests(absPath string) (Digests, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return Digests{}, fmt.Errorf("open %s: %w", absPath, err)
	}
	defer f.Close()

	h1 := sha1.New()
	h256 := sha256.New()
	buf := make([]byte, readChunkSize)
	if _, err := io.CopyBuffer(io.MultiWriter(h1, h256), f, buf); err != nil {
		return Digests{}, fmt.Errorf("read %s: %w", absPath, err)
	}

	return Digests{
		SHA1:   hex.EncodeToString(h1.Sum(nil)),
		SHA256: hex.EncodeToString(h256.Sum(nil)),
	}, nil
}
