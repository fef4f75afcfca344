// Package cache stores fix-all results between runs.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"remedy/internal/fix"
	"remedy/internal/source"
)

// Current schema version - increment when Payload format changes
const diskSchemaVersion uint16 = 1

// DiskCache хранит результаты fix-all по ключу документа на диске.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Payload is the on-disk record for one document run.
type Payload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Text    string
	Applied []FindingRecord
	Skipped []SkipRecord

	StoredAt int64 // unix seconds
}

// FindingRecord is the stable serialized form of a finding.
type FindingRecord struct {
	Rule       string
	Document   string
	Start      uint32
	End        uint32
	Severity   uint8
	Message    string
	Properties map[string]string
}

// SkipRecord is the serialized form of a skipped finding.
type SkipRecord struct {
	Finding FindingRecord
	Reason  uint8
	Detail  string
}

// DefaultDir returns the per-user cache directory for app.
func DefaultDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// OpenDiskCache initializes a disk cache rooted at dir. An empty dir selects
// DefaultDir("remedy").
func OpenDiskCache(dir string) (*DiskCache, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir("remedy")
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key source.Digest) string {
	hexKey := key.String()
	// подкаталог по первым двум символам, чтобы не раздувать один каталог
	return filepath.Join(c.dir, "fix", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes an entry to the disk cache.
func (c *DiskCache) Put(key source.Digest, entry fix.CachedResult) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmp)
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(toPayload(entry)); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	if err := os.Rename(tmp, p); err != nil {
		return err
	}
	renamed = true
	return nil
}

// Get reads an entry. Missing, unreadable or outdated records are misses.
func (c *DiskCache) Get(key source.Digest) (fix.CachedResult, bool) {
	payload, ok, err := c.load(key)
	if err != nil || !ok {
		return fix.CachedResult{}, false
	}
	return fromPayload(payload), true
}

func (c *DiskCache) load(key source.Digest) (*Payload, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var out Payload
	if err := msgpack.NewDecoder(f).Decode(&out); err != nil {
		return nil, false, err
	}
	if out.Schema != diskSchemaVersion {
		return nil, false, nil
	}
	return &out, true, nil
}

// DropAll invalidates the cache.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// тривиально: переименуем каталог и удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
