package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache stores one JSON document per entry below a directory.
// Entries survive process restarts, which lets consecutive CLI runs share
// hostname lookups.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache creates a file-based cache in dir.
// The directory is created if it doesn't exist.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

// fileEntry wraps cached data with its expiry.
type fileEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Get retrieves a value. Unreadable and expired entries are removed and
// reported as a miss.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry fileEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if !entry.ExpiresAt.IsZero() && c.now().After(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set stores a value.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := fileEntry{Data: data}
	if ttl > 0 {
		entry.ExpiresAt = c.now().Add(ttl)
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// Delete removes a value. Deleting a missing key is not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes every cache entry and returns how many it removed. Files
// the cache did not write are left alone; shard directories are removed
// once they are empty.
func (c *FileCache) Clear() (int, error) {
	shards, err := c.entries()
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	n := 0
	for shard, files := range shards {
		for _, path := range files {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return n, fmt.Errorf("clear cache: %w", err)
			}
			n++
		}
		if rest, err := os.ReadDir(shard); err == nil && len(rest) == 0 {
			_ = os.Remove(shard)
		}
	}
	return n, nil
}

// Count returns the number of stored entries, expired ones included.
func (c *FileCache) Count() (int, error) {
	shards, err := c.entries()
	n := 0
	for _, files := range shards {
		n += len(files)
	}
	return n, err
}

// entries lists the entry files laid out by path, keyed by shard directory.
func (c *FileCache) entries() (map[string][]string, error) {
	dirs, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	shards := make(map[string][]string)
	for _, d := range dirs {
		if !d.IsDir() || !isHex(d.Name(), shardLen) {
			continue
		}
		shard := filepath.Join(c.dir, d.Name())
		files, err := os.ReadDir(shard)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			name, ok := strings.CutSuffix(f.Name(), entryExt)
			if f.Type().IsRegular() && ok && isHex(name, entryNameLen) {
				shards[shard] = append(shards[shard], filepath.Join(shard, f.Name()))
			}
		}
	}
	return shards, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Close does nothing for file cache.
func (c *FileCache) Close() error {
	return nil
}

const (
	shardLen     = 2
	entryNameLen = 2*sha256.Size - shardLen
	entryExt     = ".json"
)

// path maps a key to <dir>/<hash[:2]>/<hash[2:]>.json so no single
// directory grows too large.
func (c *FileCache) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	name := hex.EncodeToString(sum[:])
	return filepath.Join(c.dir, name[:shardLen], name[shardLen:]+entryExt)
}

// isHex reports whether s is n lowercase hex digits.
func isHex(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if !('0' <= r && r <= '9' || 'a' <= r && r <= 'f') {
			return false
		}
	}
	return true
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)
