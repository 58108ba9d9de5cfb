// Package cache keeps the last fetched copy of remote configuration
// documents so a run can proceed when the URL is unreachable.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brendtumi/feasible/internal/sandbox"
)

// Cache stores documents by content hash, with one ref per key pointing at
// the latest content.
//
//	<dir>/objects/ab/abcdef...   content
//	<dir>/refs/12/1234ab...      content hash for sha256(key)
type Cache struct {
	dir string
}

// New creates a Cache at the given directory.
// The directory is created if it does not exist.
func New(dir string) (*Cache, error) {
	for _, sub := range []string{"objects", "refs"} {
		p := filepath.Join(dir, sub)
		if err := os.MkdirAll(p, 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory %s: %w", p, err)
		}
	}
	return &Cache{dir: dir}, nil
}

// DefaultDir returns the default cache directory.
// Uses XDG_CACHE_HOME if set, otherwise the user cache directory.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "feasible")
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "feasible-cache")
	}
	return filepath.Join(dir, "feasible")
}

// Lookup returns the content last stored under key.
// A ref or object that fails verification is removed and reported as a miss.
func (c *Cache) Lookup(key string) ([]byte, bool, error) {
	refPath := c.refPath(key)
	ref, err := os.ReadFile(refPath)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache ref for %s: %w", key, err)
	}

	hash := strings.TrimSpace(string(ref))
	data, err := os.ReadFile(c.objectPath(hash))
	if os.IsNotExist(err) {
		_ = os.Remove(refPath)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry %s: %w", hash, err)
	}

	if computeHash(data) != hash {
		// Self-healing: drop the corrupt entry.
		_ = os.Remove(c.objectPath(hash))
		_ = os.Remove(refPath)
		return nil, false, nil
	}
	return data, true, nil
}

// Store saves content and points key at it.
func (c *Cache) Store(key string, content []byte) error {
	hash := computeHash(content)

	// Objects are immutable; only the ref moves.
	if _, err := os.Stat(c.objectPath(hash)); err != nil {
		if err := sandbox.SafeWrite(c.dir, objectName(hash), content, 0644); err != nil {
			return fmt.Errorf("caching %s: %w", key, err)
		}
	}
	if err := sandbox.SafeWrite(c.dir, refName(key), []byte(hash+"\n"), 0644); err != nil {
		return fmt.Errorf("caching %s: %w", key, err)
	}
	return nil
}

// Size returns the total size of the cache in bytes.
func (c *Cache) Size() (int64, error) {
	var total int64
	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// Path returns the cache directory path.
func (c *Cache) Path() string {
	return c.dir
}

func (c *Cache) refPath(key string) string {
	return filepath.Join(c.dir, refName(key))
}

func (c *Cache) objectPath(hash string) string {
	return filepath.Join(c.dir, objectName(hash))
}

// refName and objectName are relative to the cache directory.
func refName(key string) string {
	return shardedPath("refs", computeHash([]byte(key)))
}

func objectName(hash string) string {
	return shardedPath("objects", hash)
}

func shardedPath(base, hash string) string {
	if len(hash) < 2 {
		return filepath.Join(base, hash)
	}
	return filepath.Join(base, hash[:2], hash)
}

func computeHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}
