package cache

import (
	"os"
	"path/filepath"
	"testing"
)

const testURL = "https://example.com/feasible.yml"

func newTestCache(t *testing.T) (*Cache, string) {
	t.Helper()
	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, dir
}

func TestStoreAndLookup(t *testing.T) {
	c, _ := newTestCache(t)

	if err := c.Store(testURL, []byte("variables: {}")); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, found, err := c.Lookup(testURL)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !found {
		t.Fatal("expected cache hit")
	}
	if string(got) != "variables: {}" {
		t.Errorf("got %q", string(got))
	}
}

func TestLookupMiss(t *testing.T) {
	c, _ := newTestCache(t)

	_, found, err := c.Lookup("https://example.com/other.yml")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if found {
		t.Fatal("expected cache miss")
	}
}

func TestStoreMovesRef(t *testing.T) {
	c, _ := newTestCache(t)

	if err := c.Store(testURL, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := c.Store(testURL, []byte("second")); err != nil {
		t.Fatal(err)
	}

	got, found, err := c.Lookup(testURL)
	if err != nil || !found {
		t.Fatalf("Lookup: found=%v err=%v", found, err)
	}
	if string(got) != "second" {
		t.Errorf("got %q, want the latest content", got)
	}
}

func TestStoreIdempotent(t *testing.T) {
	c, _ := newTestCache(t)

	content := []byte("data")
	if err := c.Store(testURL, content); err != nil {
		t.Fatal(err)
	}
	if err := c.Store(testURL, content); err != nil {
		t.Fatalf("second Store should succeed: %v", err)
	}
}

func TestCorruptCacheEntry(t *testing.T) {
	c, _ := newTestCache(t)

	content := []byte("original")
	if err := c.Store(testURL, content); err != nil {
		t.Fatal(err)
	}

	// Corrupt the stored object.
	objPath := c.objectPath(computeHash(content))
	if err := os.WriteFile(objPath, []byte("corrupted"), 0644); err != nil {
		t.Fatal(err)
	}

	_, found, err := c.Lookup(testURL)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if found {
		t.Fatal("corrupt entry should be reported as a miss")
	}
	if _, err := os.Stat(objPath); !os.IsNotExist(err) {
		t.Error("corrupt object should have been removed")
	}
	if _, err := os.Stat(c.refPath(testURL)); !os.IsNotExist(err) {
		t.Error("ref to a corrupt object should have been removed")
	}
}

func TestDanglingRef(t *testing.T) {
	c, _ := newTestCache(t)

	content := []byte("x")
	if err := c.Store(testURL, content); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(c.objectPath(computeHash(content))); err != nil {
		t.Fatal(err)
	}

	if _, found, err := c.Lookup(testURL); err != nil || found {
		t.Fatalf("Lookup: found=%v err=%v, want miss", found, err)
	}
	if _, err := os.Stat(c.refPath(testURL)); !os.IsNotExist(err) {
		t.Error("dangling ref should have been removed")
	}
}

func TestLookupReadError(t *testing.T) {
	c, _ := newTestCache(t)

	// A directory where the ref should be causes a read error.
	if err := os.MkdirAll(c.refPath(testURL), 0755); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.Lookup(testURL); err == nil {
		t.Fatal("expected error when reading a directory as a file")
	}
}

func TestSize(t *testing.T) {
	c, _ := newTestCache(t)

	size, err := c.Size()
	if err != nil {
		t.Fatal(err)
	}
	if size != 0 {
		t.Errorf("empty cache size = %d", size)
	}

	if err := c.Store(testURL, []byte("12345")); err != nil {
		t.Fatal(err)
	}
	size, err = c.Size()
	if err != nil {
		t.Fatal(err)
	}
	// 5 bytes of content plus a 65 byte ref.
	if size != 70 {
		t.Errorf("size = %d, want 70", size)
	}
}

func TestPath(t *testing.T) {
	c, dir := newTestCache(t)
	if c.Path() != dir {
		t.Errorf("Path() = %q, want %q", c.Path(), dir)
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	if got := DefaultDir(); got != filepath.Join("/custom/cache", "feasible") {
		t.Errorf("DefaultDir() = %q", got)
	}

	t.Setenv("XDG_CACHE_HOME", "")
	userCache, err := os.UserCacheDir()
	if err != nil {
		t.Skip("no user cache directory")
	}
	if got := DefaultDir(); got != filepath.Join(userCache, "feasible") {
		t.Errorf("DefaultDir() = %q", got)
	}
}

func TestObjectPathLayout(t *testing.T) {
	c, dir := newTestCache(t)

	hash := "abcdef1234567890abcdef1234567890abcdef1234567890abcdef1234567890"
	want := filepath.Join(dir, "objects", "ab", hash)
	if got := c.objectPath(hash); got != want {
		t.Errorf("objectPath = %q, want %q", got, want)
	}
	if got := c.objectPath("a"); got != filepath.Join(dir, "objects", "a") {
		t.Errorf("short hash path = %q", got)
	}
}

func TestNewCreatesDirError(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("test unreliable as root")
	}

	dir := t.TempDir()
	readOnly := filepath.Join(dir, "readonly")
	if err := os.MkdirAll(readOnly, 0555); err != nil {
		t.Fatal(err)
	}
	if _, err := New(filepath.Join(readOnly, "cache")); err == nil {
		t.Error("expected error creating cache in read-only directory")
	}
}
