package sandbox

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func realPath(t *testing.T, p string) string {
	t.Helper()
	r, err := filepath.EvalSymlinks(p)
	require.NoError(t, err)
	return r
}

func TestValidatePath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a"), 0755))

	tests := []struct {
		name    string
		path    string
		want    string
		escapes bool
	}{
		{"plain", "config.json", "config.json", false},
		{"nested missing dirs", "x/y/z.txt", "x/y/z.txt", false},
		{"root itself", ".", "", false},
		{"dot dot inside", "a/../b.txt", "b.txt", false},
		{"dot dot escape", "../escape.txt", "", true},
		{"nested escape", "a/../../escape.txt", "", true},
		{"absolute outside", "/etc/passwd", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidatePath(root, tt.path)
			if tt.escapes {
				var ee *EscapeError
				require.True(t, errors.As(err, &ee), "err = %v", err)
				assert.Equal(t, tt.path, ee.Path)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(realPath(t, root), tt.want), got)
		})
	}
}

func TestValidatePathInvalidRoot(t *testing.T) {
	_, err := ValidatePath("/nonexistent/root/for/feasible", "a.txt")
	assert.Error(t, err)
}

func TestValidatePathSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test not reliable on Windows")
	}
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "real", "sub"), 0755))
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape-link")))

	got, err := ValidatePath(root, "link/sub/file.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(realPath(t, root), "real", "sub", "file.txt"), got)

	_, err = ValidatePath(root, "escape-link/file.txt")
	var ee *EscapeError
	assert.True(t, errors.As(err, &ee))
}

func TestSafeWrite(t *testing.T) {
	root := t.TempDir()

	require.NoError(t, SafeWrite(root, "deep/nested/out.txt", []byte("one"), 0600))
	data, err := os.ReadFile(filepath.Join(root, "deep", "nested", "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	info, err := os.Stat(filepath.Join(root, "deep", "nested", "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, SafeWrite(root, "deep/nested/out.txt", []byte("two"), 0644))
	data, err = os.ReadFile(filepath.Join(root, "deep", "nested", "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Join(root, "deep", "nested"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should not remain")
}

func TestSafeWriteRejectsEscape(t *testing.T) {
	err := SafeWrite(t.TempDir(), "../outside.txt", []byte("x"), 0644)
	var ee *EscapeError
	assert.True(t, errors.As(err, &ee))
}

func TestSafeRemove(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "gone.txt"), []byte("x"), 0644))

	require.NoError(t, SafeRemove(root, "gone.txt"))
	_, err := os.Stat(filepath.Join(root, "gone.txt"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, SafeRemove(root, "gone.txt"), "missing file is not an error")
	assert.Error(t, SafeRemove(root, "../x.txt"))
}

func TestSnapshotRestore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.txt"), []byte("original"), 0640))

	existing, err := TakeSnapshot(root, "keep.txt")
	require.NoError(t, err)
	assert.True(t, existing.Existed)
	fresh, err := TakeSnapshot(root, "new/file.txt")
	require.NoError(t, err)
	assert.False(t, fresh.Existed)

	require.NoError(t, SafeWrite(root, "keep.txt", []byte("changed"), 0644))
	require.NoError(t, SafeWrite(root, "new/file.txt", []byte("created"), 0644))

	require.NoError(t, existing.Restore())
	require.NoError(t, fresh.Restore())

	data, err := os.ReadFile(filepath.Join(root, "keep.txt"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
	info, err := os.Stat(filepath.Join(root, "keep.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())

	_, err = os.Stat(filepath.Join(root, "new", "file.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestSnapshotDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir"), 0755))
	_, err := TakeSnapshot(root, "dir")
	assert.Error(t, err)
}
