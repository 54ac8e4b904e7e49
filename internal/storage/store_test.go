package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	store, err := NewStore(t.TempDir(), logger)
	require.NoError(t, err)
	return store
}

func TestNewStore_CreatesFolders(t *testing.T) {
	store := newTestStore(t)

	for _, folder := range []string{"uploads", "checks", "outputs"} {
		info, err := os.Stat(filepath.Join(store.Root(), folder))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestStore_Save(t *testing.T) {
	store := newTestStore(t)

	stored, err := store.Save("binder.yaml", []byte("entities:\n"))
	require.NoError(t, err)

	// Unique prefix, original base name preserved
	assert.True(t, strings.HasSuffix(stored, "_binder.yaml"), "stored name %q", stored)
	assert.NotEqual(t, "binder.yaml", stored)

	data, err := os.ReadFile(store.UploadPath(stored))
	require.NoError(t, err)
	assert.Equal(t, "entities:\n", string(data))

	// Two uploads of the same name never collide
	other, err := store.Save("binder.yaml", []byte("x"))
	require.NoError(t, err)
	assert.NotEqual(t, stored, other)
}

func TestStore_Save_StripsDirectories(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"../../etc/passwd", `C:\temp\spec.yaml`, "nested/dir/spec.yaml"} {
		stored, err := store.Save(name, []byte("data"))
		require.NoError(t, err)
		assert.NotContains(t, stored, "/")
		assert.NotContains(t, stored, `\`)
	}
}

func TestStore_Save_EmptyFile(t *testing.T) {
	store := newTestStore(t)

	stored, err := store.Save("empty.yaml", []byte{})
	require.NoError(t, err)

	data, err := os.ReadFile(store.UploadPath(stored))
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestStore_Resolve(t *testing.T) {
	store := newTestStore(t)

	stored, err := store.Save("binder.yaml", []byte("entities:\n"))
	require.NoError(t, err)

	abs, contentType, err := store.Resolve("uploads/" + stored)
	require.NoError(t, err)
	assert.Equal(t, "application/x-yaml", contentType)

	data, err := os.ReadFile(abs)
	require.NoError(t, err)
	assert.Equal(t, "entities:\n", string(data))
}

func TestStore_Resolve_ContentTypes(t *testing.T) {
	store := newTestStore(t)

	cases := map[string]string{
		"structure.cif": "chemical/x-cif",
		"metrics.csv":   "text/csv",
		"report.pdf":    "application/pdf",
		"notes.txt":     "text/plain",
		"data.json":     "application/json",
		"blob.bin":      "application/octet-stream",
	}

	for name, want := range cases {
		path := filepath.Join(store.Root(), "checks", name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

		_, contentType, err := store.Resolve("checks/" + name)
		require.NoError(t, err)
		assert.Equal(t, want, contentType, "file %s", name)
	}
}

func TestStore_Resolve_Rejections(t *testing.T) {
	store := newTestStore(t)

	// A private file outside the allowed folders
	secret := filepath.Join(store.Root(), "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("x"), 0644))

	cases := []struct {
		name    string
		relPath string
		errPart string
	}{
		{"empty path", "", "empty"},
		{"disallowed folder", "secret.txt", "invalid folder"},
		{"unknown folder", "private/file.txt", "invalid folder"},
		{"traversal", "uploads/../secret.txt", "invalid folder"},
		{"missing file", "uploads/nope.yaml", "not found"},
		{"directory", "uploads", "not a file"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := store.Resolve(tc.relPath)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errPart)
		})
	}
}
