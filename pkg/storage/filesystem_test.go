package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRelativeAndAbsolute(t *testing.T) {
	base := filepath.Join(t.TempDir(), "reports")
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	path, err := store.Save("2026/inventory.csv", []byte("Table,Rows\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "2026", "inventory.csv"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Table,Rows\n", string(data))

	abs := filepath.Join(t.TempDir(), "out.txt")
	path, err = store.Save(abs, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, abs, path)
	assert.Equal(t, abs, store.Path(abs))
}
