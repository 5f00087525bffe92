package storage

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoragePutOpen(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "receipts")
	ls, err := NewLocalStorage(dir)
	require.NoError(t, err)

	assert.False(t, ls.Exists(ctx, "receipt_1.pdf"))

	path, err := ls.Put(ctx, "receipt_1.pdf", []byte("%PDF-1.3 test"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "receipt_1.pdf"), path)
	assert.True(t, ls.Exists(ctx, "receipt_1.pdf"))

	f, err := ls.Open(ctx, "receipt_1.pdf")
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 test", string(data))

	_, err = ls.Put(ctx, "receipt_1.pdf", []byte("replaced"))
	require.NoError(t, err)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	ls, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "..", "../x.pdf", "a/b.pdf", `a\b.pdf`} {
		_, err := ls.Put(ctx, name, []byte("x"))
		assert.Error(t, err, name)
	}

	_, err = ls.Open(ctx, "missing.pdf")
	assert.ErrorIs(t, err, ErrNotExist)
}
