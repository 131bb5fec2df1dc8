package blob

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/files")
	ctx := context.Background()

	info, err := store.Save(ctx, "homework.pdf", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "homework.pdf", info.Filename)
	assert.EqualValues(t, 5, info.SizeBytes)
	assert.NotEmpty(t, info.ID)

	stat, err := store.Stat(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, info.Filename, stat.Filename)
	assert.Equal(t, info.SizeBytes, stat.SizeBytes)

	r, err := store.Open(ctx, info.ID)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	assert.Equal(t, "/files/"+info.ID, store.URL(info.ID))
}

func TestLocalStoreStripsDirectoryFromFilename(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/files")
	info, err := store.Save(context.Background(), "../../etc/passwd", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "passwd", info.Filename)
}

func TestLocalStoreMissingBlob(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/files")
	ctx := context.Background()

	_, err := store.Stat(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Stat(ctx, "0b9cb9f2-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Open(ctx, "../../escape")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreDelete(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/files")
	ctx := context.Background()

	info, err := store.Save(ctx, "a.txt", []byte("x"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, info.ID))

	_, err = store.Stat(ctx, info.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Delete(ctx, info.ID), "deleting a missing blob is not an error")
}
