package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_PutGetExists(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "/artifacts")
	require.NoError(t, err)

	key := "tenant-a/orders/order_order-1.pdf"

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	url, err := s.Put(ctx, key, strings.NewReader("%PDF-1.4 test"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "/artifacts/tenant-a/orders/order_order-1.pdf", url)

	ok, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(data))
}

func TestLocalStorage_GetMissing(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/artifacts")
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "missing.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestLocalStorage_DeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "/artifacts")
	require.NoError(t, err)

	_, err = s.Put(ctx, "a.pdf", strings.NewReader("x"), "application/pdf")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "a.pdf"))
	require.NoError(t, s.Delete(ctx, "a.pdf"))
}

func TestNewStorage_UnknownProvider(t *testing.T) {
	_, err := NewStorage(context.Background(), Config{Provider: "ftp"})
	require.Error(t, err)
}
