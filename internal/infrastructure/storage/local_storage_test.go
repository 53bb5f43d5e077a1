package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalStorage_SaveAndDelete(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	s.now = fixedNow

	key, err := s.Save(context.Background(), []byte("png-bytes"), "png")
	require.NoError(t, err)
	assert.Regexp(t, keyPattern, key)

	got, err := os.ReadFile(filepath.Join(s.Root(), key))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(got))

	require.NoError(t, s.Delete(context.Background(), key))
	_, err = os.Stat(filepath.Join(s.Root(), key))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, s.Delete(context.Background(), key), "deleting twice is fine")
}

func TestLocalStorage_Errors(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save(context.Background(), []byte("x"), "")
	assert.ErrorIs(t, err, ErrEmptyExtension)

	assert.Error(t, s.Delete(context.Background(), "../../etc/passwd"))
	assert.Error(t, s.Delete(context.Background(), ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Save(ctx, []byte("x"), "png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	fs, err := New(context.Background(), config.StorageConfig{Backend: "local", LocalRoot: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, fs)

	_, err = New(context.Background(), config.StorageConfig{Backend: "ftp"}, zap.NewNop())
	assert.Error(t, err)
}
