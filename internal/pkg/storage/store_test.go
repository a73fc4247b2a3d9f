package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePutAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/uploads")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "videos/1_clip.mp4", "video/mp4", strings.NewReader("data"), 4)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/videos/1_clip.mp4", url)

	content, err := os.ReadFile(filepath.Join(dir, "videos", "1_clip.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(content))

	require.NoError(t, store.Delete(context.Background(), "videos/1_clip.mp4"))
	_, err = os.Stat(filepath.Join(dir, "videos", "1_clip.mp4"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, store.Delete(context.Background(), "videos/1_clip.mp4"))
}

func TestObjectKey(t *testing.T) {
	key, err := ObjectKey("videos", "1_clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, "videos/1_clip.mp4", key)

	_, err = ObjectKey("videos", "../../etc/passwd")
	assert.Error(t, err)
}

func TestLoadConfigS3RequiresCredentials(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("S3_ACCESS_KEY_ID", "")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("STORAGE_BACKEND", "local")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, BackendLocal, cfg.Backend)
}
