package statistics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/StreamFox/app/models"
	"github.com/ManuelReschke/StreamFox/app/repository"
	"github.com/ManuelReschke/StreamFox/internal/pkg/database"
	"github.com/ManuelReschke/StreamFox/internal/pkg/entitlements"
)

// mapStorage is a minimal fiber.Storage for tests.
type mapStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapStorage() *mapStorage {
	return &mapStorage{data: map[string][]byte{}}
}

func (m *mapStorage) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *mapStorage) Set(key string, val []byte, exp time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = val
	return nil
}

func (m *mapStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mapStorage) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = map[string][]byte{}
	return nil
}

func (m *mapStorage) Close() error { return nil }

func TestOverviewIsCachedUntilInvalidated(t *testing.T) {
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	repos := repository.NewRepositories(db)

	u, err := models.CreateUser("Frank", "frank@example.com", "secret123")
	require.NoError(t, err)
	u.SubscriptionStatus = entitlements.StatusActive
	require.NoError(t, repos.User.Create(u))

	cache := newMapStorage()
	svc := NewService(repos, cache)

	o, err := svc.GetOverview()
	require.NoError(t, err)
	assert.Equal(t, int64(1), o.TotalUsers)
	assert.Equal(t, int64(1), o.ActiveSubscribers)
	assert.NotEmpty(t, cache.data[CacheKeyOverview])

	v := &models.Video{Title: "s", VideoType: entitlements.VideoShort, AccessType: entitlements.AccessFree, VideoURL: "/s.mp4"}
	require.NoError(t, repos.Video.Create(v))

	o, err = svc.GetOverview()
	require.NoError(t, err)
	assert.Equal(t, int64(0), o.Shorts, "served from cache")

	svc.Invalidate()
	o, err = svc.GetOverview()
	require.NoError(t, err)
	assert.Equal(t, int64(1), o.Shorts)
}

func TestOverviewWithoutCache(t *testing.T) {
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	svc := NewService(repository.NewRepositories(db), nil)

	o, err := svc.GetOverview()
	require.NoError(t, err)
	assert.Zero(t, o.TotalUsers)
	svc.Invalidate()
}
