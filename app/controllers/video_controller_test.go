package controllers

import (
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/StreamFox/app/models"
	"github.com/ManuelReschke/StreamFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/StreamFox/internal/pkg/statistics"
)

func titles(videos []models.Video) []string {
	out := make([]string, 0, len(videos))
	for _, v := range videos {
		out = append(out, v.Title)
	}
	return out
}

func TestVideoList_ShortFeedHidesPremiumWithoutSubscription(t *testing.T) {
	db, repos := newTestRepos(t)
	seedVideo(t, db, "short-free", entitlements.VideoShort, entitlements.AccessFree)
	seedVideo(t, db, "short-premium", entitlements.VideoShort, entitlements.AccessPremium)
	seedVideo(t, db, "long-premium", entitlements.VideoLong, entitlements.AccessPremium)

	for _, status := range []entitlements.SubscriptionStatus{entitlements.StatusNone, entitlements.StatusCanceled, entitlements.StatusPastDue} {
		app := newTestApp(viewer(1, status))
		app.Get("/videos", NewVideoController(repos.Video, nil).HandleList)

		resp := doJSON(t, app, "GET", "/videos?type=SHORT", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var got []models.Video
		decode(t, resp, &got)
		assert.Equal(t, []string{"short-free"}, titles(got), "status %s", status)
	}

	app := newTestApp(viewer(1, entitlements.StatusActive))
	app.Get("/videos", NewVideoController(repos.Video, nil).HandleList)
	resp := doJSON(t, app, "GET", "/videos?type=short", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var got []models.Video
	decode(t, resp, &got)
	assert.ElementsMatch(t, []string{"short-free", "short-premium"}, titles(got))
}

func TestVideoList_LongFeedListsPremiumForEveryone(t *testing.T) {
	db, repos := newTestRepos(t)
	seedVideo(t, db, "long-free", entitlements.VideoLong, entitlements.AccessFree)
	seedVideo(t, db, "long-premium", entitlements.VideoLong, entitlements.AccessPremium)
	seedVideo(t, db, "short-free", entitlements.VideoShort, entitlements.AccessFree)

	app := newTestApp(viewer(1, entitlements.StatusNone))
	app.Get("/videos", NewVideoController(repos.Video, nil).HandleList)

	resp := doJSON(t, app, "GET", "/videos?type=LONG", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var got []models.Video
	decode(t, resp, &got)
	assert.Equal(t, []string{"long-premium", "long-free"}, titles(got), "newest first")

	resp = doJSON(t, app, "GET", "/videos", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &got)
	assert.Len(t, got, 3)
}

func TestVideoList_InvalidType(t *testing.T) {
	_, repos := newTestRepos(t)
	app := newTestApp(viewer(1, entitlements.StatusActive))
	app.Get("/videos", NewVideoController(repos.Video, nil).HandleList)

	resp := doJSON(t, app, "GET", "/videos?type=REELS", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestVideoList_EmptyIsArray(t *testing.T) {
	_, repos := newTestRepos(t)
	app := newTestApp(viewer(1, entitlements.StatusNone))
	app.Get("/videos", NewVideoController(repos.Video, nil).HandleList)

	resp := doJSON(t, app, "GET", "/videos", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var raw []interface{}
	decode(t, resp, &raw)
	assert.NotNil(t, raw)
	assert.Empty(t, raw)
}

type videoWithPlayback struct {
	models.Video
	Playback entitlements.PlaybackDecision `json:"playback"`
}

func TestVideoGet_Playback(t *testing.T) {
	db, repos := newTestRepos(t)
	free := seedVideo(t, db, "free", entitlements.VideoLong, entitlements.AccessFree)
	premium := seedVideo(t, db, "premium", entitlements.VideoLong, entitlements.AccessPremium)

	odd := &models.Video{Title: "odd", VideoType: entitlements.VideoLong, AccessType: "GOLD", VideoURL: "/uploads/videos/odd.mp4"}
	require.NoError(t, db.Create(odd).Error)

	tests := []struct {
		name     string
		status   entitlements.SubscriptionStatus
		uuid     string
		wantMode entitlements.PlaybackMode
		wantSecs int
		wantURL  bool
	}{
		{"free for non-subscriber", entitlements.StatusNone, free.UUID, entitlements.PlaybackFull, 0, true},
		{"premium for subscriber", entitlements.StatusActive, premium.UUID, entitlements.PlaybackFull, 0, true},
		{"premium trailer for canceled", entitlements.StatusCanceled, premium.UUID, entitlements.PlaybackTrailer, entitlements.DefaultTrailerSeconds, true},
		{"unknown access denied", entitlements.StatusActive, odd.UUID, entitlements.PlaybackDenied, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(viewer(1, tt.status))
			app.Get("/videos/:uuid", NewVideoController(repos.Video, nil).HandleGet)

			resp := doJSON(t, app, "GET", "/videos/"+tt.uuid, nil)
			require.Equal(t, fiber.StatusOK, resp.StatusCode)
			var got videoWithPlayback
			decode(t, resp, &got)
			assert.Equal(t, tt.uuid, got.UUID)
			assert.Equal(t, tt.wantMode, got.Playback.Mode)
			assert.Equal(t, tt.wantSecs, got.Playback.TrailerSeconds)
			assert.Equal(t, tt.wantURL, got.VideoURL != "")
		})
	}
}

func TestVideoGet_NotFound(t *testing.T) {
	_, repos := newTestRepos(t)
	app := newTestApp(viewer(1, entitlements.StatusActive))
	app.Get("/videos/:uuid", NewVideoController(repos.Video, nil).HandleGet)

	resp := doJSON(t, app, "GET", "/videos/00000000-0000-0000-0000-000000000000", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	var body errorBody
	decode(t, resp, &body)
	assert.Equal(t, "not_found", body.Error)
	assert.Equal(t, "Video not found", body.Message)
}

func TestVideoCreate(t *testing.T) {
	_, repos := newTestRepos(t)
	app := newTestApp(admin(7))
	app.Post("/videos", NewVideoController(repos.Video, nil).HandleCreate)

	t.Run("missing fields", func(t *testing.T) {
		resp := doJSON(t, app, "POST", "/videos", map[string]interface{}{"title": "x"})
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		var body errorBody
		decode(t, resp, &body)
		assert.Equal(t, "Missing required fields", body.Message)
	})

	t.Run("bad enum", func(t *testing.T) {
		resp := doJSON(t, app, "POST", "/videos", map[string]interface{}{
			"title": "x", "videoType": "MEDIUM", "accessType": "FREE", "videoUrl": "/v.mp4",
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("premium gets default trailer", func(t *testing.T) {
		resp := doJSON(t, app, "POST", "/videos", map[string]interface{}{
			"title": "Premiere", "videoType": "long", "accessType": "premium", "videoUrl": "/uploads/videos/p.mp4",
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		var got models.Video
		decode(t, resp, &got)
		assert.NotEmpty(t, got.UUID)
		assert.Equal(t, entitlements.VideoLong, got.VideoType)
		assert.Equal(t, entitlements.AccessPremium, got.AccessType)
		assert.Equal(t, uint(7), got.CreatedByID)
		if assert.NotNil(t, got.TrailerDurationSeconds) {
			assert.Equal(t, entitlements.DefaultTrailerSeconds, *got.TrailerDurationSeconds)
		}
	})

	t.Run("free drops trailer", func(t *testing.T) {
		resp := doJSON(t, app, "POST", "/videos", map[string]interface{}{
			"title": "Clip", "videoType": "SHORT", "accessType": "FREE", "videoUrl": "/uploads/videos/c.mp4",
			"trailerDurationSeconds": 12,
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		var got models.Video
		decode(t, resp, &got)
		assert.Nil(t, got.TrailerDurationSeconds)
	})
}

func TestVideoUpdate_KeepsTypeAndNormalizesTrailer(t *testing.T) {
	db, repos := newTestRepos(t)
	v := seedVideo(t, db, "pilot", entitlements.VideoLong, entitlements.AccessPremium)

	app := newTestApp(admin(1))
	app.Patch("/videos/:uuid", NewVideoController(repos.Video, nil).HandleUpdate)

	resp := doJSON(t, app, "PATCH", "/videos/"+v.UUID, map[string]interface{}{
		"title":      "Pilot",
		"videoType":  "SHORT",
		"accessType": "FREE",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var got models.Video
	decode(t, resp, &got)
	assert.Equal(t, "Pilot", got.Title)
	assert.Equal(t, entitlements.VideoLong, got.VideoType)
	assert.Equal(t, entitlements.AccessFree, got.AccessType)
	assert.Nil(t, got.TrailerDurationSeconds)

	stored, err := repos.Video.GetByUUID(v.UUID)
	require.NoError(t, err)
	assert.Equal(t, entitlements.VideoLong, stored.VideoType)
	assert.Nil(t, stored.TrailerDurationSeconds)

	resp = doJSON(t, app, "PATCH", "/videos/"+v.UUID, map[string]interface{}{"accessType": "GOLD"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, "PATCH", "/videos/missing", map[string]interface{}{"title": "x"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestVideoDelete(t *testing.T) {
	db, repos := newTestRepos(t)
	v := seedVideo(t, db, "gone", entitlements.VideoShort, entitlements.AccessFree)

	app := newTestApp(admin(1))
	vc := NewVideoController(repos.Video, nil)
	app.Delete("/videos/:uuid", vc.HandleDelete)
	app.Get("/videos/:uuid", vc.HandleGet)

	resp := doJSON(t, app, "DELETE", "/videos/"+v.UUID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "Video deleted successfully", body["message"])

	resp = doJSON(t, app, "GET", "/videos/"+v.UUID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, "DELETE", "/videos/"+v.UUID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

// memStorage is a map-backed fiber.Storage.
type memStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStorage() *memStorage { return &memStorage{data: map[string][]byte{}} }

func (m *memStorage) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memStorage) Set(key string, val []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = val
	return nil
}

func (m *memStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStorage) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = map[string][]byte{}
	return nil
}

func (m *memStorage) Close() error { return nil }

func TestVideoCatalogChangesRefreshOverview(t *testing.T) {
	_, repos := newTestRepos(t)
	stats := statistics.NewService(repos, newMemStorage())

	app := newTestApp(admin(1))
	vc := NewVideoController(repos.Video, stats)
	app.Post("/videos", vc.HandleCreate)
	app.Delete("/videos/:uuid", vc.HandleDelete)

	o, err := stats.GetOverview()
	require.NoError(t, err)
	assert.Zero(t, o.Shorts)

	resp := doJSON(t, app, "POST", "/videos", map[string]interface{}{
		"title": "Clip", "videoType": "SHORT", "accessType": "FREE", "videoUrl": "/uploads/videos/c.mp4",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created models.Video
	decode(t, resp, &created)

	o, err = stats.GetOverview()
	require.NoError(t, err)
	assert.Equal(t, int64(1), o.Shorts)

	resp = doJSON(t, app, "DELETE", "/videos/"+created.UUID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	o, err = stats.GetOverview()
	require.NoError(t, err)
	assert.Zero(t, o.Shorts)
}
