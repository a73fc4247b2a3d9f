package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/StreamFox/internal/pkg/entitlements"
)

func TestVideoListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewVideoRepository(db)

	seedVideo(t, db, "long-free", entitlements.VideoLong, entitlements.AccessFree)
	seedVideo(t, db, "long-premium", entitlements.VideoLong, entitlements.AccessPremium)
	seedVideo(t, db, "short-free", entitlements.VideoShort, entitlements.AccessFree)
	seedVideo(t, db, "short-premium", entitlements.VideoShort, entitlements.AccessPremium)

	all, err := repo.List(VideoFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "short-premium", all[0].Title, "newest first")

	shorts, err := repo.List(VideoFilter{VideoType: entitlements.VideoShort, AccessType: entitlements.AccessFree})
	require.NoError(t, err)
	require.Len(t, shorts, 1)
	assert.Equal(t, "short-free", shorts[0].Title)

	longs, err := repo.List(VideoFilter{VideoType: entitlements.VideoLong})
	require.NoError(t, err)
	assert.Len(t, longs, 2)

	n, err := repo.CountByType(entitlements.VideoShort)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestVideoUpdateKeepsType(t *testing.T) {
	db := newTestDB(t)
	repo := NewVideoRepository(db)
	v := seedVideo(t, db, "pilot", entitlements.VideoLong, entitlements.AccessFree)

	v.Title = "Pilot (remastered)"
	v.VideoType = entitlements.VideoShort
	v.AccessType = entitlements.AccessPremium
	v.NormalizeTrailer()
	require.NoError(t, repo.Update(v))

	stored, err := repo.GetByUUID(v.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Pilot (remastered)", stored.Title)
	assert.Equal(t, entitlements.VideoLong, stored.VideoType)
	assert.Equal(t, entitlements.AccessPremium, stored.AccessType)
	if assert.NotNil(t, stored.TrailerDurationSeconds) {
		assert.Equal(t, entitlements.DefaultTrailerSeconds, *stored.TrailerDurationSeconds)
	}
}

func TestVideoDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewVideoRepository(db)
	v := seedVideo(t, db, "gone", entitlements.VideoShort, entitlements.AccessFree)

	require.NoError(t, repo.Delete(v.ID))
	_, err := repo.GetByID(v.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, repo.Delete(v.ID), gorm.ErrRecordNotFound)
}
