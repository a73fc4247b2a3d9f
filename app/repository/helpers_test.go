package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/StreamFox/app/models"
	"github.com/ManuelReschke/StreamFox/internal/pkg/database"
	"github.com/ManuelReschke/StreamFox/internal/pkg/entitlements"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Test", Email: email, Password: "x", Role: models.ROLE_USER, SubscriptionStatus: entitlements.StatusNone}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedVideo(t *testing.T, db *gorm.DB, title string, vt entitlements.VideoType, at entitlements.AccessType) *models.Video {
	t.Helper()
	v := &models.Video{Title: title, VideoType: vt, AccessType: at, VideoURL: "/uploads/videos/" + title + ".mp4"}
	v.NormalizeTrailer()
	require.NoError(t, db.Create(v).Error)
	return v
}
