package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/StreamFox/app/models"
)

type watchHistoryRepository struct {
	db *gorm.DB
}

// NewWatchHistoryRepository creates a new watch history repository instance
func NewWatchHistoryRepository(db *gorm.DB) WatchHistoryRepository {
	return &watchHistoryRepository{db: db}
}

// Record adds seconds to the (user, video) accumulator and moves
// last_watched_at to at. The increment happens in SQL so concurrent
// submissions are not lost.
func (r *watchHistoryRepository) Record(userID, videoID uint, seconds int64, at time.Time) (*models.WatchHistory, error) {
	row := &models.WatchHistory{
		UserID:                userID,
		VideoID:               videoID,
		TotalWatchTimeSeconds: seconds,
		LastWatchedAt:         at,
	}

	err := r.db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "video_id"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_watch_time_seconds": gorm.Expr("total_watch_time_seconds + ?", seconds),
			"last_watched_at":          at,
			"updated_at":               time.Now(),
		}),
	}).Create(row).Error
	if err != nil {
		return nil, err
	}

	var stored models.WatchHistory
	if err := r.db.Where("user_id = ? AND video_id = ?", userID, videoID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListByUser returns the user's history with the video preloaded, most recent first.
func (r *watchHistoryRepository) ListByUser(userID uint, limit int) ([]models.WatchHistory, error) {
	if limit <= 0 {
		limit = defaultVideoListLimit
	}
	var rows []models.WatchHistory
	err := r.db.Preload("Video").
		Where("user_id = ?", userID).
		Order("last_watched_at DESC").
		Limit(limit).
		Find(&rows).Error
	if rows == nil {
		rows = []models.WatchHistory{}
	}
	return rows, err
}
