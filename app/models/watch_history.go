package models

import "time"

// WatchHistory accumulates watch time per (user, video) pair.
type WatchHistory struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	UserID                uint      `gorm:"not null;index:ux_watch_histories_user_video,unique,priority:1" json:"userId"`
	VideoID               uint      `gorm:"not null;index:ux_watch_histories_user_video,unique,priority:2;index" json:"-"`
	TotalWatchTimeSeconds int64     `gorm:"not null;default:0" json:"totalWatchTimeSeconds"`
	LastWatchedAt         time.Time `gorm:"type:timestamp;not null;index" json:"lastWatchedAt"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Video Video `gorm:"constraint:OnDelete:CASCADE" json:"video"`
}
