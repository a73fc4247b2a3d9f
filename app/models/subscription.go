package models

import "time"

// Subscription mirrors one external billing subscription. Rows are never
// deleted and serve as billing history.
type Subscription struct {
	ID                      uint      `gorm:"primaryKey" json:"id"`
	UserID                  uint      `gorm:"not null;index" json:"userId"`
	ExternalSubscriptionRef string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"externalSubscriptionRef"`
	ExternalPriceRef        string    `gorm:"type:varchar(191);not null;default:''" json:"externalPriceRef"`
	Status                  string    `gorm:"type:varchar(32);not null;index" json:"status"`
	CurrentPeriodStart      time.Time `gorm:"type:timestamp;not null" json:"currentPeriodStart"`
	CurrentPeriodEnd        time.Time `gorm:"type:timestamp;not null" json:"currentPeriodEnd"`
	CreatedAt               time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt               time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
