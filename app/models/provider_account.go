package models

import "time"

// ProviderAccount links a social login identity to a local user.
type ProviderAccount struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index" json:"userId"`
	Provider       string    `gorm:"index:ux_provider_accounts_uid,unique,priority:1;type:varchar(50)" json:"provider"`
	ProviderUserID string    `gorm:"index:ux_provider_accounts_uid,unique,priority:2;type:varchar(191)" json:"providerUserId"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
