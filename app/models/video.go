package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/StreamFox/internal/pkg/entitlements"
)

// Video is a catalog asset. VideoType is fixed at creation.
type Video struct {
	ID                     uint                    `gorm:"primaryKey" json:"-"`
	UUID                   string                  `gorm:"type:char(36);uniqueIndex" json:"id"`
	Title                  string                  `gorm:"type:varchar(255);not null" json:"title" validate:"required,max=255"`
	Description            string                  `gorm:"type:text" json:"description"`
	VideoType              entitlements.VideoType  `gorm:"type:varchar(10);not null;index" json:"videoType" validate:"required,oneof=LONG SHORT"`
	AccessType             entitlements.AccessType `gorm:"type:varchar(10);not null;index" json:"accessType" validate:"required,oneof=FREE PREMIUM"`
	VideoURL               string                  `gorm:"type:varchar(1024);not null" json:"videoUrl" validate:"required,max=1024"`
	ThumbnailURL           string                  `gorm:"type:varchar(1024)" json:"thumbnailUrl" validate:"max=1024"`
	TrailerDurationSeconds *int                    `gorm:"default:null" json:"trailerDurationSeconds"`
	CreatedByID            uint                    `gorm:"index" json:"createdById"`
	CreatedAt              time.Time               `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt              time.Time               `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.UUID == "" {
		v.UUID = uuid.New().String()
	}
	return nil
}

// Validate checks required fields and enum values. Trailer normalization is
// done separately with NormalizeTrailer.
func (v *Video) Validate() error {
	return validator.New().Struct(v)
}

// NormalizeTrailer enforces the trailer invariant: nil for free videos,
// a positive length (default 30s) for premium ones.
func (v *Video) NormalizeTrailer() {
	v.TrailerDurationSeconds = entitlements.TrailerForAccess(v.AccessType, v.TrailerDurationSeconds)
}
