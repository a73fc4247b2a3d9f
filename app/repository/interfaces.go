package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/StreamFox/app/models"
	"github.com/ManuelReschke/StreamFox/internal/pkg/entitlements"
)

// UserRepository defines the interface for user-related database operations.
// Subscription status and billing customer refs are written by the billing
// package only.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	UpdateProfile(id uint, update ProfileUpdate) error
	SetRole(id uint, role string) error
	TouchLastLogin(id uint, at time.Time) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	CountBySubscriptionStatus(status entitlements.SubscriptionStatus) (int64, error)
	GetProviderAccount(provider, providerUserID string) (*models.ProviderAccount, error)
	LinkProviderAccount(account *models.ProviderAccount) error
}

// VideoRepository defines the interface for video catalog operations
type VideoRepository interface {
	Create(video *models.Video) error
	GetByID(id uint) (*models.Video, error)
	GetByUUID(uuid string) (*models.Video, error)
	Update(video *models.Video) error
	Delete(id uint) error
	List(filter VideoFilter) ([]models.Video, error)
	CountByType(videoType entitlements.VideoType) (int64, error)
}

// WatchHistoryRepository defines the interface for watch-time tracking
type WatchHistoryRepository interface {
	Record(userID, videoID uint, seconds int64, at time.Time) (*models.WatchHistory, error)
	ListByUser(userID uint, limit int) ([]models.WatchHistory, error)
}

// ProfileUpdate carries the user-editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name         *string
	PasswordHash *string
	AvatarURL    *string
}

// VideoFilter narrows a catalog listing. Empty fields do not filter.
type VideoFilter struct {
	VideoType  entitlements.VideoType
	AccessType entitlements.AccessType
	Offset     int
	Limit      int
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Video        VideoRepository
	WatchHistory WatchHistoryRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Video:        NewVideoRepository(db),
		WatchHistory: NewWatchHistoryRepository(db),
	}
}
