package repository

import (
	"gorm.io/gorm"

	"github.com/ManuelReschke/StreamFox/app/models"
	"github.com/ManuelReschke/StreamFox/internal/pkg/entitlements"
)

const defaultVideoListLimit = 100

type videoRepository struct {
	db *gorm.DB
}

// NewVideoRepository creates a new video repository instance
func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) Create(video *models.Video) error {
	return r.db.Create(video).Error
}

func (r *videoRepository) GetByID(id uint) (*models.Video, error) {
	var video models.Video
	if err := r.db.First(&video, id).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *videoRepository) GetByUUID(uuid string) (*models.Video, error) {
	var video models.Video
	if err := r.db.Where("uuid = ?", uuid).First(&video).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

// Update writes the admin-editable columns. video_type is fixed at creation.
func (r *videoRepository) Update(video *models.Video) error {
	return r.db.Model(video).
		Select("title", "description", "access_type", "video_url", "thumbnail_url", "trailer_duration_seconds", "updated_at").
		Updates(video).Error
}

func (r *videoRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Video{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns videos newest first.
func (r *videoRepository) List(filter VideoFilter) ([]models.Video, error) {
	q := r.db.Model(&models.Video{})
	if filter.VideoType != "" {
		q = q.Where("video_type = ?", filter.VideoType)
	}
	if filter.AccessType != "" {
		q = q.Where("access_type = ?", filter.AccessType)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultVideoListLimit
	}

	var videos []models.Video
	err := q.Order("created_at DESC").Order("id DESC").Offset(filter.Offset).Limit(limit).Find(&videos).Error
	return videos, err
}

func (r *videoRepository) CountByType(videoType entitlements.VideoType) (int64, error) {
	var count int64
	err := r.db.Model(&models.Video{}).Where("video_type = ?", videoType).Count(&count).Error
	return count, err
}
