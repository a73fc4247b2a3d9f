package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/StreamFox/app/models"
	"github.com/ManuelReschke/StreamFox/app/repository"
	"github.com/ManuelReschke/StreamFox/internal/pkg/apperror"
	"github.com/ManuelReschke/StreamFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/StreamFox/internal/pkg/statistics"
	"github.com/ManuelReschke/StreamFox/internal/pkg/usercontext"
)

// VideoController serves the catalog and the admin content management API
type VideoController struct {
	videos repository.VideoRepository
	stats  *statistics.Service
}

// NewVideoController builds the controller. stats may be nil; when set, its
// cached counters are dropped whenever the catalog changes.
func NewVideoController(videos repository.VideoRepository, stats *statistics.Service) *VideoController {
	return &VideoController{videos: videos, stats: stats}
}

type videoResponse struct {
	*models.Video
	Playback entitlements.PlaybackDecision `json:"playback"`
}

type createVideoRequest struct {
	Title                  string `json:"title"`
	Description            string `json:"description"`
	VideoType              string `json:"videoType"`
	AccessType             string `json:"accessType"`
	VideoURL               string `json:"videoUrl"`
	ThumbnailURL           string `json:"thumbnailUrl"`
	TrailerDurationSeconds *int   `json:"trailerDurationSeconds"`
}

// updateVideoRequest has no videoType: the type is fixed at creation.
type updateVideoRequest struct {
	Title                  *string `json:"title"`
	Description            *string `json:"description"`
	AccessType             *string `json:"accessType"`
	VideoURL               *string `json:"videoUrl"`
	ThumbnailURL           *string `json:"thumbnailUrl"`
	TrailerDurationSeconds *int    `json:"trailerDurationSeconds"`
}

// HandleList returns the catalog for ?type=LONG|SHORT (or everything),
// newest first. Premium shorts are left out for viewers without an active
// subscription.
func (vc *VideoController) HandleList(c *fiber.Ctx) error {
	feed, ok := entitlements.ParseFeedKind(c.Query("type"))
	if !ok {
		return apperror.Respond(c, apperror.Validation("type must be LONG or SHORT"))
	}
	status := usercontext.GetSubscriptionStatus(c)
	offset, limit := pagination(c)

	filter := repository.VideoFilter{
		VideoType: entitlements.VideoType(feed),
		Offset:    offset,
		Limit:     limit,
	}
	if access, restricted := entitlements.FeedAccessRestriction(feed, status); restricted {
		filter.AccessType = access
	}

	videos, err := vc.videos.List(filter)
	if err != nil {
		return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "Failed to load videos", err))
	}

	listed := make([]models.Video, 0, len(videos))
	for _, v := range videos {
		if entitlements.ListableInFeed(v.VideoType, v.AccessType, status, feed) {
			listed = append(listed, v)
		}
	}
	return c.JSON(listed)
}

// HandleGet returns one video with the playback decision for the caller.
func (vc *VideoController) HandleGet(c *fiber.Ctx) error {
	video, err := vc.videos.GetByUUID(c.Params("uuid"))
	if err != nil {
		return apperror.Respond(c, apperror.FromDB(err, "Video not found"))
	}

	decision := entitlements.Playback(usercontext.GetSubscriptionStatus(c), video.AccessType, video.TrailerDurationSeconds)
	if decision.Mode == entitlements.PlaybackDenied {
		video.VideoURL = ""
	}
	return c.JSON(videoResponse{Video: video, Playback: decision})
}

// HandleCreate adds a video to the catalog (admin only).
func (vc *VideoController) HandleCreate(c *fiber.Ctx) error {
	var req createVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.Validation("invalid request body"))
	}
	if strings.TrimSpace(req.Title) == "" || req.VideoType == "" || req.AccessType == "" || strings.TrimSpace(req.VideoURL) == "" {
		return apperror.Respond(c, apperror.Validation("Missing required fields"))
	}

	videoType, ok := entitlements.ParseVideoType(req.VideoType)
	if !ok {
		return apperror.Respond(c, apperror.Validation("videoType must be LONG or SHORT"))
	}
	accessType, ok := entitlements.ParseAccessType(req.AccessType)
	if !ok {
		return apperror.Respond(c, apperror.Validation("accessType must be FREE or PREMIUM"))
	}

	video := &models.Video{
		Title:                  strings.TrimSpace(req.Title),
		Description:            req.Description,
		VideoType:              videoType,
		AccessType:             accessType,
		VideoURL:               strings.TrimSpace(req.VideoURL),
		ThumbnailURL:           strings.TrimSpace(req.ThumbnailURL),
		TrailerDurationSeconds: req.TrailerDurationSeconds,
		CreatedByID:            usercontext.GetUserID(c),
	}
	video.NormalizeTrailer()
	if err := video.Validate(); err != nil {
		return apperror.Respond(c, validationError(err))
	}

	if err := vc.videos.Create(video); err != nil {
		return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "Failed to create video", err))
	}
	vc.stats.Invalidate()
	return c.Status(fiber.StatusCreated).JSON(video)
}

// HandleUpdate applies a partial update (admin only).
func (vc *VideoController) HandleUpdate(c *fiber.Ctx) error {
	video, err := vc.videos.GetByUUID(c.Params("uuid"))
	if err != nil {
		return apperror.Respond(c, apperror.FromDB(err, "Video not found"))
	}

	var req updateVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.Validation("invalid request body"))
	}

	if req.Title != nil {
		video.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		video.Description = *req.Description
	}
	if req.VideoURL != nil {
		video.VideoURL = strings.TrimSpace(*req.VideoURL)
	}
	if req.ThumbnailURL != nil {
		video.ThumbnailURL = strings.TrimSpace(*req.ThumbnailURL)
	}
	if req.AccessType != nil {
		accessType, ok := entitlements.ParseAccessType(*req.AccessType)
		if !ok {
			return apperror.Respond(c, apperror.Validation("accessType must be FREE or PREMIUM"))
		}
		video.AccessType = accessType
	}
	if req.TrailerDurationSeconds != nil {
		video.TrailerDurationSeconds = req.TrailerDurationSeconds
	}
	video.NormalizeTrailer()

	if err := video.Validate(); err != nil {
		return apperror.Respond(c, validationError(err))
	}
	if err := vc.videos.Update(video); err != nil {
		return apperror.Respond(c, apperror.FromDB(err, "Video not found"))
	}
	return c.JSON(video)
}

// HandleDelete removes a video (admin only).
func (vc *VideoController) HandleDelete(c *fiber.Ctx) error {
	video, err := vc.videos.GetByUUID(c.Params("uuid"))
	if err != nil {
		return apperror.Respond(c, apperror.FromDB(err, "Video not found"))
	}
	if err := vc.videos.Delete(video.ID); err != nil {
		return apperror.Respond(c, apperror.FromDB(err, "Video not found"))
	}
	vc.stats.Invalidate()
	return c.JSON(fiber.Map{"message": "Video deleted successfully"})
}
