package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/StreamFox/app/repository"
	"github.com/ManuelReschke/StreamFox/internal/pkg/apperror"
	"github.com/ManuelReschke/StreamFox/internal/pkg/usercontext"
)

// maxWatchSessionSeconds caps one submission at a day of playback.
const maxWatchSessionSeconds = 24 * 60 * 60

// WatchHistoryController records and lists per-user watch time
type WatchHistoryController struct {
	videos  repository.VideoRepository
	history repository.WatchHistoryRepository
}

func NewWatchHistoryController(videos repository.VideoRepository, history repository.WatchHistoryRepository) *WatchHistoryController {
	return &WatchHistoryController{videos: videos, history: history}
}

type trackWatchRequest struct {
	VideoID          string `json:"videoId"`
	WatchTimeSeconds int64  `json:"watchTimeSeconds"`
}

// HandleTrack adds one playback session to the caller's total for a video.
func (wc *WatchHistoryController) HandleTrack(c *fiber.Ctx) error {
	var req trackWatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.Validation("invalid request body"))
	}
	req.VideoID = strings.TrimSpace(req.VideoID)
	if req.VideoID == "" {
		return apperror.Respond(c, apperror.Validation("videoId is required"))
	}
	if req.WatchTimeSeconds < 0 || req.WatchTimeSeconds > maxWatchSessionSeconds {
		return apperror.Respond(c, apperror.Validation("watchTimeSeconds is out of range"))
	}

	video, err := wc.videos.GetByUUID(req.VideoID)
	if err != nil {
		return apperror.Respond(c, apperror.FromDB(err, "Video not found"))
	}

	row, err := wc.history.Record(usercontext.GetUserID(c), video.ID, req.WatchTimeSeconds, time.Now().UTC())
	if err != nil {
		return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "Failed to record watch time", err))
	}
	row.Video = *video
	return c.JSON(row)
}

// HandleList returns the caller's history, most recently watched first.
func (wc *WatchHistoryController) HandleList(c *fiber.Ctx) error {
	_, limit := pagination(c)
	rows, err := wc.history.ListByUser(usercontext.GetUserID(c), limit)
	if err != nil {
		return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "Failed to load watch history", err))
	}
	return c.JSON(rows)
}
