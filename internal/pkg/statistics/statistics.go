package statistics

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ManuelReschke/StreamFox/app/repository"
	"github.com/ManuelReschke/StreamFox/internal/pkg/entitlements"
)

const (
	CacheKeyOverview = "statistics:overview"
	CacheExpiration  = 5 * time.Minute
)

// Overview holds the counters shown on the admin dashboard
type Overview struct {
	TotalUsers        int64     `json:"totalUsers"`
	ActiveSubscribers int64     `json:"activeSubscribers"`
	LongVideos        int64     `json:"longVideos"`
	Shorts            int64     `json:"shorts"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

// Service computes the overview and keeps it in the cache for
// CacheExpiration. A nil cache computes on every call.
type Service struct {
	repos *repository.Repositories
	cache fiber.Storage
}

func NewService(repos *repository.Repositories, cache fiber.Storage) *Service {
	return &Service{repos: repos, cache: cache}
}

// GetOverview returns the cached counters, computing them on a miss.
func (s *Service) GetOverview() (Overview, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(CacheKeyOverview)
		if err != nil {
			log.Warn().Err(err).Msg("statistics cache read failed")
		} else if len(raw) > 0 {
			var o Overview
			if err := json.Unmarshal(raw, &o); err == nil {
				return o, nil
			}
		}
	}
	return s.Refresh()
}

// Refresh recomputes the counters and overwrites the cache entry.
func (s *Service) Refresh() (Overview, error) {
	o, err := s.compute()
	if err != nil {
		return Overview{}, err
	}

	if s.cache != nil {
		raw, err := json.Marshal(o)
		if err == nil {
			err = s.cache.Set(CacheKeyOverview, raw, CacheExpiration)
		}
		if err != nil {
			log.Warn().Err(err).Msg("statistics cache write failed")
		}
	}
	return o, nil
}

// Invalidate drops the cached overview so the next read recomputes it.
func (s *Service) Invalidate() {
	if s == nil || s.cache == nil {
		return
	}
	if err := s.cache.Delete(CacheKeyOverview); err != nil {
		log.Warn().Err(err).Msg("statistics cache delete failed")
	}
}

func (s *Service) compute() (Overview, error) {
	var (
		o   Overview
		err error
	)
	if o.TotalUsers, err = s.repos.User.Count(); err != nil {
		return o, err
	}
	if o.ActiveSubscribers, err = s.repos.User.CountBySubscriptionStatus(entitlements.StatusActive); err != nil {
		return o, err
	}
	if o.LongVideos, err = s.repos.Video.CountByType(entitlements.VideoLong); err != nil {
		return o, err
	}
	if o.Shorts, err = s.repos.Video.CountByType(entitlements.VideoShort); err != nil {
		return o, err
	}
	o.GeneratedAt = time.Now().UTC()

	log.Debug().
		Int64("users", o.TotalUsers).
		Int64("active_subscribers", o.ActiveSubscribers).
		Int64("long_videos", o.LongVideos).
		Int64("shorts", o.Shorts).
		Msg("statistics recomputed")
	return o, nil
}
