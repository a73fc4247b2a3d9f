package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/StreamFox/app/repository"
	"github.com/ManuelReschke/StreamFox/internal/pkg/apperror"
	"github.com/ManuelReschke/StreamFox/internal/pkg/statistics"
)

// AdminController handles admin-related HTTP requests using repository pattern
type AdminController struct {
	repos *repository.Repositories
	stats *statistics.Service
}

// NewAdminController creates a new admin controller with repository dependencies
func NewAdminController(repos *repository.Repositories, stats *statistics.Service) *AdminController {
	return &AdminController{
		repos: repos,
		stats: stats,
	}
}

// HandleOverview returns the dashboard counters. ?refresh=true skips the cache.
func (ac *AdminController) HandleOverview(c *fiber.Ctx) error {
	get := ac.stats.GetOverview
	if c.QueryBool("refresh", false) {
		get = ac.stats.Refresh
	}

	overview, err := get()
	if err != nil {
		return ac.handleError(c, "Failed to load statistics", err)
	}
	return c.JSON(overview)
}

// HandleUsers lists accounts, newest first
func (ac *AdminController) HandleUsers(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	users, err := ac.repos.User.List(offset, limit)
	if err != nil {
		return ac.handleError(c, "Failed to load users", err)
	}
	return c.JSON(users)
}

func (ac *AdminController) handleError(c *fiber.Ctx, message string, err error) error {
	return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, message, err))
}
