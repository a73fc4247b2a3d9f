package controllers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/StreamFox/internal/pkg/apperror"
)

const maxPageSize = 100

// validationError turns validator output into a short client message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			msgs = append(msgs, fmt.Sprintf("%s is required", lowerFirst(fe.Field())))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", lowerFirst(fe.Field()), fe.Tag()))
	}
	return apperror.Validation(strings.Join(msgs, ", "))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// pagination reads ?limit= and ?offset=, clamped to maxPageSize.
func pagination(c *fiber.Ctx) (offset, limit int) {
	limit = c.QueryInt("limit", maxPageSize)
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
