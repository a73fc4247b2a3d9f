package apperror

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Kind int

const (
	KindInternal Kind = iota
	KindAuthenticationRequired
	KindAuthorizationDenied
	KindNotFound
	KindInvalidSignature
	KindUpstream
	KindValidation
	KindIntegrityViolation
)

func (k Kind) String() string {
	switch k {
	case KindAuthenticationRequired:
		return "unauthorized"
	case KindAuthorizationDenied:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalidSignature:
		return "invalid_signature"
	case KindUpstream:
		return "upstream_error"
	case KindValidation:
		return "validation_error"
	case KindIntegrityViolation:
		return "integrity_violation"
	default:
		return "internal_server_error"
	}
}

// HTTPStatus maps a kind to the response status used at the handler boundary.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindAuthenticationRequired:
		return fiber.StatusUnauthorized
	case KindAuthorizationDenied:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindInvalidSignature, KindValidation:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// Error carries a kind, a short user-facing message and an optional cause.
// The cause is logged but never written to a response.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperror.NotFound("")) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func AuthenticationRequired(message string) *Error {
	return New(KindAuthenticationRequired, message)
}

func AuthorizationDenied(message string) *Error {
	return New(KindAuthorizationDenied, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FromDB translates GORM lookups: a missing record becomes KindNotFound with
// the given message, anything else is internal.
func FromDB(err error, notFoundMessage string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Wrap(KindNotFound, notFoundMessage, err)
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Wrap(KindInternal, "database error", err)
}

// Respond writes the JSON error body for err.
func Respond(c *fiber.Ctx, err error) error {
	var e *Error
	if !errors.As(err, &e) {
		e = Wrap(KindInternal, "Internal server error", err)
	}

	switch e.Kind {
	case KindInternal, KindIntegrityViolation, KindUpstream:
		log.Error().Err(err).
			Str("kind", e.Kind.String()).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("request failed")
	}

	message := e.Message
	if message == "" {
		message = "Internal server error"
	}
	return c.Status(e.Kind.HTTPStatus()).JSON(fiber.Map{
		"error":   e.Kind.String(),
		"message": message,
	})
}

// ErrorHandler is installed as fiber.Config.ErrorHandler so that errors
// returned from handlers and fiber's own errors share one JSON shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error":   "http_error",
			"message": fe.Message,
		})
	}
	return Respond(c, err)
}
