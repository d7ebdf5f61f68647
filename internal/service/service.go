package service

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/emilythestrangee/ideaboard/backend/internal/apperr"
	"github.com/emilythestrangee/ideaboard/backend/internal/models"
	"github.com/emilythestrangee/ideaboard/backend/internal/repository"
)

// Caller is the authenticated identity a request acts on behalf of.
type Caller struct {
	UserID string
	Role   models.Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

var textPolicy = bluemonday.StrictPolicy()

// cleanText strips all markup from user supplied text and trims it.
func cleanText(s string) string {
	return strings.TrimSpace(textPolicy.Sanitize(s))
}

func requireText(field, value string, max int) (string, error) {
	v := cleanText(value)
	if v == "" {
		return "", apperr.Invalid(field + " is required")
	}
	if utf8.RuneCountInString(v) > max {
		return "", apperr.Invalid(field + " is too long")
	}
	return v, nil
}

func parseID(id, what string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", apperr.Invalid("invalid " + what + " id")
	}
	return parsed.String(), nil
}

func requireCaller(c Caller) error {
	if c.UserID == "" {
		return apperr.Unauthorized("authentication required")
	}
	return nil
}

// storeError translates repository failures into service errors.
func storeError(err error, notFound string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.Wrap(apperr.NotFound, notFound, err)
	case errors.Is(err, repository.ErrWriteConflict):
		return apperr.Wrap(apperr.Conflict, "the idea is being modified, please retry", err)
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Wrap(apperr.Conflict, "record already exists", err)
	default:
		return apperr.Internalf("storage failure", err)
	}
}
