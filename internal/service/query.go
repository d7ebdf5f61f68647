package service

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/emilythestrangee/ideaboard/backend/internal/apperr"
	"github.com/emilythestrangee/ideaboard/backend/internal/repository"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxPageLimit = 100

	dateLayout = "2006-01-02"
)

// ListQuery is a validated listing request.
type ListQuery struct {
	Page  int
	Limit int
	Sort  repository.SortMode

	// From and Before bound the creation day, Before exclusive.
	From   time.Time
	Before time.Time
}

func (q ListQuery) skip() int {
	return (q.Page - 1) * q.Limit
}

// ParseListQuery validates the raw page, limit, sort and date parameters.
// Empty values take their defaults and limits above MaxPageLimit are capped.
func ParseListQuery(page, limit, sort, date string) (ListQuery, error) {
	q := ListQuery{Page: DefaultPage, Limit: DefaultLimit}

	var err error
	if q.Page, err = positiveInt(page, DefaultPage, "page"); err != nil {
		return ListQuery{}, err
	}
	if q.Limit, err = positiveInt(limit, DefaultLimit, "limit"); err != nil {
		return ListQuery{}, err
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return ListQuery{}, apperr.Invalid("page is too large")
	}

	switch s := repository.SortMode(strings.ToLower(strings.TrimSpace(sort))); s {
	case repository.SortDefault, repository.SortLatest, repository.SortOldest, repository.SortPopular:
		q.Sort = s
	default:
		return ListQuery{}, apperr.Invalid("sort must be one of latest, oldest or popular")
	}

	if date = strings.TrimSpace(date); date != "" {
		day, err := time.ParseInLocation(dateLayout, date, time.UTC)
		if err != nil {
			return ListQuery{}, apperr.Invalid("date must be in YYYY-MM-DD format")
		}
		q.From = day
		q.Before = day.AddDate(0, 0, 1)
	}
	return q, nil
}

func positiveInt(raw string, fallback int, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperr.Invalid(name + " must be a positive integer")
	}
	return n, nil
}
