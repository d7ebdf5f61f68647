// Package repository persists users, ideas and audit events. Each store has a
// PostgreSQL (gorm) and a MongoDB implementation behind the same interface.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/emilythestrangee/ideaboard/backend/internal/models"
	"github.com/emilythestrangee/ideaboard/backend/internal/voting"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("duplicate record")
	ErrWriteConflict = errors.New("concurrent write conflict")
)

type SortMode string

const (
	SortDefault SortMode = ""
	SortLatest  SortMode = "latest"
	SortOldest  SortMode = "oldest"
	SortPopular SortMode = "popular"
)

// IdeaFilter narrows a listing. Zero values match everything. The creation
// range is half-open: CreatedFrom <= created_at < CreatedBefore.
type IdeaFilter struct {
	Status        models.IdeaStatus
	CreatedFrom   time.Time
	CreatedBefore time.Time
}

type ListOptions struct {
	Filter IdeaFilter
	Sort   SortMode
	Skip   int
	Limit  int
}

// IdeaFields holds the owner-editable columns. Nil fields are left as is.
type IdeaFields struct {
	Title       *string
	Description *string
}

type IdeaRepository interface {
	Create(ctx context.Context, idea *models.Idea) error
	FindByID(ctx context.Context, id string) (*models.Idea, error)
	Update(ctx context.Context, id string, fields IdeaFields) (*models.Idea, error)
	// SetStatus returns the updated idea and the status it had before.
	SetStatus(ctx context.Context, id string, status models.IdeaStatus) (*models.Idea, models.IdeaStatus, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, opts ListOptions) ([]models.Idea, int64, error)
	// ApplyVote reconciles voterID's vote atomically with respect to other
	// writers of the same idea.
	ApplyVote(ctx context.Context, ideaID, voterID string, t models.VoteType) (*models.Idea, voting.Result, error)
	AddComment(ctx context.Context, ideaID string, comment *models.Comment) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// SetRefreshToken stores the digest of the active refresh token. A nil
	// digest clears it.
	SetRefreshToken(ctx context.Context, id string, digest *string) error
}

type AuditRepository interface {
	Create(ctx context.Context, event *models.AuditEvent) error
	ListByIdea(ctx context.Context, ideaID string, limit int) ([]models.AuditEvent, error)
}
