package service

import (
	"context"

	"github.com/emilythestrangee/ideaboard/backend/internal/apperr"
	"github.com/emilythestrangee/ideaboard/backend/internal/audit"
	"github.com/emilythestrangee/ideaboard/backend/internal/models"
	"github.com/emilythestrangee/ideaboard/backend/internal/repository"
	"github.com/emilythestrangee/ideaboard/backend/internal/voting"
)

// ModerationService defines the admin operations. Callers are expected to
// have passed the admin check already.
type ModerationService interface {
	List(ctx context.Context, q ListQuery) (*models.IdeaPage, error)
	SetStatus(ctx context.Context, caller Caller, id, status string) (*models.IdeaWithCounts, error)
	Delete(ctx context.Context, caller Caller, id string) error
	AuditTrail(ctx context.Context, id string) ([]models.AuditEvent, error)
}

type moderationService struct {
	ideas repository.IdeaRepository
	audit *audit.Logger
}

func NewModerationService(ideas repository.IdeaRepository, auditLog *audit.Logger) ModerationService {
	return &moderationService{ideas: ideas, audit: auditLog}
}

// List returns ideas of every status, newest first.
func (s *moderationService) List(ctx context.Context, q ListQuery) (*models.IdeaPage, error) {
	return listIdeas(ctx, s.ideas, repository.ListOptions{
		Filter: repository.IdeaFilter{CreatedFrom: q.From, CreatedBefore: q.Before},
		Sort:   repository.SortLatest,
		Skip:   q.skip(),
		Limit:  q.Limit,
	}, q)
}

func (s *moderationService) SetStatus(ctx context.Context, caller Caller, id, status string) (*models.IdeaWithCounts, error) {
	id, err := parseID(id, "idea")
	if err != nil {
		return nil, err
	}
	st, err := models.ParseIdeaStatus(status)
	if err != nil {
		return nil, apperr.Invalid("status must be one of pending, approved or rejected")
	}

	idea, previous, err := s.ideas.SetStatus(ctx, id, st)
	if err != nil {
		return nil, storeError(err, ideaNotFound)
	}
	s.audit.Record(ctx, models.AuditIdeaStatusChanged, caller.UserID, id, string(previous)+" -> "+string(st))

	out := voting.WithCounts(*idea)
	return &out, nil
}

func (s *moderationService) Delete(ctx context.Context, caller Caller, id string) error {
	id, err := parseID(id, "idea")
	if err != nil {
		return err
	}
	if err := s.ideas.Delete(ctx, id); err != nil {
		return storeError(err, ideaNotFound)
	}
	s.audit.Record(ctx, models.AuditIdeaDeleted, caller.UserID, id, "deleted by admin")
	return nil
}

func (s *moderationService) AuditTrail(ctx context.Context, id string) ([]models.AuditEvent, error) {
	id, err := parseID(id, "idea")
	if err != nil {
		return nil, err
	}
	events, err := s.audit.ForIdea(ctx, id)
	if err != nil {
		return nil, storeError(err, ideaNotFound)
	}
	return events, nil
}
