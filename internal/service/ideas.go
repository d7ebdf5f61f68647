package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/emilythestrangee/ideaboard/backend/internal/apperr"
	"github.com/emilythestrangee/ideaboard/backend/internal/audit"
	"github.com/emilythestrangee/ideaboard/backend/internal/models"
	"github.com/emilythestrangee/ideaboard/backend/internal/repository"
	"github.com/emilythestrangee/ideaboard/backend/internal/voting"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxCommentLength     = 2000

	ideaNotFound = "idea not found"
)

// IdeaService defines the operations available to any authenticated user.
type IdeaService interface {
	Create(ctx context.Context, caller Caller, req models.CreateIdeaRequest) (*models.IdeaWithCounts, error)
	Get(ctx context.Context, id string) (*models.IdeaWithCounts, error)
	Update(ctx context.Context, caller Caller, id string, req models.UpdateIdeaRequest) (*models.IdeaWithCounts, error)
	Delete(ctx context.Context, caller Caller, id string) error
	// List returns approved ideas only.
	List(ctx context.Context, q ListQuery) (*models.IdeaPage, error)
	Vote(ctx context.Context, caller Caller, id, voteType string) (*models.VoteResponse, error)
	AddComment(ctx context.Context, caller Caller, id, content string) (*models.Comment, error)
}

type ideaService struct {
	ideas repository.IdeaRepository
	audit *audit.Logger
	now   func() time.Time
}

func NewIdeaService(ideas repository.IdeaRepository, auditLog *audit.Logger) IdeaService {
	return &ideaService{
		ideas: ideas,
		audit: auditLog,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *ideaService) Create(ctx context.Context, caller Caller, req models.CreateIdeaRequest) (*models.IdeaWithCounts, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	title, err := requireText("title", req.Title, MaxTitleLength)
	if err != nil {
		return nil, err
	}
	description, err := requireText("description", req.Description, MaxDescriptionLength)
	if err != nil {
		return nil, err
	}

	now := s.now()
	idea := &models.Idea{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		UserID:      caller.UserID,
		Status:      models.StatusPending,
		Votes:       []models.Vote{},
		Comments:    []models.Comment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.ideas.Create(ctx, idea); err != nil {
		return nil, storeError(err, ideaNotFound)
	}
	out := voting.WithCounts(*idea)
	return &out, nil
}

func (s *ideaService) Get(ctx context.Context, id string) (*models.IdeaWithCounts, error) {
	id, err := parseID(id, "idea")
	if err != nil {
		return nil, err
	}
	idea, err := s.ideas.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, ideaNotFound)
	}
	out := voting.WithCounts(*idea)
	return &out, nil
}

func (s *ideaService) Update(ctx context.Context, caller Caller, id string, req models.UpdateIdeaRequest) (*models.IdeaWithCounts, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	id, err := parseID(id, "idea")
	if err != nil {
		return nil, err
	}
	if req.Title == nil && req.Description == nil {
		return nil, apperr.Invalid("title or description is required")
	}

	var fields repository.IdeaFields
	if req.Title != nil {
		title, err := requireText("title", *req.Title, MaxTitleLength)
		if err != nil {
			return nil, err
		}
		fields.Title = &title
	}
	if req.Description != nil {
		description, err := requireText("description", *req.Description, MaxDescriptionLength)
		if err != nil {
			return nil, err
		}
		fields.Description = &description
	}

	existing, err := s.ideas.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, ideaNotFound)
	}
	if existing.UserID != caller.UserID {
		return nil, apperr.Denied("you can only edit your own ideas")
	}

	idea, err := s.ideas.Update(ctx, id, fields)
	if err != nil {
		return nil, storeError(err, ideaNotFound)
	}
	out := voting.WithCounts(*idea)
	return &out, nil
}

func (s *ideaService) Delete(ctx context.Context, caller Caller, id string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	id, err := parseID(id, "idea")
	if err != nil {
		return err
	}

	existing, err := s.ideas.FindByID(ctx, id)
	if err != nil {
		return storeError(err, ideaNotFound)
	}
	if existing.UserID != caller.UserID && !caller.IsAdmin() {
		return apperr.Denied("you can only delete your own ideas")
	}

	if err := s.ideas.Delete(ctx, id); err != nil {
		return storeError(err, ideaNotFound)
	}
	s.audit.Record(ctx, models.AuditIdeaDeleted, caller.UserID, id, "deleted by "+roleLabel(caller, existing))
	return nil
}

func (s *ideaService) List(ctx context.Context, q ListQuery) (*models.IdeaPage, error) {
	return listIdeas(ctx, s.ideas, repository.ListOptions{
		Filter: repository.IdeaFilter{Status: models.StatusApproved, CreatedFrom: q.From, CreatedBefore: q.Before},
		Sort:   q.Sort,
		Skip:   q.skip(),
		Limit:  q.Limit,
	}, q)
}

func (s *ideaService) Vote(ctx context.Context, caller Caller, id, voteType string) (*models.VoteResponse, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	id, err := parseID(id, "idea")
	if err != nil {
		return nil, err
	}
	t, err := models.ParseVoteType(voteType)
	if err != nil {
		return nil, apperr.Invalid("voteType must be 'up' or 'down'")
	}

	idea, res, err := s.ideas.ApplyVote(ctx, id, caller.UserID, t)
	if err != nil {
		return nil, storeError(err, ideaNotFound)
	}
	if res.Action == voting.ActionRetracted {
		s.audit.Record(ctx, models.AuditVoteRetracted, caller.UserID, id, string(res.Previous))
	}

	return &models.VoteResponse{
		Action:     string(res.Action),
		TotalVotes: len(idea.Votes),
		Idea:       voting.WithCounts(*idea),
	}, nil
}

func (s *ideaService) AddComment(ctx context.Context, caller Caller, id, content string) (*models.Comment, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	id, err := parseID(id, "idea")
	if err != nil {
		return nil, err
	}
	text, err := requireText("content", content, MaxCommentLength)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:        uuid.NewString(),
		UserID:    caller.UserID,
		Content:   text,
		CreatedAt: s.now(),
	}
	if err := s.ideas.AddComment(ctx, id, comment); err != nil {
		return nil, storeError(err, ideaNotFound)
	}
	return comment, nil
}

func listIdeas(ctx context.Context, repo repository.IdeaRepository, opts repository.ListOptions, q ListQuery) (*models.IdeaPage, error) {
	ideas, total, err := repo.List(ctx, opts)
	if err != nil {
		return nil, storeError(err, ideaNotFound)
	}
	items := make([]models.IdeaWithCounts, 0, len(ideas))
	for _, idea := range ideas {
		items = append(items, voting.WithCounts(idea))
	}
	return &models.IdeaPage{Items: items, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

func roleLabel(caller Caller, idea *models.Idea) string {
	if idea.UserID == caller.UserID {
		return "owner"
	}
	return "admin"
}
