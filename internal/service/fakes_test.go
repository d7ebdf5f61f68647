package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/emilythestrangee/ideaboard/backend/internal/models"
	"github.com/emilythestrangee/ideaboard/backend/internal/repository"
	"github.com/emilythestrangee/ideaboard/backend/internal/voting"
)

// =============================================================================
// In-memory IdeaRepository
// =============================================================================

type fakeIdeaRepo struct {
	mu    sync.Mutex
	ideas map[string]*models.Idea
}

func newFakeIdeaRepo() *fakeIdeaRepo {
	return &fakeIdeaRepo{ideas: map[string]*models.Idea{}}
}

func clone(idea *models.Idea) *models.Idea {
	c := *idea
	c.Votes = append([]models.Vote{}, idea.Votes...)
	c.Comments = append([]models.Comment{}, idea.Comments...)
	return &c
}

func (r *fakeIdeaRepo) Create(_ context.Context, idea *models.Idea) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ideas[idea.ID]; ok {
		return repository.ErrDuplicate
	}
	r.ideas[idea.ID] = clone(idea)
	return nil
}

func (r *fakeIdeaRepo) FindByID(_ context.Context, id string) (*models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idea, ok := r.ideas[id]
	if !ok {
		return nil, fmt.Errorf("find idea: %w", repository.ErrNotFound)
	}
	return clone(idea), nil
}

func (r *fakeIdeaRepo) Update(_ context.Context, id string, fields repository.IdeaFields) (*models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idea, ok := r.ideas[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if fields.Title != nil {
		idea.Title = *fields.Title
	}
	if fields.Description != nil {
		idea.Description = *fields.Description
	}
	idea.Version++
	return clone(idea), nil
}

func (r *fakeIdeaRepo) SetStatus(_ context.Context, id string, status models.IdeaStatus) (*models.Idea, models.IdeaStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idea, ok := r.ideas[id]
	if !ok {
		return nil, "", repository.ErrNotFound
	}
	prev := idea.Status
	idea.Status = status
	return clone(idea), prev, nil
}

func (r *fakeIdeaRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ideas[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.ideas, id)
	return nil
}

func (r *fakeIdeaRepo) List(_ context.Context, opts repository.ListOptions) ([]models.Idea, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []models.Idea
	for _, idea := range r.ideas {
		f := opts.Filter
		if f.Status != "" && idea.Status != f.Status {
			continue
		}
		if !f.CreatedFrom.IsZero() && idea.CreatedAt.Before(f.CreatedFrom) {
			continue
		}
		if !f.CreatedBefore.IsZero() && !idea.CreatedAt.Before(f.CreatedBefore) {
			continue
		}
		matched = append(matched, *clone(idea))
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch opts.Sort {
		case repository.SortOldest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		case repository.SortPopular:
			if sa, sb := voting.Tally(a.Votes).Net, voting.Tally(b.Votes).Net; sa != sb {
				return sa > sb
			}
		case repository.SortDefault:
			if len(a.Votes) != len(b.Votes) {
				return len(a.Votes) > len(b.Votes)
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	total := int64(len(matched))
	start := opts.Skip
	if start > len(matched) {
		start = len(matched)
	}
	end := start + opts.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeIdeaRepo) ApplyVote(_ context.Context, ideaID, voterID string, t models.VoteType) (*models.Idea, voting.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idea, ok := r.ideas[ideaID]
	if !ok {
		return nil, voting.Result{}, fmt.Errorf("vote: %w", repository.ErrNotFound)
	}
	res := voting.Reconcile(idea.Votes, voterID, t)
	idea.Votes = res.Votes
	idea.Version++
	return clone(idea), res, nil
}

func (r *fakeIdeaRepo) AddComment(_ context.Context, ideaID string, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idea, ok := r.ideas[ideaID]
	if !ok {
		return repository.ErrNotFound
	}
	comment.IdeaID = ideaID
	idea.Comments = append(idea.Comments, *comment)
	return nil
}

func (r *fakeIdeaRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ideas)
}

// =============================================================================
// Mock UserRepository
// =============================================================================

type mockUserRepository struct {
	createFunc          func(ctx context.Context, user *models.User) error
	findByIDFunc        func(ctx context.Context, id string) (*models.User, error)
	findByEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	setRefreshTokenFunc func(ctx context.Context, id string, digest *string) error
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepository) SetRefreshToken(ctx context.Context, id string, digest *string) error {
	if m.setRefreshTokenFunc != nil {
		return m.setRefreshTokenFunc(ctx, id, digest)
	}
	return nil
}

// memoryUsers is a small map-backed UserRepository for flows that need state.
type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]*models.User{}}
}

func (m *memoryUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email || u.Username == user.Username {
			return fmt.Errorf("create user: %w", repository.ErrDuplicate)
		}
	}
	c := *user
	m.users[user.ID] = &c
	return nil
}

func (m *memoryUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUsers) SetRefreshToken(_ context.Context, id string, digest *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.RefreshToken = digest
	return nil
}

// =============================================================================
// Recording AuditRepository
// =============================================================================

type recordingAudit struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (a *recordingAudit) Create(_ context.Context, event *models.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, *event)
	return nil
}

func (a *recordingAudit) ListByIdea(_ context.Context, ideaID string, limit int) ([]models.AuditEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.AuditEvent
	for i := len(a.events) - 1; i >= 0 && len(out) < limit; i-- {
		if a.events[i].IdeaID == ideaID {
			out = append(out, a.events[i])
		}
	}
	return out, nil
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, e := range a.events {
		out = append(out, e.Action)
	}
	return out
}
