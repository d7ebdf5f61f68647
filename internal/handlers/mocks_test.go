package handlers

import (
	"context"
	"errors"

	"github.com/emilythestrangee/ideaboard/backend/internal/models"
	"github.com/emilythestrangee/ideaboard/backend/internal/service"
)

// =============================================================================
// Mock Implementations
// =============================================================================

var errNotImplemented = errors.New("not implemented")

type mockAuthService struct {
	registerFunc func(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	loginFunc    func(ctx context.Context, email, password string) (*models.AuthResponse, error)
	refreshFunc  func(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	logoutFunc   func(ctx context.Context, userID string) error
	isAdminFunc  func(ctx context.Context, userID string) (bool, error)
}

func (m *mockAuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, email, password)
	}
	return nil, errNotImplemented
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx, refreshToken)
	}
	return nil, errNotImplemented
}

func (m *mockAuthService) Logout(ctx context.Context, userID string) error {
	if m.logoutFunc != nil {
		return m.logoutFunc(ctx, userID)
	}
	return errNotImplemented
}

func (m *mockAuthService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if m.isAdminFunc != nil {
		return m.isAdminFunc(ctx, userID)
	}
	return false, errNotImplemented
}

type mockIdeaService struct {
	createFunc     func(ctx context.Context, caller service.Caller, req models.CreateIdeaRequest) (*models.IdeaWithCounts, error)
	getFunc        func(ctx context.Context, id string) (*models.IdeaWithCounts, error)
	updateFunc     func(ctx context.Context, caller service.Caller, id string, req models.UpdateIdeaRequest) (*models.IdeaWithCounts, error)
	deleteFunc     func(ctx context.Context, caller service.Caller, id string) error
	listFunc       func(ctx context.Context, q service.ListQuery) (*models.IdeaPage, error)
	voteFunc       func(ctx context.Context, caller service.Caller, id, voteType string) (*models.VoteResponse, error)
	addCommentFunc func(ctx context.Context, caller service.Caller, id, content string) (*models.Comment, error)
}

func (m *mockIdeaService) Create(ctx context.Context, caller service.Caller, req models.CreateIdeaRequest) (*models.IdeaWithCounts, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, caller, req)
	}
	return nil, errNotImplemented
}

func (m *mockIdeaService) Get(ctx context.Context, id string) (*models.IdeaWithCounts, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *mockIdeaService) Update(ctx context.Context, caller service.Caller, id string, req models.UpdateIdeaRequest) (*models.IdeaWithCounts, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, caller, id, req)
	}
	return nil, errNotImplemented
}

func (m *mockIdeaService) Delete(ctx context.Context, caller service.Caller, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, caller, id)
	}
	return errNotImplemented
}

func (m *mockIdeaService) List(ctx context.Context, q service.ListQuery) (*models.IdeaPage, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, q)
	}
	return nil, errNotImplemented
}

func (m *mockIdeaService) Vote(ctx context.Context, caller service.Caller, id, voteType string) (*models.VoteResponse, error) {
	if m.voteFunc != nil {
		return m.voteFunc(ctx, caller, id, voteType)
	}
	return nil, errNotImplemented
}

func (m *mockIdeaService) AddComment(ctx context.Context, caller service.Caller, id, content string) (*models.Comment, error) {
	if m.addCommentFunc != nil {
		return m.addCommentFunc(ctx, caller, id, content)
	}
	return nil, errNotImplemented
}

type mockModerationService struct {
	listFunc       func(ctx context.Context, q service.ListQuery) (*models.IdeaPage, error)
	setStatusFunc  func(ctx context.Context, caller service.Caller, id, status string) (*models.IdeaWithCounts, error)
	deleteFunc     func(ctx context.Context, caller service.Caller, id string) error
	auditTrailFunc func(ctx context.Context, id string) ([]models.AuditEvent, error)
}

func (m *mockModerationService) List(ctx context.Context, q service.ListQuery) (*models.IdeaPage, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, q)
	}
	return nil, errNotImplemented
}

func (m *mockModerationService) SetStatus(ctx context.Context, caller service.Caller, id, status string) (*models.IdeaWithCounts, error) {
	if m.setStatusFunc != nil {
		return m.setStatusFunc(ctx, caller, id, status)
	}
	return nil, errNotImplemented
}

func (m *mockModerationService) Delete(ctx context.Context, caller service.Caller, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, caller, id)
	}
	return errNotImplemented
}

func (m *mockModerationService) AuditTrail(ctx context.Context, id string) ([]models.AuditEvent, error) {
	if m.auditTrailFunc != nil {
		return m.auditTrailFunc(ctx, id)
	}
	return nil, errNotImplemented
}

type mockDatabase struct {
	stats map[string]string
}

func (m *mockDatabase) Health(context.Context) map[string]string {
	return m.stats
}

func (m *mockDatabase) Close() error {
	return nil
}
