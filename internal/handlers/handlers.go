package handlers

import (
	"go.uber.org/zap"

	"github.com/emilythestrangee/ideaboard/backend/internal/database"
	"github.com/emilythestrangee/ideaboard/backend/internal/service"
)

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Idea    *IdeaHandler
	Comment *CommentHandler
	Admin   *AdminHandler
	Health  *HealthHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(
	auth service.AuthService,
	ideas service.IdeaService,
	moderation service.ModerationService,
	db database.Service,
	log *zap.Logger,
) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(auth, log),
		Idea:    NewIdeaHandler(ideas, log),
		Comment: NewCommentHandler(ideas, log),
		Admin:   NewAdminHandler(moderation, log),
		Health:  NewHealthHandler(db),
	}
}
