// Package audit records moderation-relevant changes to ideas in the audit
// store and mirrors them to the structured log.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emilythestrangee/ideaboard/backend/internal/models"
	"github.com/emilythestrangee/ideaboard/backend/internal/repository"
)

// ListLimit caps the events returned for a single idea.
const ListLimit = 100

type Logger struct {
	store repository.AuditRepository
	log   *zap.Logger
	now   func() time.Time
}

func New(store repository.AuditRepository, log *zap.Logger) *Logger {
	return &Logger{store: store, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Record stores an event. A failed write is logged and otherwise ignored so
// that auditing never fails the action being audited. A nil Logger is a no-op.
func (l *Logger) Record(ctx context.Context, action, actorID, ideaID, detail string) {
	if l == nil {
		return
	}
	event := models.AuditEvent{
		ID:        uuid.NewString(),
		Action:    action,
		ActorID:   actorID,
		IdeaID:    ideaID,
		Detail:    detail,
		CreatedAt: l.now(),
	}

	l.log.Info("audit event",
		zap.Bool("audit", true),
		zap.String("action", action),
		zap.String("actor_id", actorID),
		zap.String("idea_id", ideaID),
		zap.String("detail", detail),
	)

	if err := l.store.Create(ctx, &event); err != nil {
		l.log.Error("failed to store audit event", zap.String("action", action), zap.Error(err))
	}
}

// ForIdea returns the newest events recorded against an idea. A nil Logger
// has none.
func (l *Logger) ForIdea(ctx context.Context, ideaID string) ([]models.AuditEvent, error) {
	if l == nil {
		return []models.AuditEvent{}, nil
	}
	return l.store.ListByIdea(ctx, ideaID, ListLimit)
}
