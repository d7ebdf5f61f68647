package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/ideaboard/backend/internal/models"
)

type postgresAuditRepository struct {
	db *gorm.DB
}

func NewPostgresAuditRepository(db *gorm.DB) AuditRepository {
	return &postgresAuditRepository{db: db}
}

func (r *postgresAuditRepository) Create(ctx context.Context, event *models.AuditEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create audit event: %w", err)
	}
	return nil
}

func (r *postgresAuditRepository) ListByIdea(ctx context.Context, ideaID string, limit int) ([]models.AuditEvent, error) {
	events := []models.AuditEvent{}
	err := r.db.WithContext(ctx).
		Where("idea_id = ?", ideaID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}
