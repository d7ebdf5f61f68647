package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/emilythestrangee/ideaboard/backend/internal/models"
)

type mockStore struct {
	createFunc func(ctx context.Context, event *models.AuditEvent) error
	listFunc   func(ctx context.Context, ideaID string, limit int) ([]models.AuditEvent, error)
}

func (m *mockStore) Create(ctx context.Context, event *models.AuditEvent) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, event)
	}
	return nil
}

func (m *mockStore) ListByIdea(ctx context.Context, ideaID string, limit int) ([]models.AuditEvent, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, ideaID, limit)
	}
	return nil, nil
}

func TestRecordStoresAndLogs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	var stored *models.AuditEvent
	store := &mockStore{createFunc: func(_ context.Context, e *models.AuditEvent) error {
		stored = e
		return nil
	}}

	l := New(store, zap.New(core))
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	l.Record(context.Background(), models.AuditVoteRetracted, "actor", "idea", "up")

	if stored == nil {
		t.Fatal("event was not stored")
	}
	if stored.ID == "" || stored.Action != models.AuditVoteRetracted || !stored.CreatedAt.Equal(fixed) {
		t.Errorf("stored = %+v", stored)
	}
	if logs.FilterMessage("audit event").Len() != 1 {
		t.Errorf("expected one audit log line, got %d", logs.Len())
	}
}

func TestRecordStoreFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	store := &mockStore{createFunc: func(context.Context, *models.AuditEvent) error {
		return errors.New("disk full")
	}}

	New(store, zap.New(core)).Record(context.Background(), models.AuditIdeaDeleted, "a", "i", "")

	if logs.FilterMessage("failed to store audit event").Len() != 1 {
		t.Error("expected the store failure to be logged")
	}
}

func TestNilLoggerIsNoop(t *testing.T) {
	var l *Logger
	l.Record(context.Background(), models.AuditIdeaDeleted, "a", "i", "")

	events, err := l.ForIdea(context.Background(), "i")
	if err != nil || events == nil || len(events) != 0 {
		t.Errorf("ForIdea on nil logger = %v, %v", events, err)
	}
}

func TestForIdeaUsesLimit(t *testing.T) {
	var gotLimit int
	store := &mockStore{listFunc: func(_ context.Context, _ string, limit int) ([]models.AuditEvent, error) {
		gotLimit = limit
		return []models.AuditEvent{{Action: models.AuditIdeaDeleted}}, nil
	}}

	events, err := New(store, zap.NewNop()).ForIdea(context.Background(), "i")
	if err != nil {
		t.Fatalf("ForIdea: %v", err)
	}
	if gotLimit != ListLimit || len(events) != 1 {
		t.Errorf("limit = %d, events = %d", gotLimit, len(events))
	}
}
