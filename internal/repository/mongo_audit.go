package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/emilythestrangee/ideaboard/backend/internal/models"
)

type MongoAuditRepository struct {
	c *mongo.Collection
}

func NewMongoAuditRepository(db *mongo.Database) *MongoAuditRepository {
	return &MongoAuditRepository{c: db.Collection("audit_events")}
}

func (r *MongoAuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "idea_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create audit indexes: %w", err)
	}
	return nil
}

func (r *MongoAuditRepository) Create(ctx context.Context, event *models.AuditEvent) error {
	if _, err := r.c.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("create audit event: %w", err)
	}
	return nil
}

func (r *MongoAuditRepository) ListByIdea(ctx context.Context, ideaID string, limit int) ([]models.AuditEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.c.Find(ctx, bson.M{"idea_id": ideaID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer cur.Close(ctx)

	events := []models.AuditEvent{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode audit events: %w", err)
	}
	return events, nil
}

var _ AuditRepository = (*MongoAuditRepository)(nil)
