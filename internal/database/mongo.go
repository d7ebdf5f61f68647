package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

func OpenMongo(ctx context.Context, uri, name string, log *zap.Logger) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	log.Info("mongo connected", zap.String("database", name))

	return &Mongo{client: client, db: client.Database(name), log: log}, nil
}

func (m *Mongo) Database() *mongo.Database {
	return m.db
}

func (m *Mongo) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	stats := map[string]string{"driver": "mongo"}
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("mongo down: %v", err)
		return stats
	}
	stats["status"] = "up"
	stats["sessions_in_progress"] = fmt.Sprintf("%d", m.client.NumberSessionsInProgress())
	return stats
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.log.Info("disconnected from mongo", zap.String("database", m.db.Name()))
	return m.client.Disconnect(ctx)
}
