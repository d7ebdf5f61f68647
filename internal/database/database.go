package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/ideaboard/backend/internal/models"
)

// Service is a connected store that can report its health.
type Service interface {
	Health(ctx context.Context) map[string]string
	Close() error
}

type Postgres struct {
	db   *gorm.DB
	name string
	log  *zap.Logger
}

// OpenPostgres connects to PostgreSQL with gorm, migrates the schema and
// configures the connection pool.
func OpenPostgres(dsn, name string, log *zap.Logger) (*Postgres, error) {
	gormLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info("database connected", zap.String("database", name))

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database migrations completed")

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Postgres{db: db, name: name, log: log}, nil
}

// Migrate creates or updates the tables for every persisted model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Idea{},
		&models.Vote{},
		&models.Comment{},
		&models.AuditEvent{},
	); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

func (p *Postgres) DB() *gorm.DB {
	return p.db
}

// Health pings the database and reports pool statistics.
func (p *Postgres) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	stats := map[string]string{"driver": "postgres"}

	sqlDB, err := p.db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db error: %v", err)
		return stats
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	dbStats := sqlDB.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)
	return stats
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	p.log.Info("disconnected from database", zap.String("database", p.name))
	return sqlDB.Close()
}
