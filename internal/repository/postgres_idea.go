package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/ideaboard/backend/internal/models"
	"github.com/emilythestrangee/ideaboard/backend/internal/voting"
)

const (
	scoreExpr = "(SELECT COALESCE(SUM(CASE WHEN v.vote_type = 'up' THEN 1 WHEN v.vote_type = 'down' THEN -1 ELSE 0 END), 0) FROM votes v WHERE v.idea_id = ideas.id)"
	countExpr = "(SELECT COUNT(*) FROM votes v WHERE v.idea_id = ideas.id)"
)

type postgresIdeaRepository struct {
	db *gorm.DB
}

func NewPostgresIdeaRepository(db *gorm.DB) IdeaRepository {
	return &postgresIdeaRepository{db: db}
}

func orderedVotes(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func orderedComments(db *gorm.DB) *gorm.DB {
	return db.Order("created_at").Order("id")
}

func (r *postgresIdeaRepository) Create(ctx context.Context, idea *models.Idea) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(idea).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create idea: %w", ErrDuplicate)
		}
		return fmt.Errorf("create idea: %w", err)
	}
	return nil
}

func (r *postgresIdeaRepository) FindByID(ctx context.Context, id string) (*models.Idea, error) {
	return r.find(r.db.WithContext(ctx), id)
}

func (r *postgresIdeaRepository) find(db *gorm.DB, id string) (*models.Idea, error) {
	var idea models.Idea
	err := db.Preload("Votes", orderedVotes).
		Preload("Comments", orderedComments).
		First(&idea, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find idea %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("find idea %s: %w", id, err)
	}
	return &idea, nil
}

func (r *postgresIdeaRepository) Update(ctx context.Context, id string, fields IdeaFields) (*models.Idea, error) {
	updates := map[string]any{
		"updated_at": time.Now().UTC(),
		"version":    gorm.Expr("version + 1"),
	}
	if fields.Title != nil {
		updates["title"] = *fields.Title
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}

	db := r.db.WithContext(ctx)
	res := db.Model(&models.Idea{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("update idea %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("update idea %s: %w", id, ErrNotFound)
	}
	return r.find(db, id)
}

func (r *postgresIdeaRepository) SetStatus(ctx context.Context, id string, status models.IdeaStatus) (*models.Idea, models.IdeaStatus, error) {
	var previous models.IdeaStatus
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Idea
		if err := lockIdea(tx, id, &current); err != nil {
			return err
		}
		previous = current.Status
		return tx.Model(&models.Idea{}).Where("id = ?", id).Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
			"version":    gorm.Expr("version + 1"),
		}).Error
	})
	if err != nil {
		return nil, "", fmt.Errorf("set status of idea %s: %w", id, err)
	}

	idea, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return idea, previous, nil
}

func (r *postgresIdeaRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Idea{})
	if res.Error != nil {
		return fmt.Errorf("delete idea %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete idea %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *postgresIdeaRepository) List(ctx context.Context, opts ListOptions) ([]models.Idea, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if opts.Filter.Status != "" {
			db = db.Where("status = ?", opts.Filter.Status)
		}
		if !opts.Filter.CreatedFrom.IsZero() {
			db = db.Where("created_at >= ?", opts.Filter.CreatedFrom)
		}
		if !opts.Filter.CreatedBefore.IsZero() {
			db = db.Where("created_at < ?", opts.Filter.CreatedBefore)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Idea{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count ideas: %w", err)
	}

	q := r.db.WithContext(ctx).Scopes(filter)
	switch opts.Sort {
	case SortLatest:
		q = q.Order("created_at DESC")
	case SortOldest:
		q = q.Order("created_at ASC")
	case SortPopular:
		q = q.Order(scoreExpr + " DESC").Order("created_at DESC")
	default:
		q = q.Order(countExpr + " DESC").Order("created_at DESC")
	}

	var ideas []models.Idea
	err := q.Order("id").
		Offset(opts.Skip).
		Limit(opts.Limit).
		Preload("Votes", orderedVotes).
		Preload("Comments", orderedComments).
		Find(&ideas).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list ideas: %w", err)
	}
	return ideas, total, nil
}

func (r *postgresIdeaRepository) ApplyVote(ctx context.Context, ideaID, voterID string, t models.VoteType) (*models.Idea, voting.Result, error) {
	var result voting.Result
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.Idea
		if err := lockIdea(tx, ideaID, &locked); err != nil {
			return err
		}

		var votes []models.Vote
		if err := tx.Where("idea_id = ?", ideaID).Order("id").Find(&votes).Error; err != nil {
			return err
		}

		result = voting.Reconcile(votes, voterID, t)
		var err error
		switch result.Action {
		case voting.ActionCast:
			err = tx.Create(&models.Vote{IdeaID: ideaID, UserID: voterID, Type: t}).Error
		case voting.ActionRetracted:
			err = tx.Delete(&models.Vote{}, votes[result.Index].ID).Error
		case voting.ActionSwitched:
			err = tx.Model(&votes[result.Index]).Update("vote_type", t).Error
		}
		if err != nil {
			if isUniqueViolation(err) {
				return ErrWriteConflict
			}
			return err
		}

		return tx.Model(&models.Idea{}).Where("id = ?", ideaID).Updates(map[string]any{
			"updated_at": time.Now().UTC(),
			"version":    gorm.Expr("version + 1"),
		}).Error
	})
	if err != nil {
		return nil, voting.Result{}, fmt.Errorf("vote on idea %s: %w", ideaID, err)
	}

	idea, err := r.FindByID(ctx, ideaID)
	if err != nil {
		return nil, voting.Result{}, err
	}
	return idea, result, nil
}

func (r *postgresIdeaRepository) AddComment(ctx context.Context, ideaID string, comment *models.Comment) error {
	comment.IdeaID = ideaID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Idea{}).Where("id = ?", ideaID).Updates(map[string]any{
			"updated_at": time.Now().UTC(),
			"version":    gorm.Expr("version + 1"),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Create(comment).Error
	})
	if err != nil {
		return fmt.Errorf("comment on idea %s: %w", ideaID, err)
	}
	return nil
}

// lockIdea takes a row lock on the idea for the rest of the transaction.
func lockIdea(tx *gorm.DB, id string, dst *models.Idea) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "status", "version").
		First(dst, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
