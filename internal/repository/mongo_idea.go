package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/emilythestrangee/ideaboard/backend/internal/models"
	"github.com/emilythestrangee/ideaboard/backend/internal/voting"
)

// maxVoteAttempts bounds the compare-and-swap retries in ApplyVote.
const maxVoteAttempts = 5

type MongoIdeaRepository struct {
	c *mongo.Collection
}

func NewMongoIdeaRepository(db *mongo.Database) *MongoIdeaRepository {
	return &MongoIdeaRepository{c: db.Collection("ideas")}
}

func (r *MongoIdeaRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create idea indexes: %w", err)
	}
	return nil
}

func (r *MongoIdeaRepository) Create(ctx context.Context, idea *models.Idea) error {
	if idea.Votes == nil {
		idea.Votes = []models.Vote{}
	}
	if idea.Comments == nil {
		idea.Comments = []models.Comment{}
	}
	if _, err := r.c.InsertOne(ctx, idea); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("create idea: %w", ErrDuplicate)
		}
		return fmt.Errorf("create idea: %w", err)
	}
	return nil
}

func (r *MongoIdeaRepository) FindByID(ctx context.Context, id string) (*models.Idea, error) {
	var idea models.Idea
	if err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&idea); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("find idea %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("find idea %s: %w", id, err)
	}
	return &idea, nil
}

func (r *MongoIdeaRepository) Update(ctx context.Context, id string, fields IdeaFields) (*models.Idea, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if fields.Title != nil {
		set["title"] = *fields.Title
	}
	if fields.Description != nil {
		set["description"] = *fields.Description
	}

	var idea models.Idea
	err := r.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&idea)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("update idea %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("update idea %s: %w", id, err)
	}
	return &idea, nil
}

func (r *MongoIdeaRepository) SetStatus(ctx context.Context, id string, status models.IdeaStatus) (*models.Idea, models.IdeaStatus, error) {
	now := time.Now().UTC()

	var idea models.Idea
	err := r.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": now}, "$inc": bson.M{"version": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&idea)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", fmt.Errorf("set status of idea %s: %w", id, ErrNotFound)
		}
		return nil, "", fmt.Errorf("set status of idea %s: %w", id, err)
	}

	previous := idea.Status
	idea.Status = status
	idea.UpdatedAt = now
	idea.Version++
	return &idea, previous, nil
}

func (r *MongoIdeaRepository) Delete(ctx context.Context, id string) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete idea %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete idea %s: %w", id, ErrNotFound)
	}
	return nil
}

func ideaFilter(f IdeaFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	created := bson.M{}
	if !f.CreatedFrom.IsZero() {
		created["$gte"] = f.CreatedFrom
	}
	if !f.CreatedBefore.IsZero() {
		created["$lt"] = f.CreatedBefore
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}
	return filter
}

func countVotes(t models.VoteType) bson.M {
	return bson.M{"$size": bson.M{"$filter": bson.M{
		"input": bson.M{"$ifNull": bson.A{"$votes", bson.A{}}},
		"cond":  bson.M{"$eq": bson.A{"$$this.vote_type", string(t)}},
	}}}
}

func (r *MongoIdeaRepository) List(ctx context.Context, opts ListOptions) ([]models.Idea, int64, error) {
	filter := ideaFilter(opts.Filter)

	total, err := r.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count ideas: %w", err)
	}

	var cur *mongo.Cursor
	switch opts.Sort {
	case SortLatest, SortOldest:
		dir := -1
		if opts.Sort == SortOldest {
			dir = 1
		}
		findOpts := options.Find().
			SetSort(bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: 1}}).
			SetSkip(int64(opts.Skip)).
			SetLimit(int64(opts.Limit))
		cur, err = r.c.Find(ctx, filter, findOpts)
	default:
		key := "vote_count"
		if opts.Sort == SortPopular {
			key = "score"
		}
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: filter}},
			{{Key: "$addFields", Value: bson.M{
				"score":      bson.M{"$subtract": bson.A{countVotes(models.VoteUp), countVotes(models.VoteDown)}},
				"vote_count": bson.M{"$size": bson.M{"$ifNull": bson.A{"$votes", bson.A{}}}},
			}}},
			{{Key: "$sort", Value: bson.D{
				{Key: key, Value: -1},
				{Key: "created_at", Value: -1},
				{Key: "_id", Value: 1},
			}}},
			{{Key: "$skip", Value: int64(opts.Skip)}},
			{{Key: "$limit", Value: int64(opts.Limit)}},
			{{Key: "$project", Value: bson.M{"score": 0, "vote_count": 0}}},
		}
		cur, err = r.c.Aggregate(ctx, pipeline)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("list ideas: %w", err)
	}
	defer cur.Close(ctx)

	ideas := []models.Idea{}
	if err := cur.All(ctx, &ideas); err != nil {
		return nil, 0, fmt.Errorf("decode ideas: %w", err)
	}
	return ideas, total, nil
}

// ApplyVote reads the idea, reconciles the vote and writes the new vote list
// only if the version is unchanged, retrying on a lost race.
func (r *MongoIdeaRepository) ApplyVote(ctx context.Context, ideaID, voterID string, t models.VoteType) (*models.Idea, voting.Result, error) {
	for attempt := 0; attempt < maxVoteAttempts; attempt++ {
		idea, err := r.FindByID(ctx, ideaID)
		if err != nil {
			return nil, voting.Result{}, err
		}

		now := time.Now().UTC()
		res := voting.Reconcile(idea.Votes, voterID, t)
		switch res.Action {
		case voting.ActionCast:
			last := &res.Votes[len(res.Votes)-1]
			last.CreatedAt, last.UpdatedAt = now, now
		case voting.ActionSwitched:
			res.Votes[res.Index].UpdatedAt = now
		}

		upd, err := r.c.UpdateOne(ctx,
			bson.M{"_id": ideaID, "version": idea.Version},
			bson.M{
				"$set": bson.M{"votes": res.Votes, "updated_at": now},
				"$inc": bson.M{"version": 1},
			},
		)
		if err != nil {
			return nil, voting.Result{}, fmt.Errorf("vote on idea %s: %w", ideaID, err)
		}
		if upd.MatchedCount == 1 {
			idea.Votes = res.Votes
			idea.UpdatedAt = now
			idea.Version++
			return idea, res, nil
		}
	}
	return nil, voting.Result{}, fmt.Errorf("vote on idea %s: %w", ideaID, ErrWriteConflict)
}

func (r *MongoIdeaRepository) AddComment(ctx context.Context, ideaID string, comment *models.Comment) error {
	res, err := r.c.UpdateOne(ctx,
		bson.M{"_id": ideaID},
		bson.M{
			"$push": bson.M{"comments": comment},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
			"$inc":  bson.M{"version": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("comment on idea %s: %w", ideaID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("comment on idea %s: %w", ideaID, ErrNotFound)
	}
	comment.IdeaID = ideaID
	return nil
}

var _ IdeaRepository = (*MongoIdeaRepository)(nil)
