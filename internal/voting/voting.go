// Package voting reconciles a voter's request against an idea's existing
// votes and derives the aggregate counts.
package voting

import "github.com/emilythestrangee/ideaboard/backend/internal/models"

type Action string

const (
	ActionCast      Action = "cast"
	ActionRetracted Action = "retracted"
	ActionSwitched  Action = "switched"
)

// Result describes the outcome of a reconciliation.
//
// Index is the position of the voter's entry in the input sequence, or -1
// when the voter had not voted. Previous is the type that entry had.
type Result struct {
	Votes    []models.Vote
	Action   Action
	Index    int
	Previous models.VoteType
}

// Reconcile applies a vote request of type t by voterID to votes and returns
// the new sequence. The input slice is not modified.
//
// No existing vote appends one, the same type removes it, and the other type
// overwrites it in place.
func Reconcile(votes []models.Vote, voterID string, t models.VoteType) Result {
	idx := -1
	for i := range votes {
		if votes[i].UserID == voterID {
			idx = i
			break
		}
	}

	if idx < 0 {
		out := make([]models.Vote, len(votes), len(votes)+1)
		copy(out, votes)
		out = append(out, models.Vote{UserID: voterID, Type: t})
		return Result{Votes: out, Action: ActionCast, Index: -1}
	}

	prev := votes[idx].Type
	if prev == t {
		out := make([]models.Vote, 0, len(votes)-1)
		out = append(out, votes[:idx]...)
		out = append(out, votes[idx+1:]...)
		return Result{Votes: out, Action: ActionRetracted, Index: idx, Previous: prev}
	}

	out := make([]models.Vote, len(votes))
	copy(out, votes)
	out[idx].Type = t
	return Result{Votes: out, Action: ActionSwitched, Index: idx, Previous: prev}
}

type Counts struct {
	Up   int
	Down int
	Net  int
}

func Tally(votes []models.Vote) Counts {
	var c Counts
	for _, v := range votes {
		switch v.Type {
		case models.VoteUp:
			c.Up++
		case models.VoteDown:
			c.Down++
		}
	}
	c.Net = c.Up - c.Down
	return c
}

// WithCounts attaches the derived counts to an idea.
func WithCounts(idea models.Idea) models.IdeaWithCounts {
	c := Tally(idea.Votes)
	if idea.Votes == nil {
		idea.Votes = []models.Vote{}
	}
	if idea.Comments == nil {
		idea.Comments = []models.Comment{}
	}
	return models.IdeaWithCounts{Idea: idea, Upvotes: c.Up, Downvotes: c.Down, Score: c.Net}
}
