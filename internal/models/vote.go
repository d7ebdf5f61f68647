package models

import (
	"fmt"
	"strings"
	"time"
)

// VoteType is the direction of a vote.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

func ParseVoteType(s string) (VoteType, error) {
	switch v := VoteType(strings.ToLower(strings.TrimSpace(s))); v {
	case VoteUp, VoteDown:
		return v, nil
	case "":
		return "", fmt.Errorf("vote type is required")
	default:
		return "", fmt.Errorf("unknown vote type %q", s)
	}
}

// Vote is a single user's vote on an idea. In PostgreSQL it is a row of the
// votes table; in MongoDB it is embedded in the idea document.
type Vote struct {
	ID        uint      `gorm:"primaryKey" bson:"-" json:"-"`
	IdeaID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_votes_idea_user,priority:1" bson:"-" json:"-"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_votes_idea_user,priority:2" bson:"user_id" json:"user_id"`
	Type      VoteType  `gorm:"column:vote_type;size:8;not null" bson:"vote_type" json:"vote_type"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func (Vote) TableName() string {
	return "votes"
}

type VoteRequest struct {
	VoteType string `json:"voteType" binding:"required,votetype"`
}

type VoteResponse struct {
	Action     string         `json:"action"`
	TotalVotes int            `json:"totalVotes"`
	Idea       IdeaWithCounts `json:"idea"`
}
