package models

import (
	"fmt"
	"strings"
	"time"
)

// IdeaStatus is the moderation state of an idea.
type IdeaStatus string

const (
	StatusPending  IdeaStatus = "pending"
	StatusApproved IdeaStatus = "approved"
	StatusRejected IdeaStatus = "rejected"
)

func ParseIdeaStatus(s string) (IdeaStatus, error) {
	switch st := IdeaStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	case "":
		return "", fmt.Errorf("status is required")
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

type Idea struct {
	ID          string     `gorm:"type:uuid;primaryKey" bson:"_id" json:"id"`
	Title       string     `gorm:"size:200;not null" bson:"title" json:"title"`
	Description string     `gorm:"type:text;not null" bson:"description" json:"description"`
	UserID      string     `gorm:"type:uuid;index;not null" bson:"user_id" json:"user_id"`
	Status      IdeaStatus `gorm:"size:16;index;not null;default:pending" bson:"status" json:"status"`
	Votes       []Vote     `gorm:"foreignKey:IdeaID;constraint:OnDelete:CASCADE" bson:"votes" json:"votes"`
	Comments    []Comment  `gorm:"foreignKey:IdeaID;constraint:OnDelete:CASCADE" bson:"comments" json:"comments"`
	Version     int64      `gorm:"not null;default:0" bson:"version" json:"-"`
	CreatedAt   time.Time  `gorm:"index" bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

func (Idea) TableName() string {
	return "ideas"
}

// IdeaWithCounts is an idea plus the vote aggregates derived from Votes.
type IdeaWithCounts struct {
	Idea
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
	Score     int `json:"score"`
}

type CreateIdeaRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// UpdateIdeaRequest only carries the owner-editable fields.
type UpdateIdeaRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,ideastatus"`
}

type IdeaPage struct {
	Items []IdeaWithCounts `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}
