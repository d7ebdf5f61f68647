package models

import "time"

type Comment struct {
	ID        string    `gorm:"type:uuid;primaryKey" bson:"_id" json:"id"`
	IdeaID    string    `gorm:"type:uuid;index;not null" bson:"-" json:"-"`
	UserID    string    `gorm:"type:uuid;not null" bson:"user_id" json:"user_id"`
	Content   string    `gorm:"type:text;not null" bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func (Comment) TableName() string {
	return "comments"
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}
