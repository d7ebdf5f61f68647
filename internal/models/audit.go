package models

import "time"

const (
	AuditVoteRetracted     = "vote.retracted"
	AuditIdeaStatusChanged = "idea.status_changed"
	AuditIdeaDeleted       = "idea.deleted"
)

// AuditEvent records a moderation-relevant change to an idea.
type AuditEvent struct {
	ID        string    `gorm:"type:uuid;primaryKey" bson:"_id" json:"id"`
	Action    string    `gorm:"size:64;not null;index" bson:"action" json:"action"`
	ActorID   string    `gorm:"type:uuid;not null" bson:"actor_id" json:"actor_id"`
	IdeaID    string    `gorm:"type:uuid;index" bson:"idea_id" json:"idea_id"`
	Detail    string    `gorm:"type:text" bson:"detail,omitempty" json:"detail,omitempty"`
	CreatedAt time.Time `gorm:"index" bson:"created_at" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
