package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole accepts the role names in any letter case.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleUser, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

type User struct {
	ID           string    `gorm:"type:uuid;primaryKey" bson:"_id" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" bson:"username" json:"username"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" bson:"email" json:"email"`
	PasswordHash string    `gorm:"not null" bson:"password_hash" json:"-"`
	Role         Role      `gorm:"size:16;not null;default:USER" bson:"role" json:"role"`
	RefreshToken *string   `gorm:"size:64" bson:"refresh_token,omitempty" json:"-"` // sha256 hex of the active refresh token
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenPair is returned on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthResponse struct {
	User   User      `json:"user"`
	Tokens TokenPair `json:"tokens"`
}
