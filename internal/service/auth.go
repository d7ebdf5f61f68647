package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/emilythestrangee/ideaboard/backend/internal/apperr"
	"github.com/emilythestrangee/ideaboard/backend/internal/models"
	"github.com/emilythestrangee/ideaboard/backend/internal/repository"
)

const (
	invalidCredentials = "invalid email or password"
	maxPasswordBytes   = 72
)

// AuthService defines authentication operations.
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	// IsAdmin reports whether the stored user currently has the admin role.
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type authService struct {
	users  repository.UserRepository
	tokens TokenService
	cost   int
}

func NewAuthService(users repository.UserRepository, tokens TokenService) AuthService {
	return &authService{users: users, tokens: tokens, cost: bcrypt.DefaultCost}
}

func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if n := utf8.RuneCountInString(username); n < 3 || n > 50 {
		return nil, apperr.Invalid("username must be between 3 and 50 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Invalid("a valid email is required")
	}
	if len(req.Password) < 6 {
		return nil, apperr.Invalid("password must be at least 6 characters")
	}
	// bcrypt refuses anything longer
	if len(req.Password) > maxPasswordBytes {
		return nil, apperr.Invalid("password must be at most 72 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, apperr.Internalf("hash password", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Wrap(apperr.Conflict, "a user with this email or username already exists", err)
		}
		return nil, apperr.Internalf("create user", err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized(invalidCredentials)
		}
		return nil, apperr.Internalf("find user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized(invalidCredentials)
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{User: *user, Tokens: pair}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apperr.Invalid("refresh token is required")
	}

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthenticated, "invalid or expired refresh token", err)
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("invalid or expired refresh token")
		}
		return nil, apperr.Internalf("find user", err)
	}

	digest := HashToken(refreshToken)
	if user.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(digest)) != 1 {
		return nil, apperr.Unauthorized("invalid or expired refresh token")
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

func (s *authService) Logout(ctx context.Context, userID string) error {
	if err := s.users.SetRefreshToken(ctx, userID, nil); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Unauthorized("authentication required")
		}
		return apperr.Internalf("clear refresh token", err)
	}
	return nil
}

func (s *authService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, apperr.Internalf("find user", err)
	}
	return user.Role == models.RoleAdmin, nil
}

// issue signs a new token pair and makes its refresh token the only one
// accepted for the user.
func (s *authService) issue(ctx context.Context, user *models.User) (models.TokenPair, error) {
	pair, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return models.TokenPair{}, apperr.Internalf("issue tokens", err)
	}
	digest := HashToken(pair.RefreshToken)
	if err := s.users.SetRefreshToken(ctx, user.ID, &digest); err != nil {
		return models.TokenPair{}, apperr.Internalf("store refresh token", err)
	}
	user.RefreshToken = &digest
	return pair, nil
}
