package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/ideaboard/backend/internal/service"
)

const callerKey = "caller"

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// Authenticate requires a valid access token in the Authorization header and
// stores the caller on the context.
func Authenticate(tokens service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abort(c, http.StatusUnauthorized, "authorization token required")
			return
		}

		claims, err := tokens.VerifyAccess(strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, service.ErrExpiredToken) {
				abort(c, http.StatusUnauthorized, "token has expired")
				return
			}
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(callerKey, service.Caller{UserID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}

// CallerFrom returns the caller stored by Authenticate.
func CallerFrom(c *gin.Context) (service.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return service.Caller{}, false
	}
	caller, ok := v.(service.Caller)
	return caller, ok
}

// SetCaller stores a caller on the context. Handlers read it back with
// CallerFrom.
func SetCaller(c *gin.Context, caller service.Caller) {
	c.Set(callerKey, caller)
}

type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// RequireAdmin looks the caller's role up in the user store rather than
// trusting the role claim, so demotions apply before the token expires.
func RequireAdmin(checker AdminChecker, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "authentication required")
			return
		}

		isAdmin, err := checker.IsAdmin(c.Request.Context(), caller.UserID)
		if err != nil {
			log.Error("admin check failed", zap.String("user_id", caller.UserID), zap.Error(err))
			abort(c, http.StatusInternalServerError, "internal server error")
			return
		}
		if !isAdmin {
			abort(c, http.StatusForbidden, "admin access required")
			return
		}
		c.Next()
	}
}
