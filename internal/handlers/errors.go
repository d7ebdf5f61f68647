package handlers

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/emilythestrangee/ideaboard/backend/internal/apperr"
	"github.com/emilythestrangee/ideaboard/backend/internal/middleware"
	"github.com/emilythestrangee/ideaboard/backend/internal/models"
	"github.com/emilythestrangee/ideaboard/backend/internal/service"
)

var validatorsOnce sync.Once

// registerValidators adds the ideastatus and votetype binding tags and
// reports fields by their JSON names.
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("ideastatus", func(fl validator.FieldLevel) bool {
			_, err := models.ParseIdeaStatus(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("votetype", func(fl validator.FieldLevel) bool {
			_, err := models.ParseVoteType(fl.Field().String())
			return err == nil
		})
	})
}

// bindMessage turns a binding failure into a message for the client.
func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "a valid email is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "votetype":
		return "voteType must be 'up' or 'down'"
	case "ideastatus":
		return "status must be one of pending, approved or rejected"
	default:
		return fe.Field() + " is invalid"
	}
}

func respondBindError(c *gin.Context, err error) {
	respondError(c, nil, apperr.Invalid(bindMessage(err)))
}

// respondError writes err as {"error": message}. Internal failures are
// logged in full and reported with a generic message.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status, msg := apperr.Public(err)
	if apperr.KindOf(err) == apperr.Internal && log != nil {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": msg})
}

// caller returns the authenticated caller or writes a 401.
func caller(c *gin.Context) (service.Caller, bool) {
	cl, ok := middleware.CallerFrom(c)
	if !ok || cl.UserID == "" {
		respondError(c, nil, apperr.Unauthorized("authentication required"))
		return service.Caller{}, false
	}
	return cl, true
}
