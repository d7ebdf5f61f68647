package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/ideaboard/backend/internal/models"
	"github.com/emilythestrangee/ideaboard/backend/internal/service"
)

type CommentHandler struct {
	ideas service.IdeaService
	log   *zap.Logger
}

func NewCommentHandler(ideas service.IdeaService, log *zap.Logger) *CommentHandler {
	registerValidators()
	return &CommentHandler{ideas: ideas, log: log}
}

// CreateComment appends a comment to an idea
func (h *CommentHandler) CreateComment(c *gin.Context) {
	cl, ok := caller(c)
	if !ok {
		return
	}

	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	comment, err := h.ideas.AddComment(c.Request.Context(), cl, c.Param("id"), req.Content)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}
