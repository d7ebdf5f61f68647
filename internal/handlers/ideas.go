package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/ideaboard/backend/internal/models"
	"github.com/emilythestrangee/ideaboard/backend/internal/service"
)

type IdeaHandler struct {
	ideas service.IdeaService
	log   *zap.Logger
}

func NewIdeaHandler(ideas service.IdeaService, log *zap.Logger) *IdeaHandler {
	registerValidators()
	return &IdeaHandler{ideas: ideas, log: log}
}

func listQuery(c *gin.Context) (service.ListQuery, error) {
	return service.ParseListQuery(c.Query("page"), c.Query("limit"), c.Query("sort"), c.Query("date"))
}

// ListIdeas returns approved ideas, filtered, sorted and paginated
func (h *IdeaHandler) ListIdeas(c *gin.Context) {
	q, err := listQuery(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	page, err := h.ideas.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetIdea returns a single idea by ID
func (h *IdeaHandler) GetIdea(c *gin.Context) {
	idea, err := h.ideas.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, idea)
}

func (h *IdeaHandler) CreateIdea(c *gin.Context) {
	cl, ok := caller(c)
	if !ok {
		return
	}

	var req models.CreateIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	idea, err := h.ideas.Create(c.Request.Context(), cl, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, idea)
}

// UpdateIdea lets the owner change the title or description
func (h *IdeaHandler) UpdateIdea(c *gin.Context) {
	cl, ok := caller(c)
	if !ok {
		return
	}

	var req models.UpdateIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	idea, err := h.ideas.Update(c.Request.Context(), cl, c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, idea)
}

func (h *IdeaHandler) DeleteIdea(c *gin.Context) {
	cl, ok := caller(c)
	if !ok {
		return
	}

	if err := h.ideas.Delete(c.Request.Context(), cl, c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "idea deleted successfully"})
}

// VoteIdea casts, switches or retracts the caller's vote
func (h *IdeaHandler) VoteIdea(c *gin.Context) {
	cl, ok := caller(c)
	if !ok {
		return
	}

	var req models.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.ideas.Vote(c.Request.Context(), cl, c.Param("id"), req.VoteType)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
