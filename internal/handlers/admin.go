package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/ideaboard/backend/internal/models"
	"github.com/emilythestrangee/ideaboard/backend/internal/service"
)

// AdminHandler serves the moderation endpoints. Routes are expected to sit
// behind middleware.RequireAdmin.
type AdminHandler struct {
	moderation service.ModerationService
	log        *zap.Logger
}

func NewAdminHandler(moderation service.ModerationService, log *zap.Logger) *AdminHandler {
	registerValidators()
	return &AdminHandler{moderation: moderation, log: log}
}

// ListIdeas returns ideas of every status
func (h *AdminHandler) ListIdeas(c *gin.Context) {
	q, err := listQuery(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	page, err := h.moderation.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	cl, ok := caller(c)
	if !ok {
		return
	}

	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	idea, err := h.moderation.SetStatus(c.Request.Context(), cl, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, idea)
}

func (h *AdminHandler) DeleteIdea(c *gin.Context) {
	cl, ok := caller(c)
	if !ok {
		return
	}

	if err := h.moderation.Delete(c.Request.Context(), cl, c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "idea deleted successfully"})
}

// AuditTrail lists the recorded moderation events for an idea, newest first
func (h *AdminHandler) AuditTrail(c *gin.Context) {
	events, err := h.moderation.AuditTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
