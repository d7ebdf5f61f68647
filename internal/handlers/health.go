package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/ideaboard/backend/internal/database"
)

type HealthHandler struct {
	db database.Service
}

func NewHealthHandler(db database.Service) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health reports the store status; 503 when it is down.
func (h *HealthHandler) Health(c *gin.Context) {
	stats := h.db.Health(c.Request.Context())
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}

func (h *HealthHandler) Welcome(c *gin.Context) {
	c.String(http.StatusOK, "Welcome to the idea board API")
}

func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route doesn't exist"})
}
