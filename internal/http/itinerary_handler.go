package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"travel-planner/internal/service"
)

// ItineraryHandler expone el proxy de chat de itinerarios.
type ItineraryHandler struct {
	logger        *zap.Logger
	itineraryServ *service.ItineraryService
}

func NewItineraryHandler(logger *zap.Logger, itineraryServ *service.ItineraryService) *ItineraryHandler {
	return &ItineraryHandler{
		logger:        logger,
		itineraryServ: itineraryServ,
	}
}

// Plan maneja POST /ai.
func (h *ItineraryHandler) Plan(c *gin.Context) {
	var req service.PlanInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid ai request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	reply, err := h.itineraryServ.Plan(c.Request.Context(), req)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing prompt"})
			return
		}
		h.logger.Error("ai request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI request failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
