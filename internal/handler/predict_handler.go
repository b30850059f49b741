package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/movesmart/service-route/internal/application"
	"github.com/movesmart/service-route/internal/platform/response"
)

// PredictHandler serves the public prediction endpoint. Its JSON body is
// flat, without the API envelope.
type PredictHandler struct {
	service *application.RouteService
}

// NewPredictHandler creates a new PredictHandler.
func NewPredictHandler(service *application.RouteService) *PredictHandler {
	return &PredictHandler{service: service}
}

// RegisterRoutes registers POST /predict_traffic.
func (h *PredictHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/predict_traffic", h.PredictTraffic)
}

// PredictTraffic handles POST /predict_traffic with form fields
// start_location and end_location.
func (h *PredictHandler) PredictTraffic(c *gin.Context) {
	start := strings.TrimSpace(c.PostForm("start_location"))
	end := strings.TrimSpace(c.PostForm("end_location"))
	if start == "" || end == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing start or end location"})
		return
	}

	result, err := h.service.PredictTraffic(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
