package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/movesmart/service-route/internal/application"
	"github.com/movesmart/service-route/internal/platform/auth"
	"github.com/movesmart/service-route/internal/platform/middleware"
	"github.com/movesmart/service-route/internal/platform/response"
)

// AdminRouteHandler handles admin HTTP requests across all users' routes.
type AdminRouteHandler struct {
	service *application.RouteService
}

// NewAdminRouteHandler creates a new AdminRouteHandler.
func NewAdminRouteHandler(service *application.RouteService) *AdminRouteHandler {
	return &AdminRouteHandler{service: service}
}

// RegisterRoutes registers admin route endpoints.
func (h *AdminRouteHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/routes", h.ListRoutes)
		admin.GET("/stats/routes", h.RouteStats)
	}
}

// ListRoutes handles GET /api/v1/admin/routes.
func (h *AdminRouteHandler) ListRoutes(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListAllRoutes(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// RouteStats handles GET /api/v1/admin/stats/routes.
func (h *AdminRouteHandler) RouteStats(c *gin.Context) {
	stats, err := h.service.GetCongestionStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
