package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/movesmart/service-route/internal/application"
	"github.com/movesmart/service-route/internal/platform/auth"
	"github.com/movesmart/service-route/internal/platform/middleware"
	"github.com/movesmart/service-route/internal/platform/response"
)

// AuthHandler handles account registration, login and deletion over JSON.
type AuthHandler struct {
	service *application.AuthService
	cookies CookieOptions
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *application.AuthService, cookies CookieOptions) *AuthHandler {
	return &AuthHandler{service: service, cookies: cookies}
}

// RegisterRoutes registers the auth and account endpoints.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authGroup := r.Group("/api/v1/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	account := r.Group("/api/v1/account")
	account.Use(middleware.AuthMiddleware(jwtManager))
	{
		account.GET("", h.GetAccount)
		account.DELETE("", h.DeleteAccount)
	}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req application.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req application.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetAccount handles GET /api/v1/account.
func (h *AuthHandler) GetAccount(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteAccount handles DELETE /api/v1/account. The session cookie is cleared.
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	if err := h.service.DeleteAccount(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}

	clearSessionCookie(c, h.cookies)
	response.NoContent(c)
}
