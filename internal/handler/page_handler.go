package handler

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/movesmart/service-route/internal/application"
	"github.com/movesmart/service-route/internal/platform/auth"
	"github.com/movesmart/service-route/internal/platform/domain"
	"github.com/movesmart/service-route/internal/platform/middleware"
	"github.com/movesmart/service-route/internal/platform/response"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("pages").Funcs(template.FuncMap{
		"lower": strings.ToLower,
		"inc":   func(i int) int { return i + 1 },
		"dec":   func(i int) int { return i - 1 },
	}).ParseFS(templateFS, "templates/*.html")
}

type pageData struct {
	Title      string
	Username   string
	Error      string
	Form       application.CredentialsRequest
	Routes     []application.RouteDTO
	Page       int
	TotalPages int
}

// PageHandler serves the server-rendered browser pages. Sessions live in the
// session cookie.
type PageHandler struct {
	routes  *application.RouteService
	auth    *application.AuthService
	cookies CookieOptions
	logger  *zap.Logger
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(routes *application.RouteService, authService *application.AuthService, cookies CookieOptions, logger *zap.Logger) *PageHandler {
	return &PageHandler{routes: routes, auth: authService, cookies: cookies, logger: logger}
}

// RegisterRoutes installs the templates on the engine and registers the pages.
func (h *PageHandler) RegisterRoutes(r *gin.Engine, jwtManager *auth.JWTManager) error {
	tmpl, err := Templates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)

	pages := r.Group("/")
	pages.Use(middleware.OptionalAuthMiddleware(jwtManager))
	{
		pages.GET("/login", h.LoginPage)
		pages.POST("/login", h.Login)
		pages.GET("/register", h.RegisterPage)
		pages.POST("/register", h.Register)
		pages.POST("/logout", h.Logout)
	}

	session := r.Group("/")
	session.Use(middleware.OptionalAuthMiddleware(jwtManager), requireSession)
	{
		session.GET("/", h.Index)
		session.POST("/add_route", h.AddRoute)
		session.POST("/delete_route/:id", h.DeleteRoute)
	}
	return nil
}

// requireSession redirects anonymous visitors to the login page.
func requireSession(c *gin.Context) {
	if _, ok := middleware.GetClaims(c); !ok {
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
		return
	}
	c.Next()
}

// Index handles GET /.
func (h *PageHandler) Index(c *gin.Context) {
	h.renderIndex(c, http.StatusOK, "")
}

// AddRoute handles POST /add_route.
func (h *PageHandler) AddRoute(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	req := application.AddRouteRequest{
		StartLocation: c.PostForm("start_location"),
		EndLocation:   c.PostForm("end_location"),
	}
	if _, err := h.routes.AddRoute(c.Request.Context(), userID, req); err != nil {
		if domain.KindOf(err) == domain.KindUnauthorized {
			clearSessionCookie(c, h.cookies)
			c.Redirect(http.StatusSeeOther, "/login")
			return
		}
		h.renderIndex(c, statusOf(err), pageError(err))
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// DeleteRoute handles POST /delete_route/:id.
func (h *PageHandler) DeleteRoute(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	routeID, ok := parseID(c, "id")
	if !ok {
		h.renderIndex(c, http.StatusBadRequest, "Invalid route.")
		return
	}
	if err := h.routes.DeleteRoute(c.Request.Context(), userID, routeID); err != nil {
		h.renderIndex(c, statusOf(err), pageError(err))
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// LoginPage handles GET /login.
func (h *PageHandler) LoginPage(c *gin.Context) {
	if _, ok := middleware.GetClaims(c); ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.HTML(http.StatusOK, "login.html", pageData{Title: "Log in"})
}

// Login handles POST /login.
func (h *PageHandler) Login(c *gin.Context) {
	req := credentialsFromForm(c)
	session, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		c.HTML(statusOf(err), "login.html", pageData{Title: "Log in", Error: pageError(err), Form: redacted(req)})
		return
	}

	setSessionCookie(c, h.cookies, session.Token)
	c.Redirect(http.StatusSeeOther, "/")
}

// RegisterPage handles GET /register.
func (h *PageHandler) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", pageData{Title: "Register"})
}

// Register handles POST /register.
func (h *PageHandler) Register(c *gin.Context) {
	req := credentialsFromForm(c)
	session, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		c.HTML(statusOf(err), "register.html", pageData{Title: "Register", Error: pageError(err), Form: redacted(req)})
		return
	}

	setSessionCookie(c, h.cookies, session.Token)
	c.Redirect(http.StatusSeeOther, "/")
}

// Logout handles POST /logout.
func (h *PageHandler) Logout(c *gin.Context) {
	clearSessionCookie(c, h.cookies)
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *PageHandler) renderIndex(c *gin.Context, status int, errMsg string) {
	claims, _ := middleware.GetClaims(c)
	page, _ := parsePagination(c)

	data := pageData{Title: "Routes", Username: claims.Username, Error: errMsg, Page: page}

	result, err := h.routes.ListUserRoutes(c.Request.Context(), claims.UserID, page, defaultPageLimit)
	if err != nil {
		h.logger.Error("failed to list routes for page", zap.Uint("user_id", claims.UserID), zap.Error(err))
		if data.Error == "" {
			data.Error = "Could not load your routes."
		}
		status = http.StatusInternalServerError
	} else {
		data.Routes = result.Items
		data.TotalPages = result.TotalPages
	}

	c.HTML(status, "index.html", data)
}

func credentialsFromForm(c *gin.Context) application.CredentialsRequest {
	return application.CredentialsRequest{
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
	}
}

func redacted(req application.CredentialsRequest) application.CredentialsRequest {
	req.Password = ""
	return req
}

func statusOf(err error) int {
	if kind := domain.KindOf(err); kind != "" {
		return response.StatusFor(kind)
	}
	return http.StatusInternalServerError
}

// pageError returns a message safe to show in a page.
func pageError(err error) string {
	switch domain.KindOf(err) {
	case "":
		return "Something went wrong. Please try again."
	case domain.KindUpstream:
		return "Could not look up that route right now. Please try again."
	default:
		var de *domain.DomainError
		errors.As(err, &de)
		return de.Message
	}
}
