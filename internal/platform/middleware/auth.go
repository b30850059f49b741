package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/movesmart/service-route/internal/platform/auth"
	"github.com/movesmart/service-route/internal/platform/response"
)

// SessionCookie is the cookie holding the browser session token.
const SessionCookie = "movesmart_session"

const claimsKey = "auth_claims"

// AuthMiddleware requires a valid token from the Authorization header or the
// session cookie and aborts with 401 otherwise.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c, jwtManager)
		if !ok {
			response.Unauthorized(c, "unauthorized")
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches claims when a valid token is present and
// never aborts.
func OptionalAuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := authenticate(c, jwtManager); ok {
			c.Set(claimsKey, claims)
		}
		c.Next()
	}
}

// RequireRole aborts with 403 unless the caller has one of the roles.
func RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			response.Unauthorized(c, "unauthorized")
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient role")
	}
}

// GetClaims returns the verified claims for the request.
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// GetUserID returns the authenticated user id.
func GetUserID(c *gin.Context) (uint, bool) {
	claims, ok := GetClaims(c)
	if !ok {
		return 0, false
	}
	return claims.UserID, true
}

// GetUserRole returns the authenticated user's role.
func GetUserRole(c *gin.Context) (auth.Role, bool) {
	claims, ok := GetClaims(c)
	if !ok {
		return "", false
	}
	return claims.Role, true
}

func authenticate(c *gin.Context, jwtManager *auth.JWTManager) (*auth.Claims, bool) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		cookie, err := c.Cookie(SessionCookie)
		if err != nil || cookie == "" {
			return nil, false
		}
		token = cookie
	}
	claims, err := jwtManager.Verify(token)
	if err != nil {
		return nil, false
	}
	return claims, true
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
