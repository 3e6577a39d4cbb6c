package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/3stan1104/GeneFlow/internal/response"
	"github.com/3stan1104/GeneFlow/internal/service"
)

const (
	// ContextKeyAuth is the Gin context key for the resolved auth context.
	ContextKeyAuth = "auth"

	// HeaderAPISecret carries the shared-secret fallback credential.
	HeaderAPISecret = "X-API-Secret"
)

// Auth kinds.
const (
	AuthKindToken  = "token"
	AuthKindSecret = "secret"
)

// AuthContext records which of the two admin credentials authenticated
// the request. Claims is nil on the shared-secret path.
type AuthContext struct {
	Kind   string
	Claims *service.Claims
}

// RequireTokenOrSecret authenticates a request with either a Bearer
// token or the X-API-Secret header. Both are checked; the token wins
// when both are present and valid.
func RequireTokenOrSecret(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr := extractBearerToken(c); tokenStr != "" {
			claims, err := authService.ValidateToken(tokenStr)
			if err == nil {
				c.Set(ContextKeyAuth, &AuthContext{Kind: AuthKindToken, Claims: claims})
				c.Next()
				return
			}
		}

		if authService.CheckAPISecret(c.GetHeader(HeaderAPISecret)) {
			c.Set(ContextKeyAuth, &AuthContext{Kind: AuthKindSecret})
			c.Next()
			return
		}

		response.AbortFail(c, http.StatusUnauthorized, response.ErrUnauthorized)
	}
}

// GetAuthContext retrieves the auth context from the Gin context.
func GetAuthContext(c *gin.Context) *AuthContext {
	val, exists := c.Get(ContextKeyAuth)
	if !exists {
		return nil
	}
	auth, ok := val.(*AuthContext)
	if !ok {
		return nil
	}
	return auth
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}
