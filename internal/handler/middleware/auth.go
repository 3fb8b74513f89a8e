package middleware

import (
	"log/slog"
	"strings"

	"feasibility-backend/internal/domain/user"
	"feasibility-backend/internal/handler/httperr"
	"feasibility-backend/internal/usecase"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	tokenValidator usecase.TokenValidator
}

const ctxPrincipalKey = "principal"

func NewAuthMiddleware(tokenValidator usecase.TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		tokenValidator: tokenValidator,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimSpace(authHeader[len("Bearer "):])
		}

		if token == "" {
			httperr.Abort(c, httperr.Unauthorized("Access token required"))
			return
		}

		principal, err := m.tokenValidator.ValidateToken(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			httperr.Abort(c, httperr.Unauthorized("Invalid or expired token"))
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// RequireAnyRole must run after RequireAuth.
func (m *AuthMiddleware) RequireAnyRole(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			httperr.Abort(c, httperr.Internal())
			return
		}
		for _, r := range roles {
			if principal.HasRole(r) {
				c.Next()
				return
			}
		}
		httperr.Abort(c, httperr.Forbidden("Insufficient permissions"))
	}
}

func SetPrincipal(c *gin.Context, p *user.Principal) {
	roles := make([]string, 0, len(p.Roles()))
	for _, r := range p.Roles() {
		roles = append(roles, r.String())
	}
	c.Set(ctxPrincipalKey, p)
	c.Set("jwt_claims", map[string]any{
		"user_id": p.ID().Value(),
		"role":    strings.Join(roles, ","),
	})
}

func GetPrincipal(c *gin.Context) (*user.Principal, bool) {
	v, exists := c.Get(ctxPrincipalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*user.Principal)
	return p, ok
}
