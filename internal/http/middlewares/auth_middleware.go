package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/romanv/postboard/internal/auth"
	"github.com/romanv/postboard/internal/domain/user"
	"github.com/romanv/postboard/internal/policy"
	"github.com/romanv/postboard/internal/repo/postgres"
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

type RoleResolver interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type AuthMiddleware struct {
	jwt   TokenVerifier
	users RoleResolver
}

func NewAuthMiddleware(jwt TokenVerifier, users RoleResolver) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users}
}

// RequireAuth verifies the bearer token and resolves the subject's role
// from storage. Every token failure collapses into AUTH_TOKEN_INVALID.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c)
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortUnauthorized(c)
			return
		}

		verified, err := m.jwt.Verify(raw)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		// role resolution; the token only asserts the subject id
		cctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		u, err := m.users.GetByID(cctx, verified.UserID)
		if err != nil {
			if errors.Is(err, postgres.ErrUserNotFound) {
				// subject no longer exists; same outcome as a bad token
				abortUnauthorized(c)
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "internal_error",
					"message": "Could not resolve identity",
				},
			})
			return
		}

		SetIdentity(c, policy.Identity{ID: u.ID, Role: u.Role})

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    auth.CodeTokenInvalid,
			"message": "Invalid or expired session token",
		},
	})
}

// SetIdentity stashes the authenticated identity on the gin context.
func SetIdentity(c *gin.Context, identity policy.Identity) {
	c.Set(ctxUserIDKey, identity.ID)
	c.Set(ctxRoleKey, identity.Role)
}

// IdentityFromContext reads back what RequireAuth stored, so handlers
// don't need to know the magic keys.
func IdentityFromContext(c *gin.Context) (policy.Identity, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return policy.Identity{}, false
	}

	id, ok := v.(int64)
	if !ok {
		return policy.Identity{}, false
	}

	role, _ := RoleFromContext(c)

	return policy.Identity{ID: id, Role: role}, true
}

func RoleFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxRoleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}
