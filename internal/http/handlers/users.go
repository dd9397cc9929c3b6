package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/romanv/postboard/internal/domain/user"
)

type UsersLister interface {
	List(ctx context.Context) ([]user.User, error)
}

type UsersHandler struct {
	users UsersLister
	log   *slog.Logger
}

func NewUsersHandler(users UsersLister, log *slog.Logger) *UsersHandler {
	return &UsersHandler{users: users, log: log}
}

// List is admin-only (enforced by the RBAC middleware on the route).
// PasswordHash is json:"-" so digests never serialize.
func (h *UsersHandler) List(c *gin.Context) {
	out, err := h.users.List(c.Request.Context())
	if err != nil {
		h.log.Error("users list failed", "error", err)
		respondInternal(c)
		return
	}

	if out == nil {
		out = []user.User{}
	}

	c.JSON(http.StatusOK, gin.H{
		"items": out,
		"count": len(out),
	})
}
