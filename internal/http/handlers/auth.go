package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/romanv/postboard/internal/domain/job"
	"github.com/romanv/postboard/internal/domain/user"
	"github.com/romanv/postboard/internal/jobs"
	"github.com/romanv/postboard/internal/observability"
	"github.com/romanv/postboard/internal/repo/postgres"
	"github.com/romanv/postboard/internal/security"
)

type UsersStore interface {
	Create(ctx context.Context, email, passwordHash, name, role string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type TokenIssuer interface {
	Issue(subjectID int64) (string, error)
}

type JobsEnqueuer interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

type AuthHandler struct {
	users  UsersStore
	tokens TokenIssuer
	jobsQ  JobsEnqueuer // nil disables the welcome job
	log    *slog.Logger
	prom   *observability.Prom // nil in tests
}

func NewAuthHandler(users UsersStore, tokens TokenIssuer, jobsQ JobsEnqueuer, log *slog.Logger, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		jobsQ:  jobsQ,
		log:    log,
		prom:   prom,
	}
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		respondInternal(c)
		return
	}

	// self-service signup is always the regular role
	u, err := h.users.Create(c.Request.Context(), req.Email, hash, req.Name, user.RoleUser)
	if err != nil {
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			respondError(c, http.StatusConflict, "email_taken", "Email is already registered")
			return
		}

		h.log.Error("signup failed", "error", err)
		respondInternal(c)
		return
	}

	h.enqueueWelcome(c, u)

	token, err := h.tokens.Issue(u.ID)
	if err != nil {
		h.log.Error("token issue failed", "error", err)
		respondInternal(c)
		return
	}

	c.JSON(http.StatusCreated, tokenResponse{Token: token})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.users.GetByEmail(c.Request.Context(), req.Email)

	// unknown email and wrong password produce the same response, so
	// login can't be used to probe which emails exist
	ok := err == nil && security.CheckPassword(req.Password, u.PasswordHash)
	if !ok {
		if err != nil && !errors.Is(err, postgres.ErrUserNotFound) {
			h.log.Error("login lookup failed", "error", err)
			respondInternal(c)
			return
		}

		if h.prom != nil {
			h.prom.AuthDenialsTotal.WithLabelValues("invalid_credentials").Inc()
		}

		respondError(c, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}

	token, err := h.tokens.Issue(u.ID)
	if err != nil {
		h.log.Error("token issue failed", "error", err)
		respondInternal(c)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// enqueueWelcome is best effort: a queue hiccup must not fail the
// signup that already committed.
func (h *AuthHandler) enqueueWelcome(c *gin.Context, u user.User) {
	if h.jobsQ == nil {
		return
	}

	payload, err := jobs.EncodePayload(jobs.JobSendWelcome, jobs.SendWelcomePayload{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
	})
	if err != nil {
		h.log.Error("welcome payload encode failed", "error", err, "user_id", u.ID)
		return
	}

	key := "welcome:" + u.Email

	_, err = h.jobsQ.Create(c.Request.Context(), job.CreateRequest{
		Type:           string(jobs.JobSendWelcome),
		Payload:        payload,
		IdempotencyKey: &key,
	})
	if err != nil {
		h.log.Error("welcome enqueue failed", "error", err, "user_id", u.ID)
	}
}
