package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/romanv/postboard/internal/auth"
	"github.com/romanv/postboard/internal/cache"
	"github.com/romanv/postboard/internal/domain/post"
	"github.com/romanv/postboard/internal/http/middlewares"
	"github.com/romanv/postboard/internal/observability"
	"github.com/romanv/postboard/internal/policy"
)

type PostsStore interface {
	Create(ctx context.Context, req post.CreatePostRequest, authorID int64) (post.Post, error)
	List(ctx context.Context) ([]post.Post, error)
	GetByID(ctx context.Context, id int64) (post.Post, error)
	GetOwnership(ctx context.Context, id int64) (post.Ownership, error)
	Update(ctx context.Context, id int64, req post.UpdatePostRequest) error
	Delete(ctx context.Context, id int64) error
}

type PostsHandler struct {
	store PostsStore
	cache *cache.Cache
	log   *slog.Logger
	prom  *observability.Prom // nil in tests
}

func NewPostsHandler(store PostsStore, listCache *cache.Cache, log *slog.Logger, prom *observability.Prom) *PostsHandler {
	return &PostsHandler{
		store: store,
		cache: listCache,
		log:   log,
		prom:  prom,
	}
}

type listResponse struct {
	Items []gin.H `json:"items"`
	Count int     `json:"count"`
}

// List applies row visibility and the field projection for the caller's
// role. The repo hands back everything; nothing is filtered in SQL.
func (h *PostsHandler) List(c *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(c)
	if !ok {
		h.denied(c, auth.ErrTokenInvalid)
		return
	}

	cacheKey := "posts:" + identity.Role + ":" + strconv.FormatInt(identity.ID, 10)

	if h.cache != nil {
		if cached, hit := h.cache.Get(cacheKey); hit {
			if resp, ok2 := cached.(listResponse); ok2 {
				respondJSONWithETag(c, http.StatusOK, resp)
				return
			}
		}
	}

	all, err := h.store.List(c.Request.Context())
	if err != nil {
		h.log.Error("posts list failed", "error", err)
		respondInternal(c)
		return
	}

	readable := policy.FilterReadable(identity, all)

	items := make([]gin.H, 0, len(readable))
	for _, p := range readable {
		items = append(items, projectPost(identity, p))
	}

	resp := listResponse{Items: items, Count: len(items)}

	if h.cache != nil {
		h.cache.Set(cacheKey, resp)
	}

	respondJSONWithETag(c, http.StatusOK, resp)
}

func (h *PostsHandler) GetByID(c *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(c)
	if !ok {
		h.denied(c, auth.ErrTokenInvalid)
		return
	}

	id, ok := postID(c)
	if !ok {
		return
	}

	p, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Post not found")
			return
		}

		h.log.Error("post get failed", "error", err, "post_id", id)
		respondInternal(c)
		return
	}

	if !policy.CanReadPost(identity, post.Ownership{AuthorID: p.AuthorID, IsHidden: p.IsHidden}) {
		h.denied(c, auth.ErrTokenInvalid)
		return
	}

	c.JSON(http.StatusOK, projectPost(identity, p))
}

func (h *PostsHandler) Create(c *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(c)
	if !ok || !policy.CanCreatePost(identity) {
		h.denied(c, auth.ErrTokenInvalid)
		return
	}

	var req post.CreatePostRequest
	if !bindJSON(c, &req) {
		return
	}

	// any authorId in the body is discarded; the verified identity wins
	p, err := h.store.Create(c.Request.Context(), req, identity.ID)
	if err != nil {
		h.log.Error("post create failed", "error", err)
		respondInternal(c)
		return
	}

	if h.cache != nil {
		h.cache.Flush()
	}

	c.JSON(http.StatusCreated, gin.H{"id": p.ID})
}

func (h *PostsHandler) Update(c *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(c)
	if !ok {
		h.denied(c, auth.ErrTokenInvalid)
		return
	}

	id, ok := postID(c)
	if !ok {
		return
	}

	if !h.authorizeModify(c, identity, id) {
		return
	}

	var req post.UpdatePostRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.store.Update(c.Request.Context(), id, req); err != nil {
		if errors.Is(err, post.ErrNotFound) {
			// deleted between the ownership check and the write
			h.denied(c, auth.ErrPostNotFound)
			return
		}

		h.log.Error("post update failed", "error", err, "post_id", id)
		respondInternal(c)
		return
	}

	if h.cache != nil {
		h.cache.Flush()
	}

	c.Status(http.StatusNoContent)
}

func (h *PostsHandler) Delete(c *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(c)
	if !ok {
		h.denied(c, auth.ErrTokenInvalid)
		return
	}

	id, ok := postID(c)
	if !ok {
		return
	}

	if !h.authorizeModify(c, identity, id) {
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, post.ErrNotFound) {
			h.denied(c, auth.ErrPostNotFound)
			return
		}

		h.log.Error("post delete failed", "error", err, "post_id", id)
		respondInternal(c)
		return
	}

	if h.cache != nil {
		h.cache.Flush()
	}

	c.Status(http.StatusNoContent)
}

// authorizeModify runs the existence-then-ownership check shared by
// update and delete. Existence is decided first, so a request against a
// missing post never reveals whether ownership would have passed.
func (h *PostsHandler) authorizeModify(c *gin.Context, identity policy.Identity, id int64) bool {
	var snapshot *post.Ownership

	o, err := h.store.GetOwnership(c.Request.Context(), id)
	switch {
	case err == nil:
		snapshot = &o
	case errors.Is(err, post.ErrNotFound):
		// snapshot stays nil; the policy turns that into POST_NOT_FOUND
	default:
		h.log.Error("ownership load failed", "error", err, "post_id", id)
		respondInternal(c)
		return false
	}

	if err := policy.AuthorizeModify(identity, snapshot); err != nil {
		h.denied(c, err)
		return false
	}

	return true
}

func (h *PostsHandler) denied(c *gin.Context, err error) {
	if h.prom != nil {
		if uerr, ok := auth.AsUnauthorized(err); ok {
			h.prom.AuthDenialsTotal.WithLabelValues(uerr.Code).Inc()
		}
	}

	if !respondUnauthorized(c, err) {
		respondInternal(c)
	}
}

func postID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "invalid_id", "Post id must be a positive integer")
		return 0, false
	}

	return id, true
}

// projectPost applies the per-role field projection. Regular users
// never see authorId; admins do. This is the only admin privilege.
func projectPost(identity policy.Identity, p post.Post) gin.H {
	out := gin.H{
		"id":        p.ID,
		"title":     p.Title,
		"content":   p.Content,
		"isHidden":  p.IsHidden,
		"createdAt": p.CreatedAt,
		"updatedAt": p.UpdatedAt,
	}

	if policy.CanSeeField(identity, policy.FieldAuthorID) {
		out["authorId"] = p.AuthorID
	}

	return out
}
