package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/romanv/postboard/internal/domain/post"
)

// PostsRepo is an in-memory stand-in for the postgres repo. Handler
// tests run against it instead of a database.
type PostsRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]post.Post
}

func NewPostsRepo() *PostsRepo {
	return &PostsRepo{
		nextID: 1,
		items:  make(map[int64]post.Post),
	}
}

func (r *PostsRepo) Create(ctx context.Context, req post.CreatePostRequest, authorID int64) (post.Post, error) {
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	p := post.Post{
		ID:        r.nextID,
		AuthorID:  authorID,
		Title:     req.Title,
		Content:   req.Content,
		IsHidden:  req.IsHidden,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.nextID++
	r.items[p.ID] = p

	return p, nil
}

func (r *PostsRepo) List(ctx context.Context) ([]post.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]post.Post, 0, len(r.items))

	for _, p := range r.items {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *PostsRepo) GetByID(ctx context.Context, id int64) (post.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]

	if !ok {
		return post.Post{}, post.ErrNotFound
	}

	return p, nil
}

func (r *PostsRepo) GetOwnership(ctx context.Context, id int64) (post.Ownership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]

	if !ok {
		return post.Ownership{}, post.ErrNotFound
	}

	return post.Ownership{AuthorID: p.AuthorID, IsHidden: p.IsHidden}, nil
}

func (r *PostsRepo) Update(ctx context.Context, id int64, req post.UpdatePostRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]

	if !ok {
		return post.ErrNotFound
	}

	if req.Title != nil {
		p.Title = *req.Title
	}

	if req.Content != nil {
		p.Content = *req.Content
	}

	if req.IsHidden != nil {
		p.IsHidden = *req.IsHidden
	}

	p.UpdatedAt = time.Now().UTC()
	r.items[id] = p

	return nil
}

func (r *PostsRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.items[id]

	if !ok {
		return post.ErrNotFound
	}

	delete(r.items, id)

	return nil
}
