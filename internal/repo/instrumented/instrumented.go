// Package instrumented decorates storage with prometheus timings and
// error classification, keeping the raw repos metric-free.
package instrumented

import (
	"context"

	"github.com/romanv/postboard/internal/domain/post"
	"github.com/romanv/postboard/internal/domain/user"
	"github.com/romanv/postboard/internal/observability"
)

type PostsStore interface {
	Create(ctx context.Context, req post.CreatePostRequest, authorID int64) (post.Post, error)
	List(ctx context.Context) ([]post.Post, error)
	GetByID(ctx context.Context, id int64) (post.Post, error)
	GetOwnership(ctx context.Context, id int64) (post.Ownership, error)
	Update(ctx context.Context, id int64, req post.UpdatePostRequest) error
	Delete(ctx context.Context, id int64) error
}

type Posts struct {
	next PostsStore
	prom *observability.Prom
}

func NewPosts(next PostsStore, prom *observability.Prom) *Posts {
	return &Posts{next: next, prom: prom}
}

func (r *Posts) Create(ctx context.Context, req post.CreatePostRequest, authorID int64) (post.Post, error) {
	var p post.Post

	err := r.prom.ObserveDB("posts.create", func() error {
		var err error
		p, err = r.next.Create(ctx, req, authorID)
		return err
	})

	return p, err
}

func (r *Posts) List(ctx context.Context) ([]post.Post, error) {
	var out []post.Post

	err := r.prom.ObserveDB("posts.list", func() error {
		var err error
		out, err = r.next.List(ctx)
		return err
	})

	return out, err
}

func (r *Posts) GetByID(ctx context.Context, id int64) (post.Post, error) {
	var p post.Post

	err := r.prom.ObserveDB("posts.get", func() error {
		var err error
		p, err = r.next.GetByID(ctx, id)
		return err
	})

	return p, err
}

func (r *Posts) GetOwnership(ctx context.Context, id int64) (post.Ownership, error) {
	var o post.Ownership

	err := r.prom.ObserveDB("posts.ownership", func() error {
		var err error
		o, err = r.next.GetOwnership(ctx, id)
		return err
	})

	return o, err
}

func (r *Posts) Update(ctx context.Context, id int64, req post.UpdatePostRequest) error {
	return r.prom.ObserveDB("posts.update", func() error {
		return r.next.Update(ctx, id, req)
	})
}

func (r *Posts) Delete(ctx context.Context, id int64) error {
	return r.prom.ObserveDB("posts.delete", func() error {
		return r.next.Delete(ctx, id)
	})
}

type UsersStore interface {
	Create(ctx context.Context, email, passwordHash, name, role string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
}

type Users struct {
	next UsersStore
	prom *observability.Prom
}

func NewUsers(next UsersStore, prom *observability.Prom) *Users {
	return &Users{next: next, prom: prom}
}

func (r *Users) Create(ctx context.Context, email, passwordHash, name, role string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.create", func() error {
		var err error
		u, err = r.next.Create(ctx, email, passwordHash, name, role)
		return err
	})

	return u, err
}

func (r *Users) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_email", func() error {
		var err error
		u, err = r.next.GetByEmail(ctx, email)
		return err
	})

	return u, err
}

func (r *Users) GetByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_id", func() error {
		var err error
		u, err = r.next.GetByID(ctx, id)
		return err
	})

	return u, err
}

func (r *Users) List(ctx context.Context) ([]user.User, error) {
	var out []user.User

	err := r.prom.ObserveDB("users.list", func() error {
		var err error
		out, err = r.next.List(ctx)
		return err
	})

	return out, err
}
