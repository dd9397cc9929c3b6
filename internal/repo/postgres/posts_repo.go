package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/romanv/postboard/internal/domain/post"
)

type PostsRepo struct {
	pool *pgxpool.Pool
}

func NewPostsRepo(pool *pgxpool.Pool) *PostsRepo {
	return &PostsRepo{
		pool: pool,
	}
}

func (r *PostsRepo) Create(ctx context.Context, req post.CreatePostRequest, authorID int64) (post.Post, error) {
	var p post.Post

	// authorID comes from the verified identity, never from the request
	err := r.pool.QueryRow(
		ctx,
		`INSERT INTO posts (author_id, title, content, is_hidden, created_at, updated_at)
         VALUES ($1, $2, $3, $4, NOW(), NOW())
         RETURNING id, author_id, title, content, is_hidden, created_at, updated_at`,
		authorID, req.Title, req.Content, req.IsHidden,
	).Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.IsHidden, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return post.Post{}, err
	}

	return p, nil
}

// List returns every post; row visibility is the policy's job, not SQL's.
func (r *PostsRepo) List(ctx context.Context) ([]post.Post, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, author_id, title, content, is_hidden, created_at, updated_at
         FROM posts
         ORDER BY created_at DESC, id DESC`,
	)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var out []post.Post

	for rows.Next() {
		var p post.Post

		err = rows.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.IsHidden, &p.CreatedAt, &p.UpdatedAt)

		if err != nil {
			return nil, err
		}

		out = append(out, p)
	}

	return out, rows.Err()
}

func (r *PostsRepo) GetByID(ctx context.Context, id int64) (post.Post, error) {
	var p post.Post

	err := r.pool.QueryRow(
		ctx,
		`SELECT id, author_id, title, content, is_hidden, created_at, updated_at
         FROM posts
         WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.IsHidden, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}

		return post.Post{}, err
	}

	return p, nil
}

// GetOwnership loads just the attributes the access policy reads.
func (r *PostsRepo) GetOwnership(ctx context.Context, id int64) (post.Ownership, error) {
	var o post.Ownership

	err := r.pool.QueryRow(
		ctx,
		`SELECT author_id, is_hidden FROM posts WHERE id = $1`,
		id,
	).Scan(&o.AuthorID, &o.IsHidden)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Ownership{}, post.ErrNotFound
		}

		return post.Ownership{}, err
	}

	return o, nil
}

func (r *PostsRepo) Update(ctx context.Context, id int64, req post.UpdatePostRequest) error {
	sets := []string{"updated_at = NOW()"}
	var args []interface{}

	argsPosition := 1

	if req.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", argsPosition))
		args = append(args, *req.Title)
		argsPosition++
	}

	if req.Content != nil {
		sets = append(sets, fmt.Sprintf("content = $%d", argsPosition))
		args = append(args, *req.Content)
		argsPosition++
	}

	if req.IsHidden != nil {
		sets = append(sets, fmt.Sprintf("is_hidden = $%d", argsPosition))
		args = append(args, *req.IsHidden)
		argsPosition++
	}

	query := fmt.Sprintf(
		"UPDATE posts SET %s WHERE id = $%d",
		strings.Join(sets, ", "),
		argsPosition,
	)

	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return post.ErrNotFound
	}

	return nil
}

func (r *PostsRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return post.ErrNotFound
	}

	return nil
}
