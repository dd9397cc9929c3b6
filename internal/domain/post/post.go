package post

import (
	"errors"
	"time"
)

type Post struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"authorId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	IsHidden  bool      `json:"isHidden"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Ownership is the read-only snapshot authorization decisions run on.
type Ownership struct {
	AuthorID int64
	IsHidden bool
}

var ErrNotFound = errors.New("post not found")

type CreatePostRequest struct {
	Title   string `json:"title" binding:"required,min=1,max=200"`
	Content string `json:"content" binding:"required,max=10000"`
	// accepted so clients sending it don't fail binding; the verified
	// identity always wins over this value
	AuthorID int64 `json:"authorId"`
	IsHidden bool  `json:"isHidden"`
}

// pointer fields so a PATCH can leave parts of the post untouched
type UpdatePostRequest struct {
	Title    *string `json:"title" binding:"omitempty,min=1,max=200"`
	Content  *string `json:"content" binding:"omitempty,max=10000"`
	IsHidden *bool   `json:"isHidden"`
}
