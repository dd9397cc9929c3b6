// Package policy is the stateless access-control decision table for
// posts. It holds no state and does no I/O; callers hand it a verified
// identity and an ownership snapshot and get a yes/no or a typed denial.
package policy

import (
	"github.com/romanv/postboard/internal/auth"
	"github.com/romanv/postboard/internal/domain/post"
	"github.com/romanv/postboard/internal/domain/user"
)

// Identity is the authenticated pair the routing layer resolves from a
// verified token plus a user lookup.
type Identity struct {
	ID   int64
	Role string
}

func (i Identity) IsAdmin() bool {
	return i.Role == user.RoleAdmin
}

type Field string

const (
	FieldID        Field = "id"
	FieldTitle     Field = "title"
	FieldContent   Field = "content"
	FieldAuthorID  Field = "authorId"
	FieldIsHidden  Field = "isHidden"
	FieldCreatedAt Field = "createdAt"
	FieldUpdatedAt Field = "updatedAt"
)

// VisibleFields is the listing projection rule, not a row filter.
// Only admins get authorId, so regular users cannot discover who wrote
// somebody else's post through the list view.
func VisibleFields(identity Identity) []Field {
	fields := []Field{FieldID, FieldTitle, FieldContent, FieldIsHidden, FieldCreatedAt, FieldUpdatedAt}

	if identity.IsAdmin() {
		fields = append(fields, FieldAuthorID)
	}

	return fields
}

// CanSeeField reports whether the projection for identity includes f.
func CanSeeField(identity Identity, f Field) bool {
	for _, v := range VisibleFields(identity) {
		if v == f {
			return true
		}
	}

	return false
}

// CanReadPost: hidden posts are readable by their author only. Admins
// get no bypass here; the admin override exists only in the field
// projection. Intentional, pinned by tests.
func CanReadPost(identity Identity, o post.Ownership) bool {
	return !o.IsHidden || o.AuthorID == identity.ID
}

// FilterReadable drops rows the identity may not see from a listing.
func FilterReadable(identity Identity, posts []post.Post) []post.Post {
	out := make([]post.Post, 0, len(posts))

	for _, p := range posts {
		if CanReadPost(identity, post.Ownership{AuthorID: p.AuthorID, IsHidden: p.IsHidden}) {
			out = append(out, p)
		}
	}

	return out
}

// CanCreatePost: any authenticated identity may create. The caller is
// responsible for forcing authorId to the identity's id.
func CanCreatePost(identity Identity) bool {
	return identity.ID != 0
}

// AuthorizeModify decides update/delete. A nil snapshot means the post
// does not exist, which is checked before ownership for both
// operations. Only the author may modify; admins have no override.
func AuthorizeModify(identity Identity, o *post.Ownership) error {
	if o == nil {
		return auth.ErrPostNotFound
	}

	if o.AuthorID != identity.ID {
		return auth.ErrTokenInvalid
	}

	return nil
}
