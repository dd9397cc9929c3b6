package auth

import "errors"

const (
	CodeTokenInvalid = "AUTH_TOKEN_INVALID"
	CodePostNotFound = "POST_NOT_FOUND"
)

// UnauthorizedError is the terminal denial the core hands back to the
// routing layer. Both codes travel in the same HTTP error family so a
// caller cannot tell a missing resource from a failed ownership check.
type UnauthorizedError struct {
	Code string
}

func (e *UnauthorizedError) Error() string {
	return "unauthorized: " + e.Code
}

var (
	ErrTokenInvalid = &UnauthorizedError{Code: CodeTokenInvalid}
	ErrPostNotFound = &UnauthorizedError{Code: CodePostNotFound}
)

func AsUnauthorized(err error) (*UnauthorizedError, bool) {
	var ue *UnauthorizedError

	if errors.As(err, &ue) {
		return ue, true
	}

	return nil, false
}
