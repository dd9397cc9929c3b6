package middlewares_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/romanv/postboard/internal/auth"
	"github.com/romanv/postboard/internal/domain/user"
	"github.com/romanv/postboard/internal/http/middlewares"
	"github.com/romanv/postboard/internal/policy"
	"github.com/romanv/postboard/internal/repo/postgres"
)

type fakeVerifier struct {
	verifyFn func(token string) (auth.Identity, error)
}

func (f *fakeVerifier) Verify(token string) (auth.Identity, error) {
	return f.verifyFn(token)
}

type fakeResolver struct {
	byIDFn func(ctx context.Context, id int64) (user.User, error)
}

func (f *fakeResolver) GetByID(ctx context.Context, id int64) (user.User, error) {
	return f.byIDFn(ctx, id)
}

func okVerifier(subject int64) *fakeVerifier {
	return &fakeVerifier{
		verifyFn: func(token string) (auth.Identity, error) {
			if token != "good-token" {
				return auth.Identity{}, auth.ErrTokenInvalid
			}
			return auth.Identity{UserID: subject}, nil
		},
	}
}

func okResolver(u user.User) *fakeResolver {
	return &fakeResolver{
		byIDFn: func(ctx context.Context, id int64) (user.User, error) {
			if id != u.ID {
				return user.User{}, postgres.ErrUserNotFound
			}
			return u, nil
		},
	}
}

func newAuthedRouter(mw *middlewares.AuthMiddleware, captured *policy.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()

	r.GET("/protected", mw.RequireAuth(), func(c *gin.Context) {
		identity, ok := middlewares.IdentityFromContext(c)

		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no identity"})
			return
		}

		*captured = identity

		c.Status(http.StatusOK)
	})

	return r
}

func get(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)

	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestRequireAuthResolvesIdentity(t *testing.T) {
	var captured policy.Identity

	mw := middlewares.NewAuthMiddleware(
		okVerifier(7),
		okResolver(user.User{ID: 7, Role: user.RoleAdmin}),
	)

	w := get(newAuthedRouter(mw, &captured), "Bearer good-token")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	if captured.ID != 7 || captured.Role != user.RoleAdmin {
		t.Fatalf("identity = %+v", captured)
	}
}

func TestRequireAuthRejections(t *testing.T) {
	tests := []struct {
		name     string
		verifier middlewares.TokenVerifier
		resolver middlewares.RoleResolver
		header   string
	}{
		{
			name:     "no header",
			verifier: okVerifier(7),
			resolver: okResolver(user.User{ID: 7, Role: user.RoleUser}),
			header:   "",
		},
		{
			name:     "not a bearer scheme",
			verifier: okVerifier(7),
			resolver: okResolver(user.User{ID: 7, Role: user.RoleUser}),
			header:   "Basic Zm9vOmJhcg==",
		},
		{
			name:     "empty bearer",
			verifier: okVerifier(7),
			resolver: okResolver(user.User{ID: 7, Role: user.RoleUser}),
			header:   "Bearer ",
		},
		{
			name:     "verifier rejects",
			verifier: okVerifier(7),
			resolver: okResolver(user.User{ID: 7, Role: user.RoleUser}),
			header:   "Bearer bad-token",
		},
		{
			name:     "subject deleted since issuance",
			verifier: okVerifier(7),
			resolver: &fakeResolver{byIDFn: func(ctx context.Context, id int64) (user.User, error) {
				return user.User{}, postgres.ErrUserNotFound
			}},
			header: "Bearer good-token",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured policy.Identity

			mw := middlewares.NewAuthMiddleware(tc.verifier, tc.resolver)

			w := get(newAuthedRouter(mw, &captured), tc.header)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401 (body %s)", w.Code, w.Body.String())
			}

			var resp struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}

			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}

			if resp.Error.Code != auth.CodeTokenInvalid {
				t.Fatalf("code = %q, want %q", resp.Error.Code, auth.CodeTokenInvalid)
			}

			if captured.ID != 0 {
				t.Fatalf("handler ran despite rejection: %+v", captured)
			}
		})
	}
}

func TestRequireAuthStorageOutageIs500(t *testing.T) {
	var captured policy.Identity

	mw := middlewares.NewAuthMiddleware(
		okVerifier(7),
		&fakeResolver{byIDFn: func(ctx context.Context, id int64) (user.User, error) {
			return user.User{}, errors.New("connection refused")
		}},
	)

	w := get(newAuthedRouter(mw, &captured), "Bearer good-token")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		wantCode int
	}{
		{name: "admin passes", role: user.RoleAdmin, wantCode: http.StatusOK},
		{name: "regular user forbidden", role: user.RoleUser, wantCode: http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mw := middlewares.NewAuthMiddleware(
				okVerifier(7),
				okResolver(user.User{ID: 7, Role: tc.role}),
			)

			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.GET("/admin", mw.RequireAuth(), mw.RequireRole(user.RoleAdmin), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer good-token")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantCode)
			}
		})
	}
}
