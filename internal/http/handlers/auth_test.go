package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/romanv/postboard/internal/auth"
	"github.com/romanv/postboard/internal/domain/job"
	"github.com/romanv/postboard/internal/domain/user"
	"github.com/romanv/postboard/internal/http/handlers"
	"github.com/romanv/postboard/internal/jobs"
	"github.com/romanv/postboard/internal/repo/postgres"
	"github.com/romanv/postboard/internal/security"
)

type fakeUsers struct {
	createFn  func(ctx context.Context, email, passwordHash, name, role string) (user.User, error)
	byEmailFn func(ctx context.Context, email string) (user.User, error)
}

func (f *fakeUsers) Create(ctx context.Context, email, passwordHash, name, role string) (user.User, error) {
	if f.createFn == nil {
		return user.User{}, errors.New("unexpected Create")
	}
	return f.createFn(ctx, email, passwordHash, name, role)
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.byEmailFn == nil {
		return user.User{}, postgres.ErrUserNotFound
	}
	return f.byEmailFn(ctx, email)
}

type fakeJobsQueue struct {
	createdTypes []string
	err          error
}

func (f *fakeJobsQueue) Create(ctx context.Context, req job.CreateRequest) (job.Job, error) {
	if f.err != nil {
		return job.Job{}, f.err
	}

	f.createdTypes = append(f.createdTypes, req.Type)

	return job.New(req), nil
}

func newAuthRouter(users handlers.UsersStore, tokens handlers.TokenIssuer, jobsQ handlers.JobsEnqueuer) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()

	h := handlers.NewAuthHandler(users, tokens, jobsQ, testLogger(), nil)

	r.POST("/signup", h.SignUp)
	r.POST("/login", h.Login)

	return r
}

func tokenFrom(t *testing.T, body []byte) string {
	t.Helper()

	var resp struct {
		Token string `json:"token"`
	}

	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode token response: %v", err)
	}

	if resp.Token == "" {
		t.Fatalf("empty token in %s", body)
	}

	return resp.Token
}

func TestSignUp(t *testing.T) {
	manager := auth.NewManager("test-secret", time.Hour)

	var gotRole string

	users := &fakeUsers{
		createFn: func(ctx context.Context, email, passwordHash, name, role string) (user.User, error) {
			gotRole = role

			// the handler must hand over a digest, never the plain password
			if !security.CheckPassword("hunter2hunter2", passwordHash) {
				t.Fatalf("stored hash does not verify against the password")
			}

			return user.User{ID: 7, Email: email, Name: name, Role: role}, nil
		},
	}

	queue := &fakeJobsQueue{}

	r := newAuthRouter(users, manager, queue)

	w := doJSON(t, r, http.MethodPost, "/signup", `{"email":"ada@example.test","password":"hunter2hunter2","name":"Ada"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	if gotRole != user.RoleUser {
		t.Fatalf("role = %q, want %q", gotRole, user.RoleUser)
	}

	identity, err := manager.Verify(tokenFrom(t, w.Body.Bytes()))

	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}

	if identity.UserID != 7 {
		t.Fatalf("token subject = %d, want 7", identity.UserID)
	}

	if len(queue.createdTypes) != 1 || queue.createdTypes[0] != string(jobs.JobSendWelcome) {
		t.Fatalf("welcome job not enqueued: %v", queue.createdTypes)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	users := &fakeUsers{
		createFn: func(ctx context.Context, email, passwordHash, name, role string) (user.User, error) {
			return user.User{}, postgres.ErrEmailAlreadyUsed
		},
	}

	r := newAuthRouter(users, auth.NewManager("test-secret", time.Hour), nil)

	w := doJSON(t, r, http.MethodPost, "/signup", `{"email":"ada@example.test","password":"hunter2hunter2","name":"Ada"}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}

	if code := errorCode(t, w); code != "email_taken" {
		t.Fatalf("error code = %q", code)
	}
}

func TestSignUpValidation(t *testing.T) {
	r := newAuthRouter(&fakeUsers{}, auth.NewManager("test-secret", time.Hour), nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "bad email", body: `{"email":"not-an-email","password":"hunter2hunter2","name":"Ada"}`},
		{name: "short password", body: `{"email":"a@b.test","password":"short","name":"Ada"}`},
		{name: "missing name", body: `{"email":"a@b.test","password":"hunter2hunter2"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/signup", tc.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestSignUpEnqueueFailureDoesNotFailSignup(t *testing.T) {
	users := &fakeUsers{
		createFn: func(ctx context.Context, email, passwordHash, name, role string) (user.User, error) {
			return user.User{ID: 7, Email: email, Name: name, Role: role}, nil
		},
	}

	r := newAuthRouter(users, auth.NewManager("test-secret", time.Hour), &fakeJobsQueue{err: errors.New("queue down")})

	w := doJSON(t, r, http.MethodPost, "/signup", `{"email":"ada@example.test","password":"hunter2hunter2","name":"Ada"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestLogin(t *testing.T) {
	manager := auth.NewManager("test-secret", time.Hour)

	hash, err := security.HashPassword("hunter2hunter2")

	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	users := &fakeUsers{
		byEmailFn: func(ctx context.Context, email string) (user.User, error) {
			if email != "ada@example.test" {
				return user.User{}, postgres.ErrUserNotFound
			}

			return user.User{ID: 7, Email: email, PasswordHash: hash, Role: user.RoleUser}, nil
		},
	}

	r := newAuthRouter(users, manager, nil)

	w := doJSON(t, r, http.MethodPost, "/login", `{"email":"ada@example.test","password":"hunter2hunter2"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	identity, err := manager.Verify(tokenFrom(t, w.Body.Bytes()))

	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}

	if identity.UserID != 7 {
		t.Fatalf("token subject = %d, want 7", identity.UserID)
	}
}

// unknown email and wrong password must be indistinguishable on the
// wire, so login cannot probe which emails are registered.
func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	hash, err := security.HashPassword("hunter2hunter2")

	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	users := &fakeUsers{
		byEmailFn: func(ctx context.Context, email string) (user.User, error) {
			if email != "ada@example.test" {
				return user.User{}, postgres.ErrUserNotFound
			}

			return user.User{ID: 7, Email: email, PasswordHash: hash, Role: user.RoleUser}, nil
		},
	}

	r := newAuthRouter(users, auth.NewManager("test-secret", time.Hour), nil)

	unknown := doJSON(t, r, http.MethodPost, "/login", `{"email":"ghost@example.test","password":"hunter2hunter2"}`)
	wrongPw := doJSON(t, r, http.MethodPost, "/login", `{"email":"ada@example.test","password":"wrong-password"}`)

	if unknown.Code != http.StatusUnauthorized || wrongPw.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d / %d, want 401 / 401", unknown.Code, wrongPw.Code)
	}

	if unknown.Body.String() != wrongPw.Body.String() {
		t.Fatalf("bodies differ:\n%s\n%s", unknown.Body.String(), wrongPw.Body.String())
	}
}
