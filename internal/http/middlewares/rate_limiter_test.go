package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/romanv/postboard/internal/domain/user"
	"github.com/romanv/postboard/internal/http/middlewares"
	"github.com/romanv/postboard/internal/policy"
)

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := middlewares.NewRateLimiter(2, time.Minute)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		middlewares.SetIdentity(c, policy.Identity{ID: 7, Role: user.RoleUser})
		c.Next()
	})
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("first two requests should pass, got %v", codes)
	}

	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", codes[2])
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := middlewares.NewRateLimiter(1, 15*time.Millisecond)

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))

	blocked := httptest.NewRecorder()
	r.ServeHTTP(blocked, httptest.NewRequest(http.MethodGet, "/", nil))

	time.Sleep(30 * time.Millisecond)

	after := httptest.NewRecorder()
	r.ServeHTTP(after, httptest.NewRequest(http.MethodGet, "/", nil))

	if first.Code != http.StatusOK || blocked.Code != http.StatusTooManyRequests || after.Code != http.StatusOK {
		t.Fatalf("codes = %d/%d/%d, want 200/429/200", first.Code, blocked.Code, after.Code)
	}
}

func TestRateLimiterKeysSeparateIdentities(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := middlewares.NewRateLimiter(1, time.Minute)

	router := func(id int64) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			middlewares.SetIdentity(c, policy.Identity{ID: id, Role: user.RoleUser})
			c.Next()
		})
		r.Use(rl.Middleware())
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	a := router(1)
	b := router(2)

	wa := httptest.NewRecorder()
	a.ServeHTTP(wa, httptest.NewRequest(http.MethodGet, "/", nil))

	wb := httptest.NewRecorder()
	b.ServeHTTP(wb, httptest.NewRequest(http.MethodGet, "/", nil))

	if wa.Code != http.StatusOK || wb.Code != http.StatusOK {
		t.Fatalf("independent identities should not share a bucket: %d/%d", wa.Code, wb.Code)
	}
}
