package http

import (
	"log/slog"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/romanv/postboard/internal/http/handlers"
	"github.com/romanv/postboard/internal/http/middlewares"
	"github.com/romanv/postboard/internal/observability"
)

const maxBodyBytes = 1 << 20 // 1 MiB

type RouterDeps struct {
	Env string
	Log *slog.Logger

	Auth   *handlers.AuthHandler
	Posts  *handlers.PostsHandler
	Users  *handlers.UsersHandler
	Health *handlers.HealthHandler

	AuthMW *middlewares.AuthMiddleware

	// shared fixed-window limiter for /signup and /login; nil skips it
	AuthLimiter *middlewares.RedisRateLimiter

	// per-identity limiter for the authenticated API; nil skips it
	APILimiter *middlewares.RateLimiter

	Prom        *observability.Prom
	PromHandler stdhttp.Handler

	AllowedOrigins []string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(deps.Log))
	r.Use(otelgin.Middleware("postboard"))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	r.GET("/healthz", deps.Health.Healthz)
	r.GET("/readyz", deps.Health.Readyz)

	if deps.PromHandler != nil {
		r.GET("/metrics", gin.WrapH(deps.PromHandler))
	}

	signup := []gin.HandlerFunc{deps.Auth.SignUp}
	login := []gin.HandlerFunc{deps.Auth.Login}

	if deps.AuthLimiter != nil {
		signup = append([]gin.HandlerFunc{deps.AuthLimiter.Middleware("signup")}, signup...)
		login = append([]gin.HandlerFunc{deps.AuthLimiter.Middleware("login")}, login...)
	}

	r.POST("/signup", signup...)
	r.POST("/login", login...)

	api := r.Group("/api/v1")
	api.Use(deps.AuthMW.RequireAuth())

	if deps.APILimiter != nil {
		api.Use(deps.APILimiter.Middleware())
	}

	api.GET("/posts", deps.Posts.List)
	api.POST("/posts", deps.Posts.Create)
	api.GET("/posts/:id", deps.Posts.GetByID)
	api.PATCH("/posts/:id", deps.Posts.Update)
	api.DELETE("/posts/:id", deps.Posts.Delete)

	api.GET("/users", deps.AuthMW.RequireRole("admin"), deps.Users.List)

	return r
}
