package http

import (
	"log/slog"
	"time"

	"userhub/internal/cache"
	"userhub/internal/config"
	"userhub/internal/http/handlers"
	"userhub/internal/http/middlewares"
	"userhub/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps carries the collaborators the router wires into handlers. Everything
// is passed in explicitly so tests can swap the store or drop the cache.
type Deps struct {
	Store  handlers.UserStore
	Tokens handlers.TokenIssuer
	Queue  handlers.JobEnqueuer // optional
	Cache  cache.Store          // optional
	Prom   *observability.Prom  // optional
	Ping   func() error         // readiness probe, optional
}

func NewRouter(log *slog.Logger, deps Deps, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(otelgin.Middleware("userhub"))
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.RequireJSON())

	if cfg.MaxBodyBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	}

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// health
	h := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	usersHandler := handlers.NewUsersHandler(deps.Store, deps.Tokens, deps.Queue, deps.Cache, log, cfg)

	// credential endpoints get a fixed-window limiter keyed by client IP
	limit := cfg.RateLimitPerMin

	if limit <= 0 {
		limit = 30
	}

	authLimiter := middlewares.NewRateLimiter(limit, time.Minute)
	limited := authLimiter.RateLimiterMiddleware(middlewares.KeyByIP)

	api := r.Group("/api/users")

	api.POST("/register", limited, usersHandler.Register)
	api.POST("/login", limited, usersHandler.Login)
	api.POST("/logout", usersHandler.Logout)
	api.GET("/page", usersHandler.GetUserPage)
	api.GET("/:id", usersHandler.GetUserByID)
	api.DELETE("/del/:id", usersHandler.DeleteUser)
	api.PUT("/update", usersHandler.UpdateUser)

	return r
}
