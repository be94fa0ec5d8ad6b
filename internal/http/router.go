package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/devconnect/devconnect/internal/auth"
	"github.com/devconnect/devconnect/internal/config"
	"github.com/devconnect/devconnect/internal/http/handlers"
	"github.com/devconnect/devconnect/internal/http/middlewares"
	"github.com/devconnect/devconnect/internal/observability"
	"github.com/devconnect/devconnect/internal/repo/mongodb"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB

type RouterDeps struct {
	Log      *slog.Logger
	Cfg      config.Config
	DB       *mongo.Database
	Prom     *observability.Prom
	Registry *prometheus.Registry
	JWT      *auth.Manager
	Github   handlers.RepoLister
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(deps.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.Cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware("devconnect"))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	// health
	ping := func() error {
		if deps.DB == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return deps.DB.Client().Ping(ctx, nil)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	// wire up repositories
	usersRepo := mongodb.NewUsersRepo(deps.DB, deps.Prom)
	profilesRepo := mongodb.NewProfilesRepo(deps.DB, deps.Prom)
	postsRepo := mongodb.NewPostsRepo(deps.DB, deps.Prom)

	// wire up handlers
	usersHandler := handlers.NewUsersHandler(usersRepo, deps.JWT)
	authHandler := handlers.NewAuthHandler(usersRepo, deps.JWT)
	profilesHandler := handlers.NewProfilesHandler(profilesRepo, usersRepo, postsRepo, deps.Github)
	postsHandler := handlers.NewPostsHandler(postsRepo, usersRepo)

	authGate := middlewares.NewAuthMiddleware(deps.JWT).RequireAuth()

	// credential endpoints sit behind a per-IP limiter
	limiter := middlewares.NewRateLimiter(20, time.Minute)
	limited := limiter.Middleware(middlewares.IPKey)

	api := r.Group("/api")

	api.POST("/users", limited, usersHandler.Register)
	api.POST("/auth", limited, authHandler.Login)
	api.GET("/auth", authGate, authHandler.Me)

	api.GET("/profile/me", authGate, profilesHandler.Me)
	api.POST("/profile", authGate, profilesHandler.Upsert)
	api.GET("/profile", profilesHandler.List)
	api.GET("/profile/user/:user_id", profilesHandler.GetByUserID)
	api.DELETE("/profile", authGate, profilesHandler.DeleteAccount)
	api.PUT("/profile/experience", authGate, profilesHandler.AddExperience)
	api.DELETE("/profile/experience/:exp_id", authGate, profilesHandler.RemoveExperience)
	api.PUT("/profile/education", authGate, profilesHandler.AddEducation)
	api.DELETE("/profile/education/:edu_id", authGate, profilesHandler.RemoveEducation)
	api.GET("/profile/github/:username", profilesHandler.GithubRepos)

	api.POST("/posts", authGate, postsHandler.Create)
	api.GET("/posts", authGate, postsHandler.List)
	api.GET("/posts/:id", authGate, postsHandler.GetByID)
	api.DELETE("/posts/:id", authGate, postsHandler.Delete)
	api.PUT("/posts/like/:id", authGate, postsHandler.Like)
	api.PUT("/posts/unlike/:id", authGate, postsHandler.Unlike)
	api.POST("/posts/comment/:id", authGate, postsHandler.AddComment)
	api.DELETE("/posts/comment/:id/:comment_id", authGate, postsHandler.RemoveComment)

	return r
}
