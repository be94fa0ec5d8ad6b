package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devconnect/devconnect/internal/auth"
	"github.com/devconnect/devconnect/internal/cache"
	"github.com/devconnect/devconnect/internal/config"
	"github.com/devconnect/devconnect/internal/github"
	httpx "github.com/devconnect/devconnect/internal/http"
	"github.com/devconnect/devconnect/internal/observability"
	"github.com/devconnect/devconnect/internal/repo/mongodb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	// tracing (optional; no-op when the collector endpoint is unset)
	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(context.Background(), "devconnect-api", cfg.OTLPEndpoint)
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	// connect to the document store; a dead store at boot is fatal
	connectCtx, connectCancel := config.WithTimeout(15 * time.Second)
	db, disconnect, err := mongodb.Connect(connectCtx, cfg.MongoURI, cfg.MongoDB)
	connectCancel()
	if err != nil {
		log.Error("mongodb connect failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()
		_ = disconnect(ctx)
	}()

	indexCtx, indexCancel := config.WithTimeout(15 * time.Second)
	err = mongodb.EnsureIndexes(indexCtx, db)
	indexCancel()
	if err != nil {
		log.Error("index creation failed", "err", err)
		os.Exit(1)
	}

	// metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(registry)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	// github proxy, with redis-backed caching when configured
	ghOpts := []github.Option{github.WithMetrics(prom)}
	if cfg.RedisAddr != "" {
		redisCache := cache.New(cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, pingCancel := config.WithTimeout(2 * time.Second)
		err := redisCache.Ping(pingCtx)
		pingCancel()
		if err != nil {
			log.Warn("redis unreachable, github caching disabled", "err", err)
		} else {
			ghOpts = append(ghOpts, github.WithCache(redisCache))
			defer redisCache.Close()
		}
	}
	ghClient := github.NewClient(cfg.GithubClientID, cfg.GithubClientSecret, ghOpts...)

	router := httpx.NewRouter(httpx.RouterDeps{
		Log:      log,
		Cfg:      cfg,
		DB:       db,
		Prom:     prom,
		Registry: registry,
		JWT:      jwtManager,
		Github:   ghClient,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCtx, shutdownCancel := config.WithTimeout(10 * time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}

	log.Info("shutdown complete")
}
