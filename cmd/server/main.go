package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edforge/edforge/internal/agents"
	"github.com/edforge/edforge/internal/ai"
	"github.com/edforge/edforge/internal/blueprint"
	"github.com/edforge/edforge/internal/course"
	"github.com/edforge/edforge/internal/orchestrator"
	"github.com/edforge/edforge/internal/platform/cache"
	"github.com/edforge/edforge/internal/platform/config"
	"github.com/edforge/edforge/internal/platform/database"
	"github.com/edforge/edforge/internal/progress"
	"github.com/edforge/edforge/internal/quiz"
	"github.com/edforge/edforge/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	provider, err := ai.New(cfg.AI)
	if err != nil {
		slog.Error("failed to configure AI provider", "error", err)
		os.Exit(1)
	}

	db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var c *cache.Cache
	if cfg.Cache.URL != "" {
		c, err = cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			slog.Error("failed to connect to cache", "error", err)
			os.Exit(1)
		}
		defer c.Close()
	}

	var blueprints *blueprint.Loader
	if cfg.Blueprints.Dir != "" {
		blueprints, err = blueprint.NewLoader(cfg.Blueprints.Dir)
		if err != nil {
			slog.Error("failed to load blueprints", "error", err)
			os.Exit(1)
		}
	}

	srv, err := newServer(db, c, provider, blueprints)
	if err != nil {
		slog.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr, "provider", cfg.AI.Provider)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// newServer builds the PostgreSQL-backed stores and wires the services.
func newServer(db *database.DB, c *cache.Cache, provider ai.Provider, blueprints *blueprint.Loader) (*server, error) {
	courseStore, err := course.NewPostgresStore(db.Pool)
	if err != nil {
		return nil, err
	}
	quizStore, err := quiz.NewPostgresStore(db.Pool)
	if err != nil {
		return nil, err
	}
	progressStore, err := progress.NewPostgresStore(db.Pool)
	if err != nil {
		return nil, err
	}
	versionStore, err := version.NewPostgresStore(db.Pool)
	if err != nil {
		return nil, err
	}
	requestStore, err := orchestrator.NewPostgresRequestStore(db.Pool)
	if err != nil {
		return nil, err
	}

	engine := quiz.NewEngine(quizStore)
	versions := version.NewService(versionStore, courseStore)
	orc := orchestrator.New(requestStore,
		agents.NewCurriculumAgent(provider),
		agents.NewQuizAgent(provider),
		agents.NewRecommendationAgent(provider),
		courseStore,
		engine,
		progressStore,
		orchestrator.WithVersioning(versions))

	return &server{
		db:         db,
		cache:      c,
		orc:        orc,
		courses:    course.NewService(courseStore),
		engine:     engine,
		progress:   progress.NewService(progressStore, courseStore, quizStore, c),
		versions:   versions,
		blueprints: blueprints,
	}, nil
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
