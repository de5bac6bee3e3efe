// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/starford/scribe/internal/api"
	"github.com/starford/scribe/internal/codec"
	"github.com/starford/scribe/internal/docservice"
	"github.com/starford/scribe/internal/drafts"
	"github.com/starford/scribe/internal/mcpserver"
	"github.com/starford/scribe/internal/sse"
	"github.com/starford/scribe/internal/storage"
	"github.com/starford/scribe/internal/store"
)

// deps holds the pieces shared by the HTTP and MCP entry points.
type deps struct {
	logger *slog.Logger
	db     *store.DB
	drafts *storage.FS
	svc    *docservice.Service
	closer []func() error
}

func (rt *deps) Close() {
	for i := len(rt.closer) - 1; i >= 0; i-- {
		if err := rt.closer[i](); err != nil {
			rt.logger.Warn("close failed", slog.String("error", err.Error()))
		}
	}
}

// newLogger builds the structured JSON logger, teeing into a rotated file
// when one is configured.
func newLogger(cfg *Config, out io.Writer) (*slog.Logger, io.Closer) {
	if out == nil {
		out = os.Stdout
	}
	var closer io.Closer
	if cfg.App.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.App.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		out = io.MultiWriter(out, rotator)
		closer = rotator
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	})), closer
}

func bootstrap(ctx context.Context, app *application, pub docservice.Publisher) (*deps, error) {
	cfg := app.config

	logger, logCloser := newLogger(cfg, app.logOut)
	slog.SetDefault(logger)
	rt := &deps{logger: logger}
	if logCloser != nil {
		rt.closer = append(rt.closer, logCloser.Close)
	}

	logger.Info("Configuration loaded",
		slog.String("version", app.version),
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("drafts_path", cfg.Drafts.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}
	rt.db = db
	rt.closer = append(rt.closer, db.Close)

	if cfg.Drafts.Path != "" {
		if err := os.MkdirAll(cfg.Drafts.Path, 0o755); err != nil {
			rt.Close()
			return nil, fmt.Errorf("create drafts dir: %w", err)
		}
		fs, err := storage.NewFS(cfg.Drafts.Path)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("init drafts storage: %w", err)
		}
		rt.drafts = fs
	}

	opts := docservice.Options{
		HTML: codec.HTMLOptions{
			Sanitize: cfg.Editor.SanitizeHTML,
			Minify:   cfg.Editor.MinifyHTML,
		},
		HistoryDepth:    cfg.Editor.HistoryDepth,
		Highlight:       cfg.Editor.Highlight,
		RenderTTL:       cfg.RenderCache.TTL,
		SessionTTL:      cfg.Sessions.TTL,
		CleanupInterval: cfg.Sessions.CleanupInterval,
		Publisher:       pub,
		Logger:          logger,
	}
	if rt.drafts != nil {
		opts.Drafts = rt.drafts
	}
	rt.svc = docservice.NewService(db, opts)

	if rt.drafts != nil {
		if err := drafts.Sync(ctx, rt.drafts, rt.svc, logger); err != nil {
			logger.Warn("initial drafts sync failed", slog.String("error", err.Error()))
		}
	}
	return rt, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	broker := sse.NewBroker(250 * time.Millisecond)
	defer broker.Close()

	rt, err := bootstrap(ctx, app, broker)
	if err != nil {
		return err
	}
	defer rt.Close()
	logger := rt.logger

	apiRouter := api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := rt.db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if rt.drafts != nil && cfg.Drafts.Watch {
		g.Go(func() error {
			if err := drafts.Watch(gCtx, rt.drafts, rt.svc, logger); err != nil {
				logger.Error("drafts watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// SSE streams only end when the broker closes them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdio until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	rt, err := bootstrap(ctx, app, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.logger.Info("Starting MCP server on stdio")
	return mcpserver.New(rt.svc, app.version).ServeStdio()
}
