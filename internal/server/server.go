package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/retro-admin/dashboard/config"
	"github.com/retro-admin/dashboard/internal/activity"
	"github.com/retro-admin/dashboard/internal/cache"
	"github.com/retro-admin/dashboard/internal/gateway"
	"github.com/retro-admin/dashboard/internal/handlers"
	"github.com/retro-admin/dashboard/internal/insight"
	"github.com/retro-admin/dashboard/internal/logging"
	"github.com/retro-admin/dashboard/internal/mq"
	"github.com/retro-admin/dashboard/internal/profile"
	"github.com/retro-admin/dashboard/internal/services"
	"github.com/retro-admin/dashboard/internal/storage"
	"github.com/retro-admin/dashboard/internal/ui"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server, the workspace registry and every backing client.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	registry   *services.Registry
	worker     *activity.Worker
	logger     *zap.Logger
	closers    []func() error
}

// New wires the dashboard for cfg. When required backend settings are
// missing the server still starts and serves the configuration screen.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{logger: logger}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logging.RequestLogger(logger),
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz(cfg))
	router.Handle("/static/*", http.StripPrefix("/static/", ui.Static()))

	backend, err := OpenBackend(ctx, cfg, logger)
	var configErr *gateway.ConfigurationError
	switch {
	case errors.As(err, &configErr):
		logger.Warn("backend not configured", zap.String("backend", cfg.Backend), zap.Strings("missing", configErr.Missing))
		router.NotFound(handlers.ConfigurationRequired(cfg, logger))
	case err != nil:
		return nil, err
	default:
		s.closers = append(s.closers, backend.Close)
		if err := s.mountDashboard(ctx, cfg, router, backend); err != nil {
			_ = s.close()
			return nil, err
		}
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.router = router
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) mountDashboard(ctx context.Context, cfg config.Config, router chi.Router, backend gateway.Backend) error {
	logger := s.logger

	sink, err := s.activitySink(ctx, cfg, backend)
	if err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		redisClient, err := cache.NewClient(cfg.Redis)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, redisClient.Close)
		backend = cache.NewProfileCache(redisClient, cfg.Redis.ProfileTTL, logger).Wrap(backend)
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if objects != nil {
		s.closers = append(s.closers, objects.Close)
	}
	avatars := profile.NewAvatarService(objects, logger)

	insights, err := insight.New(ctx, cfg.Insight, logger)
	if err != nil {
		return err
	}

	s.registry = services.NewRegistry(backend, services.Deps{
		Avatars:  avatars,
		Activity: activity.NewRecorder(sink, logger),
		Insight:  insights,
		Logger:   logger,
	}, cfg.Session.IdleTTL)

	sessionCfg := cfg.Session
	if sessionCfg.Secret == "" {
		secret, err := randomSecret()
		if err != nil {
			return err
		}
		logger.Warn("SESSION_SECRET not set; workspace cookies will not survive a restart")
		sessionCfg.Secret = secret
	}
	sessions := handlers.NewSessions(s.registry, sessionCfg, logger)
	handlers.DashboardRouter(router, handlers.NewDashboardHandler(sessions, avatars, logger))

	logger.Info("dashboard mounted",
		zap.String("backend", backend.Name()),
		zap.Bool("object_storage", objects != nil),
		zap.Bool("profile_cache", cfg.Redis.Addr != ""),
		zap.Bool("insight", insights.Enabled()),
		zap.String("mq", cfg.MQ.Driver),
	)
	return nil
}

// activitySink publishes activity through the message queue when one is
// configured; otherwise the backend writes it directly.
func (s *Server) activitySink(ctx context.Context, cfg config.Config, backend gateway.Backend) (gateway.ActivitySink, error) {
	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		return nil, err
	}
	if queue == nil {
		return ActivitySink(backend, s.logger), nil
	}
	s.closers = append(s.closers, queue.Close)
	if cfg.MQ.Driver == mq.DriverMemory {
		// An in-process broker has no external consumer; drain it here.
		s.worker = activity.NewWorker(queue, cfg.MQ.ActivityChannel, ActivitySink(backend, s.logger), s.logger)
	}
	return activity.NewPublisher(queue, cfg.MQ.ActivityChannel), nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Run serves HTTP and sweeps idle workspaces until ctx is done, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if s.registry != nil {
		g.Go(func() error {
			return s.registry.Run(ctx)
		})
	}
	if s.worker != nil {
		g.Go(func() error {
			return s.worker.Run(ctx)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown stops accepting requests, closes every workspace and releases the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.registry != nil {
		s.registry.Close()
	}
	return errors.Join(err, s.close())
}

func (s *Server) close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
