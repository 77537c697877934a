package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/retro-admin/dashboard/config"
	"github.com/retro-admin/dashboard/internal/activity"
	"github.com/retro-admin/dashboard/internal/gateway"
	"github.com/retro-admin/dashboard/internal/gateway/appwrite"
	"github.com/retro-admin/dashboard/internal/gateway/memory"
	"github.com/retro-admin/dashboard/internal/gateway/postgres"
)

// OpenBackend builds the gateway backend selected by cfg.Backend. Missing
// required settings are reported as a *gateway.ConfigurationError.
func OpenBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (gateway.Backend, error) {
	if missing := cfg.Missing(); len(missing) > 0 {
		return nil, &gateway.ConfigurationError{Missing: missing}
	}

	switch cfg.Backend {
	case config.BackendAppwrite:
		backend, err := appwrite.New(cfg.Appwrite, logger)
		if err != nil {
			return nil, fmt.Errorf("open appwrite backend: %w", err)
		}
		return backend, nil
	case config.BackendPostgres:
		backend, err := postgres.Open(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres backend: %w", err)
		}
		return backend, nil
	case config.BackendMemory:
		var opts []memory.Option
		if !cfg.Database.AllowSignUp {
			opts = append(opts, memory.WithSignUpDisabled())
		}
		return memory.New(opts...), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}
}

// ActivitySink returns the backend's direct activity writer. Backends
// without one get a sink that only logs.
func ActivitySink(backend gateway.Backend, logger *zap.Logger) gateway.ActivitySink {
	if sink, ok := backend.(gateway.ActivitySink); ok {
		return sink
	}
	return activity.LogSink{Logger: logger}
}
