// cmd/signup-server/app.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"activity-signup/internal/activities"
	"activity-signup/internal/api"
	"activity-signup/internal/audit"
	"activity-signup/internal/common/config"
	"activity-signup/internal/common/database"
	"activity-signup/internal/common/logger"
	"activity-signup/internal/common/observability"
	"activity-signup/internal/notify"
	"activity-signup/internal/ratelimit"
	"activity-signup/pkg/registry"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// app is the fully wired server minus the listener.
type app struct {
	Handler http.Handler
	Service *activities.Service
	closers []func(ctx context.Context) error
	zapLog  *zap.Logger
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func newApp(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (*app, error) {
	log := logger.NewZapAdapter(zapLog)
	a := &app{zapLog: zapLog}

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}
	a.closers = append(a.closers, obs.Shutdown)

	catalog, err := registry.LoadCatalog(cfg.Registry.CatalogPath)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	reg := activities.FromCatalog(catalog, activities.WithPolicy(activities.Policy{
		EnforceCapacity:  cfg.Registry.EnforceCapacity,
		RejectDuplicates: cfg.Registry.RejectDuplicates,
	}))
	zapLog.Info("Activity registry seeded",
		zap.Int("activities", len(catalog.Activities)),
		zap.String("catalogVersion", catalog.Version),
	)

	svcOpts := []activities.ServiceOption{activities.WithObservability(obs)}
	var checks []api.ReadinessCheck

	// --- Audit trail (PostgreSQL) ---
	if cfg.Audit.Enabled {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return pg.Close() })
		err = retryWithBackoff(func() error {
			return pg.Ping(ctx)
		}, 5, time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		checks = append(checks, pg)

		recorder := audit.NewPostgresRecorder(pg.DB, log)
		if cfg.Audit.EnsureSchema {
			if err := recorder.EnsureSchema(ctx); err != nil {
				a.Close(ctx)
				return nil, err
			}
		}
		svcOpts = append(svcOpts, activities.WithAudit(recorder, config.GetDuration(cfg.Audit.Timeout)))
		zapLog.Info("Audit trail enabled")
	} else {
		svcOpts = append(svcOpts, activities.WithAudit(audit.NopRecorder{}, 0))
	}

	// --- Notifications (SES / SNS) ---
	if cfg.Notifications.Enabled() {
		notifier, err := notify.NewAWSNotifier(ctx, notify.Config{
			EmailEnabled:  cfg.Notifications.Email.Enabled,
			EventsEnabled: cfg.Notifications.Events.Enabled,
			FromEmail:     cfg.Notifications.Email.FromEmail,
			TopicARN:      cfg.Notifications.Events.TopicARN,
			AWSRegion:     cfg.Notifications.AWS.Region,
		}, log)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		svcOpts = append(svcOpts, activities.WithNotifier(notifier, config.GetDuration(cfg.Notifications.Timeout)))
		zapLog.Info("Notifications enabled",
			zap.Bool("email", cfg.Notifications.Email.Enabled),
			zap.Bool("events", cfg.Notifications.Events.Enabled),
		)
	} else {
		svcOpts = append(svcOpts, activities.WithNotifier(notify.NopNotifier{}, 0))
	}

	// --- Rate limiting (Redis) ---
	var limiter api.Limiter
	if cfg.RateLimit.Enabled {
		rdb := database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error {
			return rdb.Ping(ctx)
		}, 5, time.Second, zapLog, "Redis connection")
		if err != nil {
			_ = rdb.Close()
			a.Close(ctx)
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		checks = append(checks, rdb)

		limiter = ratelimit.New(rdb.Client, cfg.RateLimit.Requests, cfg.RateLimit.Window(), log)
		zapLog.Info("Rate limiting enabled",
			zap.Int("requests", cfg.RateLimit.Requests),
			zap.Int("windowSeconds", cfg.RateLimit.WindowSeconds),
		)
	}

	a.Service = activities.NewService(reg, log, svcOpts...)
	a.Handler = api.NewRouter(api.Deps{
		Service:        a.Service,
		Logger:         log,
		StaticDir:      cfg.Server.StaticDir,
		CORSOrigins:    cfg.Server.CORSOrigins,
		Limiter:        limiter,
		Checks:         checks,
		MetricsHandler: promhttp.Handler(),
	})
	return a, nil
}

// Close releases everything newApp opened, newest first.
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.zapLog.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
