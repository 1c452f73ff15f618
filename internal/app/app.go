// Package app assembles the helpdesk from configuration: storage, the
// classifier, the push channel, services and the HTTP surface.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/helpdesk-ml/helpdesk/internal/api/dto"
	httptransport "github.com/helpdesk-ml/helpdesk/internal/api/http"
	"github.com/helpdesk-ml/helpdesk/internal/api/http/handlers"
	"github.com/helpdesk-ml/helpdesk/internal/auth"
	"github.com/helpdesk-ml/helpdesk/internal/classifier"
	"github.com/helpdesk-ml/helpdesk/internal/config"
	"github.com/helpdesk-ml/helpdesk/internal/events"
	"github.com/helpdesk-ml/helpdesk/internal/observability"
	"github.com/helpdesk-ml/helpdesk/internal/persistence"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
	"github.com/helpdesk-ml/helpdesk/internal/repository/sqlstore"
	"github.com/helpdesk-ml/helpdesk/internal/service"
	"github.com/helpdesk-ml/helpdesk/internal/worker"
)

// Services groups the application services.
type Services struct {
	Audit         *service.AuditService
	Notifications *service.NotificationService
	Tickets       *service.TicketService
	Assignments   *service.AssignmentService
	Technicians   *service.TechnicianService
	Admin         *service.AdminService
	Accounts      *service.AccountService
	Auth          *service.AuthService
}

// App is a fully wired helpdesk instance.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    repository.Store
	Gate     *classifier.Gate
	Bus      events.Bus
	Worker   *worker.NotificationWorker
	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Services Services
	HTTP     *fiber.App

	redis *persistence.Redis
}

// Option customises New.
type Option func(*options)

type options struct {
	predictor classifier.Predictor
}

// WithPredictor replaces the configured model.
func WithPredictor(p classifier.Predictor) Option {
	return func(o *options) { o.predictor = p }
}

// OpenStore connects the configured backend and applies migrations when enabled.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := persistence.NewPostgresPool(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if cfg.RunMigrations {
			if err := persistence.RunPostgresMigrations(ctx, pool, logger); err != nil {
				pool.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		return repository.NewPostgresStore(pool), nil
	case config.DriverSQLite, config.DriverMySQL:
		db, err := persistence.OpenSQL(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if cfg.RunMigrations {
			if err := persistence.RunSQLMigrations(ctx, db, logger); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		return sqlstore.New(db), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// LoadPredictor builds the configured model. A broken artifact is logged and
// yields nil so the service starts in degraded mode.
func LoadPredictor(cfg config.ClassifierConfig, logger *zap.Logger) classifier.Predictor {
	predictor, err := classifier.New(classifier.Options{
		ModelPath: cfg.ModelPath,
		URL:       cfg.URL,
		Timeout:   cfg.Timeout(),
	})
	if err != nil {
		logger.Error("classifier unavailable, every ticket will need manual review", zap.Error(err))
		return nil
	}
	if predictor == nil {
		logger.Warn("no classifier configured, every ticket will need manual review")
	}
	return predictor
}

// New wires every component. Call Start to begin background delivery and
// Close to release resources.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	store, err := OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Registry: prometheus.NewRegistry(),
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = observability.NewMetrics(a.Registry)

	predictor := o.predictor
	if predictor == nil {
		predictor = LoadPredictor(cfg.Classifier, logger)
	}
	a.Gate = classifier.NewGate(predictor, logger)

	a.Bus = events.NewInMemoryBus()
	if cfg.Redis.Enabled {
		r, err := persistence.NewRedis(ctx, cfg.Redis, logger)
		if err == nil {
			a.redis = r
			a.Bus = events.NewRedisBus(r.Client, cfg.Redis.ChannelPrefix, logger)
		} else {
			logger.Warn("falling back to in-process push delivery")
		}
	}
	a.Worker = worker.NewNotificationWorker(a.Bus, logger, worker.Options{
		Workers:   cfg.Notification.Workers,
		QueueSize: cfg.Notification.QueueSize,
		Timeout:   cfg.Notification.PushTimeout(),
		Drops:     a.Metrics,
	})

	a.Services = buildServices(cfg, store, a.Gate, a.Worker, a.Metrics, logger)

	if meta, ok := a.Gate.Metadata(); ok {
		if _, err := a.Services.Admin.RegisterModel(ctx, meta, cfg.Classifier.ModelPath); err != nil {
			logger.Warn("unable to record model metadata", zap.Error(err))
		}
	}

	a.HTTP = a.buildHTTP()
	return a, nil
}

func buildServices(cfg *config.Config, store repository.Store, gate *classifier.Gate, pusher service.Pusher, metrics *observability.Metrics, logger *zap.Logger) Services {
	sanitizer := service.NewSanitizer()
	audit := service.NewAuditService(store, logger, nil)
	notifications := service.NewNotificationService(service.NotificationDependencies{
		Store:  store,
		Pusher: pusher,
		Logger: logger,
	})
	return Services{
		Audit:         audit,
		Notifications: notifications,
		Tickets: service.NewTicketService(service.TicketDependencies{
			Store:         store,
			Gate:          gate,
			Notifications: notifications,
			Audit:         audit,
			Metrics:       metrics,
			Sanitizer:     sanitizer,
			Logger:        logger,
		}),
		Assignments: service.NewAssignmentService(service.AssignmentDependencies{
			Store:         store,
			Notifications: notifications,
			Audit:         audit,
			Metrics:       metrics,
			Sanitizer:     sanitizer,
			Logger:        logger,
		}),
		Technicians: service.NewTechnicianService(store, audit, logger),
		Admin:       service.NewAdminService(store, logger, nil),
		Accounts:    service.NewAccountService(store, cfg.Auth.BcryptCost, nil),
		Auth: service.NewAuthService(service.AuthDependencies{
			Store:      store,
			Tokens:     auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
			Audit:      audit,
			BcryptCost: cfg.Auth.BcryptCost,
			Logger:     logger,
		}),
	}
}

func (a *App) buildHTTP() *fiber.App {
	cfg := a.Config
	server := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ErrorHandler:          httptransport.ErrorHandler(a.Logger, a.Metrics),
	})
	httptransport.RegisterMiddlewares(server, httptransport.MiddlewareConfig{
		Logger:      a.Logger,
		Metrics:     a.Metrics,
		Timeout:     cfg.App.RequestTimeout(),
		CORSOrigins: cfg.App.CORSOrigins,
	})

	validator := dto.NewValidator()
	pingers := map[string]handlers.Pinger{"database": a.Store}
	if a.redis != nil {
		pingers["redis"] = a.redis
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	s := a.Services

	httptransport.RegisterRoutes(server, httptransport.RouteConfig{
		Health:        handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pingers, a.Gate.Available),
		Auth:          handlers.NewAuthHandler(s.Auth, validator),
		Tickets:       handlers.NewTicketsHandler(s.Tickets, validator),
		Technician:    handlers.NewTechnicianHandler(s.Tickets, a.Bus, validator, a.Logger, cfg.Notification.StreamHeartbeat()),
		Notifications: handlers.NewNotificationsHandler(s.Notifications),
		Admin: handlers.NewAdminHandler(handlers.AdminDependencies{
			Admin:       s.Admin,
			Tickets:     s.Tickets,
			Assignments: s.Assignments,
			Technicians: s.Technicians,
			Accounts:    s.Accounts,
			Audit:       s.Audit,
			Validator:   validator,
		}),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, a.Store),
		Gatherer:       a.Registry,
	})
	return server
}

// Start launches the push workers.
func (a *App) Start() {
	a.Worker.Start()
}

// Close drains pushes and releases connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.HTTP != nil {
		errs = append(errs, a.HTTP.ShutdownWithContext(ctx))
	}
	if a.Worker != nil {
		errs = append(errs, a.Worker.Stop(ctx))
	}
	a.redis.Close()
	errs = append(errs, a.Store.Close())
	return errors.Join(errs...)
}
