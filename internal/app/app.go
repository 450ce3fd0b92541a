// Package app wires configuration into the storage, integrations and services
// shared by the HTTP server and the admin CLI.
package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shirin_shop/internal/config"
	"github.com/Skotchmaster/shirin_shop/internal/es"
	"github.com/Skotchmaster/shirin_shop/internal/httpserver"
	"github.com/Skotchmaster/shirin_shop/internal/middleware/auth"
	"github.com/Skotchmaster/shirin_shop/internal/mykafka"
	"github.com/Skotchmaster/shirin_shop/internal/repo"
	"github.com/Skotchmaster/shirin_shop/internal/service"
	"github.com/Skotchmaster/shirin_shop/pkg/db"
	"github.com/Skotchmaster/shirin_shop/pkg/metrics"
	"github.com/Skotchmaster/shirin_shop/pkg/middleware/ratelimit"
	"github.com/Skotchmaster/shirin_shop/pkg/tokens"
)

type eventSink interface {
	service.EventPublisher
	Close() error
}

type App struct {
	Config config.Config
	Log    *slog.Logger

	DB      *gorm.DB
	Repo    *repo.GormRepo
	Tokens  *tokens.Service
	Metrics *metrics.Metrics

	events eventSink
	redis  *redis.Client
	index  *es.ProductIndex

	Auth    *service.AuthService
	Catalog *service.CatalogService
	Cart    *service.CartService
}

// New opens the database and the optional integrations. Kafka, Elasticsearch
// and Redis are skipped when unconfigured; an unreachable Elasticsearch is
// logged and skipped so search falls back to SQL.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Log:     log,
		DB:      gdb,
		Repo:    &repo.GormRepo{DB: gdb},
		Tokens:  tokens.NewService(cfg.JWTSecret, cfg.AccessTokenTTL),
		Metrics: metrics.New(),
		events:  mykafka.Nop{},
	}

	if len(cfg.KafkaBrokers) > 0 {
		prod, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			_ = db.Close(gdb)
			return nil, err
		}
		a.events = prod
		log.Info("kafka_producer", "status", "enabled", "brokers", cfg.KafkaBrokers)
	} else {
		log.Info("kafka_producer", "status", "disabled")
	}

	if cfg.ESURL != "" {
		client, err := es.NewClient(ctx, es.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword, Index: cfg.ESIndex})
		if err != nil {
			log.Warn("search_index", "status", "disabled", "reason", "cluster unreachable", "error", err)
		} else {
			a.index = es.NewProductIndex(client, cfg.ESIndex)
			log.Info("search_index", "status", "enabled", "index", cfg.ESIndex)
		}
	}

	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		log.Info("login_rate_limit", "status", "enabled", "max", cfg.LoginRateLimit, "window", cfg.LoginRateWindow.String())
	}

	a.Auth = &service.AuthService{Repo: a.Repo, Tokens: a.Tokens, Events: a.events, Metrics: a.Metrics}
	a.Catalog = &service.CatalogService{Repo: a.Repo, Events: a.events, Metrics: a.Metrics}
	if a.index != nil {
		a.Catalog.Index = a.index
	}
	a.Cart = &service.CartService{Repo: a.Repo, Events: a.events, Metrics: a.Metrics}
	return a, nil
}

func (a *App) Migrate(ctx context.Context) error {
	return a.Repo.Migrate(ctx)
}

// BootstrapAdmin creates the configured admin on first start. It is skipped
// when ADMIN_PASSWORD is empty.
func (a *App) BootstrapAdmin(ctx context.Context) error {
	if a.Config.AdminPassword == "" {
		a.Log.Warn("admin_bootstrap", "status", "skipped", "reason", "ADMIN_PASSWORD is empty")
		return nil
	}
	_, err := a.Auth.EnsureAdmin(ctx, a.Config.AdminUsername, a.Config.AdminPassword)
	return err
}

// Handler builds the echo instance with every route registered.
func (a *App) Handler() *echo.Echo {
	e := httpserver.NewEcho(a.Log, a.Metrics, a.Config.CORSOrigins)

	var limiter *ratelimit.Limiter
	if a.redis != nil {
		limiter = ratelimit.New(a.redis, a.Config.LoginRateLimit, a.Config.LoginRateWindow)
	}

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:    &httpserver.AuthHTTP{Svc: a.Auth},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: a.Catalog},
		CartHandler:    &httpserver.CartHTTP{Svc: a.Cart},
		HealthHandler:  &httpserver.HealthHTTP{DB: a.DB},
		Guard:          auth.NewGuard(a.Tokens, a.Auth),
		LoginLimiter:   limiter,
		Metrics:        a.Metrics,
	})
	return e
}

// Close releases every connection New opened.
func (a *App) Close() error {
	var errs []error
	if err := a.events.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := db.Close(a.DB); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
