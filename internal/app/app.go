package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/diy-network/core/internal/config"
	"github.com/diy-network/core/internal/database"
	"github.com/diy-network/core/internal/middleware"
	"github.com/diy-network/core/internal/modules/digest"
	"github.com/diy-network/core/internal/modules/event"
	"github.com/diy-network/core/internal/modules/subscription"
	pkgcron "github.com/diy-network/core/internal/pkg/cron"
	"github.com/diy-network/core/internal/pkg/jwt"
	"github.com/diy-network/core/internal/pkg/mail"
	"github.com/diy-network/core/internal/pkg/metrics"
	pkgredis "github.com/diy-network/core/internal/pkg/redis"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infra holds the external connections shared by the server and the CLI.
type Infra struct {
	DB *gorm.DB
	// Redis is nil when redis.disabled is set.
	Redis *pkgredis.Client
}

// Connect opens the database and, unless disabled, Redis.
func Connect(cfg *config.AppConfig, autoMigrate bool) (*Infra, error) {
	db, err := database.Connect(cfg, autoMigrate)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	infra := &Infra{DB: db}
	if cfg.RedisURL != "" {
		rc, err := pkgredis.Connect(cfg.RedisURL)
		if err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("redis: %w", err)
		}
		infra.Redis = rc
	}
	return infra, nil
}

// Close releases every connection.
func (i *Infra) Close() error {
	var errs []error
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	errs = append(errs, database.Close(i.DB))
	return errors.Join(errs...)
}

// Services are the domain services built on top of Infra.
type Services struct {
	Subscription *subscription.Service
	Events       *event.Service
	Digest       *digest.Service
}

// NewServices builds the mailer and every domain service from cfg.
func NewServices(cfg *config.AppConfig, infra *Infra, logger *zap.Logger) (*Services, error) {
	mailer, err := mail.NewFromConfig(cfg.Mail, logger.Named("Mailer"))
	if err != nil {
		return nil, err
	}
	renderer, err := mail.NewRenderer()
	if err != nil {
		return nil, err
	}

	events := event.NewService(event.NewStore(infra.DB), event.Config{
		DefaultURL:    cfg.DefaultURL,
		DefaultLocale: cfg.Locales.Default,
	})

	subs := subscription.NewService(
		subscription.NewStore(infra.DB),
		mailer,
		renderer,
		subscription.Config{DefaultURL: cfg.DefaultURL, SiteName: cfg.Mail.SenderName},
		logger.Named("SubscriptionService"),
	)

	var locker digest.Locker
	if infra.Redis != nil {
		locker = infra.Redis
	}
	dig := digest.NewService(
		digest.NewStore(infra.DB),
		events,
		mailer,
		renderer,
		locker,
		digest.Config{
			DefaultURL: cfg.DefaultURL,
			SiteName:   cfg.Mail.SenderName,
			Locale:     cfg.Locales.Default,
			Limit:      cfg.Mailing.DefaultLimit,
			LockTTL:    cfg.Mailing.LockTTL,
		},
		logger.Named("DigestService"),
	)

	return &Services{Subscription: subs, Events: events, Digest: dig}, nil
}

// App holds all application dependencies.
type App struct {
	cfg      *config.AppConfig
	router   *gin.Engine
	infra    *Infra
	services *Services
	logger   *zap.Logger
	cancel   context.CancelFunc
	sched    *pkgcron.Scheduler
}

// New initializes the application: DB → Redis → services → routes → scheduler.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	infra, err := Connect(cfg, true)
	if err != nil {
		return nil, err
	}
	services, err := NewServices(cfg, infra, logger)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger.Named("HTTP")))
	router.Use(metrics.Middleware())
	router.Use(cors.New(corsConfig(cfg)))

	ctx, cancel := context.WithCancel(context.Background())
	sched := pkgcron.New(logger.Named("CronService"))
	registerCronJobs(sched, services.Digest.Run, cfg, logger)
	sched.Start(ctx)

	a := &App{
		cfg:      cfg,
		router:   router,
		infra:    infra,
		services: services,
		logger:   logger,
		cancel:   cancel,
		sched:    sched,
	}

	var signer *jwt.Signer
	if cfg.JWTSecret != "" {
		if signer, err = jwt.NewSigner(cfg.JWTSecret); err != nil {
			cancel()
			_ = infra.Close()
			return nil, err
		}
	} else {
		logger.Warn("jwt_secret is empty, admin endpoints are disabled")
	}
	a.registerRoutes(signer)
	return a, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops the scheduler and closes the connections.
func (a *App) Shutdown() {
	a.cancel()
	if err := a.infra.Close(); err != nil {
		a.logger.Warn("close connections", zap.Error(err))
	}
}
