package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/peer-rental/internal/config"
	"github.com/iliyamo/peer-rental/internal/database"
	"github.com/iliyamo/peer-rental/internal/handler"
	"github.com/iliyamo/peer-rental/internal/middleware"
	"github.com/iliyamo/peer-rental/internal/obs"
	"github.com/iliyamo/peer-rental/internal/queue"
	"github.com/iliyamo/peer-rental/internal/repository/memory"
	"github.com/iliyamo/peer-rental/internal/router"
	"github.com/iliyamo/peer-rental/internal/service"
	"github.com/iliyamo/peer-rental/internal/validation"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	checks := map[string]handler.Pinger{}
	var store service.Store
	switch cfg.StorageDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		store = service.NewMemoryStore(memory.New())
	default:
		db, err := database.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if cfg.DBAutoMigrate {
			if err := database.Migrate(ctx, db, logger); err != nil {
				return err
			}
		}
		store = service.NewMySQLStore(db)
		checks["mysql"] = db
	}

	// Redis backs the rate limiter and the response cache; both degrade to
	// pass-through without it.
	rlCfg, err := config.LoadRateLimitConfig()
	if err != nil {
		return err
	}
	cacheCfg, err := config.LoadCacheConfig()
	if err != nil {
		return err
	}
	redisCfg, err := config.LoadRedisConfig()
	if err != nil {
		return err
	}
	var rdb *redis.Client
	if rlCfg.Enabled || cacheCfg.Enabled {
		if rdb = config.NewRedisClient(redisCfg); rdb == nil {
			logger.Warn("redis unavailable; rate limiting and caching disabled", "addr", redisCfg.Addr)
		} else {
			defer rdb.Close()
			checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		}
	}

	// Events
	var events service.EventPublisher
	if cfg.RabbitMQURL != "" {
		events = queue.NewPublisher(cfg.RabbitMQURL, logger)
		consumer := queue.NewConsumer(cfg.RabbitMQURL, cfg.EventLogDir, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("rental event consumer stopped", "err", err)
			}
		}()
	} else {
		logger.Info("RABBITMQ_URL not set; rental events are not published")
	}

	// Services
	accounts := service.NewAccountService(store, service.AuthSettings{
		Secret:         cfg.JWTSecret,
		AccessTTL:      time.Duration(cfg.AccessTTLMin) * time.Minute,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
	})
	catalog := service.NewCatalogService(store)
	convs := service.NewConversationService(store)
	msgs := service.NewMessageService(store, convs)
	rentals := service.NewRentalService(store, events, logger)
	reviews := service.NewReviewService(store)

	e := newServer(logger, rlCfg, rdb)
	router.Register(e, router.Handlers{
		Health:  &handler.HealthHandler{Checks: checks},
		Auth:    handler.NewAuthHandler(accounts, logger),
		Items:   handler.NewItemHandler(catalog, logger),
		Chats:   handler.NewChatHandler(convs, msgs, logger),
		Rentals: handler.NewRentalHandler(rentals, logger),
		Reviews: handler.NewReviewHandler(reviews, logger),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		Cache:     middleware.ResponseCache(cacheCfg, rdb, logger),
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env, "storage", cfg.StorageDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newServer(logger *slog.Logger, rlCfg config.RateLimitConfig, rdb *redis.Client) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(middleware.RequestLog(logger))
	e.Use(echomw.CORS())
	e.Use(echomw.BodyLimit("2M"))
	e.Use(middleware.RateLimit(rlCfg, rdb, logger))
	return e
}
