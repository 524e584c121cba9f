package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/gateway/api/handler"
	"github.com/fastygo/gateway/internal/config"
	"github.com/fastygo/gateway/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/gateway/internal/infrastructure/postgres"
	"github.com/fastygo/gateway/internal/infrastructure/ratelimit"
	redisInfra "github.com/fastygo/gateway/internal/infrastructure/redis"
	"github.com/fastygo/gateway/internal/middleware"
	"github.com/fastygo/gateway/internal/router"
	"github.com/fastygo/gateway/internal/security"
	"github.com/fastygo/gateway/internal/services"
	"github.com/fastygo/gateway/internal/services/lifecycle"
	"github.com/fastygo/gateway/pkg/httpcontext"
	"github.com/fastygo/gateway/pkg/logger"
	"github.com/fastygo/gateway/repository/postgres"
	authUC "github.com/fastygo/gateway/usecase/auth"
	catalogUC "github.com/fastygo/gateway/usecase/catalog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	servicePool, err := pgInfra.NewPool(appCtx, cfg.Database, pgInfra.RoleService, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.String("role", string(pgInfra.RoleService)), zap.Error(err))
	}
	manager.Register("postgres_service", func(ctx context.Context) error {
		servicePool.Close()
		return nil
	})

	publicPool, err := pgInfra.NewPool(appCtx, cfg.Database, pgInfra.RolePublic, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.String("role", string(pgInfra.RolePublic)), zap.Error(err))
	}
	manager.Register("postgres_public", func(ctx context.Context) error {
		publicPool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	if redisClient != nil {
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
	}

	mon := monitor.New(10*time.Second, zapLogger)
	mon.Register("postgres_service", true, 3*time.Second, servicePool.Ping)
	mon.Register("postgres_public", true, 3*time.Second, publicPool.Ping)
	if redisClient != nil {
		mon.Register("redis", false, 2*time.Second, func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	var (
		purger    services.WindowPurger
		rateLimit middleware.Middleware
	)
	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout, cfg.HTTP.TrustProxy)

	if cfg.RateLimit.Enabled {
		var store ratelimit.Store
		switch cfg.RateLimit.Store {
		case "redis":
			store = ratelimit.NewRedisStore(redisClient)
		default:
			boltStore, err := ratelimit.OpenBolt(cfg.RateLimit.BoltPath)
			if err != nil {
				zapLogger.Fatal("failed to open rate limit store", zap.Error(err))
			}
			mon.Register("ratelimit_store", false, time.Second, boltStore.Ping)
			store = boltStore
		}
		manager.Register("ratelimit_store", func(ctx context.Context) error {
			return store.Close()
		})

		limiter := ratelimit.NewLimiter(store, cfg.RateLimit.Max, cfg.RateLimit.Window)
		purger = limiter
		rateLimit = middleware.RateLimit(limiter, ctxAdapter, zapLogger)
		zapLogger.Info("rate limiting enabled",
			zap.String("store", cfg.RateLimit.Store),
			zap.Int("max", cfg.RateLimit.Max),
			zap.Duration("window", cfg.RateLimit.Window))
	}

	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(servicePool)
	sessionRepo := postgres.NewSessionRepository(servicePool)
	serviceRepo := postgres.NewServiceRepository(servicePool)
	versionRepo := postgres.NewVersionRepository(publicPool)

	sweeper := services.NewSessionSweeper(sessionRepo, purger, zapLogger, services.SweeperConfig{
		Interval: cfg.Sessions.SweepInterval,
	})
	sweeper.Start()
	manager.Register("session_sweeper", func(ctx context.Context) error {
		sweeper.Stop(ctx)
		return nil
	})

	verifier := security.NewBcryptVerifier(cfg.Auth.BcryptCost)
	authUseCase := authUC.New(userRepo, sessionRepo, verifier, zapLogger)
	catalogUseCase := catalogUC.New(serviceRepo, versionRepo, zapLogger)

	handlers := router.Handlers{
		Auth:     apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Resource: apiHandler.NewResourceHandler(catalogUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, cfg.AppName, cfg.Version,
			[]string{"postgres_service", "postgres_public"}, ctxAdapter, zapLogger),
	}

	handler := router.New(handlers, router.Options{
		Auth:                middleware.SessionAuth(authUseCase, ctxAdapter, zapLogger),
		RateLimit:           rateLimit,
		VersionRequiresAuth: cfg.Auth.VersionRequiresAuth,
		Adapter:             ctxAdapter,
		Logger:              zapLogger,
	})

	server := &fasthttp.Server{
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}
	if cfg.HTTP.MaxConn > 0 {
		server.Concurrency = cfg.HTTP.MaxConn
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("env", cfg.Environment),
			zap.Bool("version_requires_auth", cfg.Auth.VersionRequiresAuth))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
