package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/movesmart/service-route/internal/application"
	"github.com/movesmart/service-route/internal/config"
	routeDomain "github.com/movesmart/service-route/internal/domain/route"
	userDomain "github.com/movesmart/service-route/internal/domain/user"
	"github.com/movesmart/service-route/internal/events"
	"github.com/movesmart/service-route/internal/handler"
	"github.com/movesmart/service-route/internal/maps"
	"github.com/movesmart/service-route/internal/platform/auth"
	"github.com/movesmart/service-route/internal/platform/database"
	"github.com/movesmart/service-route/internal/platform/health"
	"github.com/movesmart/service-route/internal/platform/kafka"
	"github.com/movesmart/service-route/internal/platform/middleware"
	"github.com/movesmart/service-route/internal/repository"
	"github.com/movesmart/service-route/internal/repository/memory"
	"github.com/movesmart/service-route/internal/resilience"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and event consumer",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, log)
	},
}

func serve(ctx context.Context, cfg *config.ServiceConfig, log *zap.Logger) error {
	log.Info("starting "+cfg.ServiceName,
		zap.String("port", cfg.Port),
		zap.String("storage", cfg.Storage),
		zap.Bool("kafka", cfg.KafkaConfig.Enabled()),
	)

	routeRepo, userRepo, db, err := openStorage(cfg, log)
	if err != nil {
		return err
	}

	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.Issuer, cfg.JWTConfig.TokenTTL)

	var publisher application.EventPublisher = application.NopPublisher{}
	if cfg.KafkaConfig.Enabled() {
		producer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = producer.Close() }()
		publisher = producer
	}

	retry := resilience.DefaultRetryPolicy()
	retry.Attempts = cfg.MapsConfig.RetryAttempts
	retry.Logger = log
	mapsClient := maps.NewClient(cfg.MapsConfig.APIKey,
		maps.WithBaseURL(cfg.MapsConfig.BaseURL),
		maps.WithHTTPClient(&http.Client{Timeout: cfg.MapsConfig.Timeout}),
		maps.WithRateLimit(cfg.MapsConfig.RateLimit),
		maps.WithRetry(retry),
		maps.WithDeadline(cfg.MapsConfig.LookupBudget),
		maps.WithTraffic(cfg.MapsConfig.UseTraffic),
		maps.WithLogger(log.Named("maps")),
	)

	policy := routeDomain.NewRatioPolicy(cfg.Congestion)
	routeService := application.NewRouteService(routeRepo, userRepo, mapsClient, policy, publisher, log)
	authService := application.NewAuthService(userRepo, jwtManager, routeService, publisher, cfg.IsAdminUser, log)

	router, err := newRouter(cfg, log, db, jwtManager, routeService, authService)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: config.HTTPWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.KafkaConfig.Enabled() {
		consumer := events.NewAccountEventConsumer(
			cfg.KafkaConfig.Brokers,
			cfg.KafkaConfig.GroupPrefix+cfg.ServiceName,
			routeService,
			log,
		)
		defer func() { _ = consumer.Close() }()

		g.Go(func() error {
			log.Info("starting account event consumer")
			if err := consumer.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("account consumer: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down " + cfg.ServiceName)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server forced shutdown", zap.Error(err))
		}
		return nil
	})

	err = g.Wait()
	log.Info(cfg.ServiceName + " stopped")
	return err
}

func openStorage(cfg *config.ServiceConfig, log *zap.Logger) (routeDomain.RouteRepository, userDomain.UserRepository, *gorm.DB, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("using in-memory storage; data is lost on restart")
		return memory.NewRouteRepository(), memory.NewUserRepository(), nil, nil
	}

	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if err := migrateSchema(cfg, db, log); err != nil {
		return nil, nil, nil, err
	}
	return repository.NewGormRouteRepository(db), repository.NewGormUserRepository(db), db, nil
}

// migrateSchema auto-migrates in development and applies the SQL migrations
// everywhere else.
func migrateSchema(cfg *config.ServiceConfig, db *gorm.DB, log *zap.Logger) error {
	if cfg.IsDevelopment() {
		if err := db.AutoMigrate(&repository.UserModel{}, &repository.RouteModel{}); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
		log.Info("database migration completed (dev auto-migrate)")
		return nil
	}
	if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), repository.Migrations, repository.MigrationsDir, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func newRouter(
	cfg *config.ServiceConfig,
	log *zap.Logger,
	db *gorm.DB,
	jwtManager *auth.JWTManager,
	routeService *application.RouteService,
	authService *application.AuthService,
) (*gin.Engine, error) {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins...))
	router.Use(middleware.SecurityHeadersMiddleware())

	healthHandler := health.NewHandler(db, cfg.ServiceName)
	if db == nil {
		healthHandler = health.NewHandlerWithPinger(health.PingFunc(func(context.Context) error { return nil }), cfg.ServiceName)
	}
	healthHandler.RegisterRoutes(router)

	cookies := handler.CookieOptions{Secure: !cfg.IsDevelopment(), TTL: cfg.JWTConfig.TokenTTL}

	handler.NewRouteHandler(routeService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminRouteHandler(routeService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAuthHandler(authService, cookies).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewPredictHandler(routeService).RegisterRoutes(&router.RouterGroup)
	if err := handler.NewPageHandler(routeService, authService, cookies, log).RegisterRoutes(router, jwtManager); err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	return router, nil
}
