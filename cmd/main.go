package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/oksasatya/dresscode/config"
	"github.com/oksasatya/dresscode/internal/application"
	"github.com/oksasatya/dresscode/internal/container"
	"github.com/oksasatya/dresscode/internal/infrastructure/localstore"
	"github.com/oksasatya/dresscode/internal/infrastructure/storage"
	"github.com/oksasatya/dresscode/internal/infrastructure/viacep"
	"github.com/oksasatya/dresscode/internal/interface/middleware"
	"github.com/oksasatya/dresscode/internal/router"
	"github.com/oksasatya/dresscode/pkg/helpers"
	"github.com/oksasatya/dresscode/pkg/metrics"
	"github.com/oksasatya/dresscode/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metrics registry
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// User storage
	backend, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to open storage: %v", err)
	}
	defer backend.Close()

	users, err := localstore.NewUserRepository(ctx, backend.Store,
		localstore.WithKey(cfg.StorageKey),
		localstore.WithCacheTTL(cfg.UserCacheTTL),
		localstore.WithSeedExamples(cfg.SeedExamples),
		localstore.WithLogger(logger),
		localstore.WithMetrics(m),
	)
	if err != nil {
		logger.Fatalf("failed to init user repository: %v", err)
	}

	// Postal code lookup
	gateway := viacep.NewClient(cfg.PostalLookupURL, cfg.PostalLookupTimeout, viacep.WithLogger(logger))
	address := application.NewAddressService(gateway, cfg.PostalLookupTimeout, logger, m)

	// Welcome email jobs
	var notifier application.RegistrationNotifier
	if cfg.PublishesEmails() {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; welcome emails disabled")
		} else {
			defer pub.Close()
			container.SetRabbitPub(pub)
			notifier = application.NewWelcomeNotifier(pub, cfg)
		}
	}

	sessions := application.NewWizardSessions(application.WizardDeps{
		Users:    users,
		Address:  address,
		Notifier: notifier,
		Logger:   logger,
		Metrics:  m,
	}, cfg.WizardSessionTTL, application.WithMaxSessions(cfg.WizardMaxSessions))
	go sessions.Run(ctx, time.Minute)

	// Operator token check for /api/users
	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET is empty; user directory endpoints are disabled")
	} else {
		container.SetJWT(helpers.NewJWTManager(cfg.AdminJWTSecret, cfg.AdminTokenTTL, cfg.AppName))
	}

	// Provide singletons to container for registry auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(backend.Pool)
	container.SetRedis(backend.Redis)
	container.SetMetrics(reg, m)
	container.SetUserRepo(users)
	container.SetAddressService(address)
	container.SetWizardSessions(sessions)
	container.SetUserService(application.NewUserService(users, logger))

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	r.Use(middleware.Metrics(m))
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled {
		r.Use(middleware.AccessLog(logger))
	}

	// Registry: auto-register modules using container
	registry := router.NewRegistry(r)
	router.InitModules(registry)
	registry.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}
