package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signalmesh/internal/core/domain"
	"signalmesh/internal/core/ports"
	"signalmesh/internal/core/services"
	httphandlers "signalmesh/internal/handlers/http"
	memoryledger "signalmesh/internal/infrastructure/ledger/memory"
	redisledger "signalmesh/internal/infrastructure/ledger/redis"
	"signalmesh/internal/infrastructure/middleware"
	"signalmesh/internal/infrastructure/monitoring"
	signalws "signalmesh/internal/infrastructure/signal"
	"signalmesh/internal/infrastructure/transport"
	"signalmesh/pkg/config"
	"signalmesh/pkg/logger"
	"signalmesh/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	self := domain.Identity(cfg.Agent.Identity)

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "signalmesh",
		JaegerURL:   cfg.Tracing.JaegerEndpoint,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Initialize metrics
	var metrics ports.Metrics
	if cfg.Monitoring.PrometheusEnabled {
		metrics = monitoring.NewPrometheusCollector()
	}

	// Initialize the ledger backend
	var (
		ledger      ports.Ledger
		redisClient *redis.Client
	)
	switch cfg.Ledger.Backend {
	case "redis":
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		ledger = redisledger.NewLedger(redisClient, self, log)
	default:
		ledger = memoryledger.NewLedger(memoryledger.NewStore(), self)
	}

	// Event stream server is the emission sink for the whole node
	eventServer := signalws.NewEventServer(
		cfg.Events.PingInterval,
		cfg.Events.PongTimeout,
		cfg.Events.WriteTimeout,
		log,
	)

	// Capability table gates inbound remote invocations
	caps := services.NewCapabilityTable()
	caps.Bootstrap()

	receiver := services.NewSignalReceiver(caps, eventServer, metrics, log)

	// Transport: redis pub/sub between nodes, loopback within the process
	var (
		pusher     ports.SignalPusher
		subscriber *transport.RedisSubscriber
	)
	if redisClient != nil {
		pusher = transport.NewRedisPusher(redisClient, self, log)
		subscriber = transport.NewRedisSubscriber(redisClient, self, receiver, log)
	} else {
		bus := transport.NewLoopbackBus()
		bus.Register(self, func(ctx context.Context, from domain.Identity, payload []byte) {
			if err := receiver.Receive(ctx, from, payload); err != nil {
				log.Warnw("inbound signal rejected", "from", from, "error", err)
			}
		})
		pusher = bus.Pusher(self)
	}

	// Core services
	presenceService := services.NewPresenceService(ledger, metrics, log)
	relayService := services.NewRelayService(self, presenceService, pusher, metrics, log)
	conferenceService := services.NewConferenceService(self, ledger, presenceService, relayService, log)
	classifier := services.NewClassifierService(ledger, eventServer, metrics, log)
	authService := services.NewAuthService(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Every local commit flows through the classifier exactly once
	ledger.SetCommitHook(func(record domain.Record) {
		if err := classifier.HandleCommit(context.Background(), record); err != nil {
			log.Errorw("commit classification failed",
				"kind", record.Kind,
				"hash", record.Hash,
				"error", err,
			)
		}
	})

	// Health checks
	healthChecker := monitoring.NewHealthChecker()
	healthChecker.AddLedgerCheck(ledger, self, 10*time.Second, 2*time.Second)
	if redisClient != nil {
		healthChecker.AddRedisCheck(redisClient, 10*time.Second, 2*time.Second)
	}

	// Initialize HTTP handlers
	authHandler := httphandlers.NewAuthHandler(authService, cfg.Auth.AccessTokenTTL)
	conferenceHandler := httphandlers.NewConferenceHandler(self, conferenceService, presenceService, ledger, caps)

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLoggingMiddleware(logger.NewContextLogger(zapLogger)))
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}

	// Setup auth routes (public)
	authHandler.SetupRoutes(router)

	// Setup conference routes with authentication
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(authService))
	{
		api.POST("/rooms", conferenceHandler.CreateRoom)
		api.GET("/rooms/:hash", conferenceHandler.GetRoom)
		api.POST("/rooms/:hash/join", conferenceHandler.JoinRoom)
		api.POST("/rooms/:hash/leave", conferenceHandler.LeaveRoom)
		api.POST("/rooms/:hash/signal", conferenceHandler.SendSignal)
		api.GET("/presence", conferenceHandler.GetPresence)
		api.GET("/capabilities", conferenceHandler.GetCapabilities)
	}

	// Event stream for clients
	router.GET("/events", gin.WrapF(eventServer.HandleWebSocket))

	// Health check endpoints
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
		})
	})
	router.GET("/ready", gin.WrapF(healthChecker.Handler()))

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	// Root context cancelled on shutdown
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Start the inbound subscriber when running on redis transport
	if subscriber != nil {
		go func() {
			if err := subscriber.Run(rootCtx); err != nil && err != context.Canceled {
				log.Errorw("inbound subscriber stopped", "error", err)
			}
		}()
	}

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Infow("starting signalmesh node", "address", cfg.Server.Address, "identity", self)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("received shutdown signal", "signal", sig)
	}

	log.Info("shutting down signalmesh node...")
	rootCancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown HTTP server gracefully
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("error force closing server", "error", closeErr)
		}
	} else {
		log.Info("server shutdown gracefully")
	}

	if subscriber != nil {
		if err := subscriber.Close(); err != nil {
			log.Errorw("error closing subscriber", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Errorw("error closing redis client", "error", err)
		}
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error shutting down tracer", "error", err)
	}

	log.Info("signalmesh node stopped")
}
