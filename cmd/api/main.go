package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ridebooking/internal/config"
	"ridebooking/internal/database"
	"ridebooking/internal/middleware"
	"ridebooking/internal/modules/booking"
	"ridebooking/internal/modules/feed"
	"ridebooking/internal/modules/notify"
	"ridebooking/internal/modules/payment"
	"ridebooking/internal/modules/store"
	"ridebooking/internal/modules/timeline"
	"ridebooking/internal/pkg/jwt"
	"ridebooking/internal/pkg/logger"
	"ridebooking/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zlog, err := logger.InitLogger(cfg.LogPath, cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("database connect failed", zap.Error(err))
	}
	if err := repository.Migrate(db); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}

	bookingRepo := repository.NewBookingRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)

	jwtService := jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	// Synchronized cache plus subscription registry.
	cache := store.New(zlog)
	registry := store.NewRegistry(cache, zlog)

	// Websocket hub carries both phase streams and in-app notifications.
	hub := feed.NewHub()
	defer hub.Close()

	prefService := notify.NewPreferenceService(prefRepo, zlog)
	transport := feed.NewTransport(hub, zlog)
	dispatcher := notify.NewDispatcher(prefService, transport, zlog)
	phaseStream := feed.NewPhaseStream(hub, zlog)

	cache.AddListener(dispatcher)
	cache.AddListener(phaseStream)

	projector := timeline.NewProjector(historyRepo, zlog)
	oracle := payment.NewOracle(cfg.PaymentOracleURL, zlog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The change feed is optional in local development; without brokers the
	// service still works, only cross-process sync is off.
	var emitter booking.ChangeEmitter
	if len(cfg.KafkaBrokers) > 0 {
		producer := feed.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, zlog)
		defer func() { _ = producer.Close() }()
		emitter = producer

		consumer := feed.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, "ridebooking-api", registry, zlog)
		defer func() { _ = consumer.Close() }()
		go func() {
			if err := consumer.Run(ctx); err != nil {
				zlog.Error("feed consumer stopped", zap.Error(err))
			}
		}()
	} else {
		zlog.Warn("KAFKA_BROKERS not set, change feed disabled")
	}

	bookingService := booking.NewService(
		bookingRepo, historyRepo, cache, oracle, emitter, projector,
		cfg.MinPickupLead, cfg.OfferResponseWindow, zlog,
	)
	bookingHandler := booking.NewHandler(bookingService)
	notifyHandler := notify.NewHandler(prefService)
	wsHandler := feed.NewWSHandler(hub, registry, jwtService, zlog)

	expiry := booking.NewExpiryRunner(bookingService, cfg.ExpiryInterval, zlog)
	go expiry.Run(ctx)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(zlog))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.GET("/ws/feed", wsHandler.HandleWebSocket)

	v1 := r.Group("/api/v1")
	{
		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(jwtService))
		{
			bookingHandler.RegisterRoutes(protected)
			notifyHandler.RegisterRoutes(protected.Group("/notifications"))
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		zlog.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
	registry.TeardownAll()
}
