package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/lendhub/backend/api/handler"
	"github.com/lendhub/backend/internal/config"
	identityProvider "github.com/lendhub/backend/internal/identity"
	"github.com/lendhub/backend/internal/infrastructure/monitor"
	"github.com/lendhub/backend/internal/infrastructure/outbox"
	pgInfra "github.com/lendhub/backend/internal/infrastructure/postgres"
	redisInfra "github.com/lendhub/backend/internal/infrastructure/redis"
	"github.com/lendhub/backend/internal/middleware"
	"github.com/lendhub/backend/internal/notifier"
	"github.com/lendhub/backend/internal/router"
	"github.com/lendhub/backend/internal/services"
	"github.com/lendhub/backend/internal/services/lifecycle"
	"github.com/lendhub/backend/pkg/httpcontext"
	"github.com/lendhub/backend/pkg/logger"
	"github.com/lendhub/backend/repository/postgres"
	redisRepo "github.com/lendhub/backend/repository/redis"
	identityUC "github.com/lendhub/backend/usecase/identity"
	membershipUC "github.com/lendhub/backend/usecase/membership"
	otpUC "github.com/lendhub/backend/usecase/otp"
	reservationUC "github.com/lendhub/backend/usecase/reservation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
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

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	outboxStore, err := outbox.Open(cfg.Outbox.Path, "reservations")
	if err != nil {
		zapLogger.Fatal("failed to open reservation outbox", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	mon := monitor.New(pool, redisClient, outboxStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	requestRepo := postgres.NewMembershipRequestRepository(pool)
	reservationRepo := postgres.NewReservationRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.Policy.SessionTTL)
	challengeRepo := redisRepo.NewChallengeRepository(redisClient)

	dispatcher := services.NewReservationDispatcher(
		outboxStore,
		mon,
		zapLogger,
		services.DispatcherConfig{
			LendingURL: cfg.Outbox.LendingURL,
			Interval:   cfg.Outbox.SyncInterval,
			BatchSize:  50,
			MaxRetries: cfg.Outbox.MaxRetry,
			Retention:  time.Duration(cfg.Outbox.RetentionHours) * time.Hour,
		},
	)
	dispatcher.Start()
	manager.Register("reservation_dispatcher", func(ctx context.Context) error {
		dispatcher.Stop(ctx)
		return nil
	})

	provider := identityProvider.NewProvider(pool, redisClient, zapLogger)
	emailGateway := notifier.NewEmailGateway(cfg.Notifier, zapLogger)

	factor := otpUC.New(challengeRepo, emailGateway, cfg.Policy.OTPTTL, cfg.Notifier.Timeout, zapLogger)
	gate := identityUC.New(userRepo, sessionRepo, provider, factor, cfg.Policy.AdminAllowlist, cfg.Policy.SessionTTL, zapLogger)
	membership := membershipUC.New(userRepo, requestRepo, zapLogger)
	reservations := reservationUC.New(reservationRepo, dispatcher, reservationUC.Policy{
		MaxActiveBorrows:   cfg.Policy.MaxActiveBorrows,
		MaxReservationDays: cfg.Policy.MaxReservationDays,
	}, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:        apiHandler.NewAuthHandler(gate, factor, provider, userRepo, ctxAdapter, zapLogger, cfg.JWT.Secret, cfg.JWT.Issuer),
		Membership:  apiHandler.NewMembershipHandler(membership, ctxAdapter, zapLogger),
		Reservation: apiHandler.NewReservationHandler(reservations, ctxAdapter, zapLogger),
		Health:      apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.SessionAuth(cfg.JWT.Secret, sessionRepo, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
