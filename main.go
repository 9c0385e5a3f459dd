// File: driftwell/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"driftwell/config"
	"driftwell/cron"
	"driftwell/database"
	availabilityRepo "driftwell/database/repository/availability"
	bookingRepoPkg "driftwell/database/repository/bookingrepo"
	catalogRepo "driftwell/database/repository/catalog"
	ledgerRepoPkg "driftwell/database/repository/ledger"
	"driftwell/handlers"
	"driftwell/middleware"
	"driftwell/routes"
	"driftwell/services/booking"
	"driftwell/services/geo"
	"driftwell/services/ledger"
	"driftwell/services/notification"
	"driftwell/services/payment"
	"driftwell/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitSessionCache()
	utils.FirebaseInit()
	stripe.Key = config.AppConfig.StripeKey

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Repositories.
	availRepo := availabilityRepo.NewMongoAvailabilityRepo()
	bookingRepo := bookingRepoPkg.NewMongoBookingRepo()
	ledgerRepo := ledgerRepoPkg.NewMongoLedgerRepo()
	catRepo := catalogRepo.NewMongoCatalogRepo()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := availRepo.EnsureIndexes(ctx); err != nil {
			logger.Sugar().Fatalf("main: failed to ensure availability indexes: %v", err)
		}
		cancel()
	}

	// External collaborators.
	gateway := payment.NewStripeGateway(logger)
	setupFeeSvc := &geo.MapsSetupFeeService{
		APIKey:       config.AppConfig.GoogleAPIKey,
		DepotAddress: config.AppConfig.DepotAddress,
		Logger:       logger,
		BaseFeeCents: config.AppConfig.SetupBaseFeeCents,
		PerKmCents:   config.AppConfig.SetupPerKmCents,
		MaxFeeCents:  config.AppConfig.MaxSetupFeeCents,
	}
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	notifier := notification.NewAsynqNotifier(asynqClient, logger)

	// Services.
	ledgerService := &ledger.DefaultLedgerService{
		Repo:   ledgerRepo,
		Logger: logger,
	}
	reservationEngine := &booking.DefaultReservationEngine{
		Repo:    availRepo,
		Logger:  logger,
		HoldTTL: config.HoldTTL(),
	}
	bookingService := &booking.DefaultBookingService{
		Catalog:          catRepo,
		Engine:           reservationEngine,
		Bookings:         bookingRepo,
		Ledger:           ledgerService,
		Gateway:          gateway,
		SetupFee:         setupFeeSvc,
		Notifier:         notifier,
		Logger:           logger,
		Currency:         config.AppConfig.Currency,
		GatewayTimeout:   config.GatewayTimeout(),
		BusinessOpenMin:  config.AppConfig.BusinessOpenMin,
		BusinessCloseMin: config.AppConfig.BusinessCloseMin,
		AllowPromoBypass: config.AppConfig.AllowPromoBypass,
		MaxSetupFeeCents: config.AppConfig.MaxSetupFeeCents,
	}
	sessionService := &booking.DefaultBookingSessionService{
		Service:    bookingService,
		Engine:     reservationEngine,
		Logger:     logger,
		SessionTTL: config.SessionTTL(),
	}

	// Handlers.
	bookingHandler := handlers.NewBookingHandler(sessionService, bookingService)
	availabilityHandler := handlers.NewAvailabilityHandler(reservationEngine)
	creditHandler := handlers.NewCreditHandler(ledgerService)
	catalogHandler := handlers.NewCatalogHandler(catRepo)

	routes.SetupRoutes(router, bookingHandler, availabilityHandler, creditHandler, catalogHandler)

	// Background worker: confirmation pushes + expired-hold sweeps.
	cron.InitBookingWorker(reservationEngine, logger)
	utils.StartHealthMonitor([]*redis.Client{utils.GetSessionCacheClient()}, database.MongoClient)

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.AppPort,
		Handler: router,
	}

	go func() {
		logger.Sugar().Infof("main: listening on port %s", config.AppConfig.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: forced shutdown: %v", err)
	}
	asynqClient.Close()
}
