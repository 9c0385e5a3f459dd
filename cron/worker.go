package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"driftwell/config"
	"driftwell/models"
	"driftwell/services/booking"
	"driftwell/services/notification"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// InitBookingWorker runs the async worker in background: it delivers
// queued confirmation pushes and periodically sweeps expired slot holds.
func InitBookingWorker(engine booking.ReservationEngine, logger *zap.Logger) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeConfirmationSend, handleConfirmationTask(logger))

	// Reclaim abandoned-cart holds so slots don't starve.
	go runHoldSweeper(engine, logger)

	// Start async worker with retry logic.
	go func() {
		log.Println("[BookingWorker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[BookingWorker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[BookingWorker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleConfirmationTask(logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ConfirmationPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid confirmation payload", zap.Error(err))
			return err
		}
		return notification.SendConfirmationPush(ctx, p, logger)
	}
}

func runHoldSweeper(engine booking.ReservationEngine, logger *zap.Logger) {
	interval := config.HoldTTL() / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := engine.SweepExpired(ctx); err != nil {
			logger.Warn("hold sweep failed", zap.Error(err))
		}
		cancel()
	}
}
