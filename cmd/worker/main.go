package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/roombooking/config"
	"github.com/Domenick1991/roombooking/internal/availability"
	"github.com/Domenick1991/roombooking/internal/cache"
	"github.com/Domenick1991/roombooking/internal/email"
	"github.com/Domenick1991/roombooking/internal/inventory"
	"github.com/Domenick1991/roombooking/internal/kafka"
	"github.com/Domenick1991/roombooking/internal/logger"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/Domenick1991/roombooking/internal/service/booking"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logg := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		logg.WithError(err).Fatal("open database")
	}
	defer db.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logg)
	defer producer.Close()
	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.RoomsCacheTTL())
	defer redisCache.Close()

	roomRepo := repository.NewRoomRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	bulkRepo := repository.NewBulkBookingRepository(db)

	// Expiry only releases counters, so the conflict scans never run here and
	// the Postgres bulk store is enough even when the app keeps bulk bookings in Mongo.
	bookingService := booking.NewBookingService(
		bookingRepo,
		roomRepo,
		availability.NewChecker(bookingRepo, bulkRepo),
		inventory.NewLedger(roomRepo, logg),
		producer,
		logg,
		cfg.Kafka.BookingTopic,
		cfg.Booking.HoldTTL(),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithCache(redisCache),
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logg)
	defer consumer.Close()

	emailSender := email.NewSender(logg)

	go func() {
		if err := consumer.Consume(ctx, emailSender.Send); err != nil {
			logg.WithError(err).Error("consumer stopped")
		}
	}()

	expireTicker := time.NewTicker(time.Duration(cfg.Worker.ExpirationSweepMinutes) * time.Minute)
	defer expireTicker.Stop()

	logg.WithField("topic", cfg.Kafka.NotificationsTopic).Info("worker started")
	for {
		select {
		case <-expireTicker.C:
			if _, err := bookingService.ExpirePendingBookings(ctx); err != nil {
				logg.WithError(err).Error("expire bookings")
			}
		case <-ctx.Done():
			logg.Info("shutting down worker")
			return
		}
	}
}
