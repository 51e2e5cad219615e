package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/roombooking/api"
	"github.com/Domenick1991/roombooking/config"
	"github.com/Domenick1991/roombooking/internal/api/availability_grpc"
	"github.com/Domenick1991/roombooking/internal/availability"
	"github.com/Domenick1991/roombooking/internal/bootstrap"
	"github.com/Domenick1991/roombooking/internal/cache"
	"github.com/Domenick1991/roombooking/internal/inventory"
	"github.com/Domenick1991/roombooking/internal/kafka"
	"github.com/Domenick1991/roombooking/internal/logger"
	"github.com/Domenick1991/roombooking/internal/ratelimit"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/Domenick1991/roombooking/internal/repository/mongostore"
	"github.com/Domenick1991/roombooking/internal/service/booking"
	"github.com/Domenick1991/roombooking/internal/service/bulkbooking"
	"github.com/Domenick1991/roombooking/internal/service/rooms"
	"github.com/gin-gonic/gin"
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

	roomRepo := repository.NewRoomRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	bulkRepo := repository.NewBulkBookingRepository(db)

	if cfg.Storage.BulkBookings == config.StorageMongo {
		client, err := mongostore.Connect(ctx, cfg.Mongo)
		if err != nil {
			logg.WithError(err).Fatal("connect mongo")
		}
		defer client.Disconnect(context.Background())

		mongoRepo := mongostore.NewBulkBookingRepository(client.Database(cfg.Mongo.Database))
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			logg.WithError(err).Fatal("create bulk booking indexes")
		}
		bulkRepo = mongoRepo
	}

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.RoomsCacheTTL())
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		logg.WithError(err).Warn("redis unreachable, room cache and locks will fail until it recovers")
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logg)
	defer producer.Close()

	checker := availability.NewChecker(bookingRepo, bulkRepo)
	ledger := inventory.NewLedger(roomRepo, logg)

	roomService := rooms.NewRoomService(roomRepo, checker, redisCache, logg,
		rooms.WithDefaultDiscounts(cfg.Booking.DefaultDiscountTiers),
	)
	bookingService := booking.NewBookingService(
		bookingRepo,
		roomRepo,
		checker,
		ledger,
		producer,
		logg,
		cfg.Kafka.BookingTopic,
		cfg.Booking.HoldTTL(),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithCache(redisCache),
	)
	bulkService := bulkbooking.NewBulkBookingService(
		bulkRepo,
		roomRepo,
		checker,
		ledger,
		producer,
		logg,
		cfg.Kafka.BookingTopic,
		bulkbooking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		bulkbooking.WithCache(redisCache),
		bulkbooking.WithLocker(redisCache, cfg.Booking.LockTTL()),
		bulkbooking.WithDefaultDiscounts(cfg.Booking.DefaultDiscountTiers),
	)

	limiter := ratelimit.New(cfg.RateLimit)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.Sweep()
			case <-ctx.Done():
				return
			}
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(cfg.HTTP, logg, api.Handlers{
		Rooms:        api.NewRoomHandler(roomService),
		Bookings:     api.NewBookingHandler(bookingService),
		BulkBookings: api.NewBulkBookingHandler(bulkService),
	}, limiter.Middleware())

	if err := bootstrap.Run(ctx, cfg, logg, router, availability_grpc.NewServer(roomRepo, checker)); err != nil {
		logg.WithError(err).Fatal("server error")
	}
}
