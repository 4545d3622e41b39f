package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/parkbooking/api"
	"github.com/Domenick1991/parkbooking/config"
	"github.com/Domenick1991/parkbooking/internal/bootstrap"
	"github.com/Domenick1991/parkbooking/internal/cache"
	"github.com/Domenick1991/parkbooking/internal/events"
	"github.com/Domenick1991/parkbooking/internal/kafka"
	"github.com/Domenick1991/parkbooking/internal/logger"
	"github.com/Domenick1991/parkbooking/internal/rabbitmq"
	"github.com/Domenick1991/parkbooking/internal/repository"
	"github.com/Domenick1991/parkbooking/internal/service/availability"
	"github.com/Domenick1991/parkbooking/internal/service/booking"
	"github.com/Domenick1991/parkbooking/internal/service/spots"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type connectionChecker interface {
	CheckConnection(ctx context.Context) error
}

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.New(logger.Config{}).Fatal("Failed to load config", "path", cfgPath, "error", err)
	}

	log := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "parkbooking-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to postgres", "error", err)
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			log.Fatal("Failed to apply schema", "error", err)
		}
		log.Info("Database schema applied")
	}

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.SpotsCacheTTL, cfg.Booking.AvailabilityTTL)
	defer redisCache.Close()

	publisher, topic, closePublisher, err := newPublisher(cfg, log)
	if err != nil {
		log.Fatal("Failed to create event publisher", "broker", cfg.Events.Broker, "error", err)
	}
	defer closePublisher()

	spotRepo := repository.NewSpotRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	bookingOpts := []booking.BookingServiceOption{booking.WithCache(redisCache)}
	if publisher != nil {
		bookingOpts = append(bookingOpts, booking.WithProducer(publisher, topic))
	}
	bookingService := booking.NewBookingService(bookingRepo, spotRepo, userRepo, cfg.Booking.MaxDuration, log, bookingOpts...)
	spotService := spots.NewSpotService(spotRepo, redisCache, log)
	availabilityService := availability.NewAvailabilityService(spotRepo, bookingRepo, log, availability.WithCache(redisCache))

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(log,
		api.NewReservationHandler(bookingService),
		api.NewSpotHandler(spotService, availabilityService),
	)

	probe := func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if checker, ok := publisher.(connectionChecker); ok {
			if err := checker.CheckConnection(ctx); err != nil {
				return fmt.Errorf("event broker: %w", err)
			}
		}
		return nil
	}

	if err := bootstrap.Run(ctx, cfg, router, probe, log); err != nil {
		log.Fatal("Server error", "error", err)
	}
	log.Info("Server stopped")
}

// newPublisher returns the booking event publisher for the configured broker
// and the topic (or queue) it publishes to. The publisher is nil for the
// "none" broker.
func newPublisher(cfg *config.Config, log *logger.Logger) (events.Publisher, string, func(), error) {
	switch cfg.Events.Broker {
	case config.BrokerKafka:
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		return producer, cfg.Kafka.BookingEventsTopic, func() { _ = producer.Close() }, nil
	case config.BrokerRabbitMQ:
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, log)
		if err != nil {
			return nil, "", nil, err
		}
		return publisher, cfg.RabbitMQ.Queue, func() { _ = publisher.Close() }, nil
	default:
		log.Info("Booking events disabled")
		return nil, "", func() {}, nil
	}
}
