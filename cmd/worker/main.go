package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/parkbooking/config"
	"github.com/Domenick1991/parkbooking/internal/audit"
	"github.com/Domenick1991/parkbooking/internal/kafka"
	"github.com/Domenick1991/parkbooking/internal/logger"
	"github.com/Domenick1991/parkbooking/internal/rabbitmq"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.New(logger.Config{}).Fatal("Failed to load config", "path", cfgPath, "error", err)
	}

	service := cfg.Worker.AuditService
	if service == "" {
		service = "parkbooking-worker"
	}
	log := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: service,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recorder := audit.NewRecorder(log)

	switch cfg.Events.Broker {
	case config.BrokerKafka:
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.BookingEventsTopic, log)
		defer consumer.Close()

		log.Info("Consuming booking events", "broker", "kafka", "topic", cfg.Kafka.BookingEventsTopic)
		if err := consumer.Consume(ctx, recorder.Record); err != nil {
			log.Error("Consumer stopped", "error", err)
		}
	case config.BrokerRabbitMQ:
		consumer := rabbitmq.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, log)

		log.Info("Consuming booking events", "broker", "rabbitmq", "queue", cfg.RabbitMQ.Queue)
		if err := consumer.Consume(ctx, recorder.Record); err != nil {
			log.Error("Consumer stopped", "error", err)
		}
	default:
		log.Info("Booking events disabled, nothing to consume")
		<-ctx.Done()
	}

	log.Info("Worker stopped")
}
