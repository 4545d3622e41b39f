package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxBookingDuration = 24 * time.Hour
	DefaultSpotsCacheTTL      = 60 * time.Second
	DefaultAvailabilityTTL    = 15 * time.Second

	BrokerKafka    = "kafka"
	BrokerRabbitMQ = "rabbitmq"
	BrokerNone     = "none"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Events   EventsConfig   `yaml:"events"`
	Booking  BookingConfig  `yaml:"booking"`
	Log      LogConfig      `yaml:"log"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address         string        `yaml:"address"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	Migrate  bool   `yaml:"migrate"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	GroupID            string   `yaml:"group_id"`
}

type RabbitMQConfig struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

type EventsConfig struct {
	Broker string `yaml:"broker"`
}

type BookingConfig struct {
	MaxDuration     time.Duration `yaml:"max_duration"`
	SpotsCacheTTL   time.Duration `yaml:"spots_cache_ttl"`
	AvailabilityTTL time.Duration `yaml:"availability_cache_ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type WorkerConfig struct {
	AuditService string `yaml:"audit_service"`
}

// LoadConfig reads the YAML file at path, then applies .env and environment
// overrides and defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	// .env is optional
	_ = godotenv.Load()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	if v, ok := lookup("HTTP_ADDRESS"); ok && v != "" {
		c.HTTP.Address = v
	}
	if v, ok := lookup("GRPC_ADDRESS"); ok && v != "" {
		c.GRPC.Address = v
	}
	if v, ok := lookup("DB_HOST"); ok && v != "" {
		c.Database.Host = v
	}
	if v, ok := lookup("DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT %q: %w", v, err)
		}
		c.Database.Port = port
	}
	if v, ok := lookup("DB_USER"); ok && v != "" {
		c.Database.User = v
	}
	if v, ok := lookup("DB_PASSWORD"); ok {
		c.Database.Password = v
	}
	if v, ok := lookup("DB_NAME"); ok && v != "" {
		c.Database.Name = v
	}
	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		c.Redis.Addr = v
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v, ok := lookup("RABBITMQ_URL"); ok && v != "" {
		c.RabbitMQ.URL = v
	}
	if v, ok := lookup("EVENTS_BROKER"); ok && v != "" {
		c.Events.Broker = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("BOOKING_MAX_DURATION"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid BOOKING_MAX_DURATION %q: %w", v, err)
		}
		c.Booking.MaxDuration = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Booking.MaxDuration == 0 {
		c.Booking.MaxDuration = DefaultMaxBookingDuration
	}
	if c.Booking.SpotsCacheTTL == 0 {
		c.Booking.SpotsCacheTTL = DefaultSpotsCacheTTL
	}
	if c.Booking.AvailabilityTTL == 0 {
		c.Booking.AvailabilityTTL = DefaultAvailabilityTTL
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 5 * time.Second
	}
	if c.Events.Broker == "" {
		c.Events.Broker = BrokerKafka
	}
	if c.RabbitMQ.Queue == "" {
		c.RabbitMQ.Queue = "booking.events"
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Booking.MaxDuration <= 0 {
		errs = append(errs, fmt.Errorf("booking.max_duration must be positive, got %s", c.Booking.MaxDuration))
	}
	switch c.Events.Broker {
	case BrokerKafka:
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka.brokers is required when events.broker is kafka"))
		}
	case BrokerRabbitMQ:
		if c.RabbitMQ.URL == "" {
			errs = append(errs, errors.New("rabbitmq.url is required when events.broker is rabbitmq"))
		}
	case BrokerNone:
	default:
		errs = append(errs, fmt.Errorf("unknown events.broker %q", c.Events.Broker))
	}
	return errors.Join(errs...)
}
