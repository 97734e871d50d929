package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (hold window, sweep interval, etc.)
// -----------------------------------------------------------------------------

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Booking BookingConfig
	AMQP    AMQPConfig
	CORS    CORSConfig
	Log     LogConfig
	JWT     JWTConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

// BookingConfig carries the reservation-protocol knobs. SlotStep zero means
// "step by the service duration".
type BookingConfig struct {
	HoldWindow    time.Duration `envconfig:"BOOKING_HOLD_WINDOW" default:"10m"`
	SlotStep      time.Duration `envconfig:"BOOKING_SLOT_STEP" default:"0"`
	SweepInterval time.Duration `envconfig:"BOOKING_SWEEP_INTERVAL" default:"30s"`
	SweepBatch    int           `envconfig:"BOOKING_SWEEP_BATCH" default:"100"`
	RelayInterval time.Duration `envconfig:"BOOKING_RELAY_INTERVAL" default:"5s"`
	RelayBatch    int           `envconfig:"BOOKING_RELAY_BATCH" default:"200"`
}

type AMQPConfig struct {
	URL          string `envconfig:"AMQP_URL" required:"true"`
	Exchange     string `envconfig:"AMQP_EXCHANGE" default:"washbook.events"`
	PaymentQueue string `envconfig:"AMQP_PAYMENT_QUEUE" default:"washbook.payment-outcomes"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
}

type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET" required:"true"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889",
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433",
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Booking: BookingConfig{
			HoldWindow:    10 * time.Minute,
			SweepInterval: 30 * time.Second,
			SweepBatch:    100,
			RelayInterval: 5 * time.Second,
			RelayBatch:    200,
		},
		Log: LogConfig{
			Level:      "error",
			TimeFormat: "2006-01-02 15:04:05.000",
		},
	}
}
