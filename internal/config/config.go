package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	HTTP     HTTP     `yaml:"http" json:"http"`
	Redis    Redis    `yaml:"redis" json:"redis"`
	Postgres Postgres `yaml:"postgres" json:"postgres"`
	Upstream Upstream `yaml:"upstream" json:"upstream"`
	Store    Store    `yaml:"store" json:"store"`
	Queue    Queue    `yaml:"queue" json:"queue"`
	Gate     Gate     `yaml:"gate" json:"gate"`
	Clock    Clock    `yaml:"clock" json:"clock"`
	Push     Push     `yaml:"push" json:"push"`
	Log      Log      `yaml:"log" json:"log"`
	Tracing  Tracing  `yaml:"tracing" json:"tracing"`
}

type HTTP struct {
	Addr             string        `yaml:"addr" json:"addr" env:"HTTP_ADDR" env-default:":8080" validate:"required"`
	TLS              bool          `yaml:"tls" json:"tls" env:"HTTP_TLS" env-default:"false"`
	TLSKeyFile       string        `yaml:"tls_key_file" json:"tls_key_file" env:"HTTP_TLS_KEY_FILE" validate:"required_if=TLS true"`
	TLSCertFile      string        `yaml:"tls_cert_file" json:"tls_cert_file" env:"HTTP_TLS_CERT_FILE" validate:"required_if=TLS true"`
	TLSIntermediate  string        `yaml:"tls_intermediate_file" json:"tls_intermediate_file" env:"HTTP_TLS_INTERMEDIATE_FILE"`
	AllowedOrigins   []string      `yaml:"allowed_origins" json:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:","`
	SocketPath       string        `yaml:"socket_path" json:"socket_path" env:"HTTP_SOCKET_PATH" env-default:"/socket" validate:"startswith=/"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" json:"handshake_timeout" env:"HTTP_HANDSHAKE_TIMEOUT" env-default:"10s"`
	SendBuffer       int           `yaml:"send_buffer" json:"send_buffer" env:"HTTP_SEND_BUFFER" env-default:"64" validate:"gte=1"`
}

type Redis struct {
	Addr     string `yaml:"addr" json:"addr" env:"REDIS_ADDR" env-default:"localhost:6379" validate:"required"`
	Password string `yaml:"password" json:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" json:"db" env:"REDIS_DB" env-default:"0" validate:"gte=0"`
}

type Postgres struct {
	DSN string `yaml:"dsn" json:"dsn" env:"DATABASE_URL"`
}

type Upstream struct {
	Driver  string `yaml:"driver" json:"driver" env:"UPSTREAM_DRIVER" env-default:"redis" validate:"oneof=redis nats"`
	Channel string `yaml:"channel" json:"channel" env:"UPSTREAM_CHANNEL" env-default:"siteNotificationsChannel" validate:"required"`
	NATSURL string `yaml:"nats_url" json:"nats_url" env:"NATS_URL" validate:"required_if=Driver nats"`
}

type Store struct {
	Driver string `yaml:"driver" json:"driver" env:"STORE_DRIVER" env-default:"postgres" validate:"oneof=postgres memory"`

	// Sessions seeds the memory session store.
	Sessions []string `yaml:"sessions" json:"sessions" env:"STORE_SESSIONS" env-separator:","`
}

type Queue struct {
	Driver    string        `yaml:"driver" json:"driver" env:"QUEUE_DRIVER" env-default:"redis" validate:"oneof=redis memory"`
	KeyPrefix string        `yaml:"key_prefix" json:"key_prefix" env:"QUEUE_KEY_PREFIX" env-default:"notificationPayloads." validate:"required"`
	KeyTTL    time.Duration `yaml:"key_ttl" json:"key_ttl" env:"QUEUE_KEY_TTL" env-default:"600s"`
	MaxAge    time.Duration `yaml:"max_age" json:"max_age" env:"QUEUE_MAX_AGE" env-default:"600s"`
}

type Gate struct {
	Timeout time.Duration `yaml:"timeout" json:"timeout" env:"GATE_TIMEOUT" env-default:"3s"`
}

type Clock struct {
	Interval time.Duration `yaml:"interval" json:"interval" env:"CLOCK_INTERVAL" env-default:"5s"`
}

type Push struct {
	Enabled     bool          `yaml:"enabled" json:"enabled" env:"PUSH_ENABLED" env-default:"false"`
	APIKey      string        `yaml:"api_key" json:"api_key" env:"PUSH_API_KEY" validate:"required_if=Enabled true"`
	Endpoint    string        `yaml:"provider_endpoint" json:"provider_endpoint" env:"PUSH_PROVIDER_ENDPOINT" env-default:"https://android.googleapis.com/gcm/send" validate:"url"`
	Prefix      string        `yaml:"provider_prefix" json:"provider_prefix" env:"PUSH_PROVIDER_PREFIX" env-default:"https://android.googleapis.com/gcm/send/"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" env:"PUSH_TIMEOUT" env-default:"10s"`
	Concurrency int           `yaml:"concurrency" json:"concurrency" env:"PUSH_CONCURRENCY" env-default:"16" validate:"gte=1"`
}

type Log struct {
	Level string `yaml:"level" json:"level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
}

type Tracing struct {
	Endpoint    string `yaml:"otlp_endpoint" json:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `yaml:"service_name" json:"service_name" env:"OTEL_SERVICE_NAME" env-default:"siterelay"`
}

// Load reads path when given and then the environment, which wins.
func Load(path string) (*Config, error) {
	var cfg Config

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if c.Store.Driver == "postgres" && c.Postgres.DSN == "" {
		return fmt.Errorf("config validation: DATABASE_URL is required for the postgres store")
	}
	return nil
}
