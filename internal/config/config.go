package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envFile = "config.env"

// GatewayConfig конфигурация rate-gateway
type GatewayConfig struct {
	HTTPPort    string `envconfig:"SERVER_PORT" default:"8081"`
	SwaggerHost string `envconfig:"SWAGGER_HOST" default:"localhost:8081"`
	Common      CommonConfig
	JWT         JWTConfig
}

// ForecastServerConfig конфигурация forecast-server
type ForecastServerConfig struct {
	HTTPPort       string `envconfig:"SERVER_PORT" default:"8082"`
	SwaggerHost    string `envconfig:"SWAGGER_HOST" default:"localhost:8082"`
	RateExpireHour int    `envconfig:"RATE_EXPIRE_HOUR" default:"12"`
	Common         CommonConfig
	Forecast       ForecastConfig
	Kafka          KafkaConfig
}

// TrainingConfig конфигурация training-batch
type TrainingConfig struct {
	CronSchedule          string  `envconfig:"CRON_SCHEDULE"`
	TrainingCount         int     `envconfig:"TRAINING_COUNT" default:"20"`
	PopulationSize        int     `envconfig:"TRAINING_POPULATION_SIZE" default:"10"`
	RequiredCount         int     `envconfig:"TRAINING_DATA_REQUIRED_COUNT" default:"100"`
	RangeHour             int     `envconfig:"TRAINING_DATA_RANGE_HOUR" default:"120"`
	Stride                int     `envconfig:"TRAINING_DATA_STRIDE" default:"5"`
	TestRatio             float64 `envconfig:"TRAINING_TEST_RATIO" default:"0.2"`
	ModelNo               int     `envconfig:"FORECAST_MODEL_NO" default:"1"`
	CopyToModelNo         int     `envconfig:"TRAINING_COPY_TO_MODEL_NO" default:"0"`
	ForecastInputSize     int     `envconfig:"FORECAST_INPUT_SIZE" default:"60"`
	ForecastOffsetMinutes int     `envconfig:"FORECAST_OFFSET_MINUTES" default:"30"`
	Common                CommonConfig
}

// ForecastBatchConfig конфигурация forecast-batch
type ForecastBatchConfig struct {
	CronSchedule string `envconfig:"CRON_SCHEDULE"`
	Common       CommonConfig
	Forecast     ForecastConfig
	Kafka        KafkaConfig
}

// DataCleanConfig конфигурация data-clean-batch
type DataCleanConfig struct {
	CronSchedule    string `envconfig:"CRON_SCHEDULE"`
	ExpireDateCount int    `envconfig:"EXPIRE_DATE_COUNT" default:"7"`
	Common          CommonConfig
}

type CommonConfig struct {
	CurrencyPair   string `envconfig:"CURRENCY_PAIR" default:"USDJPY"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"migrations"`
	LogFile        string `envconfig:"LOG_FILE"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	DB             DBConfig
}

type DBConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"     required:"true"`
	Port     string `envconfig:"POSTGRES_PORT"     required:"true"`
	User     string `envconfig:"POSTGRES_USER"     required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName   string `envconfig:"POSTGRES_DB"       required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE"  default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"20"`
}

// JWTConfig пустой секрет отключает проверку токена
type JWTConfig struct {
	Secret string `envconfig:"GATEWAY_JWT_SECRET"`
}

type ForecastConfig struct {
	Mode      string        `envconfig:"FORECAST_MODE" default:"async"`
	Workers   int           `envconfig:"FORECAST_WORKERS" default:"4"`
	QueueSize int           `envconfig:"FORECAST_QUEUE_SIZE" default:"100"`
	Timeout   time.Duration `envconfig:"FORECAST_TIMEOUT" default:"10s"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"forecast-events"`
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
}

func NewGatewayConfig() (*GatewayConfig, error) {
	var cfg GatewayConfig
	if err := load(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func NewForecastServerConfig() (*ForecastServerConfig, error) {
	var cfg ForecastServerConfig
	if err := load(&cfg); err != nil {
		return nil, err
	}
	if cfg.RateExpireHour <= 0 {
		return nil, fmt.Errorf("RATE_EXPIRE_HOUR должен быть положительным, получено %d", cfg.RateExpireHour)
	}
	if err := cfg.Forecast.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func NewTrainingConfig() (*TrainingConfig, error) {
	var cfg TrainingConfig
	if err := load(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func NewForecastBatchConfig() (*ForecastBatchConfig, error) {
	var cfg ForecastBatchConfig
	if err := load(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Forecast.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func NewDataCleanConfig() (*DataCleanConfig, error) {
	var cfg DataCleanConfig
	if err := load(&cfg); err != nil {
		return nil, err
	}
	if cfg.ExpireDateCount < 0 {
		return nil, fmt.Errorf("EXPIRE_DATE_COUNT не может быть отрицательным, получено %d", cfg.ExpireDateCount)
	}
	return &cfg, nil
}

func load(cfg any) error {
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("warning: не удалось загрузить файл %s, используются только системные переменные окружения: %v", envFile, err)
	}

	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("ошибка парсинга конфигурации: %w", err)
	}
	return nil
}

func (c *TrainingConfig) validate() error {
	switch {
	case c.ForecastInputSize < 6:
		return fmt.Errorf("FORECAST_INPUT_SIZE должен быть не меньше 6, получено %d", c.ForecastInputSize)
	case c.ForecastOffsetMinutes <= 0:
		return fmt.Errorf("FORECAST_OFFSET_MINUTES должен быть положительным, получено %d", c.ForecastOffsetMinutes)
	case c.Stride <= 0:
		return fmt.Errorf("TRAINING_DATA_STRIDE должен быть положительным, получено %d", c.Stride)
	case c.TestRatio <= 0 || c.TestRatio >= 1:
		return fmt.Errorf("TRAINING_TEST_RATIO должен быть в интервале (0, 1), получено %v", c.TestRatio)
	case c.TrainingCount <= 0:
		return fmt.Errorf("TRAINING_COUNT должен быть положительным, получено %d", c.TrainingCount)
	case c.PopulationSize < 2:
		return fmt.Errorf("TRAINING_POPULATION_SIZE должен быть не меньше 2, получено %d", c.PopulationSize)
	case c.RangeHour <= 0:
		return fmt.Errorf("TRAINING_DATA_RANGE_HOUR должен быть положительным, получено %d", c.RangeHour)
	}
	return nil
}

func (c *ForecastConfig) validate() error {
	if c.Mode != ForecastModeAsync && c.Mode != ForecastModeSync {
		return fmt.Errorf("FORECAST_MODE должен быть %q или %q, получено %q", ForecastModeAsync, ForecastModeSync, c.Mode)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("FORECAST_TIMEOUT должен быть положительным, получено %s", c.Timeout)
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("FORECAST_QUEUE_SIZE не может быть отрицательным, получено %d", c.QueueSize)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return nil
}

const (
	ForecastModeAsync = "async"
	ForecastModeSync  = "sync"
)

func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}
func (d *DBConfig) MigrationURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}
