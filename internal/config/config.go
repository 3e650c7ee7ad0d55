package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"catat-worker/internal/common/config"
)

// Config catat-worker settings, read once from the environment
type Config struct {
	Database  config.DatabaseConfig
	Redis     config.RedisConfig
	MQTT      config.MQTTConfig
	DBEnabled bool

	RedisEnabled bool

	HTTP struct {
		Addr string
	}

	Log struct {
		Level  string
		Format string
	}

	// Location time zone for transaction dates and month sheets
	Location *time.Location
	// AdminPhone the operator allowed to run admin commands
	AdminPhone string

	Streams struct {
		Enabled       bool
		Inbound       string
		Outbound      string
		ConsumerGroup string
		ConsumerName  string
		BatchSize     int
	}

	MQTTBridge struct {
		Enabled       bool
		InboundTopic  string
		OutboundTopic string
	}

	Classifier struct {
		MetalText    string
		MetalImage   string
		ExpenseText  string
		ExpenseImage string
		Timeout      time.Duration
	}

	Ledger struct {
		Dir string
	}

	GoldPriceFile    string
	UndoTTL          time.Duration
	ContextTTL       time.Duration
	SubscriptionDays int
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":3002")
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	tz := getEnv("TZ_NAME", "Asia/Jakarta")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TZ_NAME %q: %w", tz, err)
	}
	cfg.Location = loc
	cfg.AdminPhone = getEnv("ADMIN_PHONE_NUMBER", "")

	cfg.DBEnabled = getEnvBool("DB_ENABLED", true)
	cfg.Database = config.DatabaseConfig{
		Host:        "localhost",
		Port:        5432,
		User:        "postgres",
		Password:    "postgres",
		Database:    "catat",
		SSLMode:     "disable",
		MaxConns:    4,
		MaxIdle:     2,
		MaxIdleTime: 5 * time.Minute,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.RedisEnabled = getEnvBool("REDIS_ENABLED", true)
	cfg.Redis = config.RedisConfig{Addr: "localhost:6379", PoolSize: 8}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.Streams.Enabled = getEnvBool("STREAMS_ENABLED", false)
	cfg.Streams.Inbound = getEnv("STREAM_INBOUND", "catat:inbound")
	cfg.Streams.Outbound = getEnv("STREAM_OUTBOUND", "catat:outbound")
	cfg.Streams.ConsumerGroup = getEnv("CONSUMER_GROUP", "catat-worker-group")
	cfg.Streams.ConsumerName = getEnv("CONSUMER_NAME", "catat-worker-1")
	cfg.Streams.BatchSize = getEnvInt("STREAM_BATCH_SIZE", 10)

	cfg.MQTTBridge.Enabled = getEnvBool("MQTT_ENABLED", false)
	cfg.MQTT = config.MQTTConfig{Broker: "tcp://localhost:1883", ClientID: "catat-worker", QoS: 1}
	cfg.MQTT.LoadFromEnv("MQTT")
	cfg.MQTTBridge.InboundTopic = getEnv("MQTT_INBOUND_TOPIC", "catat/inbound")
	cfg.MQTTBridge.OutboundTopic = getEnv("MQTT_OUTBOUND_TOPIC", "catat/outbound")

	cfg.Classifier.MetalText = getEnv("AI_ENDPOINT_LM", "http://localhost:8000/process_text_lm")
	cfg.Classifier.MetalImage = getEnv("AI_IMAGE_ENDPOINT_LM", "http://localhost:8000/process_image_lm")
	cfg.Classifier.ExpenseText = getEnv("AI_ENDPOINT_KEUANGAN", "http://localhost:8000/process_expense_keuangan")
	cfg.Classifier.ExpenseImage = getEnv("AI_IMAGE_ENDPOINT_KEUANGAN", "http://localhost:8000/process_image_expense_keuangan")
	cfg.Classifier.Timeout = time.Duration(getEnvInt("AI_TIMEOUT_SECONDS", 30)) * time.Second

	cfg.Ledger.Dir = getEnv("LEDGER_DIR", "./ledgers")
	cfg.GoldPriceFile = getEnv("GOLD_PRICE_FILE", "")
	cfg.UndoTTL = time.Duration(getEnvInt("UNDO_TTL_SECONDS", 86400)) * time.Second
	cfg.ContextTTL = time.Duration(getEnvInt("CONTEXT_TTL_SECONDS", 600)) * time.Second
	cfg.SubscriptionDays = getEnvInt("SUBSCRIPTION_DAYS", 30)

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt falls back to defaultValue for missing, malformed or non-positive values
func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
