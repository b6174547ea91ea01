package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	// HTTP
	HTTPPort    string
	CORSOrigins []string

	// Simulation
	TickInterval time.Duration
	Seed         int64
	RoutesFile   string

	// Logging
	LogLevel  string
	LogFormat string

	// Auth
	AuthEnabled          bool
	JWTSecret            string
	JWTExpiry            time.Duration
	OperatorUsername     string
	OperatorPasswordHash string
	OperatorPassword     string
	RateLimitRequests    int
	RateLimitWindowSecs  int

	// MQTT
	MQTTBrokerURL   string
	MQTTTopicPrefix string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MongoDB
	MongoURI        string
	MongoDB         string
	MongoCollection string

	// Webhook
	WebhookURL   string
	WebhookToken string

	// Sinks
	SinkQueueSize int
	SinkTimeout   time.Duration

	// Headless simulator
	SimDuration    time.Duration
	SimReportEvery int
}

// LoadDotEnv loads variables from a .env file if one exists. Variables already set in the
// environment win.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func Load() *Config {
	return &Config{
		HTTPPort:             getEnv("HTTP_PORT", "8000"),
		CORSOrigins:          splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		TickInterval:         getEnvDuration("TICK_INTERVAL", time.Second),
		Seed:                 int64(getEnvInt("SIM_SEED", int(time.Now().UnixNano()%1_000_000))),
		RoutesFile:           getEnv("ROUTES_FILE", ""),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
		AuthEnabled:          getEnvBool("AUTH_ENABLED", false),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		JWTExpiry:            getEnvDuration("JWT_EXPIRY", 24*time.Hour),
		OperatorUsername:     getEnv("OPERATOR_USERNAME", ""),
		OperatorPasswordHash: getEnv("OPERATOR_PASSWORD_HASH", ""),
		OperatorPassword:     getEnv("OPERATOR_PASSWORD", ""),
		RateLimitRequests:    getEnvInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindowSecs:  getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		MQTTBrokerURL:        getEnv("MQTT_BROKER_URL", ""),
		MQTTTopicPrefix:      getEnv("MQTT_TOPIC_PREFIX", "metro"),
		MQTTClientID:         getEnv("MQTT_CLIENT_ID", "metro-telemetry"),
		MQTTUsername:         getEnv("MQTT_USERNAME", ""),
		MQTTPassword:         getEnv("MQTT_PASSWORD", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		MongoURI:             getEnv("MONGO_URI", ""),
		MongoDB:              getEnv("MONGO_DB", "metro"),
		MongoCollection:      getEnv("MONGO_COLLECTION", "vehicle_states"),
		WebhookURL:           getEnv("WEBHOOK_URL", ""),
		WebhookToken:         getEnv("WEBHOOK_TOKEN", ""),
		SinkQueueSize:        getEnvInt("SINK_QUEUE_SIZE", 8),
		SinkTimeout:          getEnvDuration("SINK_TIMEOUT", 5*time.Second),
		SimDuration:          getEnvDuration("SIM_DURATION", 0),
		SimReportEvery:       getEnvInt("SIM_REPORT_EVERY", 30),
	}
}

// Validate reports settings that make startup impossible.
func (c *Config) Validate() error {
	if c.TickInterval <= 0 {
		return errors.New("TICK_INTERVAL must be positive")
	}
	if c.AuthEnabled {
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET is required when AUTH_ENABLED is set")
		}
		if c.OperatorUsername == "" && c.MongoURI == "" {
			return errors.New("OPERATOR_USERNAME or MONGO_URI is required when AUTH_ENABLED is set")
		}
	}
	return nil
}

// ConfigureLogging applies LOG_LEVEL and LOG_FORMAT to the standard logrus logger.
func ConfigureLogging(c *Config) {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("level", c.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// getEnvDuration accepts Go durations ("500ms") or plain seconds ("2").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
