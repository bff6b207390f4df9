package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the logtrail server.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Elasticsearch ElasticsearchConfig
	Session       SessionConfig
	Tail          TailConfig
}

type ServerConfig struct {
	Port            int
	Env             string
	RateLimitPerMin int
	ApplicationTTL  time.Duration
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type ElasticsearchConfig struct {
	URLs     []string
	Username string
	Password string
	Timeout  time.Duration
}

type SessionConfig struct {
	Secret     string
	CookieName string
}

type TailConfig struct {
	Source        string
	ChannelPrefix string
	Buffer        int
	Kafka         KafkaConfig
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	// GroupID prefixes the consumer group each process creates for itself.
	GroupID string
}

var validTailSources = map[string]bool{
	"redis": true,
	"kafka": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            envInt("LOGTRAIL_PORT", 8080),
			Env:             envString("LOGTRAIL_ENV", "development"),
			RateLimitPerMin: envInt("RATE_LIMIT_PER_MINUTE", 120),
			ApplicationTTL:  envDuration("APPLICATION_CACHE_TTL", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Elasticsearch: ElasticsearchConfig{
			URLs:     envList("ELASTICSEARCH_URLS"),
			Username: os.Getenv("ELASTICSEARCH_USERNAME"),
			Password: os.Getenv("ELASTICSEARCH_PASSWORD"),
			Timeout:  envDuration("ELASTICSEARCH_TIMEOUT", 30*time.Second),
		},
		Session: SessionConfig{
			Secret:     os.Getenv("SESSION_SECRET"),
			CookieName: envString("SESSION_COOKIE", "logtrail_session"),
		},
		Tail: TailConfig{
			Source:        envString("TAIL_SOURCE", "redis"),
			ChannelPrefix: envString("TAIL_REDIS_CHANNEL_PREFIX", "logtrail:trail:"),
			Buffer:        envInt("TAIL_BUFFER", 256),
			Kafka: KafkaConfig{
				Brokers: envList("KAFKA_BROKERS"),
				Topic:   os.Getenv("KAFKA_TOPIC"),
				GroupID: os.Getenv("KAFKA_GROUP_ID"),
			},
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if len(c.Elasticsearch.URLs) == 0 {
		return fmt.Errorf("ELASTICSEARCH_URLS is required")
	}
	for _, u := range c.Elasticsearch.URLs {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("ELASTICSEARCH_URLS entries must start with http:// or https://, got %q", u)
		}
	}

	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}

	if !validTailSources[c.Tail.Source] {
		return fmt.Errorf("TAIL_SOURCE must be one of redis, kafka; got %q", c.Tail.Source)
	}
	if c.Tail.Source == "kafka" {
		if len(c.Tail.Kafka.Brokers) == 0 || c.Tail.Kafka.Topic == "" || c.Tail.Kafka.GroupID == "" {
			return fmt.Errorf("KAFKA_BROKERS, KAFKA_TOPIC and KAFKA_GROUP_ID are required when TAIL_SOURCE is kafka")
		}
	}
	if c.Tail.Buffer <= 0 {
		return fmt.Errorf("TAIL_BUFFER must be positive, got %d", c.Tail.Buffer)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// envList splits a comma-separated variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
