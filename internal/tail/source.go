package tail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/logtrail/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// Source feeds ingestion notifications into a Hub until ctx is cancelled.
type Source interface {
	Run(ctx context.Context, hub *Hub) error
}

// --- Redis ---

// RedisSource listens on the pub/sub channels <prefix><applicationId>.
type RedisSource struct {
	client *redis.Client
	prefix string
}

// NewRedisSource creates a RedisSource sharing client's connection pool.
func NewRedisSource(client *redis.Client, prefix string) *RedisSource {
	return &RedisSource{client: client, prefix: prefix}
}

func (s *RedisSource) Run(ctx context.Context, hub *Hub) error {
	pubsub := s.client.PSubscribe(ctx, s.prefix+"*")
	defer pubsub.Close()

	// Wait for the subscription to be confirmed so failures surface here.
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s*: %w", s.prefix, err)
	}
	slog.Info("live tail source started", "source", "redis", "pattern", s.prefix+"*")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.handle(hub, msg)
		}
	}
}

func (s *RedisSource) handle(hub *Hub, msg *redis.Message) {
	hint := strings.TrimPrefix(msg.Channel, s.prefix)
	appID, rec, err := decodeNotification(hint, []byte(msg.Payload))
	if err != nil {
		slog.Warn("discarding tail notification", "channel", msg.Channel, "error", err)
		return
	}
	hub.Publish(appID, rec)
}

// --- Kafka ---

// KafkaSource reads a topic whose message key is the application id and
// whose value is the record.
type KafkaSource struct {
	cfg kafka.ReaderConfig
}

// NewKafkaSource creates a source reading from the newest offset. Every
// process joins its own consumer group, derived from cfg.GroupID, so each
// replica sees every partition and a fresh process never replays.
func NewKafkaSource(cfg config.KafkaConfig) (*KafkaSource, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		return nil, errors.New("incomplete kafka configuration: brokers, topic, group_id are all required")
	}

	return &KafkaSource{cfg: kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        processGroupID(cfg.GroupID),
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        500 * time.Millisecond,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	}}, nil
}

// processGroupID suffixes prefix with the host name and a random tag.
func processGroupID(prefix string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "logtrail"
	}
	return fmt.Sprintf("%s-%s-%s", prefix, host, uuid.NewString()[:8])
}

func (s *KafkaSource) Run(ctx context.Context, hub *Hub) error {
	reader := kafka.NewReader(s.cfg)
	defer reader.Close()
	slog.Info("live tail source started", "source", "kafka", "topic", s.cfg.Topic, "group_id", s.cfg.GroupID)

	for {
		m, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read kafka message: %w", err)
		}
		s.handle(hub, m)
	}
}

func (s *KafkaSource) handle(hub *Hub, m kafka.Message) {
	appID, rec, err := decodeNotification(string(m.Key), m.Value)
	if err != nil {
		slog.Warn("discarding tail notification",
			"topic", m.Topic,
			"partition", m.Partition,
			"offset", m.Offset,
			"error", err,
		)
		return
	}
	hub.Publish(appID, rec)
}

// NewSource picks the source named by cfg.Source.
func NewSource(cfg config.TailConfig, client *redis.Client) (Source, error) {
	switch cfg.Source {
	case "kafka":
		return NewKafkaSource(cfg.Kafka)
	case "redis", "":
		return NewRedisSource(client, cfg.ChannelPrefix), nil
	default:
		return nil, fmt.Errorf("unknown tail source %q", cfg.Source)
	}
}

// --- Supervision ---

var errSourceStopped = errors.New("live tail source stopped")

// DefaultBackOff retries forever, from half a second up to thirty seconds.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Supervise runs src until ctx ends, restarting it after b's delay whenever
// it fails or stops on its own. A run that stayed up for a minute resets b.
func Supervise(ctx context.Context, src Source, hub *Hub, b backoff.BackOff) {
	op := func() error {
		started := time.Now()
		err := src.Run(ctx, hub)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if err == nil {
			err = errSourceStopped
		}
		if time.Since(started) > time.Minute {
			b.Reset()
		}
		return err
	}

	_ = backoff.RetryNotify(op, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		slog.Error("live tail source failed, restarting", "error", err, "retry_in", next)
	})
}

var (
	_ Source = (*RedisSource)(nil)
	_ Source = (*KafkaSource)(nil)
)
