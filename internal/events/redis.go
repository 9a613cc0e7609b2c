package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/talentmap/bidding-api/internal/config"
	"go.uber.org/zap"
)

// RedisPublisher publishes events on one Redis pub/sub channel per position
type RedisPublisher struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisClient creates a Redis client from configuration
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MaxRetries:   3,
	})
}

// NewRedisPublisher connects to Redis and verifies the connection
func NewRedisPublisher(cfg *config.RedisConfig, logger *zap.Logger) (*RedisPublisher, error) {
	client := NewRedisClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisPublisher{
		client: client,
		prefix: cfg.ChannelPrefix,
		logger: logger.With(zap.String("component", "redis_publisher")),
	}, nil
}

// ChannelName returns the channel carrying events for a position
func ChannelName(prefix string, cpID int64) string {
	if prefix == "" {
		return fmt.Sprintf("position:%d", cpID)
	}
	return fmt.Sprintf("%s:position:%d", prefix, cpID)
}

// Publish marshals the event and publishes it on the position channel
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := ChannelName(p.prefix, event.CpID)
	result := p.client.Publish(ctx, channel, payload)
	if err := result.Err(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Debug("published event",
		zap.String("channel", channel),
		zap.String("event_type", event.Type),
		zap.Int64("subscriber_count", result.Val()),
	)
	return nil
}

// HealthCheck pings Redis
func (p *RedisPublisher) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
