package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisMetadataStore implements MetadataStore on Redis hashes, one hash per
// document under MetaKeyFor(id).
type RedisMetadataStore struct {
	client *redis.Client
}

// NewRedisMetadataStore wraps an existing Redis client. The caller owns the
// client's lifecycle.
func NewRedisMetadataStore(client *redis.Client) *RedisMetadataStore {
	return &RedisMetadataStore{client: client}
}

// Get returns the record for a document ID, or ErrNotFound.
func (s *RedisMetadataStore) Get(ctx context.Context, documentID string) (*DocumentRecord, error) {
	fields, err := s.client.HGetAll(ctx, MetaKeyFor(documentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", documentID, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return RecordFromFields(fields), nil
}

// MergeUpdate sets the given fields and stamps updated_at.
func (s *RedisMetadataStore) MergeUpdate(ctx context.Context, documentID string, fields map[string]string) error {
	values := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		values[k] = v
	}
	values[FieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.client.HSet(ctx, MetaKeyFor(documentID), values).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", documentID, err)
	}
	return nil
}

// List scans the metadata keyspace and returns every record.
func (s *RedisMetadataStore) List(ctx context.Context) ([]*DocumentRecord, error) {
	var records []*DocumentRecord

	iter := s.client.Scan(ctx, 0, MetaKeyFor("*"), 100).Iterator()
	for iter.Next(ctx) {
		fields, err := s.client.HGetAll(ctx, iter.Val()).Result()
		if err != nil {
			return nil, fmt.Errorf("hgetall %s: %w", iter.Val(), err)
		}
		if len(fields) > 0 {
			records = append(records, RecordFromFields(fields))
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan metadata keys: %w", err)
	}

	return records, nil
}

// RedisBinaryStore implements BinaryStore on plain Redis keys under
// BinKeyFor(id).
type RedisBinaryStore struct {
	client *redis.Client
}

// NewRedisBinaryStore wraps an existing Redis client.
func NewRedisBinaryStore(client *redis.Client) *RedisBinaryStore {
	return &RedisBinaryStore{client: client}
}

// Put stores the document bytes. Blobs do not expire here; garbage
// collection after completion is external policy.
func (s *RedisBinaryStore) Put(ctx context.Context, documentID string, data []byte) error {
	if err := s.client.Set(ctx, BinKeyFor(documentID), data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", documentID, err)
	}
	return nil
}

// Get returns the document bytes, or ErrNotFound.
func (s *RedisBinaryStore) Get(ctx context.Context, documentID string) ([]byte, error) {
	data, err := s.client.Get(ctx, BinKeyFor(documentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", documentID, err)
	}
	return data, nil
}

// NewRedisClient creates the shared Redis handle used by the channel and
// both stores. Constructed once at process start, passed to every component
// that needs it, closed on shutdown.
func NewRedisClient(addr, password string, db, poolSize int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}
