package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisSessionNamespace = "catalogo:session:"
	redisOpTimeout        = 5 * time.Second
)

// RedisStore keeps each admin session as a hash so sessions survive
// restarts and are shared by every server instance.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis connection string: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

// Get treats redis errors as a missing session; the admin signs in again.
func (s *RedisStore) Get(ctx context.Context, id string) (*Data, bool) {
	if id == "" {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	fields, err := s.rdb.HGetAll(ctx, redisSessionNamespace+id).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, false
	}
	return &Data{
		UID:       fields["uid"],
		Email:     fields["email"],
		Name:      fields["name"],
		CreatedAt: createdAt,
	}, true
}

// Set writes the hash and its expiry in one transaction.
func (s *RedisStore) Set(ctx context.Context, id string, data *Data, ttl time.Duration) error {
	if id == "" || data == nil {
		return fmt.Errorf("session id and data are required")
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	key := redisSessionNamespace + id
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"uid", data.UID,
			"email", data.Email,
			"name", data.Name,
			"created_at", strconv.FormatInt(data.CreatedAt, 10),
		)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) {
	if id == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	_ = s.rdb.Del(ctx, redisSessionNamespace+id).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
