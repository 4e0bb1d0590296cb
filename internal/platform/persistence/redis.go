package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/ledger-posting-engine/internal/config"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotObtained is returned when another process holds the lock
var ErrLockNotObtained = errors.New("lock is held by another process")

// ReleaseFunc releases a previously acquired lock
type ReleaseFunc func(ctx context.Context) error

// RedisDB wraps the redis client and a lock client built on it
type RedisDB struct {
	client *redis.Client
	locker *redislock.Client
	prefix string
	logger *slog.Logger
}

func NewRedisDB(ctx context.Context, logger *slog.Logger, cfg *config.RedisConfig) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	logger.Info("Connected to Redis", "addr", cfg.Address)

	return &RedisDB{
		client: client,
		locker: redislock.New(client),
		prefix: cfg.KeyPrefix,
		logger: logger,
	}, nil
}

// Acquire obtains an exclusive lock on key for ttl. It fails fast with
// ErrLockNotObtained when the lock is already held.
func (r *RedisDB) Acquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error) {
	lockKey := r.prefix + key
	lock, err := r.locker.Obtain(ctx, lockKey, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", lockKey, err)
	}

	r.logger.Debug("Lock obtained", "key", lockKey, "ttl", ttl.String())

	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("failed to release lock %s: %w", lockKey, err)
		}
		return nil
	}, nil
}

func (r *RedisDB) Client() *redis.Client {
	return r.client
}

func (r *RedisDB) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}
	r.logger.Info("Closed Redis connection")
	return nil
}
