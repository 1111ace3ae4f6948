package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Domenick1991/flightontime/config"
	"github.com/Domenick1991/flightontime/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ErrStaleHistory is returned by SetHistory when the listing was invalidated
// after the caller read its version.
var ErrStaleHistory = errors.New("history changed since version was read")

type RedisCache struct {
	client     *redis.Client
	historyTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		cfg.HistoryTTL(),
	)
}

func NewRedisCacheWithClient(client *redis.Client, historyTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, historyTTL: historyTTL}
}

// GetHistory returns nil, nil on a miss.
func (c *RedisCache) GetHistory(ctx context.Context) ([]domain.HistoryRecord, error) {
	data, err := c.client.Get(ctx, historyKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var records []domain.HistoryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// HistoryVersion returns the current listing version, 0 if none was written.
func (c *RedisCache) HistoryVersion(ctx context.Context) (int64, error) {
	return readVersion(ctx, c.client)
}

// SetHistory stores records only while the listing version still equals
// version, otherwise it returns ErrStaleHistory.
func (c *RedisCache) SetHistory(ctx context.Context, version int64, records []domain.HistoryRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return err
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readVersion(ctx, tx)
		if err != nil {
			return err
		}
		if current != version {
			return ErrStaleHistory
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, historyKey(), payload, c.historyTTL)
			return nil
		})
		return err
	}, versionKey())
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStaleHistory
	}
	return err
}

// InvalidateHistory drops the listing and bumps its version so that fills
// started before the call are rejected.
func (c *RedisCache) InvalidateHistory(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey())
		pipe.Del(ctx, historyKey())
		return nil
	})
	return err
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readVersion(ctx context.Context, cmd getter) (int64, error) {
	version, err := cmd.Get(ctx, versionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

func historyKey() string {
	return "cache:predictions:history"
}

func versionKey() string {
	return "cache:predictions:history:version"
}
