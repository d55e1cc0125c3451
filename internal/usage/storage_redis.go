package usage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps counters in hashes:
//
//	<prefix>usage:totals
//	<prefix>usage:daily:<yyyy-mm-dd>
//	<prefix>usage:hourly:<0-23>
type RedisStorage struct {
	client *redis.Client
	prefix string
}

func NewRedisStorage(addr, password string, db int, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = "photo-architect:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})
	return &RedisStorage{client: client, prefix: prefix}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *RedisStorage) key(parts ...string) string {
	return r.prefix + "usage:" + strings.Join(parts, ":")
}

// Add increments every counter of delta in one pipeline.
func (r *RedisStorage) Add(ctx context.Context, delta *Stats) error {
	if delta == nil || delta.empty() {
		return nil
	}
	pipe := r.client.TxPipeline()
	incr := func(key string, c Counters) {
		for field, v := range c.fields() {
			if v != 0 {
				pipe.HIncrBy(ctx, key, field, v)
			}
		}
	}
	incr(r.key("totals"), delta.Totals)
	for day, c := range delta.Daily {
		incr(r.key("daily", day), *c)
	}
	for hour, c := range delta.Hourly {
		incr(r.key("hourly", strconv.Itoa(hour)), *c)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStorage) Load(ctx context.Context) (*Stats, error) {
	out := NewStats()
	totals, err := r.readCounters(ctx, r.key("totals"))
	if err != nil {
		return nil, err
	}
	out.Totals = totals

	err = r.scan(ctx, r.key("daily", "*"), func(key, suffix string) error {
		c, err := r.readCounters(ctx, key)
		if err != nil {
			return err
		}
		out.Daily[suffix] = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = r.scan(ctx, r.key("hourly", "*"), func(key, suffix string) error {
		h, convErr := strconv.Atoi(suffix)
		if convErr != nil || h < 0 || h > 23 {
			return nil
		}
		c, err := r.readCounters(ctx, key)
		if err != nil {
			return err
		}
		out.Hourly[h] = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RedisStorage) scan(ctx context.Context, pattern string, fn func(key, suffix string) error) error {
	base := strings.TrimSuffix(pattern, "*")
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := fn(key, strings.TrimPrefix(key, base)); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (r *RedisStorage) readCounters(ctx context.Context, key string) (Counters, error) {
	var c Counters
	data, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return c, err
	}
	for field, raw := range data {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		c.set(field, v)
	}
	return c, nil
}
