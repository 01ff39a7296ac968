// Package cache adaptadores de caché para los reportes (Redis).
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Farmacia-api/internal/application/ports"
)

const (
	// DefaultPrefix prefijo de todas las claves de reportes.
	DefaultPrefix = "farmacia:report:"
	scanBatchSize = 100
)

// RedisConfig conexión al servidor Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisReportCache implementa ports.ReportCache sobre Redis. Los valores se guardan en JSON.
type RedisReportCache struct {
	client *redis.Client
	prefix string
}

var _ ports.ReportCache = (*RedisReportCache)(nil)

// NewRedisClient abre el cliente y verifica la conexión con PING.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: conectar redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewRedisReportCache usa un cliente existente; el caller conserva su propiedad.
func NewRedisReportCache(client *redis.Client, prefix string) *RedisReportCache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisReportCache{client: client, prefix: prefix}
}

func (c *RedisReportCache) key(k string) string {
	return c.prefix + k
}

// Get carga el valor en dst. Una entrada corrupta se borra y cuenta como ausente.
func (c *RedisReportCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		_ = c.client.Del(ctx, c.key(key)).Err()
		return false, nil
	}
	return true, nil
}

// Set guarda value serializado en JSON con vencimiento ttl (0 = sin vencimiento).
func (c *RedisReportCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: serializar %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}

// Invalidate borra por SCAN todas las claves con el prefijo.
func (c *RedisReportCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("cache: scan: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache: del: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
