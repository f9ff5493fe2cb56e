package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session — снимок сессионного состояния аккаунта, который мы храним в Redis.
// Ключ — ID аккаунта: сессия на аккаунт ровно одна, поэтому новая запись
// по тому же ключу автоматически вытесняет прежнюю.
type Session struct {
	RefreshTokenHash string
	Email            string
	Role             string
	Active           bool
}

// SessionCache — минимальный контракт кэша сессий.
type SessionCache interface {
	// Get возвращает снимок сессии и признак его наличия в кэше.
	Get(ctx context.Context, id uuid.UUID) (*Session, bool, error)
	// Set сохраняет снимок с TTL (обычно TTL refresh-токена).
	Set(ctx context.Context, id uuid.UUID, s *Session, ttl time.Duration) error
	// Delete удаляет снимок (logout).
	Delete(ctx context.Context, id uuid.UUID) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "auth:sess:".
func NewRedisCache(redisURL, prefix string) (SessionCache, error) {
	if prefix == "" {
		prefix = "auth:sess:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(id uuid.UUID) string { return c.prefix + id.String() }

// Храним как Redis Hash с полями: rth, email, role, act (0/1).
func (c *redisCache) Get(ctx context.Context, id uuid.UUID) (*Session, bool, error) {
	m, err := c.rdb.HGetAll(ctx, c.key(id)).Result()
	if err != nil {
		return nil, false, err
	}

	if len(m) == 0 {
		return nil, false, nil
	}

	act, err := strconv.ParseBool(m["act"])
	if err != nil {
		return nil, false, err
	}

	return &Session{
		RefreshTokenHash: m["rth"],
		Email:            m["email"],
		Role:             m["role"],
		Active:           act,
	}, true, nil
}

func (c *redisCache) Set(ctx context.Context, id uuid.UUID, s *Session, ttl time.Duration) error {
	kv := map[string]string{
		"rth":   s.RefreshTokenHash,
		"email": s.Email,
		"role":  s.Role,
		"act":   boolTo01(s.Active),
	}

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, c.key(id), kv)
	pipe.Expire(ctx, c.key(id), ttl)

	_, err := pipe.Exec(ctx)
	return err
}

func (c *redisCache) Delete(ctx context.Context, id uuid.UUID) error {
	return c.rdb.Del(ctx, c.key(id)).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }

func boolTo01(b bool) string {
	if b {
		return "1"
	}

	return "0"
}
