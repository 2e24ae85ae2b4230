package denylist

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "umb:revoked:"

// Redis keeps revoked ids as keys whose TTL ends with the token, so Redis
// expires them itself and Prune has nothing to do.
type Redis struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedis connects to addr and pings it once.
func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisWithClient(client), nil
}

func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: redisKeyPrefix, now: time.Now}
}

func (r *Redis) Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		// already dead, nothing to remember
		return true, nil
	}
	ok, err := r.client.SetNX(ctx, r.prefix+jti, expiresAt.Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (r *Redis) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (r *Redis) Prune(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
