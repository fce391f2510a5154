package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker remembers session ids that were logged out before they expired.
//
// Session tokens are stateless JWTs: clearing the cookie on logout does not
// stop a copy of the token from being replayed until its exp claim. A Revoker
// closes that window.
type Revoker interface {
	Revoke(ctx context.Context, sessionID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// NopRevoker is used when no Redis is configured: logout only clears the cookie.
type NopRevoker struct{}

func (NopRevoker) Revoke(context.Context, string, time.Time) error { return nil }

func (NopRevoker) IsRevoked(context.Context, string) (bool, error) { return false, nil }

const revokedKeyPrefix = "session:revoked:"

// RedisRevoker stores revoked session ids in Redis with a TTL equal to the
// token's remaining lifetime, so the set never outgrows the live sessions.
type RedisRevoker struct {
	client *redis.Client
}

// NewRedisRevoker wraps an existing client.
func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client}
}

// NewRedisRevokerFromURL parses a redis:// URL, connects and pings.
func NewRedisRevokerFromURL(ctx context.Context, url string) (*RedisRevoker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("auth: parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("auth: connecting to redis: %w", err)
	}
	return &RedisRevoker{client: client}, nil
}

// Revoke marks sessionID as logged out. Already-expired sessions are skipped.
func (r *RedisRevoker) Revoke(ctx context.Context, sessionID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+sessionID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("auth: revoking session: %w", err)
	}
	return nil
}

// IsRevoked reports whether sessionID was logged out.
func (r *RedisRevoker) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	err := r.client.Get(ctx, revokedKeyPrefix+sessionID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("auth: checking session revocation: %w", err)
	}
	return true, nil
}

// Close closes the underlying client.
func (r *RedisRevoker) Close() error {
	return r.client.Close()
}
