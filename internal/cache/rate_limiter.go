package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/arnavkapoor/stitchkart-commerce/internal/config"
	"github.com/redis/go-redis/v9"
)

// LoginLimiter counts login attempts per email inside a fixed window.
type LoginLimiter struct {
	client *redis.Client
	cfg    *config.RateConfig
}

func NewLoginLimiter(client *redis.Client, cfg *config.RateConfig) *LoginLimiter {
	return &LoginLimiter{client: client, cfg: cfg}
}

// Allow returns whether another attempt is permitted and, when it is not, how
// many seconds remain in the current window.
func (l *LoginLimiter) Allow(ctx context.Context, email string) (bool, int, error) {
	key := fmt.Sprintf("login_attempts:%s", email)

	attempts, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to count login attempts: %w", err)
	}

	// first attempt opens the window
	if attempts == 1 {
		if err := l.client.Expire(ctx, key, l.cfg.WindowSize).Err(); err != nil {
			return false, 0, fmt.Errorf("failed to set attempt window: %w", err)
		}
	}

	if attempts > l.cfg.MaxAttempts {
		ttl, err := l.client.TTL(ctx, key).Result()
		if err != nil {
			return false, 0, fmt.Errorf("failed to read attempt window: %w", err)
		}

		return false, int(ttl / time.Second), nil
	}

	return true, 0, nil
}
