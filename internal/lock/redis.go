package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/meeplenest/meeplenest/internal/config"
	rerr "github.com/meeplenest/meeplenest/internal/errors"
)

const (
	lockKeyPrefix = "roster:lock:"

	defaultTTL     = 5 * time.Second
	defaultRetries = 5
)

// releaseLua deletes the lock key only if it still holds our token, so
// a lock that expired and was re-acquired elsewhere is never released
// by the previous holder.
const releaseLua = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// RedisLockerConfig holds configuration for the Redis locker.
type RedisLockerConfig struct {
	Client  redis.UniversalClient // Required
	TTL     time.Duration         // Optional, defaults to 5s
	Retries int                   // Optional, defaults to 5
}

// redisLocker implements Locker with SET NX plus a TTL, retried with
// bounded backoff while another mutation holds the campaign.
type redisLocker struct {
	client  redis.UniversalClient
	ttl     time.Duration
	retries int
}

// NewRedisLocker creates a Redis-backed locker.
func NewRedisLocker(cfg *RedisLockerConfig) Locker {
	if cfg.Client == nil {
		panic("redis client is required")
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}
	retries := cfg.Retries
	if retries == 0 {
		retries = defaultRetries
	}

	return &redisLocker{
		client:  cfg.Client,
		ttl:     ttl,
		retries: retries,
	}
}

// NewRedisLockerFromConfig builds a locker from the Redis section of
// the app config. An empty URL disables lock serialization and returns
// a nil Locker.
func NewRedisLockerFromConfig(cfg *config.RedisConfig) (Locker, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, rerr.WrapWithCode(err, rerr.CodeInvalidArgument,
			fmt.Sprintf("invalid Redis URL %q", cfg.URL))
	}

	return NewRedisLocker(&RedisLockerConfig{
		Client:  redis.NewClient(opts),
		TTL:     cfg.LockTTL,
		Retries: cfg.LockRetries,
	}), nil
}

// Acquire takes the lock for key, waiting with backoff while it is
// held elsewhere. The returned ReleaseFunc is best effort: if the
// release fails the lock falls back to its TTL.
func (l *redisLocker) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	token := uuid.New().String()
	lockKey := lockKeyPrefix + key

	retrier := retry.NewRetrier(l.retries, 50*time.Millisecond, time.Second)
	err := retrier.RunContext(ctx, func(ctx context.Context) error {
		ok, setErr := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if setErr != nil {
			return retry.Stop(setErr)
		}
		if !ok {
			return fmt.Errorf("lock %q is held", key)
		}
		return nil
	})
	if err != nil {
		return nil, rerr.WrapWithCode(err, rerr.CodeStore,
			fmt.Sprintf("failed to acquire lock for campaign %q", key))
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := l.client.Eval(releaseCtx, releaseLua, []string{lockKey}, token).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to release campaign lock")
		}
	}
	return release, nil
}
