package appointment

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/thomas7124/aidentalbackend/pkg/logging"
)

const redisGuardPrefix = "booking:inflight:"

// RedisGuard is a Guard backed by redis SET NX with a TTL, for deployments
// running more than one handler instance. It fails open: if redis is
// unreachable the submission proceeds, since blocking a real booking is
// worse than risking a duplicate.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewRedisGuard creates a RedisGuard with the given entry TTL.
func NewRedisGuard(client *redis.Client, ttl time.Duration, logger *logging.Logger) *RedisGuard {
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisGuard{client: client, ttl: ttl, logger: logger}
}

// TryAcquire claims the fingerprint via SET NX; redis expires the entry.
func (g *RedisGuard) TryAcquire(ctx context.Context, fingerprint string) (bool, error) {
	ok, err := g.client.SetNX(ctx, redisGuardPrefix+fingerprint, 1, g.ttl).Result()
	if err != nil {
		g.logger.Warn("dedup guard: redis unavailable, failing open",
			"error", err,
			"fingerprint", fingerprint,
		)
		return true, nil
	}
	return ok, nil
}

// Release deletes the fingerprint so a legitimate retry can proceed.
func (g *RedisGuard) Release(ctx context.Context, fingerprint string) error {
	if err := g.client.Del(ctx, redisGuardPrefix+fingerprint).Err(); err != nil {
		g.logger.Warn("dedup guard: redis release failed",
			"error", err,
			"fingerprint", fingerprint,
		)
		return err
	}
	return nil
}
