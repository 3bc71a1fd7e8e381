package guard

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	dErrors "facepay/pkg/domain-errors"
)

// DefaultRedisPrefix namespaces request ID keys.
const DefaultRedisPrefix = "facepay:payment-request:"

// Redis shares request ID reservations between replicas with SET NX EX.
type Redis struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedis(client redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: DefaultRedisPrefix, ttl: ttl}
}

func (r *Redis) Reserve(ctx context.Context, requestID string) error {
	ok, err := r.client.SetNX(ctx, r.prefix+requestID, 1, r.ttl).Result()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reserve request id")
	}
	if !ok {
		return ErrReused
	}
	return nil
}
