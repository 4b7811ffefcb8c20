package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	platformredis "github.com/notorious-utopia/egrn/internal/platform/redis"
)

// Lease gates a reconciliation pass across service replicas. Acquire
// returns false when another holder is active; Release is a no-op for a
// lease this holder no longer owns.
type Lease interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// NoopLease always grants the lease. Used when Redis is not configured
// and the in-process TryLock is the only guard.
type NoopLease struct{}

func (NoopLease) Acquire(context.Context) (bool, error) { return true, nil }
func (NoopLease) Release(context.Context) error         { return nil }

const leaseKey = "egrn:reconcile:lease"

// releaseScript deletes the lease only when the stored value still
// matches this holder's token, so an expired lease taken over by
// another replica is never released from here.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLease is a SET NX lease with a TTL. The TTL bounds how long a
// crashed holder can block other replicas.
type RedisLease struct {
	client *platformredis.Client
	ttl    time.Duration
	token  string
}

// NewRedisLease constructs a cross-replica lease. The TTL should exceed
// the longest expected pass duration.
func NewRedisLease(client *platformredis.Client, ttl time.Duration) *RedisLease {
	return &RedisLease{
		client: client,
		ttl:    ttl,
		token:  uuid.NewString(),
	}
}

// Acquire attempts to take the lease. Returns false without error when
// another replica holds it.
func (l *RedisLease) Acquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, leaseKey, l.token, l.ttl).Result()
}

// Release frees the lease if this holder still owns it.
func (l *RedisLease) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.client, []string{leaseKey}, l.token).Err()
}
