package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const profileLockKeyPrefix = "dispatch:lock:"

// ProfileLock serializes dispatch attempts against one browser profile
// across process instances. The TTL bounds how long a crashed holder can
// block the profile. Within a single process the session manager's mutex
// is authoritative; this lock covers multi-instance deployments.
type ProfileLock struct {
	client *Client
	ttl    time.Duration
}

// NewProfileLock creates a new ProfileLock
func NewProfileLock(client *Client, ttl time.Duration) *ProfileLock {
	return &ProfileLock{client: client, ttl: ttl}
}

// Lock blocks until the profile lock is acquired or ctx is done. The
// returned release function deletes the lock only if this caller still
// holds it.
func (l *ProfileLock) Lock(ctx context.Context, profile string) (func(), error) {
	key := profileLockKeyPrefix + profile
	token := uuid.New().String()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		ok, err := l.client.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// release is compare-and-delete so an expired lock reclaimed by another
// instance is never removed by the original holder.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *ProfileLock) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = releaseScript.Run(ctx, l.client.client, []string{key}, token).Err()
}
