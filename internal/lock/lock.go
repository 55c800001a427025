package lock

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amira30til/ScanToWin-sub001/internal/config"
)

// releaseScript deletes the lock only while it still holds our token, so
// a lock that outlived its TTL never deletes another instance's lock.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// PlayLock guards one (shop, player) pair against concurrent play
// submissions across server instances. The database transaction already
// serializes writers on a single instance; the Redis lock closes the same
// window when the API runs replicated.
type PlayLock struct {
	client *redis.Client
	ttl    time.Duration

	// tokens maps held lock keys to their release tokens.
	tokens sync.Map
}

// New constructs a PlayLock, or nil when Redis is not configured. A nil
// PlayLock is safe to use and always acquires.
func New(cfg config.RedisConfig, ttl time.Duration) *PlayLock {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &PlayLock{client: client, ttl: ttl}
}

// Acquire takes the lock for a (shop, player email) pair. Returns false
// when another play for the same pair is already in flight. Redis errors
// are reported as acquired: losing the lock layer must not take down the
// play endpoint.
func (l *PlayLock) Acquire(ctx context.Context, shopID uint64, email string) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}
	token, errToken := newToken()
	if errToken != nil {
		return true, errToken
	}
	key := l.key(shopID, email)
	ok, errSet := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if errSet != nil {
		return true, errSet
	}
	if ok {
		l.tokens.Store(key, token)
	}
	return ok, nil
}

// Release frees the lock for a (shop, player email) pair when it still
// carries the token we set.
func (l *PlayLock) Release(ctx context.Context, shopID uint64, email string) {
	if l == nil || l.client == nil {
		return
	}
	key := l.key(shopID, email)
	token, ok := l.tokens.LoadAndDelete(key)
	if !ok {
		return
	}
	_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
}

// Close closes the underlying Redis client.
func (l *PlayLock) Close() error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Close()
}

func (l *PlayLock) key(shopID uint64, email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("play:%d:%s", shopID, hex.EncodeToString(sum[:8]))
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, errRead := rand.Read(buf); errRead != nil {
		return "", fmt.Errorf("lock: token: %w", errRead)
	}
	return hex.EncodeToString(buf), nil
}
