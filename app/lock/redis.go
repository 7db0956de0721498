package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenSize = 16

// unlockScript deletes the key only while this holder's token is still set,
// so an expired lock reclaimed by another holder is never removed.
const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

type RedisLocker struct {
	client *redis.Client
	mu     sync.Mutex
	tokens map[string]string
}

// NewRedisLocker constructs a Redis-based lock manager.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		client: client,
		tokens: make(map[string]string),
	}
}

// Acquire obtains a Redis lock key with a TTL and remembers the owner token.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) error {
	if l.holds(key) {
		return ErrAlreadyHeld
	}

	token, err := newToken()
	if err != nil {
		return err
	}

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAcquired
	}

	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()
	return nil
}

// Release frees a Redis lock key if this process owns it.
func (l *RedisLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	if ok {
		delete(l.tokens, key)
	}
	l.mu.Unlock()

	if !ok {
		return nil
	}

	return l.client.Eval(ctx, unlockScript, []string{key}, token).Err()
}

func (l *RedisLocker) holds(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.tokens[key]
	return ok
}

// newToken creates a hex token marking lock ownership.
func newToken() (string, error) {
	buf := make([]byte, tokenSize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
