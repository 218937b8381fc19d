package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/gardenseed/storefront/internal/orders"
	"github.com/gardenseed/storefront/pkg/redis"
)

// Attempt is the idempotency key of a user's unfinished checkout, bound to the hash of the order
// payload it was minted for.
type Attempt struct {
	Key         string `json:"key"`
	RequestHash string `json:"request_hash"`
}

// KeyStash remembers the pending attempt of each user so a resubmission of the same order after a
// failure reuses its key.
type KeyStash interface {
	Get(ctx context.Context, userID int64) (Attempt, bool, error)
	Put(ctx context.Context, userID int64, attempt Attempt, ttl time.Duration) error
	Drop(ctx context.Context, userID int64) error
}

func hashInput(input orders.CreateInput) (string, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

// RedisStash keeps pending attempts in redis so they survive a client restart.
type RedisStash struct {
	client *redis.Client
}

func NewRedisStash(client *redis.Client) *RedisStash {
	return &RedisStash{client: client}
}

func (r *RedisStash) key(userID int64) string {
	return r.client.CheckoutKey(strconv.FormatInt(userID, 10))
}

func (r *RedisStash) Get(ctx context.Context, userID int64) (Attempt, bool, error) {
	var attempt Attempt
	err := r.client.GetJSON(ctx, r.key(userID), &attempt)
	if redis.IsMiss(err) {
		return Attempt{}, false, nil
	}
	if err != nil {
		return Attempt{}, false, err
	}
	return attempt, attempt.Key != "", nil
}

func (r *RedisStash) Put(ctx context.Context, userID int64, attempt Attempt, ttl time.Duration) error {
	return r.client.SetJSON(ctx, r.key(userID), attempt, ttl)
}

func (r *RedisStash) Drop(ctx context.Context, userID int64) error {
	return r.client.Del(ctx, r.key(userID))
}

type memoryEntry struct {
	attempt Attempt
	expires time.Time
}

// MemoryStash is the in-process fallback used when redis is not configured.
type MemoryStash struct {
	mu      sync.Mutex
	entries map[int64]memoryEntry
	now     func() time.Time
}

func NewMemoryStash() *MemoryStash {
	return &MemoryStash{entries: map[int64]memoryEntry{}, now: time.Now}
}

func (m *MemoryStash) Get(ctx context.Context, userID int64) (Attempt, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[userID]
	if !ok {
		return Attempt{}, false, nil
	}
	if !entry.expires.IsZero() && m.now().After(entry.expires) {
		delete(m.entries, userID)
		return Attempt{}, false, nil
	}
	return entry.attempt, true, nil
}

func (m *MemoryStash) Put(ctx context.Context, userID int64, attempt Attempt, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := memoryEntry{attempt: attempt}
	if ttl > 0 {
		entry.expires = m.now().Add(ttl)
	}
	m.entries[userID] = entry
	return nil
}

func (m *MemoryStash) Drop(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
	return nil
}
