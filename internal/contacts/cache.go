package contacts

import (
	"context"
	"encoding/json"
	"time"

	"github.com/contactbook/contactbook/internal/models"
)

// ListCache memoizes an owner's contact list. Mutations invalidate the
// owner's entry.
type ListCache interface {
	Get(ctx context.Context, ownerID string) ([]*models.Contact, bool)
	Set(ctx context.Context, ownerID string, list []*models.Contact)
	Invalidate(ctx context.Context, ownerID string)
}

// KV is the key/value store behind RedisListCache; *cache.Cache
// satisfies it.
type KV interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisListCache stores contact lists as JSON under contacts:owner:<id>.
// Cache failures degrade to store reads.
type RedisListCache struct {
	kv  KV
	ttl time.Duration
}

func NewRedisListCache(kv KV, ttl time.Duration) *RedisListCache {
	return &RedisListCache{kv: kv, ttl: ttl}
}

func listKey(ownerID string) string {
	return "contacts:owner:" + ownerID
}

func (c *RedisListCache) Get(ctx context.Context, ownerID string) ([]*models.Contact, bool) {
	raw, ok := c.kv.Get(ctx, listKey(ownerID))
	if !ok {
		return nil, false
	}
	var list []*models.Contact
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, false
	}
	if list == nil {
		list = []*models.Contact{}
	}
	return list, true
}

func (c *RedisListCache) Set(ctx context.Context, ownerID string, list []*models.Contact) {
	data, err := json.Marshal(list)
	if err != nil {
		return
	}
	_ = c.kv.Set(ctx, listKey(ownerID), string(data), c.ttl)
}

func (c *RedisListCache) Invalidate(ctx context.Context, ownerID string) {
	_ = c.kv.Delete(ctx, listKey(ownerID))
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) ([]*models.Contact, bool) { return nil, false }
func (noopCache) Set(context.Context, string, []*models.Contact)        {}
func (noopCache) Invalidate(context.Context, string)                    {}
