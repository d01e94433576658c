package directory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Product status gates order creation, so a cached product may let an order
// through for up to productTTL after the listing was sold or withdrawn. The
// directory is the only authority that could close that window, and it is
// eventually consistent itself, so the TTL is kept short instead. User
// records only decorate conversation summaries and can stay longer.
const (
	productTTL = 30 * time.Second
	userTTL    = 5 * time.Minute
)

// Cached is a read-through Redis cache in front of another Directory.
// Lookups happen on every order creation and conversation listing, so the
// cache keeps the directory service out of the hot path. Misses and cache
// failures fall through to the inner directory.
type Cached struct {
	inner Directory
	r     *redis.Client
}

func NewCached(inner Directory, r *redis.Client) *Cached {
	return &Cached{inner: inner, r: r}
}

func productKey(id string) string { return "directory:product:" + id }
func userKey(id string) string    { return "directory:user:" + id }

func (c *Cached) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	if ok := c.lookup(ctx, productKey(id), &p); ok {
		return &p, nil
	}

	fresh, err := c.inner.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, productKey(id), fresh, productTTL)
	return fresh, nil
}

func (c *Cached) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	if ok := c.lookup(ctx, userKey(id), &u); ok {
		return &u, nil
	}

	fresh, err := c.inner.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, userKey(id), fresh, userTTL)
	return fresh, nil
}

func (c *Cached) lookup(ctx context.Context, key string, out any) bool {
	b, err := c.r.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil and broken-cache errors are both treated as a miss.
		return false
	}
	return json.Unmarshal(b, out) == nil
}

func (c *Cached) store(ctx context.Context, key string, v any, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.r.Set(ctx, key, b, ttl).Err()
}
