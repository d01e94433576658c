package directory

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticDirectory struct {
	productCalls int
	userCalls    int
}

func (d *staticDirectory) GetProduct(ctx context.Context, id string) (*Product, error) {
	d.productCalls++
	return &Product{ID: id, SellerID: "u2", Title: "Bike", Price: 120, Status: ProductActive}, nil
}

func (d *staticDirectory) GetUser(ctx context.Context, id string) (*User, error) {
	d.userCalls++
	return &User{ID: id, Username: "ana"}, nil
}

// An unreachable Redis must never break lookups; every call falls through to
// the inner directory.
func TestCachedFallsThroughOnCacheFailure(t *testing.T) {
	inner := &staticDirectory{}
	broken := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: time.Millisecond,
		MaxRetries:  -1,
	})
	cached := NewCached(inner, broken)

	ctx := context.Background()

	for i := 0; i < 2; i++ {
		p, err := cached.GetProduct(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "p1", p.ID)
	}
	u, err := cached.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ana", u.Username)

	assert.Equal(t, 2, inner.productCalls)
	assert.Equal(t, 1, inner.userCalls)
}

// Products gate order creation against a snapshot, so their staleness window
// has to be much tighter than the cosmetic user records.
func TestProductTTLTighterThanUserTTL(t *testing.T) {
	assert.Less(t, productTTL, userTTL)
}
