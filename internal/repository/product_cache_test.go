package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/m7modfayez/sakr-sports/internal/model"
	"github.com/m7modfayez/sakr-sports/internal/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newCachedRepo(t *testing.T) (ProductRepository, ProductRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	base := NewProductRepository(testutil.NewDB(t), "sakr", nil)
	return NewCachedProductRepository(base, client, "sakr", time.Minute), base, mr
}

func TestCachedProductRepository_ReadThrough(t *testing.T) {
	ctx := context.Background()
	cached, base, mr := newCachedRepo(t)

	p := &model.Product{Title: "Ball", Price: 20, ImageURLs: model.StringList{"x"}}
	require.NoError(t, cached.Create(ctx, p))

	got, err := cached.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Ball", got.Title)
	require.True(t, mr.Exists("product:sakr:"+p.ID))

	// a write behind the cache's back is not visible until invalidation
	title := "Renamed"
	_, err = base.Update(ctx, p.ID, ProductUpdate{Title: &title})
	require.NoError(t, err)

	stale, err := cached.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Ball", stale.Title)

	_, err = cached.Update(ctx, p.ID, ProductUpdate{Title: &title})
	require.NoError(t, err)
	require.False(t, mr.Exists("product:sakr:"+p.ID))

	fresh, err := cached.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", fresh.Title)
}

func TestCachedProductRepository_DeleteInvalidates(t *testing.T) {
	ctx := context.Background()
	cached, _, mr := newCachedRepo(t)

	p := &model.Product{Title: "Net", Price: 20, ImageURLs: model.StringList{"x"}}
	require.NoError(t, cached.Create(ctx, p))
	_, err := cached.FindByID(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, cached.Delete(ctx, p.ID))
	require.False(t, mr.Exists("product:sakr:"+p.ID))

	_, err = cached.FindByID(ctx, p.ID)
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestCachedProductRepository_RedisDownFallsThrough(t *testing.T) {
	ctx := context.Background()
	cached, _, mr := newCachedRepo(t)

	p := &model.Product{Title: "Whistle", Price: 3, ImageURLs: model.StringList{"x"}}
	require.NoError(t, cached.Create(ctx, p))

	mr.Close()

	got, err := cached.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Whistle", got.Title)
}
