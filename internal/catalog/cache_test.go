package catalog

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/olehkv/backend-vzuttia/internal/store"
)

func TestCacheRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()
	cache := NewCache(client, time.Minute)

	ctx := context.Background()
	if _, ok := cache.Models(ctx, "acme"); ok {
		t.Fatal("expected cache miss on empty cache")
	}

	models := []store.Model{{ID: "m1", SKU: "A-100", Color: "black", Price: decimal.NewFromInt(25)}}
	cache.SetModels(ctx, "acme", models)

	got, ok := cache.Models(ctx, "acme")
	if !ok {
		t.Fatal("expected cache hit after set")
	}
	if len(got) != 1 || got[0].SKU != "A-100" || !got[0].Price.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected cached models: %#v", got)
	}

	if _, ok := cache.Models(ctx, "other"); ok {
		t.Fatal("expected companies not to share cache entries")
	}

	cache.InvalidateModels(ctx, "acme")
	if _, ok := cache.Models(ctx, "acme"); ok {
		t.Fatal("expected cache miss after invalidation")
	}
}

func TestCacheNilClient(t *testing.T) {
	var cache *Cache
	ctx := context.Background()
	if _, ok := cache.Models(ctx, "acme"); ok {
		t.Fatal("nil cache must always miss")
	}
	cache.SetModels(ctx, "acme", nil)
	cache.InvalidateModels(ctx, "acme")
}
