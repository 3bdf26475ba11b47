package datafetcher

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteCache(t *testing.T) {
	cache, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache", "prices.db"), 24*time.Hour)
	if err != nil {
		t.Fatalf("NewSQLiteCache: %v", err)
	}
	defer cache.Close()

	now := day0
	cache.now = func() time.Time { return now }
	ctx := context.Background()
	code := Code{"600519", "SH"}

	if _, ok := cache.Get(ctx, code, 1); ok {
		t.Fatal("empty cache should miss")
	}
	if err := cache.Put(ctx, code, makeBars(40)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	bars, ok := cache.Get(ctx, code, 30)
	if !ok || len(bars) != 30 {
		t.Fatalf("hit = %v, bars = %d", ok, len(bars))
	}
	if bars[29].Close != 49 || !bars[0].Date.Equal(day0.AddDate(0, 0, 10)) {
		t.Errorf("cache should return the tail, got %+v .. %+v", bars[0], bars[29])
	}
	if _, ok := cache.Get(ctx, code, 41); ok {
		t.Error("entry shorter than request should miss")
	}

	// overwrite keeps one row per code
	if err := cache.Put(ctx, code, makeBars(5)); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.Get(ctx, code, 30); ok {
		t.Error("overwritten entry should be short")
	}

	now = now.Add(25 * time.Hour)
	if _, ok := cache.Get(ctx, code, 1); ok {
		t.Error("expired entry should miss")
	}
	n, err := cache.Purge(ctx)
	if err != nil || n != 1 {
		t.Errorf("Purge = %d, %v; want 1", n, err)
	}
}

func TestSQLiteCache_InMemory(t *testing.T) {
	cache, err := NewSQLiteCache(":memory:", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	code := Code{"000001", "SZ"}
	if err := cache.Put(context.Background(), code, makeBars(3)); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.Get(context.Background(), code, 3); !ok {
		t.Error("expected hit")
	}
}
