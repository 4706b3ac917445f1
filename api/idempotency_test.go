package api

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestDeduper(t *testing.T) (*RedisDeduper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisDeduper(client, time.Hour), mr
}

func TestRedisDeduperAdd(t *testing.T) {
	deduper, _ := newTestDeduper(t)
	ctx := context.Background()

	added, err := deduper.Add(ctx, "user-1", "batch-1")
	if err != nil || !added {
		t.Fatalf("expected first add to succeed, got %v, %v", added, err)
	}
	added, err = deduper.Add(ctx, "user-1", "batch-1")
	if err != nil || added {
		t.Fatalf("expected repeated add to report existing key, got %v, %v", added, err)
	}
}

func TestRedisDeduperScopedPerUser(t *testing.T) {
	deduper, _ := newTestDeduper(t)
	ctx := context.Background()

	if added, _ := deduper.Add(ctx, "alice", "batch-1"); !added {
		t.Fatal("expected alice's key to be new")
	}
	if added, _ := deduper.Add(ctx, "bob", "batch-1"); !added {
		t.Fatal("expected the same key to be new for bob")
	}
}

func TestRedisDeduperRemove(t *testing.T) {
	deduper, _ := newTestDeduper(t)
	ctx := context.Background()

	if added, _ := deduper.Add(ctx, "user-1", "batch-1"); !added {
		t.Fatal("expected first add to succeed")
	}
	if err := deduper.Remove(ctx, "user-1", "batch-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if added, _ := deduper.Add(ctx, "user-1", "batch-1"); !added {
		t.Fatal("expected the key to be reusable after removal")
	}
}

func TestRedisDeduperKeysExpire(t *testing.T) {
	deduper, mr := newTestDeduper(t)
	ctx := context.Background()

	if added, _ := deduper.Add(ctx, "user-1", "batch-1"); !added {
		t.Fatal("expected first add to succeed")
	}
	mr.FastForward(2 * time.Hour)
	if added, _ := deduper.Add(ctx, "user-1", "batch-1"); !added {
		t.Fatal("expected the key to expire with its TTL")
	}
}
