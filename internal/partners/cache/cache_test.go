package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*EligibilityCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, 5*time.Minute), mr
}

func TestGetReturnsMissWhenEmpty(t *testing.T) {
	c, _ := newTestCache(t)

	ids, ok := c.Get(context.Background(), "560066", "plumbing")
	if ok {
		t.Fatal("expected a miss on empty cache")
	}
	if ids != nil {
		t.Fatalf("expected nil ids on miss, got %v", ids)
	}
}

func TestSetThenGetRoundtrip(t *testing.T) {
	c, _ := newTestCache(t)
	want := []uuid.UUID{uuid.New(), uuid.New()}

	if err := c.Set(context.Background(), "560066", "plumbing", want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := c.Get(context.Background(), "560066", "plumbing")
	if !ok {
		t.Fatal("expected a hit after Set")
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("id %d mismatch: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestEntriesExpire(t *testing.T) {
	c, mr := newTestCache(t)

	if err := c.Set(context.Background(), "560066", "plumbing", []uuid.UUID{uuid.New()}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mr.FastForward(6 * time.Minute)

	if _, ok := c.Get(context.Background(), "560066", "plumbing"); ok {
		t.Fatal("expected entry to expire after TTL")
	}
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Set("eligibility:560066:plumbing", "not-json")

	if _, ok := c.Get(context.Background(), "560066", "plumbing"); ok {
		t.Fatal("expected corrupt payload to read as a miss")
	}
}

func TestInvalidatePincodesDropsMatchingKeysOnly(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	ids := []uuid.UUID{uuid.New()}

	for _, pair := range [][2]string{
		{"560066", "plumbing"},
		{"560066", "electrical"},
		{"400001", "plumbing"},
	} {
		if err := c.Set(ctx, pair[0], pair[1], ids); err != nil {
			t.Fatalf("Set %v failed: %v", pair, err)
		}
	}

	if err := c.InvalidatePincodes(ctx, []string{"560066"}); err != nil {
		t.Fatalf("InvalidatePincodes failed: %v", err)
	}

	if _, ok := c.Get(ctx, "560066", "plumbing"); ok {
		t.Error("expected 560066/plumbing dropped")
	}
	if _, ok := c.Get(ctx, "560066", "electrical"); ok {
		t.Error("expected 560066/electrical dropped")
	}
	if _, ok := c.Get(ctx, "400001", "plumbing"); !ok {
		t.Error("expected other pincode untouched")
	}
}
