package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestIdempotencyStore_Key(t *testing.T) {
	s := NewIdempotencyStore(nil, 0)
	if s.ttl != defaultIdempotencyTTL {
		t.Fatalf("expected default ttl, got %v", s.ttl)
	}
	if got := s.key("reports:u1", "abc"); got != "idem:reports:u1:abc" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestIdempotencyStore_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	s := NewIdempotencyStore(client, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if id, err := s.Lookup(ctx, "reports:u1", "k"); err == nil || id != "" {
		t.Fatalf("expected error from unreachable server, got %q %v", id, err)
	}
	if err := s.Remember(ctx, "reports:u1", "k", "r1"); err == nil {
		t.Fatal("expected error from unreachable server")
	}
}
