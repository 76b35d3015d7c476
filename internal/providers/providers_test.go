package providers

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestNewRedisProvider(t *testing.T) {
	client := NewRedisProvider("localhost:6379", "password", 2)
	if client == nil {
		t.Fatal("Expected redis client to be non-nil")
	}
	defer client.Close()

	if got := client.Options().DB; got != 2 {
		t.Errorf("expected db 2, got %d", got)
	}
}

func TestRedisProviderPing(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()

	client := NewRedisProvider(mr.Addr(), "", 0)
	defer client.Close()

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
