package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/zoobzio/formsg"
)

// setupRedis starts a Redis container, or connects to FORMSG_REDIS_ADDR when
// set, and enables keyspace notifications.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	addr := os.Getenv("FORMSG_REDIS_ADDR")
	if addr == "" {
		container, err := tcredis.Run(ctx, "redis:7-alpine")
		if err != nil {
			t.Fatalf("failed to start redis container: %v", err)
		}
		t.Cleanup(func() {
			if err := testcontainers.TerminateContainer(container); err != nil {
				t.Logf("failed to terminate container: %v", err)
			}
		})

		addr, err = container.Endpoint(ctx, "")
		if err != nil {
			t.Fatalf("failed to get endpoint: %v", err)
		}
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	if err := client.ConfigSet(ctx, "notify-keyspace-events", "KEA").Err(); err != nil {
		t.Fatalf("failed to enable keyspace notifications: %v", err)
	}
	return client
}

func uniqueKey(t *testing.T, client *redis.Client) string {
	t.Helper()
	key := "formsg:test:" + t.Name()
	client.Del(context.Background(), key)
	t.Cleanup(func() { client.Del(context.Background(), key) })
	return key
}

func TestWatcher_EmitsInitialValue(t *testing.T) {
	client := setupRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	key := uniqueKey(t, client)
	if err := client.Set(ctx, key, `{"messages": {"required": "Needed"}}`, 0).Err(); err != nil {
		t.Fatalf("failed to set initial value: %v", err)
	}

	ch, err := New(client, key).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	select {
	case data := <-ch:
		if string(data) != `{"messages": {"required": "Needed"}}` {
			t.Errorf("unexpected initial value %q", data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for initial value")
	}
}

func TestWatcher_EmitsOnChange(t *testing.T) {
	client := setupRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	key := uniqueKey(t, client)

	ch, err := New(client, key).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := client.Set(ctx, key, "v1", 0).Err(); err != nil {
		t.Fatalf("failed to set value: %v", err)
	}

	select {
	case data := <-ch:
		if string(data) != "v1" {
			t.Errorf("expected 'v1', got %q", data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for change")
	}
}

func TestWatcher_SkipsIdenticalValues(t *testing.T) {
	client := setupRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	key := uniqueKey(t, client)
	client.Set(ctx, key, "same", 0)

	ch, err := New(client, key).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	<-ch

	client.Set(ctx, key, "same", 0)
	client.Set(ctx, key, "different", 0)

	select {
	case data := <-ch:
		if string(data) != "different" {
			t.Errorf("expected 'different', got %q", data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for change")
	}
}

func TestWatcher_FeedsView(t *testing.T) {
	client := setupRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	key := uniqueKey(t, client)
	client.Set(ctx, key, `{"messages": {"required": "From redis"}}`, 0)

	field := formsg.NewField("", formsg.Required())
	v := formsg.NewView(
		formsg.WithControl(field),
		formsg.WithWhen(formsg.WhenAlways),
		formsg.WithProvider(formsg.FromWatcher(New(client, key), formsg.JSONCodec{})),
	)
	defer v.Close()

	if err := v.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := v.Model().String(); got != "From redis" {
		t.Errorf("expected redis text, got %q", got)
	}
}
