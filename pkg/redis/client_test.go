package redis

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.Set(ctx, "cf:coffre-balance:s1", "1150", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	value, err := client.Get(ctx, "cf:coffre-balance:s1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != "1150" {
		t.Fatalf("expected stored value, got %q", value)
	}

	if err := client.Del(ctx, "cf:coffre-balance:s1"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, "cf:coffre-balance:s1"); err != redis.Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestDelPatternRemovesOnlyMatchingKeys(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	keys := []string{
		"cf:dashboard:user-1:",
		"cf:dashboard:user-1:safe-a",
		"cf:dashboard:user-2:",
		"cf:coffre-balance:safe-a",
	}
	for _, key := range keys {
		if err := client.Set(ctx, key, "x", 0); err != nil {
			t.Fatalf("seed %s failed: %v", key, err)
		}
	}

	if err := client.DelPattern(ctx, "cf:dashboard:user-1"); err != nil {
		t.Fatalf("del pattern failed: %v", err)
	}

	for _, gone := range keys[:2] {
		if _, err := client.Get(ctx, gone); err != redis.Nil {
			t.Fatalf("expected %s to be removed", gone)
		}
	}
	for _, kept := range keys[2:] {
		if _, err := client.Get(ctx, kept); err != nil {
			t.Fatalf("expected %s to survive, got %v", kept, err)
		}
	}
}

func TestCacheKeyNamespacing(t *testing.T) {
	client := &Client{}
	if got := client.CacheKey("coffre-balance:safe-1"); got != "cf:coffre-balance:safe-1" {
		t.Fatalf("unexpected cache key %s", got)
	}
	if got := client.CacheKey(""); got != "cf" {
		t.Fatalf("empty key should collapse to namespace, got %s", got)
	}
}

type mockCmdable struct {
	data map[string]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	cmd := redis.NewScanCmd(ctx, nil)
	cmd.SetVal(keys, 0)
	return cmd
}
