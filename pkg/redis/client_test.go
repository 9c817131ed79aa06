package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/angelmondragon/freightquote-backend/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestWorkspaceLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.WorkspaceKey("draft-1")

	created, err := client.SetNX(ctx, key, `{"id":"draft-1"}`, time.Hour)
	if err != nil || !created {
		t.Fatalf("expected first create to succeed, created=%v err=%v", created, err)
	}
	created, err = client.SetNX(ctx, key, `{"id":"other"}`, time.Hour)
	if err != nil || created {
		t.Fatalf("expected second create to be rejected, created=%v err=%v", created, err)
	}

	value, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != `{"id":"draft-1"}` {
		t.Fatalf("unexpected value %q", value)
	}

	touched, err := client.Touch(ctx, key, 2*time.Hour)
	if err != nil || !touched {
		t.Fatalf("touch failed touched=%v err=%v", touched, err)
	}
	if len(mock.expireCalls) != 1 || mock.expireCalls[0].ttl != 2*time.Hour {
		t.Fatalf("unexpected expire calls %+v", mock.expireCalls)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if touched, _ := client.Touch(ctx, key, time.Hour); touched {
		t.Fatal("touch on a missing key must report false")
	}
}

func TestTouchWithoutTTLIsNoop(t *testing.T) {
	mock := newMockCmdable()
	client := &Client{store: mock}
	touched, err := client.Touch(context.Background(), "fq:draft:x", 0)
	if err != nil || !touched || len(mock.expireCalls) != 0 {
		t.Fatalf("unexpected touch result touched=%v err=%v calls=%d", touched, err, len(mock.expireCalls))
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on uninitialized client: %v", err)
	}
}

func TestIncrWithTTLSetsExpiryOnce(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.RateLimitKey("lookup:1.2.3.4")

	for want := int64(1); want <= 3; want++ {
		got, err := client.IncrWithTTL(ctx, key, time.Minute)
		if err != nil {
			t.Fatalf("incr: %v", err)
		}
		if got != want {
			t.Fatalf("expected count %d, got %d", want, got)
		}
	}
	if len(mock.expireCalls) != 1 || mock.expireCalls[0].ttl != time.Minute {
		t.Fatalf("expected a single expire call, got %+v", mock.expireCalls)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.WorkspaceKey("abc"); got != "fq:draft:abc" {
		t.Fatalf("unexpected workspace key %s", got)
	}
	if got := client.WorkspaceKey(" "); got != "fq:draft" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
	if got := client.RateLimitKey("lookup"); got != "fq:rl:lookup" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.IdempotencyKey("POST|/api/v1/drafts", "k1"); got != "fq:idempotency:POST|/api/v1/drafts:k1" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{
		URL:         "redis://localhost:6379/2",
		PoolSize:    7,
		DialTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.DB != 2 || opts.PoolSize != 7 || opts.DialTimeout != time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}
}

type mockCmdable struct {
	redis.Scripter
	data        map[string]string
	ttls        map[string]time.Duration
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string), ttls: make(map[string]time.Duration)}
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

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; !exists {
		return redis.NewBoolResult(false, nil)
	}
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	n, _ := strconv.ParseInt(m.data[key], 10, 64)
	n++
	m.data[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

// EvalSha mirrors swapRevisionScript so the client can be tested without a server.
func (m *mockCmdable) EvalSha(ctx context.Context, sha string, keys []string, args ...any) *redis.Cmd {
	current, ok := m.data[keys[0]]
	if !ok {
		return redis.NewCmdResult(int64(-1), nil)
	}
	var doc struct {
		Revision uint64 `json:"revision"`
	}
	if err := json.Unmarshal([]byte(current), &doc); err != nil {
		return redis.NewCmdResult(nil, err)
	}
	if fmt.Sprint(doc.Revision) != fmt.Sprint(args[0]) {
		return redis.NewCmdResult(int64(0), nil)
	}
	m.data[keys[0]] = fmt.Sprint(args[1])
	ms, _ := strconv.ParseInt(fmt.Sprint(args[2]), 10, 64)
	m.ttls[keys[0]] = time.Duration(ms) * time.Millisecond
	return redis.NewCmdResult(int64(1), nil)
}

func (m *mockCmdable) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	return m.EvalSha(ctx, "", keys, args...)
}

func TestSwapRevision(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.WorkspaceKey("draft-1")

	if err := client.SwapRevision(ctx, key, 0, `{"revision":1}`, time.Hour); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a missing key, got %v", err)
	}
	mock.data[key] = `{"revision":3}`
	if err := client.SwapRevision(ctx, key, 2, `{"revision":3}`, time.Hour); !errors.Is(err, ErrRevisionMismatch) {
		t.Fatalf("expected revision mismatch, got %v", err)
	}
	if err := client.SwapRevision(ctx, key, 3, `{"revision":4}`, time.Hour); err != nil {
		t.Fatalf("swap: %v", err)
	}
	if mock.data[key] != `{"revision":4}` || mock.ttls[key] != time.Hour {
		t.Fatalf("unexpected stored value %q ttl %v", mock.data[key], mock.ttls[key])
	}
}
