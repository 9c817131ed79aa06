package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/freightquote-backend/pkg/config"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace      = "fq"
	workspacePrefix   = "draft"
	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rl"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = redis.Nil

// swapRevisionScript replaces KEYS[1] only while the "revision" field of the
// stored JSON document equals ARGV[1]. It returns -1 for a missing key, 0 for
// a stale revision and 1 once the value is written.
var swapRevisionScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if not current then
	return -1
end
local doc = cjson.decode(current)
local rev = tonumber(doc["revision"]) or 0
if rev ~= tonumber(ARGV[1]) then
	return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ttl)
else
	redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`)

// ErrRevisionMismatch is returned by SwapRevision when another writer saved
// the document first.
var ErrRevisionMismatch = errors.New("redis: revision mismatch")

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Expire(context.Context, string, time.Duration) *redis.BoolCmd
	Incr(context.Context, string) *redis.IntCmd
	Del(context.Context, ...string) *redis.IntCmd
	redis.Scripter
}

// Client wraps the redis helpers used by the draft workspace.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// IdempotencyStore is the subset used by the HTTP idempotency middleware.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// ErrNotInitialized is returned when a zero Client is used.
var ErrNotInitialized = errors.New("redis client not initialized")

// New dials redis with the configured pool and timeouts and pings it once.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"addr":      opts.Addr,
			"db":        opts.DB,
			"pool_size": opts.PoolSize,
		}), "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

// optionsFromConfig prefers the URL; explicit config values only fill what
// the URL left unset.
func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	opts := &redis.Options{Addr: cfg.Address, Password: cfg.Password}
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	case cfg.Address == "":
		return nil, errors.New("redis url or address is required")
	}
	fillUnset(&opts.DB, cfg.DB)
	fillUnset(&opts.PoolSize, cfg.PoolSize)
	fillUnset(&opts.MinIdleConns, cfg.MinIdleConns)
	fillUnset(&opts.DialTimeout, cfg.DialTimeout)
	fillUnset(&opts.ReadTimeout, cfg.ReadTimeout)
	fillUnset(&opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func fillUnset[T comparable](dst *T, value T) {
	var zero T
	if *dst == zero {
		*dst = value
	}
}

func (c *Client) ready() error {
	if c == nil || c.store == nil {
		return ErrNotInitialized
	}
	return nil
}

// Set stores a value; ttl <= 0 keeps it forever.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.store.Set(ctx, key, value, ttl).Err()
}

// Get returns the value stored at key, or ErrNotFound.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	return c.store.Get(ctx, key).Result()
}

// SetNX writes value only when key is free and reports whether it did.
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	return c.store.SetNX(ctx, key, value, ttl).Result()
}

// SwapRevision overwrites the JSON document at key when its stored revision
// equals expected. A missing key yields ErrNotFound and a stale revision
// yields ErrRevisionMismatch.
func (c *Client) SwapRevision(ctx context.Context, key string, expected uint64, value string, ttl time.Duration) error {
	if err := c.ready(); err != nil {
		return err
	}
	res, err := swapRevisionScript.Run(ctx, c.store, []string{key}, expected, value, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("swap revision: %w", err)
	}
	switch res {
	case 1:
		return nil
	case 0:
		return ErrRevisionMismatch
	default:
		return ErrNotFound
	}
}

// Touch resets the TTL of key. It reports false when the key does not exist.
func (c *Client) Touch(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	if ttl <= 0 {
		return true, nil
	}
	return c.store.Expire(ctx, key, ttl).Result()
}

// IncrWithTTL increments key and sets its TTL on the first increment.
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	count, err := c.store.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl > 0 && count == 1 {
		if _, expErr := c.store.Expire(ctx, key, ttl).Result(); expErr != nil {
			return count, expErr
		}
	}
	return count, nil
}

// Del removes keys; missing keys are not an error.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.store.Del(ctx, keys...).Err()
}

// Ping round-trips to the server; used by the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.store.Ping(ctx).Err()
}

// Close releases the connection pool. Clients built around a mock own no pool.
func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// WorkspaceKey returns the key holding a draft quote workspace.
func (c *Client) WorkspaceKey(draftID string) string {
	return c.buildKey(workspacePrefix, draftID)
}

// IdempotencyKey returns the key caching the response of one idempotent request.
func (c *Client) IdempotencyKey(scope, id string) string {
	return c.buildKey(idempotencyPrefix, scope, id)
}

// RateLimitKey returns the fixed-window counter key for scope.
func (c *Client) RateLimitKey(scope string) string {
	return c.buildKey(rateLimitPrefix, scope)
}

// buildKey joins the non-blank parts under the service namespace.
func (c *Client) buildKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}
