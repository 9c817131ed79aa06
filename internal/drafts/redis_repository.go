package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	fqredis "github.com/angelmondragon/freightquote-backend/pkg/redis"
	"github.com/redis/go-redis/v9"
)

// KV is the key/value surface of pkg/redis.Client used by RedisRepository.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	SwapRevision(ctx context.Context, key string, expected uint64, value string, ttl time.Duration) error
	Touch(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	WorkspaceKey(draftID string) string
}

// RedisRepository stores each workspace as one JSON document with a sliding TTL.
type RedisRepository struct {
	kv  KV
	ttl time.Duration
}

// NewRedisRepository builds a repository; ttl <= 0 keeps workspaces forever.
func NewRedisRepository(kv KV, ttl time.Duration) *RedisRepository {
	return &RedisRepository{kv: kv, ttl: ttl}
}

// Create writes ws unless the key is taken.
func (r *RedisRepository) Create(ctx context.Context, ws Workspace) error {
	payload, err := encodeWorkspace(ws)
	if err != nil {
		return err
	}
	created, err := r.kv.SetNX(ctx, r.kv.WorkspaceKey(ws.Draft.ID), string(payload), r.ttl)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create draft workspace")
	}
	if !created {
		return pkgerrors.New(pkgerrors.CodeConflict, "draft already exists")
	}
	return nil
}

// Get loads a workspace and extends its TTL.
func (r *RedisRepository) Get(ctx context.Context, draftID string) (Workspace, error) {
	key := r.kv.WorkspaceKey(draftID)
	raw, err := r.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Workspace{}, draftNotFound(draftID)
		}
		return Workspace{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load draft workspace")
	}
	if _, err := r.kv.Touch(ctx, key, r.ttl); err != nil {
		return Workspace{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "extend draft workspace ttl")
	}
	return decodeWorkspace([]byte(raw))
}

// Save swaps the stored document for ws when its revision still matches and
// resets the TTL.
func (r *RedisRepository) Save(ctx context.Context, ws Workspace, expectedRevision uint64) error {
	payload, err := encodeWorkspace(ws)
	if err != nil {
		return err
	}
	err = r.kv.SwapRevision(ctx, r.kv.WorkspaceKey(ws.Draft.ID), expectedRevision, string(payload), r.ttl)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return draftNotFound(ws.Draft.ID)
	case errors.Is(err, fqredis.ErrRevisionMismatch):
		return staleWorkspace(ws.Draft.ID)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save draft workspace")
	}
}

// Delete removes the workspace.
func (r *RedisRepository) Delete(ctx context.Context, draftID string) error {
	if err := r.kv.Del(ctx, r.kv.WorkspaceKey(draftID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete draft workspace")
	}
	return nil
}

func encodeWorkspace(ws Workspace) ([]byte, error) {
	payload, err := json.Marshal(ws)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode draft workspace")
	}
	return payload, nil
}

func decodeWorkspace(payload []byte) (Workspace, error) {
	var ws Workspace
	if err := json.Unmarshal(payload, &ws); err != nil {
		return Workspace{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode draft workspace")
	}
	return ws, nil
}
