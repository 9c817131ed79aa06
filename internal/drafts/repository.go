package drafts

import (
	"context"
	"sync"

	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
)

// Repository persists workspaces. Save writes ws only while the stored copy
// still carries the expected revision.
type Repository interface {
	Create(ctx context.Context, ws Workspace) error
	Get(ctx context.Context, draftID string) (Workspace, error)
	Save(ctx context.Context, ws Workspace, expectedRevision uint64) error
	Delete(ctx context.Context, draftID string) error
}

// MemoryRepository keeps workspaces in process memory.
type MemoryRepository struct {
	mu        sync.RWMutex
	items     map[string][]byte
	revisions map[string]uint64
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: map[string][]byte{}, revisions: map[string]uint64{}}
}

// Create stores ws unless a workspace with the same id exists.
func (r *MemoryRepository) Create(ctx context.Context, ws Workspace) error {
	payload, err := encodeWorkspace(ws)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[ws.Draft.ID]; exists {
		return pkgerrors.New(pkgerrors.CodeConflict, "draft already exists")
	}
	r.items[ws.Draft.ID] = payload
	r.revisions[ws.Draft.ID] = ws.Revision
	return nil
}

// Get loads a workspace.
func (r *MemoryRepository) Get(ctx context.Context, draftID string) (Workspace, error) {
	r.mu.RLock()
	payload, ok := r.items[draftID]
	r.mu.RUnlock()
	if !ok {
		return Workspace{}, draftNotFound(draftID)
	}
	return decodeWorkspace(payload)
}

// Save overwrites an existing workspace.
func (r *MemoryRepository) Save(ctx context.Context, ws Workspace, expectedRevision uint64) error {
	payload, err := encodeWorkspace(ws)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[ws.Draft.ID]; !exists {
		return draftNotFound(ws.Draft.ID)
	}
	if r.revisions[ws.Draft.ID] != expectedRevision {
		return staleWorkspace(ws.Draft.ID)
	}
	r.items[ws.Draft.ID] = payload
	r.revisions[ws.Draft.ID] = ws.Revision
	return nil
}

// Delete removes a workspace.
func (r *MemoryRepository) Delete(ctx context.Context, draftID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, draftID)
	delete(r.revisions, draftID)
	return nil
}

func draftNotFound(draftID string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "draft not found").WithDetails(map[string]any{"draft_id": draftID})
}

func staleWorkspace(draftID string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "draft was modified concurrently; reload and retry").
		WithDetails(map[string]any{"draft_id": draftID})
}
