package quote

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
)

// MaxSavedOptions bounds how many options a draft may keep.
const MaxSavedOptions = 3

// ErrCapExceeded is wrapped by SaveCurrentOption when the draft is full.
var ErrCapExceeded = errors.New("saved option cap exceeded")

// OptionMutator transforms the option under edit. It receives a private copy.
type OptionMutator func(Option) (Option, error)

// BasicsMutator transforms the draft basics. It receives a private copy.
type BasicsMutator func(Basics) (Basics, error)

// Listener is notified with a copy of the draft and its version after every mutation.
type Listener func(DraftQuote, uint64)

// Derived holds the totals of a draft at one version.
type Derived struct {
	Version  uint64            `json:"version"`
	Current  Totals            `json:"current"`
	Existing map[string]Totals `json:"existing"`
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreClock overrides the time used to stamp saved options.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how saved option ids are generated.
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithVersion seeds the version counter when restoring a persisted draft.
func WithVersion(version uint64) StoreOption {
	return func(s *Store) {
		s.version = version
	}
}

// Store is the aggregate root for one draft quote. Every mutation bumps the
// version; saved options are never modified in place.
type Store struct {
	mu        sync.Mutex
	draft     DraftQuote
	version   uint64
	now       func() time.Time
	newID     func() string
	listeners map[int]Listener
	nextID    int
	derived   *Derived
}

// NewStore wraps draft. The draft is copied.
func NewStore(draft DraftQuote, opts ...StoreOption) *Store {
	s := &Store{
		draft:     normalizeDraft(draft.Clone()),
		now:       time.Now,
		newID:     uuid.NewString,
		listeners: map[int]Listener{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Get returns a copy of the draft.
func (s *Store) Get() DraftQuote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// Version returns the mutation counter.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Subscribe registers listener and returns a function that removes it.
func (s *Store) Subscribe(listener Listener) func() {
	if listener == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Totals returns the derived aggregates, recomputed only when the version moved.
func (s *Store) Totals() Derived {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.derived == nil || s.derived.Version != s.version {
		derived := Derived{
			Version:  s.version,
			Current:  ComputeTotals(s.draft.CurrentOption),
			Existing: make(map[string]Totals, len(s.draft.ExistingOptions)),
		}
		for _, opt := range s.draft.ExistingOptions {
			derived.Existing[opt.ID] = ComputeTotals(opt)
		}
		s.derived = &derived
	}
	out := *s.derived
	out.Existing = make(map[string]Totals, len(s.derived.Existing))
	for id, totals := range s.derived.Existing {
		out.Existing[id] = totals
	}
	return out
}

// UpdateCurrentOption applies mutator to the option under edit. On error nothing
// changes. The mutator runs under the store lock and must not call back into it.
func (s *Store) UpdateCurrentOption(mutator OptionMutator) (Option, error) {
	var out Option
	err := s.mutate(func() error {
		next, err := mutator(s.draft.CurrentOption.Clone())
		if err != nil {
			return err
		}
		next = normalizeOption(next)
		// The option under edit is never a saved snapshot.
		next.ID = ""
		next.SavedAt = nil
		s.draft.CurrentOption = next
		out = next.Clone()
		return nil
	})
	if err != nil {
		return Option{}, err
	}
	return out, nil
}

// UpdateBasics applies mutator to the draft basics. On error nothing changes.
func (s *Store) UpdateBasics(mutator BasicsMutator) (Basics, error) {
	var out Basics
	err := s.mutate(func() error {
		next, err := mutator(s.draft.Basics.Clone())
		if err != nil {
			return err
		}
		if next.Containers == nil {
			next.Containers = []ContainerEntry{}
		}
		s.draft.Basics = next
		out = next.Clone()
		return nil
	})
	if err != nil {
		return Basics{}, err
	}
	return out, nil
}

// SaveCurrentOption snapshots the option under edit under name and resets it.
// A full draft fails with a CAPACITY_EXCEEDED error wrapping ErrCapExceeded and
// leaves the draft unchanged.
func (s *Store) SaveCurrentOption(name string) (Option, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Option{}, pkgerrors.New(pkgerrors.CodeValidation, "option name is required")
	}

	var out Option
	err := s.mutate(func() error {
		if len(s.draft.ExistingOptions) >= MaxSavedOptions {
			return pkgerrors.Wrap(pkgerrors.CodeCapacityExceeded, ErrCapExceeded, "a draft can keep at most 3 saved options").
				WithDetails(map[string]any{"max_saved_options": MaxSavedOptions})
		}

		saved := s.draft.CurrentOption.Clone()
		savedAt := s.now().UTC()
		saved.ID = s.newID()
		saved.Name = trimmed
		saved.SavedAt = &savedAt

		existing := make([]Option, len(s.draft.ExistingOptions), len(s.draft.ExistingOptions)+1)
		copy(existing, s.draft.ExistingOptions)
		s.draft.ExistingOptions = append(existing, saved)
		s.draft.CurrentOption = NewOption()
		out = saved.Clone()
		return nil
	})
	if err != nil {
		return Option{}, err
	}
	return out, nil
}

// RemoveOption deletes a saved option. The option under edit is untouched.
func (s *Store) RemoveOption(id string) error {
	return s.mutate(func() error {
		idx := s.indexOfOptionLocked(id)
		if idx < 0 {
			return optionNotFound(id)
		}
		existing := make([]Option, 0, len(s.draft.ExistingOptions)-1)
		existing = append(existing, s.draft.ExistingOptions[:idx]...)
		s.draft.ExistingOptions = append(existing, s.draft.ExistingOptions[idx+1:]...)
		return nil
	})
}

// LoadOption replaces the option under edit with a copy of a saved option. The
// copy is a new, unsaved option; the saved snapshot stays as it was.
func (s *Store) LoadOption(id string) (Option, error) {
	var out Option
	err := s.mutate(func() error {
		idx := s.indexOfOptionLocked(id)
		if idx < 0 {
			return optionNotFound(id)
		}
		next := s.draft.ExistingOptions[idx].Clone()
		next.ID = ""
		next.Name = ""
		next.SavedAt = nil
		s.draft.CurrentOption = next
		out = next.Clone()
		return nil
	})
	if err != nil {
		return Option{}, err
	}
	return out, nil
}

func (s *Store) indexOfOptionLocked(id string) int {
	trimmed := strings.TrimSpace(id)
	for i, opt := range s.draft.ExistingOptions {
		if opt.ID == trimmed {
			return i
		}
	}
	return -1
}

// mutate runs apply under the lock. When apply succeeds the version is bumped
// and listeners are notified once the lock is released. The lock is released
// even if apply panics.
func (s *Store) mutate(apply func() error) error {
	snapshot, version, listeners, err := s.applyLocked(apply)
	if err != nil {
		return err
	}
	for _, l := range listeners {
		l(snapshot.Clone(), version)
	}
	return nil
}

func (s *Store) applyLocked(apply func() error) (DraftQuote, uint64, []Listener, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := apply(); err != nil {
		return DraftQuote{}, 0, nil, err
	}
	s.version++
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	return s.draft.Clone(), s.version, listeners, nil
}

func optionNotFound(id string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "option not found").WithDetails(map[string]any{"option_id": id})
}

func normalizeOption(o Option) Option {
	if o.Containers == nil {
		o.Containers = []ContainerEntry{}
	}
	if o.OceanLegs == nil {
		o.OceanLegs = []SelectionRecord{}
	}
	if o.InlandLegs == nil {
		o.InlandLegs = []SelectionRecord{}
	}
	if o.Services == nil {
		o.Services = []SelectionRecord{}
	}
	return o
}

func normalizeDraft(d DraftQuote) DraftQuote {
	d.CurrentOption = normalizeOption(d.CurrentOption)
	if d.Basics.Containers == nil {
		d.Basics.Containers = []ContainerEntry{}
	}
	if d.ExistingOptions == nil {
		d.ExistingOptions = []Option{}
	}
	for i := range d.ExistingOptions {
		d.ExistingOptions[i] = normalizeOption(d.ExistingOptions[i])
	}
	return d
}
