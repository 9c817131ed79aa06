package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/freightquote-backend/internal/offers"
	"github.com/angelmondragon/freightquote-backend/pkg/debounce"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
)

// LookupResult is the outcome of the most recent applied remote search.
type LookupResult struct {
	Seq     uint64         `json:"seq"`
	Query   string         `json:"query"`
	Offers  []offers.Offer `json:"offers"`
	Error   string         `json:"error,omitempty"`
	Pending bool           `json:"pending"`
	At      *time.Time     `json:"at,omitempty"`
}

// Lookup runs remote catalog searches for free-text input after a quiet period.
// Only the latest emission may update the result; responses to older emissions
// are discarded.
type Lookup struct {
	kind      enums.CatalogKind
	source    Source
	logg      *logger.Logger
	timeout   time.Duration
	debouncer *debounce.Debouncer[string]

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	issued   uint64
	inflight context.CancelFunc
	latest   LookupResult
	onResult func(LookupResult)
}

// NewLookup builds a lookup for kind. delay <= 0 uses debounce.DefaultDelay.
func NewLookup(kind enums.CatalogKind, source Source, delay, timeout time.Duration, logg *logger.Logger) *Lookup {
	if logg == nil {
		logg = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &Lookup{
		kind:    kind,
		source:  source,
		logg:    logg,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		latest:  LookupResult{Offers: []offers.Offer{}},
	}
	l.debouncer = debounce.New(delay, l.run)
	return l
}

// OnResult registers a callback invoked after each applied result.
func (l *Lookup) OnResult(fn func(LookupResult)) {
	l.mu.Lock()
	l.onResult = fn
	l.mu.Unlock()
}

// Search records query as the latest input; the remote call fires once input
// has been quiet for the configured delay.
func (l *Lookup) Search(query string) {
	l.debouncer.Push(strings.TrimSpace(query))
}

// Flush fires the pending search immediately.
func (l *Lookup) Flush() {
	l.debouncer.Flush()
}

// Latest returns the last applied result.
func (l *Lookup) Latest() LookupResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.latest
	out.Offers = offers.CloneAll(l.latest.Offers)
	out.Pending = l.debouncer.Pending() || l.inflight != nil
	return out
}

// Close stops pending searches and cancels the one in flight.
func (l *Lookup) Close() {
	l.debouncer.Stop()
	l.cancel()
}

func (l *Lookup) run(query string) {
	l.mu.Lock()
	if l.inflight != nil {
		l.inflight()
	}
	l.issued++
	seq := l.issued
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if l.timeout > 0 {
		ctx, cancel = context.WithTimeout(l.ctx, l.timeout)
	} else {
		ctx, cancel = context.WithCancel(l.ctx)
	}
	l.inflight = cancel
	l.mu.Unlock()

	ctx = l.logg.WithCatalog(ctx, l.kind.String())
	result, err := l.source.Fetch(ctx, l.kind, query)

	l.mu.Lock()
	if seq != l.issued || l.ctx.Err() != nil {
		l.mu.Unlock()
		cancel()
		return
	}
	cancel()
	l.inflight = nil
	at := time.Now()
	applied := LookupResult{Seq: seq, Query: query, Offers: []offers.Offer{}, At: &at}
	if err != nil {
		applied.Error = err.Error()
		applied.Offers = l.latest.Offers
	} else if result.Offers != nil {
		applied.Offers = result.Offers
	}
	l.latest = applied
	onResult := l.onResult
	l.mu.Unlock()

	if err != nil {
		l.logg.Error(l.logg.WithField(ctx, "query", query), "catalog lookup failed", err)
	} else if result.Unrecognized {
		l.logg.Warn(ctx, "catalog lookup response shape not recognized; treating as empty")
	}
	if onResult != nil {
		onResult(applied)
	}
}

// DefaultLookupIdleTTL is how long an unused lookup survives before eviction.
const DefaultLookupIdleTTL = 30 * time.Minute

// ErrLookupsClosed is returned by Lookups.Lookup after Close.
var ErrLookupsClosed = errors.New("catalog lookups closed")

// LookupsOption configures a Lookups registry.
type LookupsOption func(*Lookups)

// WithLookupIdleTTL sets how long an unused lookup is kept; ttl <= 0 keeps
// the default.
func WithLookupIdleTTL(ttl time.Duration) LookupsOption {
	return func(l *Lookups) {
		if ttl > 0 {
			l.idleTTL = ttl
		}
	}
}

// WithLookupClock overrides the time source used for eviction.
func WithLookupClock(now func() time.Time) LookupsOption {
	return func(l *Lookups) {
		if now != nil {
			l.now = now
		}
	}
}

type lookupKey struct {
	scope string
	kind  enums.CatalogKind
}

type lookupEntry struct {
	lookup   *Lookup
	lastUsed time.Time
}

// Lookups hands out one debounced lookup per scope (a draft workspace) and
// catalog kind, so unrelated searches never coalesce or overwrite each other.
// Lookups idle for longer than the TTL are closed and dropped.
type Lookups struct {
	source  Source
	delay   time.Duration
	timeout time.Duration
	idleTTL time.Duration
	logg    *logger.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[lookupKey]*lookupEntry
	closed  bool
}

// NewLookups builds an empty registry over a shared source.
func NewLookups(source Source, delay, timeout time.Duration, logg *logger.Logger, opts ...LookupsOption) *Lookups {
	l := &Lookups{
		source:  source,
		delay:   delay,
		timeout: timeout,
		idleTTL: DefaultLookupIdleTTL,
		logg:    logg,
		now:     time.Now,
		entries: map[lookupKey]*lookupEntry{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Lookup returns the lookup of kind within scope, creating it on first use.
func (l *Lookups) Lookup(scope string, kind enums.CatalogKind) (*Lookup, error) {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lookup scope is required")
	}
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog not found").WithDetails(map[string]any{"kind": kind})
	}

	now := l.now()
	key := lookupKey{scope: scope, kind: kind}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrLookupsClosed
	}
	expired := l.evictLocked(now, key)
	entry, ok := l.entries[key]
	if !ok {
		entry = &lookupEntry{lookup: NewLookup(kind, l.source, l.delay, l.timeout, l.logg)}
		l.entries[key] = entry
	}
	entry.lastUsed = now
	l.mu.Unlock()

	for _, stale := range expired {
		stale.Close()
	}
	return entry.lookup, nil
}

// Len reports how many lookups are live.
func (l *Lookups) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Close stops every lookup. Later calls to Lookup fail.
func (l *Lookups) Close() {
	l.mu.Lock()
	l.closed = true
	entries := l.entries
	l.entries = map[lookupKey]*lookupEntry{}
	l.mu.Unlock()
	for _, entry := range entries {
		entry.lookup.Close()
	}
}

func (l *Lookups) evictLocked(now time.Time, keep lookupKey) []*Lookup {
	var expired []*Lookup
	for key, entry := range l.entries {
		if key == keep || now.Sub(entry.lastUsed) < l.idleTTL {
			continue
		}
		delete(l.entries, key)
		expired = append(expired, entry.lookup)
	}
	return expired
}
