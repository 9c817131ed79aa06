package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/freightquote-backend/internal/offers"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/metrics"
)

var (
	// ErrClosed is returned by loads issued after Close.
	ErrClosed = errors.New("catalog client closed")
	// ErrSuperseded is returned when a load finished after a newer load or Close
	// invalidated it. Its result was discarded.
	ErrSuperseded = errors.New("catalog load superseded")
)

// Snapshot is a point-in-time copy of a catalog's observable state.
type Snapshot struct {
	Kind     enums.CatalogKind   `json:"kind"`
	Status   enums.CatalogStatus `json:"status"`
	Offers   []offers.Offer      `json:"offers"`
	Error    string              `json:"error,omitempty"`
	LoadedAt *time.Time          `json:"loaded_at,omitempty"`
}

// Listener receives a snapshot after every state change.
type Listener func(Snapshot)

// ClientOption configures optional client collaborators.
type ClientOption func(*Client)

// WithLogger sets the logger used for load outcomes.
func WithLogger(logg *logger.Logger) ClientOption {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

// WithMetrics sets the fetch metrics recorder.
func WithMetrics(m *metrics.CatalogFetchMetrics) ClientOption {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Client owns the loaded offers of a single catalog kind.
type Client struct {
	kind    enums.CatalogKind
	source  Source
	logg    *logger.Logger
	metrics *metrics.CatalogFetchMetrics
	now     func() time.Time

	mu           sync.Mutex
	status       enums.CatalogStatus
	settled      enums.CatalogStatus
	inflight     chan struct{}
	offers       []offers.Offer
	lastErr      string
	loadedAt     *time.Time
	generation   uint64
	cancel       context.CancelFunc
	closed       bool
	listeners    map[int]Listener
	nextListener int
}

// NewClient builds an idle client for kind.
func NewClient(kind enums.CatalogKind, source Source, opts ...ClientOption) *Client {
	c := &Client{
		kind:      kind,
		source:    source,
		logg:      logger.Nop(),
		now:       time.Now,
		status:    enums.CatalogStatusIdle,
		settled:   enums.CatalogStatusIdle,
		offers:    []offers.Offer{},
		listeners: map[int]Listener{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Kind returns the catalog this client serves.
func (c *Client) Kind() enums.CatalogKind {
	return c.kind
}

// EnsureLoaded fetches the catalog on first use. Callers arriving while a load
// is in flight wait for it to settle, so a nil return means the catalog is
// loaded or failed. A failed catalog is only retried by Refresh.
func (c *Client) EnsureLoaded(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return ErrClosed
		}
		switch c.status {
		case enums.CatalogStatusIdle:
			c.mu.Unlock()
			// A newer load took over; wait for that one instead.
			if err := c.load(ctx); !errors.Is(err, ErrSuperseded) {
				return err
			}
		case enums.CatalogStatusLoading:
			inflight := c.inflight
			c.mu.Unlock()
			select {
			case <-inflight:
			case <-ctx.Done():
				return ctx.Err()
			}
		default:
			c.mu.Unlock()
			return nil
		}
	}
}

// Refresh reloads the catalog, invalidating any load still in flight.
func (c *Client) Refresh(ctx context.Context) error {
	return c.load(ctx)
}

// Snapshot returns a copy of the current state.
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Offers returns a copy of the loaded offers.
func (c *Client) Offers() []offers.Offer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return offers.CloneAll(c.offers)
}

// Subscribe registers listener and returns a function that removes it.
func (c *Client) Subscribe(listener Listener) func() {
	if listener == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = listener
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Close cancels any in-flight load and discards its result. Later loads fail with ErrClosed.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.listeners = map[int]Listener{}
}

func (c *Client) load(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = c.logg.WithCatalog(ctx, c.kind.String())

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.status = enums.CatalogStatusLoading
	done := make(chan struct{})
	c.inflight = done
	defer close(done)
	snap, listeners := c.snapshotLocked(), c.listenersLocked()
	c.mu.Unlock()
	notify(listeners, snap)

	started := c.now()
	result, err := c.source.Fetch(fetchCtx, c.kind, "")
	elapsed := c.now().Sub(started)
	cancel()

	c.mu.Lock()
	if c.closed || gen != c.generation {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.cancel = nil
	if ctxErr := ctx.Err(); ctxErr != nil {
		// Abandoned by the caller: fall back to the last settled state. Nothing
		// is in flight any more, so this is never loading.
		c.status = c.settled
		snap, listeners = c.snapshotLocked(), c.listenersLocked()
		c.mu.Unlock()
		notify(listeners, snap)
		return ctxErr
	}

	c.metrics.ObserveDuration(c.kind.String(), elapsed)
	if err != nil {
		c.status = enums.CatalogStatusFailed
		c.settled = c.status
		c.lastErr = err.Error()
		snap, listeners = c.snapshotLocked(), c.listenersLocked()
		c.mu.Unlock()

		c.metrics.IncFailure(c.kind.String())
		c.logg.Error(ctx, "catalog load failed", err)
		notify(listeners, snap)
		return err
	}

	loadedAt := c.now()
	c.status = enums.CatalogStatusLoaded
	c.settled = c.status
	c.offers = result.Offers
	if c.offers == nil {
		c.offers = []offers.Offer{}
	}
	c.lastErr = ""
	c.loadedAt = &loadedAt
	count := len(c.offers)
	snap, listeners = c.snapshotLocked(), c.listenersLocked()
	c.mu.Unlock()

	c.metrics.IncSuccess(c.kind.String(), count)
	c.metrics.AddSkipped(c.kind.String(), result.Skipped)
	if result.Unrecognized {
		c.logg.Warn(ctx, "catalog response shape not recognized; treating as empty")
	}
	if result.Repeated {
		c.logg.Warn(ctx, "catalog served a repeated page; paging stopped")
	}
	if result.Skipped > 0 {
		c.logg.Warn(c.logg.WithField(ctx, "skipped", result.Skipped), "catalog records skipped during decode")
	}
	c.logg.Info(c.logg.WithField(ctx, "offers", count), "catalog loaded")
	notify(listeners, snap)
	return nil
}

func (c *Client) snapshotLocked() Snapshot {
	snap := Snapshot{
		Kind:   c.kind,
		Status: c.status,
		Offers: offers.CloneAll(c.offers),
		Error:  c.lastErr,
	}
	if c.loadedAt != nil {
		at := *c.loadedAt
		snap.LoadedAt = &at
	}
	return snap
}

func (c *Client) listenersLocked() []Listener {
	out := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		out = append(out, l)
	}
	return out
}

func notify(listeners []Listener, snap Snapshot) {
	for _, l := range listeners {
		l(snap)
	}
}
