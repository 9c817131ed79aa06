package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period applied to search input before a remote lookup fires.
const DefaultDelay = 1000 * time.Millisecond

// Debouncer coalesces bursts of input into a single trailing emission. Each Push
// restarts the quiet period; when it elapses the handler receives the latest value.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	handler func(T)
	timer   *time.Timer
	latest  T
	gen     uint64
	pending bool
	stopped bool
}

// New builds a debouncer that calls handler at most once per quiet period.
// A non-positive delay falls back to DefaultDelay.
func New[T any](delay time.Duration, handler func(T)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{delay: delay, handler: handler}
}

// Push records value as the latest input and restarts the quiet period.
func (d *Debouncer[T]) Push(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.latest = value
	d.pending = true
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Flush emits the pending value immediately, if any.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.mu.Unlock()
	d.emit()
}

// Stop cancels any pending emission; later pushes are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Pending reports whether an emission is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	d.emit()
}

func (d *Debouncer[T]) emit() {
	d.mu.Lock()
	if !d.pending || d.stopped {
		d.mu.Unlock()
		return
	}
	value := d.latest
	d.pending = false
	d.mu.Unlock()

	if d.handler != nil {
		d.handler(value)
	}
}
