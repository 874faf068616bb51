// Package search debounces type-ahead lookups and applies only the response
// matching the text currently in the field.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/chatr/internal/bus"
	"github.com/matheus3301/chatr/internal/metrics"
	"github.com/matheus3301/chatr/internal/notify"
)

// DefaultInterval is the quiet period before a lookup is issued.
const DefaultInterval = 300 * time.Millisecond

// Func performs one lookup.
type Func[R any] func(ctx context.Context, query string) ([]R, error)

// Update is the payload of bus.SearchResults.
type Update struct {
	Name  string
	Query string
	Count int
}

// Options configures a Debouncer. Zero values are valid.
type Options struct {
	// Name identifies the debouncer in events and logs.
	Name     string
	Interval time.Duration
	Bus      *bus.Bus
	Banner   *notify.Banner
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Debouncer issues at most one lookup per quiet interval. Every lookup is
// tagged with the exact field text it was issued for, and its response is
// dropped unless the field still holds that text.
type Debouncer[R any] struct {
	fn       Func[R]
	name     string
	interval time.Duration
	bus      *bus.Bus
	banner   *notify.Banner
	metrics  *metrics.Metrics
	logger   *zap.Logger

	mu       sync.Mutex
	text     string
	timer    *time.Timer
	cancel   context.CancelFunc
	results  []R
	resultOf string
	exclude  func(R) bool

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// New creates a debouncer around fn.
func New[R any](fn Func[R], opts Options) *Debouncer[R] {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Debouncer[R]{
		fn:       fn,
		name:     opts.Name,
		interval: opts.Interval,
		bus:      opts.Bus,
		banner:   opts.Banner,
		metrics:  opts.Metrics,
		logger:   logger,
		ctx:      ctx,
		stop:     stop,
	}
}

// SetExclude installs the predicate hiding results from Results. Pass nil to
// show everything.
func (d *Debouncer[R]) SetExclude(fn func(R) bool) {
	d.mu.Lock()
	d.exclude = fn
	d.mu.Unlock()
	d.publish()
}

// Update records new field text. Blank text clears the results at once and
// issues nothing; other text (re)starts the quiet interval.
func (d *Debouncer[R]) Update(text string) {
	d.mu.Lock()
	d.text = text
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.timer = nil
	if strings.TrimSpace(text) == "" {
		d.cancelLocked()
		cleared := d.results != nil
		d.results, d.resultOf = nil, ""
		d.mu.Unlock()
		if cleared {
			d.publish()
		}
		return
	}
	d.wg.Add(1)
	d.timer = time.AfterFunc(d.interval, func() {
		defer d.wg.Done()
		d.fire(text)
	})
	d.mu.Unlock()
}

// Reset clears the field and the results.
func (d *Debouncer[R]) Reset() {
	d.Update("")
}

// Query returns the current field text.
func (d *Debouncer[R]) Query() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

// Results returns the applied results minus excluded entries.
func (d *Debouncer[R]) Results() []R {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]R, 0, len(d.results))
	for _, r := range d.results {
		if d.exclude != nil && d.exclude(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Wait blocks until pending timers and lookups have finished.
func (d *Debouncer[R]) Wait() {
	d.wg.Wait()
}

// Stop cancels everything in flight.
func (d *Debouncer[R]) Stop() {
	d.mu.Lock()
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.timer = nil
	d.mu.Unlock()
	d.stop()
	d.wg.Wait()
}

func (d *Debouncer[R]) fire(tag string) {
	d.mu.Lock()
	if d.text != tag {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.cancelLocked()
	ctx, cancel := context.WithCancel(d.ctx)
	d.cancel = cancel
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer cancel()
		d.run(ctx, tag)
	}()
}

func (d *Debouncer[R]) run(ctx context.Context, tag string) {
	query := strings.TrimSpace(tag)
	d.logger.Debug("search issued", zap.String("search", d.name), zap.String("query", query))
	res, err := d.fn(ctx, query)

	d.mu.Lock()
	if d.text != tag {
		d.mu.Unlock()
		d.metrics.StaleDiscarded("search")
		d.logger.Debug("discarded stale search", zap.String("search", d.name), zap.String("query", query))
		return
	}
	if err != nil {
		d.mu.Unlock()
		if !notify.IsCanceled(err) {
			d.banner.Report(notify.Wrap(notify.Transient, "search users", err))
			d.logger.Warn("search failed", zap.String("search", d.name), zap.Error(err))
		}
		return
	}
	d.results, d.resultOf = res, tag
	d.mu.Unlock()
	d.publish()
}

func (d *Debouncer[R]) cancelLocked() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Debouncer[R]) publish() {
	d.mu.Lock()
	u := Update{Name: d.name, Query: strings.TrimSpace(d.resultOf)}
	d.mu.Unlock()
	u.Count = len(d.Results())
	d.bus.Emit(bus.SearchResults, u)
}
