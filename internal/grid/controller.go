// Package grid ties the filter store, the page loader and the selection
// together into the invoice grid state machine.
package grid

import (
	"context"
	"sync"
	"time"

	"einvoice/internal/datasource"
	"einvoice/internal/filter"
	"einvoice/internal/logger"
	"einvoice/internal/metrics"
	"einvoice/internal/query"
	"einvoice/internal/selection"
	"einvoice/pkg/models"

	"github.com/rs/zerolog"
)

// Config is everything the controller needs at construction. Nothing is read
// from the environment later.
type Config struct {
	// PageSize is the initial page size; non-positive means query.DefaultPageSize.
	PageSize int

	// Debounce is the filter-row commit window; non-positive means 500ms.
	Debounce time.Duration

	// Scheduler drives the debounce timer; nil means the wall clock.
	Scheduler filter.Scheduler

	// Metrics records fetch outcomes; nil disables them.
	Metrics *metrics.FetchMetrics
}

// Controller is the invoice grid. All methods are safe for concurrent use.
type Controller struct {
	store  *filter.Store
	loader *datasource.Loader
	sel    *selection.Tracker
	log    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	started  bool
	closed   bool
	state    State
	version  uint64
	page     int
	pageSize int
	rows     models.Page
	err      error
	subs     map[int]func(Snapshot)
	nextSub  int
}

// New creates an idle controller fetching pages through f.
func New(f datasource.Fetcher, cfg Config) *Controller {
	pageSize := cfg.PageSize
	if pageSize < 1 {
		pageSize = query.DefaultPageSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		loader:   datasource.NewLoader(f, cfg.Metrics),
		sel:      selection.New(),
		log:      logger.WithComponent("grid"),
		ctx:      ctx,
		cancel:   cancel,
		page:     1,
		pageSize: pageSize,
		subs:     make(map[int]func(Snapshot)),
	}
	c.store = filter.NewStore(filter.NewDebouncer(cfg.Debounce, cfg.Scheduler), c.onCommit)
	return c
}

// Start seeds the filter with the externally supplied initial value and runs
// the first load. The seed does not count as a filter change, so exactly one
// fetch is issued. Later calls do nothing.
func (c *Controller) Start(seed filter.Patch) {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	c.store.OnExternalChange(seed)

	c.mu.Lock()
	c.page = 1
	c.loadLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.log.Debug().Str("seed", snap.Committed.String()).Msg("Grid started")
	c.publish(snap)
}

// SetFilter records a filter-row edit. The local filter changes at once; the
// committed filter follows after the debounce window.
func (c *Controller) SetFilter(field filter.Field, raw any) filter.Value {
	v := c.store.SetLocal(field, raw)
	c.publishCurrent()
	return v
}

// ApplyExternal merges a change from outside the filter row, such as the
// status sidebar, and commits it immediately. It reports whether a commit
// happened. Before Start the patch is the seed and ApplyExternal starts the
// grid instead.
func (c *Controller) ApplyExternal(p filter.Patch) bool {
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()

	if !started {
		c.Start(p)
		return false
	}
	return c.store.OnExternalChange(p)
}

// SelectStatus is the sidebar entry point. An empty or "viewAll" status
// removes the status constraint.
func (c *Controller) SelectStatus(status string) bool {
	return c.ApplyExternal(filter.Patch{
		filter.FieldStatus: filter.Normalize(filter.FieldStatus, status),
	})
}

// ClearFilters removes every constraint and commits synchronously.
func (c *Controller) ClearFilters() {
	c.store.Clear()
}

// SetPage moves to page n and reloads. The selection is cleared.
func (c *Controller) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.page = n
	c.sel.Clear()
	c.loadLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
}

// SetPageSize changes the page size, returns to page 1 and reloads.
func (c *Controller) SetPageSize(n int) {
	if n < 1 {
		n = query.DefaultPageSize
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.pageSize = n
	c.page = 1
	c.sel.Clear()
	c.loadLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
}

// Refresh reloads the current page and clears the selection. Callers invoke
// it after a successful action; the controller never refreshes on its own.
func (c *Controller) Refresh() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.sel.Clear()
	c.loadLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
}

// ClearSelection empties the selection without reloading.
func (c *Controller) ClearSelection() {
	c.sel.Clear()
	c.publishCurrent()
}

// Toggle flips the selection of one invoice.
func (c *Controller) Toggle(id string) bool {
	selected := c.sel.Toggle(id)
	c.publishCurrent()
	return selected
}

// SelectAllVisible selects every invoice on the current page.
func (c *Controller) SelectAllVisible() {
	c.mu.Lock()
	ids := c.rows.IDs()
	c.mu.Unlock()

	c.sel.SelectAll(ids)
	c.publishCurrent()
}

// SelectNone is ClearSelection under the name the header checkbox uses.
func (c *Controller) SelectNone() {
	c.ClearSelection()
}

// AllVisibleSelected reports whether the page has rows and all are selected.
func (c *Controller) AllVisibleSelected() bool {
	c.mu.Lock()
	ids := c.rows.IDs()
	c.mu.Unlock()
	return c.sel.IsAllSelected(ids)
}

// SelectedIDs returns the selected invoice ids in selection order.
func (c *Controller) SelectedIDs() []string {
	return c.sel.IDs()
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn for every state change and returns a function that
// removes it. fn runs on the goroutine that caused the change and must not
// block.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Wait blocks until every fetch issued so far has resolved and been applied
// or discarded.
func (c *Controller) Wait() {
	c.loader.Wait()
}

// Close drops any pending debounced commit, cancels in-flight fetches and
// waits for them. The controller ignores all calls afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.store.Cancel()
	c.cancel()
	c.loader.Wait()
	c.log.Debug().Msg("Grid closed")
}

// onCommit runs for every committed filter: back to page 1, selection
// cleared, new load.
func (c *Controller) onCommit(committed filter.Filter) {
	c.mu.Lock()
	if c.closed || !c.started {
		c.mu.Unlock()
		return
	}
	c.page = 1
	c.sel.Clear()
	c.loadLockedWith(committed)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.log.Debug().Str("filter", committed.String()).Msg("Filter change loaded")
	c.publish(snap)
}

func (c *Controller) loadLocked() {
	c.loadLockedWith(c.store.Committed())
}

func (c *Controller) loadLockedWith(committed filter.Filter) {
	params := query.Build(committed, c.page, c.pageSize)
	c.state = Loading
	c.err = nil
	c.loader.Issue(c.ctx, params, c.deliver)
	c.version++
}

// deliver applies a fetch result if it belongs to the current generation.
// Loads are issued under c.mu, so the check under c.mu cannot race a newer
// Issue.
func (c *Controller) deliver(res datasource.Result) {
	c.mu.Lock()
	if c.closed || !c.loader.IsCurrent(res.Generation) {
		c.mu.Unlock()
		c.log.Debug().Uint64("generation", res.Generation).Msg("Ignoring result for superseded generation")
		return
	}

	if res.Err != nil {
		c.state = Error
		c.rows = models.Page{}
		c.err = res.Err
	} else {
		c.state = Ready
		c.rows = res.Page
		c.err = nil
	}
	c.version++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if res.Err != nil {
		c.log.Warn().Err(res.Err).Uint64("generation", res.Generation).Msg("Invoice page failed to load")
	}
	c.publish(snap)
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Version:            c.version,
		State:              c.state,
		Generation:         c.loader.Generation(),
		Local:              c.store.Local(),
		Committed:          c.store.Committed(),
		Page:               c.page,
		PageSize:           c.pageSize,
		Rows:               c.rows,
		Err:                c.err,
		Selected:           c.sel.IDs(),
		AllVisibleSelected: c.sel.IsAllSelected(c.rows.IDs()),
		PendingCommit:      c.store.Pending(),
	}
}

func (c *Controller) publishCurrent() {
	c.mu.Lock()
	c.version++
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap)
}

func (c *Controller) publish(snap Snapshot) {
	c.mu.Lock()
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
