// Package pager drives "page N of M" navigation over any list endpoint that
// answers with a page of items and a page count.
package pager

import (
	"context"
	"slices"
	"sync"

	"github.com/ds124wfegd/eventhive/internal/entity"
	"github.com/sirupsen/logrus"
)

// Fetcher loads one page. Pages are 1-indexed.
type Fetcher[T any] func(ctx context.Context, page int) (entity.Page[T], error)

// State is a copy of the cursor's view. Items must be treated as read-only.
type State[T any] struct {
	CurrentPage int
	TotalPages  int
	Items       []T
	Loading     bool
	Refreshing  bool
	Notice      *entity.Notice
}

func (s State[T]) HasPrev() bool { return s.CurrentPage > 1 }
func (s State[T]) HasNext() bool { return s.CurrentPage < s.TotalPages }

type Option func(*options)

type options struct {
	name     string
	log      logrus.FieldLogger
	onNotice func(entity.Notice)
}

// WithName labels log lines and the fallback notice ("Failed to fetch <name>").
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

// WithNoticeHandler receives every non-fatal failure of a fetch.
func WithNoticeHandler(fn func(entity.Notice)) Option {
	return func(o *options) { o.onNotice = fn }
}

type Cursor[T any] struct {
	fetch Fetcher[T]
	opts  options

	mu         sync.Mutex
	state      State[T]
	loading    int // in-flight loads
	refreshing int // in-flight refreshes
	gen        uint64
	closed     bool
}

func New[T any](fetch Fetcher[T], opts ...Option) *Cursor[T] {
	o := options{name: "items", log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cursor[T]{
		fetch: fetch,
		opts:  o,
		state: State[T]{CurrentPage: 1, TotalPages: 1},
	}
}

// State returns a snapshot safe to read without holding any lock.
func (c *Cursor[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Cursor[T]) snapshotLocked() State[T] {
	s := c.state
	s.Items = slices.Clone(c.state.Items)
	s.Loading = c.loading > 0
	s.Refreshing = c.refreshing > 0
	return s
}

// Load fetches an explicit page and, on success, replaces items and total
// pages wholesale. On failure the last good items stay and a notice is set.
// A load superseded by a later Load or Refresh is discarded when it resolves.
// When the list shrank below page, the last page is fetched instead.
func (c *Cursor[T]) Load(ctx context.Context, page int) (State[T], error) {
	s, _, beyond, err := c.load(ctx, page)
	if err == nil && beyond {
		s, _, _, err = c.load(ctx, s.TotalPages)
	}
	return s, err
}

// load returns the generation it ran under, beyond reports page > totalPages.
func (c *Cursor[T]) load(ctx context.Context, page int) (State[T], uint64, bool, error) {
	if page < 1 {
		page = 1
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return State[T]{}, 0, false, entity.ErrClosed
	}
	c.gen++
	gen := c.gen
	c.loading++
	c.mu.Unlock()

	res, err := c.fetch(ctx, page)

	c.mu.Lock()
	c.loading-- // released whatever happened

	log := c.opts.log.WithFields(logrus.Fields{"list": c.opts.name, "page": page})

	if c.closed {
		c.mu.Unlock()
		log.Debug("Dropping page fetched after close")
		return State[T]{}, gen, false, entity.ErrClosed
	}
	if gen != c.gen {
		s := c.snapshotLocked()
		c.mu.Unlock()
		log.Debug("Dropping superseded page")
		return s, gen, false, nil
	}

	if err != nil {
		n := entity.Notice{
			Kind:    entity.NoticeError,
			Message: entity.UserMessage(err, "Failed to fetch "+c.opts.name),
			Err:     err,
		}
		c.state.Notice = &n
		s := c.snapshotLocked()
		c.mu.Unlock()

		log.WithError(err).Warn("Page fetch failed")
		if c.opts.onNotice != nil {
			c.opts.onNotice(n)
		}
		return s, gen, false, err
	}

	total := max(res.TotalPages, 1)
	c.state.Items = res.Items
	c.state.TotalPages = total
	c.state.CurrentPage = min(page, total)
	c.state.Notice = nil
	s := c.snapshotLocked()
	c.mu.Unlock()

	log.WithField("total_pages", total).Debug("Page loaded")
	return s, gen, page > total, nil
}

// GoToPage clamps n into [1, totalPages] and loads it. Asking for the page
// already shown is a no-op and issues no fetch.
func (c *Cursor[T]) GoToPage(ctx context.Context, n int) (State[T], error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return State[T]{}, entity.ErrClosed
	}
	n = max(1, min(n, c.state.TotalPages))
	if n == c.state.CurrentPage {
		s := c.snapshotLocked()
		c.mu.Unlock()
		return s, nil
	}
	c.mu.Unlock()

	return c.Load(ctx, n)
}

func (c *Cursor[T]) Next(ctx context.Context) (State[T], error) {
	return c.GoToPage(ctx, c.State().CurrentPage+1)
}

func (c *Cursor[T]) Prev(ctx context.Context) (State[T], error) {
	return c.GoToPage(ctx, c.State().CurrentPage-1)
}

// Refresh resets to page 1 and refetches it. The page number is reset even
// if the fetch fails, unless a later load has taken over the state since.
func (c *Cursor[T]) Refresh(ctx context.Context) (State[T], error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return State[T]{}, entity.ErrClosed
	}
	c.refreshing++
	c.mu.Unlock()

	_, gen, _, err := c.load(ctx, 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshing--
	if c.closed {
		return State[T]{}, entity.ErrClosed
	}
	if gen == c.gen {
		c.state.CurrentPage = 1
	}
	return c.snapshotLocked(), err
}

// Reload fetches the page currently shown again.
func (c *Cursor[T]) Reload(ctx context.Context) (State[T], error) {
	return c.Load(ctx, c.State().CurrentPage)
}

// Update applies a local edit to the displayed items, used for optimistic
// mutations. fn receives the live slice and returns the new one.
func (c *Cursor[T]) Update(fn func(items []T) []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.state.Items = fn(c.state.Items)
}

// SetNotice records a notice coming from an operation on the items.
func (c *Cursor[T]) SetNotice(n *entity.Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Notice = n
}

// Close detaches the cursor. Fetches that resolve afterwards are dropped.
func (c *Cursor[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Cursor[T]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
