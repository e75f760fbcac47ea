// Package listview implements the client side state machine behind every
// list screen: a cached collection, client pagination, and a debounced
// server search whose responses are applied in issuance order.
package listview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/romdo/go-debounce"

	"github.com/limitedeportes/panel/engine/apperr"
	"github.com/limitedeportes/panel/engine/item"
	"github.com/limitedeportes/panel/engine/notify"
	"github.com/limitedeportes/panel/pkg/logger"
)

const (
	DefaultPageSize        = 5
	DefaultDebounce        = 300 * time.Millisecond
	DefaultMinSearchLength = 2
)

var (
	// ErrRefreshHalted is returned by Refresh after the backend invalidated
	// the session. Only an explicit LoadAll resumes refreshing.
	ErrRefreshHalted = errors.New("listview: automatic refresh halted until reload")
	// ErrClosed is returned by operations on a closed controller.
	ErrClosed = errors.New("listview: controller closed")
)

// DataSource fetches the collection shown by a controller.
type DataSource interface {
	List(ctx context.Context) ([]item.Item, error)
	Search(ctx context.Context, text string) ([]item.Item, error)
}

// Renderer draws views. Render is called outside the controller lock and
// must not call back into the controller synchronously.
type Renderer interface {
	Render(View)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(View)

func (f RendererFunc) Render(v View) { f(v) }

type Option func(*Controller)

func WithRenderer(r Renderer) Option { return func(c *Controller) { c.renderer = r } }

func WithNotifier(n notify.Notifier) Option { return func(c *Controller) { c.notifier = n } }

func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

func WithDebounce(d time.Duration) Option { return func(c *Controller) { c.debounce = d } }

func WithMinSearchLength(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.minSearch = n
		}
	}
}

// WithRequestTimeout bounds every List and Search call. Zero disables it.
func WithRequestTimeout(d time.Duration) Option { return func(c *Controller) { c.timeout = d } }

func WithMessages(m Messages) Option { return func(c *Controller) { c.msgs = m } }

func WithLogger(l logger.Logger) Option { return func(c *Controller) { c.log = l } }

// Controller owns the ViewState of one list screen.
type Controller struct {
	base       context.Context
	cancelBase context.CancelFunc
	source     DataSource
	renderer   Renderer
	notifier   notify.Notifier
	log        logger.Logger
	msgs       Messages
	pageSize   int
	minSearch  int
	debounce   time.Duration
	timeout    time.Duration

	debounced      func()
	cancelDebounce func()

	mu           sync.Mutex
	state        ViewState
	status       Status
	epoch        uint64
	pendingText  string
	cancelSearch context.CancelFunc
	searching    bool
	searchErr    error
	halted       bool
	loaded       bool
	closed       bool
	inflight     sync.WaitGroup
}

// New creates a controller in Browsing mode at page 1 with an empty
// collection. ctx bounds every search the controller issues on its own;
// cancelling it has the same effect on searches as Close.
func New(ctx context.Context, source DataSource, opts ...Option) *Controller {
	base, cancel := context.WithCancel(ctx)
	c := &Controller{
		base:       base,
		cancelBase: cancel,
		source:     source,
		renderer:   RendererFunc(func(View) {}),
		notifier:   notify.Discard,
		log:        logger.FromContext(ctx),
		msgs:       MessagesFor(item.Schema{}),
		pageSize:   DefaultPageSize,
		minSearch:  DefaultMinSearchLength,
		debounce:   DefaultDebounce,
		status:     StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.msgs.Table == nil {
		c.msgs.Table = apperr.DefaultTable()
	}
	c.state = ViewState{Mode: Browsing, Page: 1, PageSize: c.pageSize, Items: []item.Item{}}
	if c.debounce > 0 {
		c.debounced, c.cancelDebounce = debounce.New(c.debounce, c.fireSearch)
	} else {
		c.debounced, c.cancelDebounce = c.fireSearch, func() {}
	}
	return c
}

// LoadAll fetches the full collection. It blocks until the data source
// answers; callers that must stay responsive run it on their own goroutine.
// Calling LoadAll also resumes automatic refreshes halted by an auth failure.
func (c *Controller) LoadAll(ctx context.Context) ([]item.Item, error) {
	return c.load(ctx, true)
}

// Refresh is the automatic reload triggered after mutations. It does nothing
// while refreshes are halted.
func (c *Controller) Refresh(ctx context.Context) error {
	_, err := c.load(ctx, false)
	return err
}

func (c *Controller) load(ctx context.Context, explicit bool) ([]item.Item, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if !explicit && c.halted {
		c.mu.Unlock()
		c.log.Debug("refresh skipped while session is invalid")
		return nil, ErrRefreshHalted
	}
	c.halted = false
	c.epoch++
	epoch := c.epoch
	c.stopSearchLocked()
	c.searchErr = nil
	c.status = StatusLoading
	view := c.projectLocked()
	c.mu.Unlock()
	c.renderer.Render(view)

	reqCtx, cancel := c.requestContext(ctx)
	items, err := c.source.List(reqCtx)
	cancel()

	c.mu.Lock()
	if err != nil {
		msg, severity := c.failureLocked(err, c.msgs.LoadFailed)
		view = c.projectLocked()
		c.mu.Unlock()
		c.log.Warn("list load failed", "resource", c.msgs.Plural, "error", err)
		c.notifier.Notify(ctx, msg, severity)
		c.renderer.Render(view)
		return nil, err
	}
	if items == nil {
		items = []item.Item{}
	}
	c.state.Items = item.CloneAll(items)
	c.loaded = true
	c.status = StatusReady
	if epoch == c.epoch {
		c.state.Mode = Browsing
		c.state.FilteredItems = nil
		c.state.FilterText = ""
		c.state.Page = 1
	}
	view = c.projectLocked()
	c.mu.Unlock()
	c.log.Debug("list loaded", "resource", c.msgs.Plural, "count", len(items))
	c.renderer.Render(view)
	return item.CloneAll(items), nil
}

// failureLocked records a failed request in the state and picks the
// notification to emit.
func (c *Controller) failureLocked(err error, fallback string) (string, notify.Severity) {
	if apperr.IsAuth(err) {
		c.halted = true
		c.status = StatusAuthRequired
		return c.msgs.AuthRequired, notify.Warning
	}
	if !c.loaded {
		c.status = StatusFailed
	} else {
		c.status = StatusReady
	}
	var e *apperr.Error
	if errors.As(err, &e) && (e.Kind == apperr.KindNetwork || e.ServerMessage != "") {
		return apperr.Message(err, c.msgs.Table), notify.Error
	}
	return fallback, notify.Error
}

// Search records text and issues a filtered fetch once input has been quiet
// for the debounce period. Only the last text of a burst is searched.
func (c *Controller) Search(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.pendingText = text
	c.mu.Unlock()
	c.debounced()
}

func (c *Controller) fireSearch() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	text := c.pendingText
	normalized := strings.ToLower(strings.TrimSpace(text))
	c.epoch++
	epoch := c.epoch
	c.stopSearchLocked()
	c.searchErr = nil
	c.state.FilterText = text

	if utf8.RuneCountInString(normalized) < c.minSearch {
		c.state.Mode = Browsing
		c.state.FilteredItems = nil
		c.state.Page = 1
		view := c.projectLocked()
		c.mu.Unlock()
		c.renderer.Render(view)
		return
	}

	ctx, cancel := c.requestContext(c.base)
	c.cancelSearch = cancel
	c.searching = true
	c.inflight.Add(1)
	view := c.projectLocked()
	c.mu.Unlock()
	c.renderer.Render(view)

	go c.runSearch(ctx, cancel, epoch, normalized)
}

func (c *Controller) runSearch(ctx context.Context, cancel context.CancelFunc, epoch uint64, text string) {
	defer c.inflight.Done()
	defer cancel()
	items, err := c.source.Search(ctx, text)

	c.mu.Lock()
	if c.closed || epoch != c.epoch {
		c.mu.Unlock()
		c.log.Debug("discarding stale search response", "epoch", epoch, "text", text, "error", err)
		return
	}
	c.cancelSearch = nil
	c.searching = false
	if err != nil {
		c.searchErr = err
		msg, severity := c.failureLocked(err, c.msgs.SearchFailed)
		view := c.projectLocked()
		c.mu.Unlock()
		c.log.Warn("search failed", "resource", c.msgs.Plural, "text", text, "error", err)
		c.notifier.Notify(c.base, msg, severity)
		c.renderer.Render(view)
		return
	}
	if items == nil {
		items = []item.Item{}
	}
	c.state.Mode = Filtering
	c.state.FilteredItems = item.CloneAll(items)
	c.state.Page = 1
	c.status = StatusReady
	view := c.projectLocked()
	c.mu.Unlock()
	c.renderer.Render(view)
}

// stopSearchLocked cancels the in-flight search request, if any. Its
// response is still discarded by the epoch check should it arrive.
func (c *Controller) stopSearchLocked() {
	if c.cancelSearch != nil {
		c.cancelSearch()
		c.cancelSearch = nil
	}
	c.searching = false
}

// RenderPage shows page n and returns the rows it rendered. Search results
// are not paginated, so while filtering that is the whole filtered set.
// Callers keep n within [1, TotalPages]; it is not clamped here.
func (c *Controller) RenderPage(n int) []item.Item {
	c.mu.Lock()
	c.state.Page = n
	var rows []item.Item
	if c.state.Mode == Filtering {
		rows = item.CloneAll(c.state.FilteredItems)
	} else {
		rows = item.CloneAll(PageSlice(c.state.Items, n, c.state.PageSize))
	}
	view := c.projectLocked()
	c.mu.Unlock()
	c.renderer.Render(view)
	return rows
}

// Next moves one page forward. It is a no-op while filtering or on the last page.
func (c *Controller) Next() bool {
	return c.step(1)
}

// Previous moves one page back. It is a no-op while filtering or on page 1.
func (c *Controller) Previous() bool {
	return c.step(-1)
}

func (c *Controller) step(delta int) bool {
	c.mu.Lock()
	if c.state.Mode == Filtering {
		c.mu.Unlock()
		return false
	}
	target := c.state.Page + delta
	total := TotalPages(len(c.state.Items), c.state.PageSize)
	if target < 1 || target > total {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()
	c.RenderPage(target)
	return true
}

// TotalPages returns the page count of the cached collection.
func (c *Controller) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return TotalPages(len(c.state.Items), c.state.PageSize)
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// View returns the current projection without rendering it.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectLocked()
}

// Items returns a copy of the cached collection.
func (c *Controller) Items() []item.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return item.CloneAll(c.state.Items)
}

// SearchErr returns the error of the most recent search, or nil when it
// succeeded, was skipped for being too short, or is still running.
func (c *Controller) SearchErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchErr
}

// Halted reports whether automatic refreshes are suspended.
func (c *Controller) Halted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.halted
}

// Close stops the debounce timer, cancels requests and waits for in-flight
// searches to return.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopSearchLocked()
	c.mu.Unlock()
	c.cancelDebounce()
	c.cancelBase()
	c.inflight.Wait()
}

func (c *Controller) projectLocked() View {
	v := Project(c.state, c.status, c.msgs)
	v.Searching = c.searching
	return v
}

func (c *Controller) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}
