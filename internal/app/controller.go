package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hession/memhub/internal/api"
	"github.com/hession/memhub/internal/config"
	"github.com/hession/memhub/internal/suggest"
)

// DefaultSearchLimit is the number of results requested per search
const DefaultSearchLimit = 10

// Backend is the remote memory service
type Backend interface {
	SearchVector(ctx context.Context, query string, limit int) ([]api.Memory, error)
	SearchText(ctx context.Context, query string, limit int) ([]api.Memory, error)
	CreateMemory(ctx context.Context, in api.MemoryInput) (*api.Memory, error)
	ListMemories(ctx context.Context) ([]api.Memory, error)
	GetMemory(ctx context.Context, id int64) (*api.Memory, error)
	UpdateMemory(ctx context.Context, id int64, in api.MemoryInput) (*api.Memory, error)
	DeleteMemory(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*api.Stats, error)
}

// Controller owns the session state. State changes happen under a mutex;
// backend calls are made without holding it.
type Controller struct {
	backend Backend
	log     *zap.Logger

	suggestions  *suggest.Generator
	suggestMode  suggest.Mode
	suggestCount int
	searchLimit  int
	messages     config.LanguageMessages

	mu         sync.Mutex
	state      State
	inflight   int
	loadingAll bool
	submitting bool

	tagMemo     []TagStat
	tagMemoVer  uint64
	tagMemoInit bool
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the structured logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithSuggestions sets the suggestion source, mode and count
func WithSuggestions(g *suggest.Generator, mode suggest.Mode, count int) Option {
	return func(c *Controller) {
		if g != nil {
			c.suggestions = g
		}
		c.suggestMode = mode
		c.suggestCount = count
	}
}

// WithSearchLimit sets how many results a search requests
func WithSearchLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.searchLimit = n
		}
	}
}

// WithSearchMode sets the initial search mode
func WithSearchMode(m SearchMode) Option {
	return func(c *Controller) {
		c.state.SearchMode = m
	}
}

// WithMessages sets the fallback texts shown when an error carries no message
func WithMessages(m config.LanguageMessages) Option {
	return func(c *Controller) {
		c.messages = m
	}
}

// New creates a controller on the list page. No request is made until Start.
func New(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend:      backend,
		log:          zap.NewNop(),
		suggestions:  suggest.New(nil),
		suggestMode:  suggest.ModeCurated,
		suggestCount: 3,
		searchLimit:  DefaultSearchLimit,
		messages:     config.DefaultMessageConfig().Messages["en"],
		state:        initialState(SearchVector),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.state.Suggestions = c.generateSuggestions()
	return c
}

// Start runs the effects of opening the session: stats and the initial list
// load, concurrently
func (c *Controller) Start(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		c.LoadStats(ctx)
		return nil
	})
	g.Go(func() error {
		return c.autoLoad(ctx)
	})
	return g.Wait()
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state.clone()
	s.Loading = c.inflight > 0
	return s
}

// Navigate switches page and runs the page-enter effects
func (c *Controller) Navigate(ctx context.Context, page Page) error {
	c.mu.Lock()
	if page == PageDetail && c.state.SelectedID == 0 {
		c.mu.Unlock()
		return ErrNoSelection
	}
	c.state = reduceNavigate(c.state, page)
	if page.showsSuggestions() {
		c.state.Suggestions = c.generateSuggestions()
	}
	c.mu.Unlock()

	c.log.Debug("navigate", zap.String("page", string(page)))
	return c.autoLoad(ctx)
}

// autoLoad loads the collection when the current page needs it and it is empty
func (c *Controller) autoLoad(ctx context.Context) error {
	c.mu.Lock()
	need := c.state.Page.needsCollection() && len(c.state.Memories) == 0 && !c.loadingAll
	c.mu.Unlock()

	if !need {
		return nil
	}
	return c.LoadAll(ctx)
}

// LoadAll fetches the whole collection. A call made while another load is in
// flight returns immediately.
func (c *Controller) LoadAll(ctx context.Context) error {
	c.mu.Lock()
	if c.loadingAll {
		c.mu.Unlock()
		return nil
	}
	c.loadingAll = true
	c.state.Error = ""
	c.begin()
	c.mu.Unlock()

	memories, err := c.backend.ListMemories(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadingAll = false
	c.end()

	if err != nil {
		c.fail("load", err, c.messages.LoadFailed)
		return err
	}
	c.state = reduceLoaded(c.state, memories)
	c.log.Debug("collection loaded", zap.Int("count", len(memories)))
	return nil
}

// Refresh reloads the collection and the stats
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.state.RefreshCounter++
	c.mu.Unlock()

	c.LoadStats(ctx)
	return c.LoadAll(ctx)
}

// LoadStats fetches the store counters. Failures are logged and dropped.
func (c *Controller) LoadStats(ctx context.Context) {
	if _, err := c.FetchStats(ctx); err != nil && !errors.Is(err, ErrStale) {
		c.log.Warn("load stats failed", zap.Error(err))
	}
}

// FetchStats fetches the store counters and returns any failure. A response
// that arrives after a newer request was started is dropped with ErrStale.
func (c *Controller) FetchStats(ctx context.Context) (api.Stats, error) {
	c.mu.Lock()
	c.state.statsGen++
	gen := c.state.statsGen
	c.mu.Unlock()

	stats, err := c.backend.Stats(ctx)
	if err != nil {
		return api.Stats{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.state.statsGen {
		c.log.Debug("stale stats dropped", zap.Uint64("gen", gen))
		return *stats, ErrStale
	}
	c.state.Stats = *stats
	return *stats, nil
}

// afterChange runs the effects tied to the refresh counter
func (c *Controller) afterChange(ctx context.Context) {
	c.LoadStats(ctx)
	if err := c.autoLoad(ctx); err != nil {
		c.log.Warn("reload after change failed", zap.Error(err))
	}
}

// Search runs query against the index selected by mode. An empty query clears
// the results and returns to the list. A response overtaken by a later search
// is dropped with ErrStale.
func (c *Controller) Search(ctx context.Context, query string, mode SearchMode) error {
	query = strings.TrimSpace(query)

	c.mu.Lock()
	if query == "" {
		c.state = reduceSearchCleared(c.state)
		c.mu.Unlock()
		return nil
	}
	c.state.SearchQuery = query
	c.state.searchGen++
	gen := c.state.searchGen
	c.state.Error = ""
	c.begin()
	limit := c.searchLimit
	c.mu.Unlock()

	var (
		results []api.Memory
		err     error
	)
	if mode == SearchSQLite {
		results, err = c.backend.SearchText(ctx, query, limit)
	} else {
		results, err = c.backend.SearchVector(ctx, query, limit)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.end()

	if gen != c.state.searchGen {
		return ErrStale
	}
	if err != nil {
		s := c.state.clone()
		s.SearchResults = []api.Memory{}
		c.state = s
		c.fail("search", err, c.messages.SearchFailed)
		return err
	}
	c.state = reduceSearchResults(c.state, results)
	c.log.Debug("search done",
		zap.String("mode", string(mode)),
		zap.String("query", query),
		zap.Int("results", len(results)))
	return nil
}

// SetSearchMode switches the search index and re-runs the active query, if any
func (c *Controller) SetSearchMode(ctx context.Context, mode SearchMode) error {
	c.mu.Lock()
	c.state.SearchMode = mode
	query := c.state.SearchQuery
	c.mu.Unlock()

	if query == "" {
		return nil
	}
	return c.Search(ctx, query, mode)
}

// Create stores a new memory and puts it at the top of the list
func (c *Controller) Create(ctx context.Context, in api.MemoryInput) (*api.Memory, error) {
	if err := c.beginSubmit(); err != nil {
		return nil, err
	}

	m, err := c.backend.CreateMemory(ctx, in)

	c.mu.Lock()
	c.endSubmit()
	if err != nil {
		c.fail("create", err, c.messages.CreateFailed)
		c.mu.Unlock()
		return nil, err
	}
	c.state = reduceCreated(c.state, *m)
	c.state.Suggestions = c.generateSuggestions()
	c.mu.Unlock()

	c.log.Info("memory created", zap.Int64("id", m.ID))
	c.afterChange(ctx)
	return m, nil
}

// CreateFromSuggestion creates the memory proposed by suggestion i (zero based)
func (c *Controller) CreateFromSuggestion(ctx context.Context, i int) (*api.Memory, error) {
	c.mu.Lock()
	if i < 0 || i >= len(c.state.Suggestions) {
		n := len(c.state.Suggestions)
		c.mu.Unlock()
		return nil, fmt.Errorf("suggestion %d out of range (have %d)", i+1, n)
	}
	in := c.state.Suggestions[i].Input()
	c.mu.Unlock()

	return c.Create(ctx, in)
}

// Update replaces a memory's fields and refreshes every copy of it held locally
func (c *Controller) Update(ctx context.Context, id int64, in api.MemoryInput) (*api.Memory, error) {
	if err := c.beginSubmit(); err != nil {
		return nil, err
	}

	m, err := c.backend.UpdateMemory(ctx, id, in)

	c.mu.Lock()
	c.endSubmit()
	if err != nil {
		c.fail("update", err, c.messages.UpdateFailed)
		c.mu.Unlock()
		return nil, err
	}
	c.state = reduceUpdated(c.state, *m)
	c.mu.Unlock()

	c.log.Info("memory updated", zap.Int64("id", id))
	c.afterChange(ctx)
	return m, nil
}

// Delete removes a memory. On failure local lists are left as they were.
func (c *Controller) Delete(ctx context.Context, id int64) error {
	if err := c.beginSubmit(); err != nil {
		return err
	}

	err := c.backend.DeleteMemory(ctx, id)

	c.mu.Lock()
	c.endSubmit()
	if err != nil {
		c.fail("delete", err, c.messages.DeleteFailed)
		c.mu.Unlock()
		return err
	}
	c.state = reduceDeleted(c.state, id)
	c.mu.Unlock()

	c.log.Info("memory deleted", zap.Int64("id", id))
	c.afterChange(ctx)
	return nil
}

// SelectForDetail opens the detail view for id
func (c *Controller) SelectForDetail(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = reduceSelect(c.state, id)
}

// CloseDetail closes the detail view
func (c *Controller) CloseDetail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = reduceCloseDetail(c.state)
}

// LoadDetail fetches the selected memory. Errors are returned to the caller
// and do not touch the banner.
func (c *Controller) LoadDetail(ctx context.Context) (*api.Memory, error) {
	c.mu.Lock()
	if !c.state.DetailOpen || c.state.SelectedID == 0 {
		c.mu.Unlock()
		return nil, ErrNoSelection
	}
	id := c.state.SelectedID
	gen := c.state.detailGen
	c.begin()
	c.mu.Unlock()

	m, err := c.backend.GetMemory(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.end()

	if gen != c.state.detailGen || id != c.state.SelectedID {
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}
	d := *m
	c.state.Detail = &d
	return m, nil
}

// DismissError clears the banner
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Error = ""
}

// TagStats returns the tag counts of the loaded collection. The result is
// recomputed only when the collection has changed.
func (c *Controller) TagStats() []TagStat {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.tagMemoInit || c.tagMemoVer != c.state.version {
		c.tagMemo = ComputeTagStats(c.state.Memories)
		c.tagMemoVer = c.state.version
		c.tagMemoInit = true
	}
	return append([]TagStat(nil), c.tagMemo...)
}

// RegenerateSuggestions draws a new suggestion list
func (c *Controller) RegenerateSuggestions() []suggest.Suggestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Suggestions = c.generateSuggestions()
	return append([]suggest.Suggestion(nil), c.state.Suggestions...)
}

// generateSuggestions must be called with mu held or before the controller is shared
func (c *Controller) generateSuggestions() []suggest.Suggestion {
	return c.suggestions.Generate(c.suggestMode, c.suggestCount)
}

// beginSubmit marks a change as in flight and clears the banner
func (c *Controller) beginSubmit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrBusy
	}
	c.submitting = true
	c.state.Error = ""
	c.begin()
	return nil
}

func (c *Controller) endSubmit() {
	c.submitting = false
	c.end()
}

func (c *Controller) begin() { c.inflight++ }

func (c *Controller) end() {
	if c.inflight > 0 {
		c.inflight--
	}
}

// fail puts err on the banner. Callers hold mu.
func (c *Controller) fail(op string, err error, fallback string) {
	c.state.Error = api.Message(err, fallback)
	if errors.Is(err, context.Canceled) {
		c.log.Debug(op+" canceled", zap.Error(err))
		return
	}
	c.log.Warn(op+" failed", zap.Error(err))
}
