package app

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hession/memhub/internal/api"
	"github.com/hession/memhub/internal/suggest"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) SearchVector(ctx context.Context, query string, limit int) ([]api.Memory, error) {
	args := m.Called(ctx, query, limit)
	return memoriesArg(args), args.Error(1)
}

func (m *mockBackend) SearchText(ctx context.Context, query string, limit int) ([]api.Memory, error) {
	args := m.Called(ctx, query, limit)
	return memoriesArg(args), args.Error(1)
}

func (m *mockBackend) CreateMemory(ctx context.Context, in api.MemoryInput) (*api.Memory, error) {
	args := m.Called(ctx, in)
	return memoryArg(args), args.Error(1)
}

func (m *mockBackend) ListMemories(ctx context.Context) ([]api.Memory, error) {
	args := m.Called(ctx)
	return memoriesArg(args), args.Error(1)
}

func (m *mockBackend) GetMemory(ctx context.Context, id int64) (*api.Memory, error) {
	args := m.Called(ctx, id)
	return memoryArg(args), args.Error(1)
}

func (m *mockBackend) UpdateMemory(ctx context.Context, id int64, in api.MemoryInput) (*api.Memory, error) {
	args := m.Called(ctx, id, in)
	return memoryArg(args), args.Error(1)
}

func (m *mockBackend) DeleteMemory(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockBackend) Stats(ctx context.Context) (*api.Stats, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*api.Stats), args.Error(1)
	}
	return nil, args.Error(1)
}

func memoriesArg(args mock.Arguments) []api.Memory {
	if v := args.Get(0); v != nil {
		return v.([]api.Memory)
	}
	return nil
}

func memoryArg(args mock.Arguments) *api.Memory {
	if v := args.Get(0); v != nil {
		return v.(*api.Memory)
	}
	return nil
}

var serverErr = &api.Error{Op: "test", Kind: api.KindServer, Status: 500, Message: "boom"}

// allowStats accepts any number of stats calls
func allowStats(b *mockBackend) {
	b.On("Stats", mock.Anything).Return(&api.Stats{SQLiteCount: 3, ChromaCount: 3}, nil).Maybe()
}

// loaded returns a controller whose collection already holds ms
func loaded(t *testing.T, b *mockBackend, ms ...api.Memory) *Controller {
	t.Helper()
	b.On("ListMemories", mock.Anything).Return(ms, nil).Once()
	c := New(b)
	require.NoError(t, c.LoadAll(context.Background()))
	return c
}

func TestController_StartLoadsListAndStats(t *testing.T) {
	b := new(mockBackend)
	b.On("Stats", mock.Anything).Return(&api.Stats{SQLiteCount: 2, ChromaCount: 1}, nil).Once()
	b.On("ListMemories", mock.Anything).Return([]api.Memory{mem(1, "a"), mem(2, "b")}, nil).Once()

	c := New(b)
	require.NoError(t, c.Start(context.Background()))

	s := c.Snapshot()
	assert.Equal(t, PageList, s.Page)
	assert.Equal(t, []int64{1, 2}, ids(s.Memories))
	assert.Equal(t, api.Stats{SQLiteCount: 2, ChromaCount: 1}, s.Stats)
	assert.False(t, s.Loading)
	b.AssertExpectations(t)
}

func TestController_NavigateAutoLoadsOnlyWhenEmpty(t *testing.T) {
	b := new(mockBackend)
	c := loaded(t, b, mem(1, "a"))

	require.NoError(t, c.Navigate(context.Background(), PageProfile))
	require.NoError(t, c.Navigate(context.Background(), PageList))

	b.AssertNumberOfCalls(t, "ListMemories", 1)
}

func TestController_NavigateSkipsLoadOnOtherPages(t *testing.T) {
	b := new(mockBackend)
	c := New(b)

	require.NoError(t, c.Navigate(context.Background(), PageCreate))
	require.NoError(t, c.Navigate(context.Background(), PageSearch))

	b.AssertNotCalled(t, "ListMemories", mock.Anything)
}

func TestController_LoadFailureKeepsCollection(t *testing.T) {
	b := new(mockBackend)
	c := loaded(t, b, mem(1, "a"))
	b.On("ListMemories", mock.Anything).Return(nil, serverErr).Once()

	err := c.LoadAll(context.Background())
	require.Error(t, err)

	s := c.Snapshot()
	assert.Equal(t, "boom", s.Error)
	assert.Equal(t, []int64{1}, ids(s.Memories))
}

func TestController_LoadAllIsNotConcurrent(t *testing.T) {
	b := new(mockBackend)
	started := make(chan struct{})
	release := make(chan struct{})
	b.On("ListMemories", mock.Anything).
		Run(func(mock.Arguments) { close(started); <-release }).
		Return([]api.Memory{mem(1, "a")}, nil).Once()

	c := New(b)
	errc := make(chan error, 1)
	go func() { errc <- c.LoadAll(context.Background()) }()

	<-started
	assert.True(t, c.Snapshot().Loading)
	require.NoError(t, c.LoadAll(context.Background()))
	require.NoError(t, c.Navigate(context.Background(), PageList))

	close(release)
	require.NoError(t, <-errc)
	b.AssertNumberOfCalls(t, "ListMemories", 1)
	assert.False(t, c.Snapshot().Loading)
}

func TestController_NavigateRegeneratesSuggestions(t *testing.T) {
	b := new(mockBackend)
	b.On("ListMemories", mock.Anything).Return([]api.Memory{mem(1, "a")}, nil)

	gen := suggest.New(rand.New(rand.NewSource(11)))
	twin := suggest.New(rand.New(rand.NewSource(11)))
	c := New(b, WithSuggestions(gen, suggest.ModeRandom, 3))

	assert.Equal(t, twin.Random(3), c.Snapshot().Suggestions)

	require.NoError(t, c.Navigate(context.Background(), PageCreate))
	want := twin.Random(3)
	assert.Equal(t, want, c.Snapshot().Suggestions)

	require.NoError(t, c.Navigate(context.Background(), PageProfile))
	assert.Equal(t, want, c.Snapshot().Suggestions, "profile page does not regenerate")

	require.NoError(t, c.Navigate(context.Background(), PageSearch))
	assert.Equal(t, twin.Random(3), c.Snapshot().Suggestions)
}

func TestController_NavigateToListClearsQuery(t *testing.T) {
	b := new(mockBackend)
	c := loaded(t, b, mem(1, "a"))
	b.On("SearchVector", mock.Anything, "foo", DefaultSearchLimit).Return([]api.Memory{mem(1, "a")}, nil)

	require.NoError(t, c.Search(context.Background(), "foo", SearchVector))
	assert.Equal(t, PageSearch, c.Snapshot().Page)

	require.NoError(t, c.Navigate(context.Background(), PageList))
	assert.Empty(t, c.Snapshot().SearchQuery)
}

func TestController_NavigateToDetailNeedsSelection(t *testing.T) {
	c := New(new(mockBackend))
	assert.ErrorIs(t, c.Navigate(context.Background(), PageDetail), ErrNoSelection)
}

func TestController_CreateAppearsFirst(t *testing.T) {
	b := new(mockBackend)
	allowStats(b)
	c := loaded(t, b, mem(1, "a"), mem(2, "b"))
	require.NoError(t, c.Navigate(context.Background(), PageCreate))
	before := c.Snapshot()

	in := api.MemoryInput{Title: "c", Content: "c content", Tags: []string{"x"}}
	b.On("CreateMemory", mock.Anything, in).Return(&api.Memory{ID: 3, Title: "c", Content: "c content", Tags: []string{"x"}}, nil).Once()

	m, err := c.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(3), m.ID)

	s := c.Snapshot()
	assert.Equal(t, []int64{3, 1, 2}, ids(s.Memories))
	assert.Equal(t, PageList, s.Page)
	assert.Equal(t, before.RefreshCounter+1, s.RefreshCounter)
	assert.Equal(t, api.Stats{SQLiteCount: 3, ChromaCount: 3}, s.Stats)
	b.AssertNumberOfCalls(t, "ListMemories", 1)
	b.AssertCalled(t, "Stats", mock.Anything)
}

func TestController_CreateRegeneratesSuggestions(t *testing.T) {
	b := new(mockBackend)
	allowStats(b)
	c := loaded(t, b)

	gen := suggest.New(rand.New(rand.NewSource(5)))
	twin := suggest.New(rand.New(rand.NewSource(5)))
	WithSuggestions(gen, suggest.ModeRandom, 2)(c)
	c.RegenerateSuggestions()
	twin.Random(2)

	in := api.MemoryInput{Title: "t", Content: "c"}
	b.On("CreateMemory", mock.Anything, in).Return(&api.Memory{ID: 9, Title: "t", Content: "c"}, nil).Once()

	_, err := c.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, twin.Random(2), c.Snapshot().Suggestions)
}

func TestController_CreateFailureSurfacesAndReturns(t *testing.T) {
	b := new(mockBackend)
	c := loaded(t, b, mem(1, "a"))
	require.NoError(t, c.Navigate(context.Background(), PageCreate))

	in := api.MemoryInput{Title: "t", Content: "c"}
	b.On("CreateMemory", mock.Anything, in).Return(nil, serverErr).Once()

	_, err := c.Create(context.Background(), in)
	require.Error(t, err)

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))

	s := c.Snapshot()
	assert.Equal(t, "boom", s.Error)
	assert.Equal(t, PageCreate, s.Page)
	assert.Equal(t, []int64{1}, ids(s.Memories))
	assert.Zero(t, s.RefreshCounter)
	b.AssertNotCalled(t, "Stats", mock.Anything)
}

func TestController_CreateRejectsDoubleSubmit(t *testing.T) {
	b := new(mockBackend)
	allowStats(b)
	c := loaded(t, b, mem(1, "a"))

	in := api.MemoryInput{Title: "t", Content: "c"}
	started := make(chan struct{})
	release := make(chan struct{})
	b.On("CreateMemory", mock.Anything, in).
		Run(func(mock.Arguments) { close(started); <-release }).
		Return(&api.Memory{ID: 2, Title: "t", Content: "c"}, nil).Once()

	errc := make(chan error, 1)
	go func() {
		_, err := c.Create(context.Background(), in)
		errc <- err
	}()

	<-started
	_, err := c.Create(context.Background(), in)
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, c.Delete(context.Background(), 1), ErrBusy)

	close(release)
	require.NoError(t, <-errc)
	assert.Equal(t, []int64{2, 1}, ids(c.Snapshot().Memories))
	b.AssertNumberOfCalls(t, "CreateMemory", 1)
}

func TestController_CreateFromSuggestion(t *testing.T) {
	b := new(mockBackend)
	allowStats(b)
	c := loaded(t, b)

	first := suggest.Curated()[0]
	b.On("CreateMemory", mock.Anything, first.Input()).
		Return(&api.Memory{ID: 1, Title: first.Title, Content: first.Content, Tags: first.Tags}, nil).Once()

	m, err := c.CreateFromSuggestion(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, first.Title, m.Title)

	_, err = c.CreateFromSuggestion(context.Background(), 99)
	assert.Error(t, err)
	b.AssertNumberOfCalls(t, "CreateMemory", 1)
}

func TestController_UpdateReplacesEverywhere(t *testing.T) {
	b := new(mockBackend)
	allowStats(b)
	c := loaded(t, b, mem(1, "a"), mem(2, "b"), mem(3, "c"))
	b.On("SearchVector", mock.Anything, "b", DefaultSearchLimit).Return([]api.Memory{mem(2, "b"), mem(1, "a")}, nil)
	require.NoError(t, c.Search(context.Background(), "b", SearchVector))

	in := api.MemoryInput{Title: "b2", Content: "new", Tags: []string{"t"}}
	updated := api.Memory{ID: 2, Title: "b2", Content: "new", Tags: []string{"t"}}
	b.On("UpdateMemory", mock.Anything, int64(2), in).Return(&updated, nil).Once()

	_, err := c.Update(context.Background(), 2, in)
	require.NoError(t, err)

	s := c.Snapshot()
	assert.Equal(t, []api.Memory{mem(1, "a"), updated, mem(3, "c")}, s.Memories)
	assert.Equal(t, []api.Memory{updated, mem(1, "a")}, s.SearchResults)
	assert.Equal(t, 1, s.RefreshCounter)
}

func TestController_UpdateFailure(t *testing.T) {
	b := new(mockBackend)
	c := loaded(t, b, mem(1, "a"))

	in := api.MemoryInput{Title: "x", Content: "y"}
	b.On("UpdateMemory", mock.Anything, int64(1), in).Return(nil, serverErr).Once()

	_, err := c.Update(context.Background(), 1, in)
	require.Error(t, err)
	s := c.Snapshot()
	assert.Equal(t, "boom", s.Error)
	assert.Equal(t, []api.Memory{mem(1, "a")}, s.Memories)
}

func TestController_DeleteRemovesEverywhereAndClosesDetail(t *testing.T) {
	b := new(mockBackend)
	allowStats(b)
	c := loaded(t, b, mem(1, "a"), mem(2, "b"))
	b.On("SearchText", mock.Anything, "a", DefaultSearchLimit).Return([]api.Memory{mem(1, "a"), mem(2, "b")}, nil)
	require.NoError(t, c.Search(context.Background(), "a", SearchSQLite))
	c.SelectForDetail(1)

	b.On("DeleteMemory", mock.Anything, int64(1)).Return(nil).Once()
	require.NoError(t, c.Delete(context.Background(), 1))

	s := c.Snapshot()
	assert.Equal(t, []int64{2}, ids(s.Memories))
	assert.Equal(t, []int64{2}, ids(s.SearchResults))
	assert.False(t, s.DetailOpen)
	assert.Zero(t, s.SelectedID)
	assert.Equal(t, 1, s.RefreshCounter)
}

func TestController_DeleteOtherKeepsDetail(t *testing.T) {
	b := new(mockBackend)
	allowStats(b)
	c := loaded(t, b, mem(1, "a"), mem(2, "b"))
	c.SelectForDetail(2)

	b.On("DeleteMemory", mock.Anything, int64(1)).Return(nil).Once()
	require.NoError(t, c.Delete(context.Background(), 1))

	s := c.Snapshot()
	assert.True(t, s.DetailOpen)
	assert.Equal(t, int64(2), s.SelectedID)
}

func TestController_DeleteFailureLeavesLists(t *testing.T) {
	b := new(mockBackend)
	c := loaded(t, b, mem(1, "a"), mem(2, "b"))
	c.SelectForDetail(1)

	b.On("DeleteMemory", mock.Anything, int64(1)).Return(serverErr).Once()
	require.Error(t, c.Delete(context.Background(), 1))

	s := c.Snapshot()
	assert.Equal(t, []int64{1, 2}, ids(s.Memories))
	assert.True(t, s.DetailOpen)
	assert.Equal(t, "boom", s.Error)
	assert.Zero(t, s.RefreshCounter)
}

func TestController_EmptySearchReturnsToList(t *testing.T) {
	b := new(mockBackend)
	c := loaded(t, b, mem(1, "a"))
	b.On("SearchVector", mock.Anything, "a", DefaultSearchLimit).Return([]api.Memory{mem(1, "a")}, nil).Once()
	require.NoError(t, c.Search(context.Background(), "a", SearchVector))

	for _, q := range []string{"", "   "} {
		require.NoError(t, c.Search(context.Background(), q, SearchVector))
		s := c.Snapshot()
		assert.Equal(t, PageList, s.Page)
		assert.Empty(t, s.SearchResults)
		assert.Empty(t, s.SearchQuery)
	}
	b.AssertNumberOfCalls(t, "SearchVector", 1)
}

func TestController_SearchFailureClearsResults(t *testing.T) {
	b := new(mockBackend)
	c := loaded(t, b, mem(1, "a"))
	b.On("SearchVector", mock.Anything, "a", DefaultSearchLimit).Return([]api.Memory{mem(1, "a")}, nil).Once()
	b.On("SearchVector", mock.Anything, "b", DefaultSearchLimit).Return(nil, serverErr).Once()

	require.NoError(t, c.Search(context.Background(), "a", SearchVector))
	require.Error(t, c.Search(context.Background(), "b", SearchVector))

	s := c.Snapshot()
	assert.Empty(t, s.SearchResults)
	assert.Equal(t, "boom", s.Error)
	assert.Equal(t, "b", s.SearchQuery)
}

func TestController_SearchUsesConfiguredLimit(t *testing.T) {
	b := new(mockBackend)
	b.On("SearchText", mock.Anything, "q", 4).Return([]api.Memory{}, nil).Once()

	c := New(b, WithSearchLimit(4))
	require.NoError(t, c.Search(context.Background(), "q", SearchSQLite))
	b.AssertExpectations(t)
}

func TestController_SwitchingModeRerunsSearch(t *testing.T) {
	b := new(mockBackend)
	c := loaded(t, b)
	b.On("SearchVector", mock.Anything, "foo", DefaultSearchLimit).Return([]api.Memory{mem(1, "a")}, nil).Once()
	b.On("SearchText", mock.Anything, "foo", DefaultSearchLimit).Return([]api.Memory{mem(2, "b")}, nil).Once()

	require.NoError(t, c.Search(context.Background(), "foo", SearchVector))
	require.NoError(t, c.SetSearchMode(context.Background(), SearchSQLite))

	s := c.Snapshot()
	assert.Equal(t, SearchSQLite, s.SearchMode)
	assert.Equal(t, []int64{2}, ids(s.SearchResults))
	assert.Equal(t, PageSearch, s.Page)
	b.AssertExpectations(t)
}

func TestController_SwitchingModeWithoutQuery(t *testing.T) {
	b := new(mockBackend)
	c := New(b)

	require.NoError(t, c.SetSearchMode(context.Background(), SearchSQLite))
	assert.Equal(t, SearchSQLite, c.Snapshot().SearchMode)
	b.AssertNotCalled(t, "SearchText", mock.Anything, mock.Anything, mock.Anything)
}

func TestController_StaleSearchIsDropped(t *testing.T) {
	b := new(mockBackend)
	started := make(chan struct{})
	release := make(chan struct{})
	b.On("SearchVector", mock.Anything, "slow", DefaultSearchLimit).
		Run(func(mock.Arguments) { close(started); <-release }).
		Return([]api.Memory{mem(1, "slow")}, nil).Once()
	b.On("SearchVector", mock.Anything, "fast", DefaultSearchLimit).
		Return([]api.Memory{mem(2, "fast")}, nil).Once()

	c := New(b)
	errc := make(chan error, 1)
	go func() { errc <- c.Search(context.Background(), "slow", SearchVector) }()

	<-started
	require.NoError(t, c.Search(context.Background(), "fast", SearchVector))
	close(release)
	assert.ErrorIs(t, <-errc, ErrStale)

	s := c.Snapshot()
	assert.Equal(t, "fast", s.SearchQuery)
	assert.Equal(t, []int64{2}, ids(s.SearchResults))
	assert.False(t, s.Loading)
}

func TestController_StatsFailureIsSilent(t *testing.T) {
	b := new(mockBackend)
	b.On("Stats", mock.Anything).Return(nil, serverErr).Once()

	c := New(b)
	c.LoadStats(context.Background())

	s := c.Snapshot()
	assert.Empty(t, s.Error)
	assert.Equal(t, api.Stats{}, s.Stats)
}

func TestController_StaleStatsAreDropped(t *testing.T) {
	b := new(mockBackend)
	started := make(chan struct{})
	release := make(chan struct{})
	b.On("Stats", mock.Anything).
		Run(func(mock.Arguments) { close(started); <-release }).
		Return(&api.Stats{SQLiteCount: 1}, nil).Once()
	b.On("Stats", mock.Anything).Return(&api.Stats{SQLiteCount: 2}, nil).Once()

	c := New(b)
	done := make(chan struct{})
	go func() { c.LoadStats(context.Background()); close(done) }()

	<-started
	c.LoadStats(context.Background())
	close(release)
	<-done

	assert.Equal(t, 2, c.Snapshot().Stats.SQLiteCount)
}

func TestController_LoadDetail(t *testing.T) {
	b := new(mockBackend)
	c := New(b)

	_, err := c.LoadDetail(context.Background())
	assert.ErrorIs(t, err, ErrNoSelection)

	b.On("GetMemory", mock.Anything, int64(4)).Return(&api.Memory{ID: 4, Title: "four"}, nil).Once()
	c.SelectForDetail(4)
	m, err := c.LoadDetail(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "four", m.Title)
	require.NotNil(t, c.Snapshot().Detail)

	c.CloseDetail()
	s := c.Snapshot()
	assert.False(t, s.DetailOpen)
	assert.Nil(t, s.Detail)
}

func TestController_LoadDetailErrorSkipsBanner(t *testing.T) {
	b := new(mockBackend)
	b.On("GetMemory", mock.Anything, int64(4)).Return(nil, serverErr).Once()

	c := New(b)
	c.SelectForDetail(4)
	_, err := c.LoadDetail(context.Background())
	require.Error(t, err)
	assert.Empty(t, c.Snapshot().Error)
}

func TestController_StaleDetailIsDropped(t *testing.T) {
	b := new(mockBackend)
	started := make(chan struct{})
	release := make(chan struct{})
	b.On("GetMemory", mock.Anything, int64(1)).
		Run(func(mock.Arguments) { close(started); <-release }).
		Return(&api.Memory{ID: 1, Title: "one"}, nil).Once()

	c := New(b)
	c.SelectForDetail(1)
	errc := make(chan error, 1)
	go func() {
		_, err := c.LoadDetail(context.Background())
		errc <- err
	}()

	<-started
	c.SelectForDetail(2)
	close(release)
	assert.ErrorIs(t, <-errc, ErrStale)

	s := c.Snapshot()
	assert.Equal(t, int64(2), s.SelectedID)
	assert.Nil(t, s.Detail)
}

func TestController_DismissError(t *testing.T) {
	b := new(mockBackend)
	b.On("ListMemories", mock.Anything).Return(nil, serverErr).Once()

	c := New(b)
	require.Error(t, c.LoadAll(context.Background()))
	require.NotEmpty(t, c.Snapshot().Error)

	c.DismissError()
	assert.Empty(t, c.Snapshot().Error)
}

func TestController_TagStatsFollowCollection(t *testing.T) {
	b := new(mockBackend)
	allowStats(b)
	c := loaded(t, b,
		api.Memory{ID: 1, Tags: []string{"a", "a", "b"}},
		api.Memory{ID: 2, Tags: []string{"b", "c"}},
	)

	first := c.TagStats()
	assert.Equal(t, []TagStat{{"b", 2}, {"a", 1}, {"c", 1}}, first)

	first[0].Value = 100
	assert.Equal(t, 2, c.TagStats()[0].Value, "callers get a copy")

	b.On("DeleteMemory", mock.Anything, int64(2)).Return(nil).Once()
	require.NoError(t, c.Delete(context.Background(), 2))
	assert.Equal(t, []TagStat{{"a", 1}, {"b", 1}}, c.TagStats())
}

func TestController_SnapshotIsIsolated(t *testing.T) {
	b := new(mockBackend)
	c := loaded(t, b, mem(1, "a"))

	s := c.Snapshot()
	s.Memories[0].Title = "changed"
	s.Suggestions = nil

	again := c.Snapshot()
	assert.Equal(t, "a", again.Memories[0].Title)
	assert.NotEmpty(t, again.Suggestions)
}

func TestController_FetchStatsReturnsError(t *testing.T) {
	b := new(mockBackend)
	b.On("Stats", mock.Anything).Return(nil, serverErr).Once()
	b.On("Stats", mock.Anything).Return(&api.Stats{SQLiteCount: 5, ChromaCount: 4}, nil).Once()

	c := New(b)
	_, err := c.FetchStats(context.Background())
	require.Error(t, err)
	assert.Empty(t, c.Snapshot().Error)

	stats, err := c.FetchStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.Stats{SQLiteCount: 5, ChromaCount: 4}, stats)
	assert.Equal(t, stats, c.Snapshot().Stats)
}
