package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/moviedeck/omdb"
)

// mockOMDb implements omdb.API for testing
type mockOMDb struct {
	searchFn    func(query string, page int) (*omdb.SearchResult, error)
	searchCtxFn func(ctx context.Context, query string, page int) (*omdb.SearchResult, error)
	detailsFn   func(id string) (*omdb.Movie, error)

	mu            sync.Mutex
	searchCalls   int
	detailsCalls  int
	searchQueries []string
}

func (m *mockOMDb) Search(ctx context.Context, query string, page int) (*omdb.SearchResult, error) {
	m.mu.Lock()
	m.searchCalls++
	m.searchQueries = append(m.searchQueries, query)
	m.mu.Unlock()

	if m.searchCtxFn != nil {
		return m.searchCtxFn(ctx, query, page)
	}
	if m.searchFn != nil {
		return m.searchFn(query, page)
	}
	return resultFor(query), nil
}

func (m *mockOMDb) GetDetails(ctx context.Context, id string) (*omdb.Movie, error) {
	m.mu.Lock()
	m.detailsCalls++
	m.mu.Unlock()

	if m.detailsFn != nil {
		return m.detailsFn(id)
	}
	return &omdb.Movie{ImdbID: id, Title: "Movie " + id, Response: "True"}, nil
}

func (m *mockOMDb) calls() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searchCalls, m.detailsCalls
}

func (m *mockOMDb) queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.searchQueries...)
}

func resultFor(query string) *omdb.SearchResult {
	return &omdb.SearchResult{
		Search:       []omdb.Movie{{ImdbID: "tt-" + query, Title: query, Year: "2001", Type: omdb.MediaTypeMovie}},
		TotalResults: "1",
		Response:     "True",
	}
}

func newTestSearcher(api omdb.API, opts ...Option) *Searcher {
	opts = append([]Option{WithRetryDelay(0)}, opts...)
	return NewSearcher(api, zerolog.Nop(), opts...)
}

func TestSearcher_InputGating(t *testing.T) {
	api := &mockOMDb{}
	s := newTestSearcher(api)
	ctx := context.Background()

	tests := []struct {
		text   string
		status Status
		msg    string
	}{
		{"", StatusIdle, MsgIdle},
		{"   ", StatusIdle, MsgIdle},
		{"b", StatusTooShort, MsgTooShort},
		{"ba", StatusTooShort, MsgTooShort},
		{"  ba  ", StatusTooShort, MsgTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			out, err := s.Search(ctx, tt.text, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, out.Status)
			assert.Equal(t, tt.msg, out.Message)
			assert.False(t, out.Searched())
		})
	}

	searches, _ := api.calls()
	assert.Equal(t, 0, searches)
}

func TestSearcher_Caching(t *testing.T) {
	api := &mockOMDb{}
	s := newTestSearcher(api, WithFreshness(time.Minute))

	now := time.Now()
	s.searches.now = func() time.Time { return now }
	ctx := context.Background()

	out, err := s.Search(ctx, "batman", 1)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, out.Status)
	assert.False(t, out.Cached)

	// Same key after trimming is a cache hit
	out, err = s.Search(ctx, "  batman ", 1)
	require.NoError(t, err)
	assert.True(t, out.Cached)

	// A different page is a different key
	_, err = s.Search(ctx, "batman", 2)
	require.NoError(t, err)

	searches, _ := api.calls()
	assert.Equal(t, 2, searches)

	// Past the freshness window the result is refetched
	now = now.Add(time.Minute + time.Second)
	out, err = s.Search(ctx, "batman", 1)
	require.NoError(t, err)
	assert.False(t, out.Cached)

	searches, _ = api.calls()
	assert.Equal(t, 3, searches)
}

func TestSearcher_EmptyResultMessage(t *testing.T) {
	api := &mockOMDb{searchFn: func(string, int) (*omdb.SearchResult, error) {
		return &omdb.SearchResult{Search: []omdb.Movie{}, TotalResults: "0", Response: "True"}, nil
	}}
	s := newTestSearcher(api)

	out, err := s.Search(context.Background(), "nothing here", 1)
	require.NoError(t, err)
	assert.True(t, out.Empty())
	assert.Equal(t, MsgNoResult, out.Message)
}

func TestSearcher_RetriesTransportOnce(t *testing.T) {
	var attempts atomic.Int32
	api := &mockOMDb{searchFn: func(q string, _ int) (*omdb.SearchResult, error) {
		if attempts.Add(1) == 1 {
			return nil, &omdb.TransportError{Op: "search", Message: omdb.MsgSearchFailed, Err: errors.New("connection reset")}
		}
		return resultFor(q), nil
	}}
	s := newTestSearcher(api)

	out, err := s.Search(context.Background(), "alien", 1)
	require.NoError(t, err)
	assert.Equal(t, "alien", out.Result.Search[0].Title)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestSearcher_SurfacesAfterOneRetry(t *testing.T) {
	api := &mockOMDb{searchFn: func(string, int) (*omdb.SearchResult, error) {
		return nil, &omdb.TransportError{Op: "search", Message: omdb.MsgSearchFailed, Err: errors.New("timeout")}
	}}
	s := newTestSearcher(api)

	_, err := s.Search(context.Background(), "alien", 1)
	require.Error(t, err)
	assert.Equal(t, omdb.MsgSearchFailed, omdb.Message(err))

	searches, _ := api.calls()
	assert.Equal(t, 2, searches)

	// Failures are not cached
	_, err = s.Search(context.Background(), "alien", 1)
	require.Error(t, err)
	searches, _ = api.calls()
	assert.Equal(t, 4, searches)
}

func TestSearcher_ProviderErrorNotRetried(t *testing.T) {
	api := &mockOMDb{searchFn: func(string, int) (*omdb.SearchResult, error) {
		return nil, &omdb.ProviderError{Op: "search", Message: "Movie not found!"}
	}}
	s := newTestSearcher(api)

	_, err := s.Search(context.Background(), "qwertyuiop", 1)
	require.Error(t, err)
	assert.Equal(t, "Movie not found!", omdb.Message(err))

	searches, _ := api.calls()
	assert.Equal(t, 1, searches)
}

func TestSearcher_SharesInFlightRequests(t *testing.T) {
	release := make(chan struct{})
	api := &mockOMDb{searchFn: func(q string, _ int) (*omdb.SearchResult, error) {
		<-release
		return resultFor(q), nil
	}}
	s := newTestSearcher(api)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := s.Search(context.Background(), "matrix", 1)
			assert.NoError(t, err)
			assert.Equal(t, StatusOK, out.Status)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	searches, _ := api.calls()
	assert.Equal(t, 1, searches)
}

func TestSearcher_SharedResultNotMarkedCached(t *testing.T) {
	release := make(chan struct{})
	api := &mockOMDb{searchFn: func(q string, _ int) (*omdb.SearchResult, error) {
		<-release
		return resultFor(q), nil
	}}
	s := newTestSearcher(api)

	outcomes := make(chan Outcome, 2)
	for i := 0; i < 2; i++ {
		go func() {
			out, err := s.Search(context.Background(), "matrix", 1)
			assert.NoError(t, err)
			outcomes <- out
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)

	for i := 0; i < 2; i++ {
		out := <-outcomes
		assert.False(t, out.Cached)
	}

	out, err := s.Search(context.Background(), "matrix", 1)
	require.NoError(t, err)
	assert.True(t, out.Cached)
}

func TestSearcher_CancelledCallerDoesNotFailOthers(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	api := &mockOMDb{searchCtxFn: func(ctx context.Context, q string, _ int) (*omdb.SearchResult, error) {
		once.Do(func() { close(started) })
		<-release
		if err := ctx.Err(); err != nil {
			return nil, &omdb.TransportError{Op: "search", Message: omdb.MsgSearchFailed, Err: err}
		}
		return resultFor(q), nil
	}}
	s := newTestSearcher(api)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Search(firstCtx, "matrix", 1)
		firstErr <- err
	}()
	<-started

	type result struct {
		out Outcome
		err error
	}
	second := make(chan result, 1)
	go func() {
		out, err := s.Search(context.Background(), "matrix", 1)
		second <- result{out, err}
	}()

	// Let the second caller join the in-flight request
	time.Sleep(50 * time.Millisecond)
	cancelFirst()

	select {
	case err := <-firstErr:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, omdb.MsgSearchFailed, omdb.Message(err))
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(release)

	select {
	case got := <-second:
		require.NoError(t, got.err)
		assert.Equal(t, StatusOK, got.out.Status)
		assert.Equal(t, "matrix", got.out.Result.Search[0].Title)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never got a result")
	}

	searches, _ := api.calls()
	assert.Equal(t, 1, searches)

	// The shared result was cached for later callers
	out, err := s.Search(context.Background(), "matrix", 1)
	require.NoError(t, err)
	assert.True(t, out.Cached)
}

func TestSearcher_Details(t *testing.T) {
	api := &mockOMDb{}
	s := newTestSearcher(api)
	ctx := context.Background()

	_, err := s.Details(ctx, "  ")
	assert.ErrorIs(t, err, omdb.ErrMissingID)

	movie, err := s.Details(ctx, "tt0133093")
	require.NoError(t, err)
	assert.Equal(t, "tt0133093", movie.ImdbID)

	_, err = s.Details(ctx, "tt0133093")
	require.NoError(t, err)

	_, details := api.calls()
	assert.Equal(t, 1, details)

	s.Purge()
	_, err = s.Details(ctx, "tt0133093")
	require.NoError(t, err)
	_, details = api.calls()
	assert.Equal(t, 2, details)
}

func TestSearcher_DetailsNotFound(t *testing.T) {
	api := &mockOMDb{detailsFn: func(string) (*omdb.Movie, error) {
		return nil, &omdb.ProviderError{Op: "details", Message: "Movie not found!"}
	}}
	s := newTestSearcher(api)

	_, err := s.Details(context.Background(), "ttXXXX")
	require.Error(t, err)
	assert.True(t, omdb.IsNotFound(err))
	assert.Equal(t, "Movie not found!", omdb.Message(err))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "too_short", StatusTooShort.String())
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "unknown", Status(42).String())
}
