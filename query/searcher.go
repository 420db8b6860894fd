// Package query sits between the view layer and the OMDb client. It caches
// results for a freshness window, collapses concurrent identical requests,
// retries transport failures once, and turns a stream of keystrokes into
// searches for settled input only.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/s0up4200/moviedeck/omdb"
)

// Searcher defaults
const (
	DefaultFreshness  = 5 * time.Minute
	DefaultDebounce   = 500 * time.Millisecond
	DefaultCacheSize  = 256
	DefaultRetries    = 1
	defaultRetryDelay = 200 * time.Millisecond
)

// Messages for searches that were not performed
const (
	MsgIdle     = "Start typing to search for movies"
	MsgTooShort = "Type at least 3 characters to search"
	MsgNoResult = "No movies found. Try a different search term."
)

// Status describes what Search did with its input
type Status int

const (
	// StatusIdle means there was no input at all
	StatusIdle Status = iota
	// StatusTooShort means the input was too short to search
	StatusTooShort
	// StatusOK means a result is available
	StatusOK
)

// String returns the string representation of a Status
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusTooShort:
		return "too_short"
	case StatusOK:
		return "ok"
	default:
		return "unknown"
	}
}

// Outcome is the result of a Search call that did not fail
type Outcome struct {
	Status  Status
	Query   string
	Page    int
	Result  *omdb.SearchResult
	Cached  bool
	Message string
}

// Searched reports whether the outcome came from (or would have come from)
// the provider
func (o Outcome) Searched() bool {
	return o.Status == StatusOK
}

// Empty reports whether a performed search produced no movies
func (o Outcome) Empty() bool {
	return o.Result == nil || len(o.Result.Search) == 0
}

// Option configures a Searcher
type Option func(*Searcher)

// WithFreshness sets how long results are served from cache
func WithFreshness(d time.Duration) Option {
	return func(s *Searcher) {
		if d > 0 {
			s.freshness = d
		}
	}
}

// WithCacheSize bounds the number of cached responses
func WithCacheSize(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.cacheSize = n
		}
	}
}

// WithRetries sets how many times a transport failure is retried
func WithRetries(n int) Option {
	return func(s *Searcher) {
		if n >= 0 {
			s.retries = n
		}
	}
}

// WithRetryDelay sets the pause before a retry
func WithRetryDelay(d time.Duration) Option {
	return func(s *Searcher) {
		s.retryDelay = d
	}
}

// WithDebounce sets the quiet period used by sessions
func WithDebounce(d time.Duration) Option {
	return func(s *Searcher) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// Searcher is the query cache layer in front of an omdb.API
type Searcher struct {
	client     omdb.API
	logger     zerolog.Logger
	freshness  time.Duration
	cacheSize  int
	retries    int
	retryDelay time.Duration
	debounce   time.Duration

	searches *Cache[*omdb.SearchResult]
	details  *Cache[*omdb.Movie]
	group    singleflight.Group
}

// NewSearcher creates a searcher in front of client
func NewSearcher(client omdb.API, logger zerolog.Logger, opts ...Option) *Searcher {
	s := &Searcher{
		client:     client,
		logger:     logger,
		freshness:  DefaultFreshness,
		cacheSize:  DefaultCacheSize,
		retries:    DefaultRetries,
		retryDelay: defaultRetryDelay,
		debounce:   DefaultDebounce,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.searches = NewCache[*omdb.SearchResult](s.cacheSize, s.freshness)
	s.details = NewCache[*omdb.Movie](s.cacheSize, s.freshness)
	return s
}

// Key identifies a search in the cache
type Key struct {
	Query string
	Page  int
}

// NewKey normalises text and page into a cache key
func NewKey(text string, page int) Key {
	if page < 1 {
		page = 1
	}
	return Key{Query: strings.TrimSpace(text), Page: page}
}

func (k Key) String() string {
	return fmt.Sprintf("search:%d:%s", k.Page, k.Query)
}

// Search returns the results for text on the given page. Input of two
// characters or fewer is reported through Outcome.Status without an error
// and without a request. Errors are omdb errors; use omdb.Message to show
// them.
func (s *Searcher) Search(ctx context.Context, text string, page int) (Outcome, error) {
	key := NewKey(text, page)
	out := Outcome{Query: key.Query, Page: key.Page}

	switch n := utf8.RuneCountInString(key.Query); {
	case n == 0:
		out.Status, out.Message = StatusIdle, MsgIdle
		return out, nil
	case n < omdb.MinQueryLength:
		out.Status, out.Message = StatusTooShort, MsgTooShort
		return out, nil
	}

	cacheKey := key.String()
	if res, ok := s.searches.Get(cacheKey); ok {
		s.logger.Debug().Str("query", key.Query).Int("page", key.Page).Msg("Search served from cache")
		out.Status, out.Result, out.Cached = StatusOK, res, true
		out.Message = emptyMessage(res)
		return out, nil
	}

	res, err := shared(ctx, s, cacheKey, "search", func(ctx context.Context) (*omdb.SearchResult, error) {
		return withRetry(ctx, s, "search", func() (*omdb.SearchResult, error) {
			return s.client.Search(ctx, key.Query, key.Page)
		})
	}, s.searches.Put)
	if err != nil {
		s.logger.Warn().Err(err).Str("query", key.Query).Int("page", key.Page).Msg("Search failed")
		return out, err
	}

	out.Status, out.Result = StatusOK, res
	out.Message = emptyMessage(res)
	return out, nil
}

// Details returns the full record for imdbID under the same cache and retry
// policy as Search
func (s *Searcher) Details(ctx context.Context, imdbID string) (*omdb.Movie, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, omdb.ErrMissingID
	}

	cacheKey := "movie:" + imdbID
	if movie, ok := s.details.Get(cacheKey); ok {
		return movie, nil
	}

	movie, err := shared(ctx, s, cacheKey, "details", func(ctx context.Context) (*omdb.Movie, error) {
		return withRetry(ctx, s, "details", func() (*omdb.Movie, error) {
			return s.client.GetDetails(ctx, imdbID)
		})
	}, s.details.Put)
	if err != nil {
		s.logger.Warn().Err(err).Str("imdb_id", imdbID).Msg("Details lookup failed")
		return nil, err
	}
	return movie, nil
}

// Debounce returns the quiet period sessions use
func (s *Searcher) Debounce() time.Duration {
	return s.debounce
}

// Purge drops every cached response
func (s *Searcher) Purge() {
	s.searches.Clear()
	s.details.Clear()
}

// shared runs fetch once per key for all concurrent callers and caches a
// successful result with put. The fetch runs detached from any single
// caller's context, so one caller going away does not fail the others; it
// is still bounded by the client's request timeout. Each caller stops
// waiting when its own ctx is done.
func shared[T any](ctx context.Context, s *Searcher, key, op string, fetch func(context.Context) (T, error), put func(string, T)) (T, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		v, err := fetch(detached)
		if err != nil {
			return nil, err
		}
		put(key, v)
		return v, nil
	})

	var zero T
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, &omdb.TransportError{Op: op, Message: failMessage(op), Err: ctx.Err()}
	}
}

func failMessage(op string) string {
	if op == "details" {
		return omdb.MsgDetailsFailed
	}
	return omdb.MsgSearchFailed
}

// withRetry runs fn, retrying transport failures up to s.retries times.
// Provider failures are returned immediately.
func withRetry[T any](ctx context.Context, s *Searcher, op string, fn func() (T, error)) (T, error) {
	var result T
	err := retry.Do(
		func() error {
			var err error
			result, err = fn()
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(s.retries+1)),
		retry.Delay(s.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(omdb.IsTransient),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Debug().Err(err).Str("op", op).Uint("attempt", n+1).Msg("Retrying OMDb request")
		}),
	)
	return result, err
}

func emptyMessage(res *omdb.SearchResult) string {
	if res == nil || len(res.Search) == 0 {
		return MsgNoResult
	}
	return ""
}
