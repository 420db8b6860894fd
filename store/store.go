// Package store holds moviedeck's client state: the theme preference, user
// ratings and the recent search history.
//
// State only changes through Dispatch, which runs the pure Reduce function
// and then notifies subscribers registered with Watch. Subscribers are told
// about a change only when the slice they selected differs from the last
// value they saw.
package store

import (
	"errors"
	"reflect"
	"sync"

	"github.com/rs/zerolog"
)

// Rating bounds accepted by RateMovie
const (
	MinRating = 1
	MaxRating = 5
)

var (
	// ErrInvalidRating is returned for ratings outside MinRating..MaxRating
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrMissingMovieID is returned when rating a movie without an ID
	ErrMissingMovieID = errors.New("movie ID is required")
)

// Store is the single writer for State
type Store struct {
	dispatchMu sync.Mutex

	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
	logger zerolog.Logger
}

// New creates a store starting at initial
func New(initial State, logger zerolog.Logger) *Store {
	return &Store{
		state:  initial.clone(),
		subs:   make(map[int]func(State)),
		logger: logger,
	}
}

// State returns a copy of the current state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Dispatch applies a and notifies subscribers. Dispatch calls are
// serialised; subscribers run on the dispatching goroutine after the new
// state is in place, in registration order, and must not call Dispatch.
func (s *Store) Dispatch(a Action) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state.clone()
	subs := make([]func(State), 0, len(s.subs))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	s.mu.Unlock()

	s.logger.Debug().Type("action", a).Msg("Dispatched action")

	for _, fn := range subs {
		fn(next)
	}
}

// Watch calls fn with the selected value every time it changes. fn is not
// called for the current value. The returned function cancels the
// subscription.
func Watch[T any](s *Store, selector func(State) T, fn func(T)) (cancel func()) {
	s.mu.Lock()
	last := selector(s.state.clone())
	id := s.nextID
	s.nextID++

	var lastMu sync.Mutex
	s.subs[id] = func(st State) {
		selected := selector(st)

		lastMu.Lock()
		changed := !reflect.DeepEqual(selected, last)
		if changed {
			last = selected
		}
		lastMu.Unlock()

		if changed {
			fn(selected)
		}
	}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// RateMovie validates and records a rating
func (s *Store) RateMovie(movieID string, rating int) error {
	if movieID == "" {
		return ErrMissingMovieID
	}
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	s.Dispatch(SetRating{MovieID: movieID, Rating: rating})
	return nil
}

// Rating returns the user's rating of movieID, 0 when unrated
func (s *Store) Rating(movieID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Movies.Ratings[movieID]
}

// Ratings returns a copy of all ratings
func (s *Store) Ratings() map[string]int {
	return s.State().Movies.Ratings
}

// RecentSearches returns the recent search history, most recent first
func (s *Store) RecentSearches() []string {
	return s.State().Movies.RecentSearches
}

// IsDarkMode reports the current theme
func (s *Store) IsDarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Theme.IsDarkMode
}

// Selectors for use with Watch
var (
	SelectTheme          = func(st State) ThemeState { return st.Theme }
	SelectMovies         = func(st State) MovieState { return st.Movies }
	SelectRecentSearches = func(st State) []string { return st.Movies.RecentSearches }
)
