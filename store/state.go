package store

import "maps"

// MaxRecentSearches bounds the recent search history
const MaxRecentSearches = 5

// State is the whole client state, split into independent slices
type State struct {
	Theme  ThemeState
	Movies MovieState
}

// ThemeState holds the light/dark preference
type ThemeState struct {
	IsDarkMode bool
}

// MovieState holds user ratings and the recent search history
type MovieState struct {
	Ratings        map[string]int
	RecentSearches []string
}

// InitialState returns the state a fresh store starts from: light theme, no
// ratings, no recent searches
func InitialState() State {
	return State{
		Movies: MovieState{
			Ratings:        map[string]int{},
			RecentSearches: []string{},
		},
	}
}

// Action is a state transition request
type Action interface {
	isAction()
}

// ToggleTheme flips between light and dark mode
type ToggleTheme struct{}

// SetRating records a user rating for a movie, replacing any earlier one
type SetRating struct {
	MovieID string
	Rating  int
}

// AddRecentSearch moves term to the front of the recent search history
type AddRecentSearch struct {
	Term string
}

// ClearRecentSearches empties the recent search history
type ClearRecentSearches struct{}

func (ToggleTheme) isAction()         {}
func (SetRating) isAction()           {}
func (AddRecentSearch) isAction()     {}
func (ClearRecentSearches) isAction() {}

// Reduce applies a to s and returns the new state. It never modifies s and
// never fails; unknown actions return s unchanged.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case ToggleTheme:
		s.Theme = reduceTheme(s.Theme)
	case SetRating, AddRecentSearch, ClearRecentSearches:
		s.Movies = reduceMovies(s.Movies, a)
	}
	return s
}

func reduceTheme(t ThemeState) ThemeState {
	t.IsDarkMode = !t.IsDarkMode
	return t
}

func reduceMovies(m MovieState, a Action) MovieState {
	switch a := a.(type) {
	case SetRating:
		// Range is not checked here; Store.RateMovie validates before dispatch
		ratings := make(map[string]int, len(m.Ratings)+1)
		maps.Copy(ratings, m.Ratings)
		ratings[a.MovieID] = a.Rating
		m.Ratings = ratings

	case AddRecentSearch:
		recent := make([]string, 0, MaxRecentSearches)
		recent = append(recent, a.Term)
		for _, s := range m.RecentSearches {
			if len(recent) == MaxRecentSearches {
				break
			}
			if s != a.Term {
				recent = append(recent, s)
			}
		}
		m.RecentSearches = recent

	case ClearRecentSearches:
		m.RecentSearches = []string{}
	}
	return m
}

// clone returns a deep copy of s so readers cannot alias store internals
func (s State) clone() State {
	out := s
	out.Movies.Ratings = maps.Clone(s.Movies.Ratings)
	if out.Movies.Ratings == nil {
		out.Movies.Ratings = map[string]int{}
	}
	out.Movies.RecentSearches = append([]string{}, s.Movies.RecentSearches...)
	return out
}
