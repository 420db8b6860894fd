package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/s0up4200/moviedeck/filter"
	"github.com/s0up4200/moviedeck/omdb"
	"github.com/s0up4200/moviedeck/query"
	"github.com/s0up4200/moviedeck/store"
)

var stars = []int{1, 2, 3, 4, 5}

func (s *Server) layout(title string) layoutData {
	return layoutData{
		Title: title,
		Dark:  s.store.IsDarkMode(),
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/movies", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("q")
	page := parsePage(r.URL.Query().Get("page"))
	filterExpr := strings.TrimSpace(r.URL.Query().Get("filter"))

	var f *filter.Filter
	if filterExpr != "" {
		var err error
		if f, err = filter.Compile(filterExpr); err != nil {
			s.render(w, http.StatusOK, pageSearch, searchData{
				layoutData: s.layout("Search"),
				Query:      strings.TrimSpace(text),
				Page:       page,
				Filter:     filterExpr,
				Error:      "Invalid filter: " + err.Error(),
				Recent:     s.store.RecentSearches(),
			})
			return
		}
	}

	outcome, err := s.searcher.Search(r.Context(), text, page)
	s.recordSearch(outcome, err)

	data := searchData{
		layoutData: s.layout("Search"),
		Query:      outcome.Query,
		Page:       outcome.Page,
		Filter:     filterExpr,
		Recent:     s.store.RecentSearches(),
	}

	if err != nil {
		data.Error = omdb.Message(err)
		s.render(w, http.StatusOK, pageSearch, data)
		return
	}

	data.Message = outcome.Message
	if outcome.Result != nil {
		data.Movies = outcome.Result.Search
		if f != nil {
			data.Movies = f.Apply(data.Movies, s.store.Ratings())
			if len(data.Movies) == 0 {
				data.Message = query.MsgNoResult
			}
		}
		data.Total = outcome.Result.Total()
		data.Pages = outcome.Result.Pages()
		if data.Page > 1 {
			data.PrevPage = data.Page - 1
		}
		if data.Page < data.Pages {
			data.NextPage = data.Page + 1
		}
	}

	s.render(w, http.StatusOK, pageSearch, data)
}

// recordSearch adds performed searches, failed ones included, to the recent
// search history
func (s *Server) recordSearch(outcome query.Outcome, err error) {
	if err == nil && !outcome.Searched() {
		return
	}
	if outcome.Query == "" {
		return
	}
	s.store.Dispatch(store.AddRecentSearch{Term: outcome.Query})
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	movie, err := s.searcher.Details(r.Context(), id)
	if err != nil {
		s.logger.Debug().Err(err).Str("imdb_id", id).Msg("Rendering not found page")
		s.render(w, http.StatusNotFound, pageNotFound, notFoundData{
			layoutData: s.layout("Movie not found"),
			Message:    omdb.Message(err),
		})
		return
	}

	s.render(w, http.StatusOK, pageDetails, detailsData{
		layoutData: s.layout(movie.Title),
		Movie:      *movie,
		Rating:     s.store.Rating(movie.ImdbID),
		Stars:      stars,
	})
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	rating, err := strconv.Atoi(r.PostFormValue("rating"))
	if err != nil {
		http.Error(w, store.ErrInvalidRating.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.RateMovie(id, rating); err != nil {
		if errors.Is(err, store.ErrInvalidRating) || errors.Is(err, store.ErrMissingMovieID) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Error().Err(err).Str("imdb_id", id).Msg("Failed to rate movie")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	s.logger.Info().Str("imdb_id", id).Int("rating", rating).Msg("Movie rated")
	http.Redirect(w, r, "/movies/"+url.PathEscape(id), http.StatusSeeOther)
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	s.store.Dispatch(store.ToggleTheme{})
	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

func (s *Server) handleClearSearches(w http.ResponseWriter, r *http.Request) {
	s.store.Dispatch(store.ClearRecentSearches{})
	http.Redirect(w, r, "/movies", http.StatusSeeOther)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusNotFound, pageNotFound, notFoundData{
		layoutData: s.layout("Not found"),
	})
}

// backTo returns the local path of the referring page, or /movies when the
// referrer is missing or points at another host
func backTo(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != r.Host) {
		return "/movies"
	}
	if !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") {
		return "/movies"
	}

	back := ref.Path
	if ref.RawQuery != "" {
		back += "?" + ref.RawQuery
	}
	return back
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}
