package omdb

import (
	"strconv"
	"strings"
)

// NotAvailable is the value OMDb uses for missing fields
const NotAvailable = "N/A"

// MediaType represents the kind of title OMDb returns
type MediaType string

const (
	// MediaTypeMovie represents a movie
	MediaTypeMovie MediaType = "movie"
	// MediaTypeSeries represents a series
	MediaTypeSeries MediaType = "series"
	// MediaTypeEpisode represents a single episode
	MediaTypeEpisode MediaType = "episode"
)

// IsMovie checks if the media type is a movie
func (mt MediaType) IsMovie() bool {
	return mt == MediaTypeMovie
}

// Movie is a single OMDb title. Search results only fill the first five
// fields; the rest come from a details lookup.
type Movie struct {
	ImdbID string    `json:"imdbID"`
	Title  string    `json:"Title"`
	Year   string    `json:"Year"`
	Poster string    `json:"Poster"`
	Type   MediaType `json:"Type"`

	Plot       string `json:"Plot,omitempty"`
	Genre      string `json:"Genre,omitempty"`
	Director   string `json:"Director,omitempty"`
	Actors     string `json:"Actors,omitempty"`
	ImdbRating string `json:"imdbRating,omitempty"`
	Runtime    string `json:"Runtime,omitempty"`
	Released   string `json:"Released,omitempty"`

	Response string `json:"Response,omitempty"`
	Error    string `json:"Error,omitempty"`
}

// HasPoster reports whether the poster URL points at an image
func (m *Movie) HasPoster() bool {
	return m.Poster != "" && m.Poster != NotAvailable
}

// PosterOr returns the poster URL, or placeholder when OMDb has none
func (m *Movie) PosterOr(placeholder string) string {
	if m.HasPoster() {
		return m.Poster
	}
	return placeholder
}

// ActorList splits the comma separated Actors field
func (m *Movie) ActorList() []string {
	if m.Actors == "" || m.Actors == NotAvailable {
		return nil
	}

	parts := strings.Split(m.Actors, ",")
	actors := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			actors = append(actors, p)
		}
	}
	return actors
}

// ReleaseYear returns the first year of the Year field ("2008", "2010–2014"),
// or 0 when it cannot be parsed
func (m *Movie) ReleaseYear() int {
	if len(m.Year) < 4 {
		return 0
	}
	year, err := strconv.Atoi(m.Year[:4])
	if err != nil {
		return 0
	}
	return year
}

// SearchResult is the response of a title search
type SearchResult struct {
	Search       []Movie `json:"Search"`
	TotalResults string  `json:"totalResults"`
	Response     string  `json:"Response"`
	Error        string  `json:"Error,omitempty"`
}

// OK reports whether OMDb flagged the search as successful
func (r *SearchResult) OK() bool {
	return r.Response != "False"
}

// Total returns totalResults as an int, 0 when absent
func (r *SearchResult) Total() int {
	n, err := strconv.Atoi(r.TotalResults)
	if err != nil {
		return 0
	}
	return n
}

// Pages returns the number of result pages, OMDb serves ten titles per page
func (r *SearchResult) Pages() int {
	total := r.Total()
	if total == 0 {
		return 0
	}
	return (total + PageSize - 1) / PageSize
}

// PageSize is the fixed number of titles per OMDb search page
const PageSize = 10

// tooShortResult is returned for queries below MinQueryLength
func tooShortResult() *SearchResult {
	return &SearchResult{
		Search:       []Movie{},
		TotalResults: "0",
		Response:     "False",
		Error:        MsgQueryTooShort,
	}
}
