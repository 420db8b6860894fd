package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/moviedeck/omdb"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		wantErr     bool
		errContains string
	}{
		{name: "valid expression", expression: `Year > 2000`},
		{name: "helpers", expression: `icontains(Title, "dark") and istartsWith(IMDBID, "TT") and iendsWith(Title, "x")`},
		{name: "builtin operators", expression: `lower(Title) contains "dark" and IMDBID startsWith "tt" and upper(Type) endsWith "IE"`},
		{name: "empty expression", expression: "   ", wantErr: true, errContains: "empty expression"},
		{name: "invalid syntax", expression: `icontains(Title, "unclosed`, wantErr: true},
		{name: "wrong helper argument type", expression: `icontains(Year, "19")`, wantErr: true},
		{name: "unknown field", expression: `Budget > 10`, wantErr: true},
		{name: "not boolean", expression: `Year + 1`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(tt.expression)
			if tt.wantErr {
				require.Error(t, err)
				var ce *CompilationError
				assert.True(t, errors.As(err, &ce))
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expression, f.String())
		})
	}
}

func TestApply(t *testing.T) {
	movies := []omdb.Movie{
		{ImdbID: "tt0468569", Title: "The Dark Knight", Year: "2008", Poster: "http://img/dk.jpg", Type: "movie"},
		{ImdbID: "tt0096895", Title: "Batman", Year: "1989", Poster: "N/A", Type: "movie"},
		{ImdbID: "tt1345836", Title: "The Dark Knight Rises", Year: "2012", Poster: "http://img/dkr.jpg", Type: "movie"},
		{ImdbID: "tt0103776", Title: "Batman Returns", Year: "1992–1993", Poster: "http://img/br.jpg", Type: "movie"},
	}
	ratings := map[string]int{"tt0096895": 5, "tt1345836": 2}

	tests := []struct {
		expression string
		want       []string
	}{
		{`Year >= 2000`, []string{"tt0468569", "tt1345836"}},
		{`icontains(Title, "DARK")`, []string{"tt0468569", "tt1345836"}},
		{`Title contains "Dark"`, []string{"tt0468569", "tt1345836"}},
		{`Title contains "DARK"`, []string{}},
		{`istartsWith(Title, "batman")`, []string{"tt0096895", "tt0103776"}},
		{`!HasPoster`, []string{"tt0096895"}},
		{`Rating >= 4`, []string{"tt0096895"}},
		{`Rating == 0`, []string{"tt0468569", "tt0103776"}},
		{`Year < 1995 and iendsWith(Title, "returns")`, []string{"tt0103776"}},
		{`Type == "series"`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			f, err := Compile(tt.expression)
			require.NoError(t, err)

			got := f.Apply(movies, ratings)
			ids := make([]string, 0, len(got))
			for _, m := range got {
				ids = append(ids, m.ImdbID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestDetailFields(t *testing.T) {
	movie := omdb.Movie{
		ImdbID:     "tt0468569",
		Title:      "The Dark Knight",
		Year:       "2008",
		Genre:      "Action, Crime, Drama",
		Director:   "Christopher Nolan",
		ImdbRating: "9.0",
	}

	f, err := Compile(`IMDbRating >= 8.5 and icontains(Genre, "crime") and Director == "Christopher Nolan"`)
	require.NoError(t, err)
	assert.True(t, f.Match(movie, 0))

	// Search hits carry no details, so rating based filters do not match
	movie.ImdbRating = omdb.NotAvailable
	assert.False(t, f.Match(movie, 0))
}
