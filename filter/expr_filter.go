// Package filter narrows a page of search results with expr-lang
// expressions such as `Year >= 2000 and icontains(Title, "dark")`.
//
// Besides the expr-lang built-ins (the `contains`, `startsWith` and
// `endsWith` operators, `lower`, `upper`, ...) expressions can call the case
// insensitive helpers icontains, istartsWith and iendsWith.
package filter

import (
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/moviedeck/omdb"
)

// Env is the data an expression is evaluated against
type Env struct {
	Title     string
	Year      int
	Type      string
	IMDBID    string
	HasPoster bool
	Rating    int

	// Filled only for movies with full details
	Genre      string
	Director   string
	IMDbRating float64
}

func containsFold(str, substr string) bool {
	return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
}

func startsWithFold(str, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
}

func endsWithFold(str, suffix string) bool {
	return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
}

// Filter is a compiled expression
type Filter struct {
	program *vm.Program
	expr    string
}

// Compile compiles a filter expression
func Compile(expression string) (*Filter, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, &CompilationError{Expression: expression, Reason: "empty expression"}
	}

	program, err := expr.Compile(expression,
		expr.Env(Env{}),
		expr.AsBool(),
		expr.Function("icontains", func(params ...any) (any, error) {
			return containsFold(params[0].(string), params[1].(string)), nil
		}, new(func(string, string) bool)),
		expr.Function("istartsWith", func(params ...any) (any, error) {
			return startsWithFold(params[0].(string), params[1].(string)), nil
		}, new(func(string, string) bool)),
		expr.Function("iendsWith", func(params ...any) (any, error) {
			return endsWithFold(params[0].(string), params[1].(string)), nil
		}, new(func(string, string) bool)),
	)
	if err != nil {
		return nil, &CompilationError{Expression: expression, Reason: err.Error(), Err: err}
	}

	return &Filter{program: program, expr: expression}, nil
}

// NewEnv builds the evaluation environment for a movie
func NewEnv(movie omdb.Movie, rating int) Env {
	return Env{
		Title:     movie.Title,
		Year:      movie.ReleaseYear(),
		Type:      string(movie.Type),
		IMDBID:    movie.ImdbID,
		HasPoster: movie.HasPoster(),
		Rating:    rating,

		Genre:      movie.Genre,
		Director:   movie.Director,
		IMDbRating: imdbRating(movie.ImdbRating),
	}
}

func imdbRating(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// Match evaluates the filter against a movie and the user's rating of it.
// Evaluation errors count as no match.
func (f *Filter) Match(movie omdb.Movie, rating int) bool {
	result, err := expr.Run(f.program, NewEnv(movie, rating))
	if err != nil {
		return false
	}
	matched, ok := result.(bool)
	return ok && matched
}

// Apply returns the movies matching the filter, in input order
func (f *Filter) Apply(movies []omdb.Movie, ratings map[string]int) []omdb.Movie {
	matched := make([]omdb.Movie, 0, len(movies))
	for _, m := range movies {
		if f.Match(m, ratings[m.ImdbID]) {
			matched = append(matched, m)
		}
	}
	return matched
}

// String returns the expression the filter was compiled from
func (f *Filter) String() string {
	return f.expr
}
