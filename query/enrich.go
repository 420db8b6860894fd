package query

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/moviedeck/omdb"
)

// EnrichConcurrency bounds the number of detail lookups Enrich runs at once
const EnrichConcurrency = 5

// Enrich returns movies with each search hit replaced by its full record.
// Lookups share the details cache. A failed lookup keeps the search hit and
// is logged; Enrich itself only fails when ctx is done.
func (s *Searcher) Enrich(ctx context.Context, movies []omdb.Movie) ([]omdb.Movie, error) {
	out := make([]omdb.Movie, len(movies))
	copy(out, movies)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(EnrichConcurrency)

	for i, movie := range movies {
		i, movie := i, movie
		if movie.ImdbID == "" {
			continue
		}

		g.Go(func() error {
			full, err := s.Details(gctx, movie.ImdbID)
			if err != nil {
				s.logger.Warn().
					Err(err).
					Str("imdb_id", movie.ImdbID).
					Str("movie", movie.Title).
					Msg("Failed to get movie details")
				// Continue with the other movies
				return nil
			}
			out[i] = *full
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
