package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/moviedeck/filter"
	"github.com/s0up4200/moviedeck/omdb"
	"github.com/s0up4200/moviedeck/query"
)

var (
	// Command flags
	searchPage    int
	filterExpr    string
	searchDetails bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <title>",
	Short: "Search movies by title",
	Long: `Search OMDb for movies whose title matches the given text. At least three
characters are required. Results can be narrowed with a filter expression, for
example:

  moviedeck search batman --filter 'Year >= 2000 && HasPoster'
  moviedeck search alien --filter 'icontains(Title, "resurrection")'
  moviedeck search alien --filter 'Title contains "Resurrection"'
  moviedeck search heat --details --filter 'IMDbRating >= 8'

Genre, Director and IMDbRating are only known with --details, which looks up
every result before filtering.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchPage, "page", "p", 1, "result page")
	searchCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	searchCmd.Flags().BoolVarP(&searchDetails, "details", "d", false, "fetch full details for every result")
}

func runSearch(cmd *cobra.Command, args []string) error {
	// Compile the filter before spending a request on the search
	var f *filter.Filter
	if filterExpr != "" {
		var err error
		f, err = filter.Compile(filterExpr)
		if err != nil {
			return fmt.Errorf("invalid filter expression: %w", err)
		}
	}

	text := strings.Join(args, " ")
	logger.Info().Str("query", text).Int("page", searchPage).Msg("Searching movies")

	ctx := context.Background()
	outcome, err := searcher.Search(ctx, text, searchPage)
	if err != nil {
		logger.Debug().Err(err).Msg("Search failed")
		return fmt.Errorf("error: %s", omdb.Message(err))
	}

	if !outcome.Searched() {
		fmt.Println(outcome.Message)
		return nil
	}

	movies := outcome.Result.Search
	if searchDetails {
		movies, err = searcher.Enrich(ctx, movies)
		if err != nil {
			return err
		}
	}
	if f != nil {
		movies = f.Apply(movies, nil)
	}

	// Display results
	if len(movies) == 0 {
		fmt.Println(query.MsgNoResult)
		return nil
	}

	fmt.Printf("\nFound %d movies (page %d of %d, %d total):\n",
		len(movies), outcome.Page, outcome.Result.Pages(), outcome.Result.Total())
	fmt.Println(strings.Repeat("-", 80))

	for _, movie := range movies {
		fmt.Printf("• %s (%s)  %s\n", movie.Title, movie.Year, movie.ImdbID)
		if searchDetails {
			fmt.Printf("  %s | %s | IMDb %s\n", movie.Genre, movie.Director, movie.ImdbRating)
		}
	}

	return nil
}

// detailsCmd represents the details command
var detailsCmd = &cobra.Command{
	Use:   "details <imdbID>",
	Short: "Show the details of a movie",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetails,
}

func runDetails(cmd *cobra.Command, args []string) error {
	movie, err := searcher.Details(context.Background(), args[0])
	if err != nil {
		logger.Debug().Err(err).Str("imdb_id", args[0]).Msg("Details lookup failed")
		if omdb.IsNotFound(err) {
			return fmt.Errorf("movie not found: %s", omdb.Message(err))
		}
		return fmt.Errorf("error: %s", omdb.Message(err))
	}

	fmt.Printf("\n%s (%s)\n", movie.Title, movie.Year)
	fmt.Println(strings.Repeat("-", 80))
	printField("Runtime", movie.Runtime)
	printField("Released", movie.Released)
	printField("Genre", movie.Genre)
	printField("Director", movie.Director)
	if actors := movie.ActorList(); len(actors) > 0 {
		fmt.Println("Actors:")
		for _, a := range actors {
			fmt.Printf("  • %s\n", a)
		}
	}
	printField("IMDb Rating", movie.ImdbRating)
	if movie.HasPoster() {
		printField("Poster", movie.Poster)
	}
	if movie.Plot != "" && movie.Plot != omdb.NotAvailable {
		fmt.Printf("\n%s\n", movie.Plot)
	}

	return nil
}

func printField(label, value string) {
	if value == "" {
		value = omdb.NotAvailable
	}
	fmt.Printf("%-12s %s\n", label+":", value)
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connection to OMDb",
	Long:  `Test the connection to the OMDb API and check that the configured API key is accepted.`,
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	fmt.Printf("Testing connection to OMDb at %s...\n", cfg.OMDb.URL)

	if err := omdbClient.TestConnection(context.Background()); err != nil {
		return fmt.Errorf("%w (%s)", err, omdb.Message(err))
	}

	fmt.Println("✓ Connection successful!")
	fmt.Printf("- Debounce: %s\n", cfg.Search.Debounce)
	fmt.Printf("- Cache freshness: %s\n", cfg.Search.Freshness)
	fmt.Printf("- Preference storage: %s\n", cfg.Storage.Backend)

	return nil
}
