package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/moviedeck/config"
	"github.com/s0up4200/moviedeck/omdb"
	"github.com/s0up4200/moviedeck/query"
)

var (
	cfgFile    string
	cfg        *config.Config
	logger     zerolog.Logger
	omdbClient *omdb.Client
	searcher   *query.Searcher
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "moviedeck",
	Short: "Search OMDb for movies and keep track of what you thought of them",
	Long: `moviedeck searches the OMDb catalogue by title, shows movie details and
lets you rate movies on a five star scale. Run "moviedeck serve" for the web
interface or use the search and details commands from the terminal.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(detailsCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

// initializeApp initializes the configuration and clients
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	if !cfg.OMDb.HasAPIKey() {
		logger.Warn().Msg("No OMDb API key configured, set OMDB_API_KEY or omdb.api_key. Requests will be rejected")
	}

	// Create OMDb client
	omdbClient = omdb.NewClient(cfg.OMDb.APIKey, logger,
		omdb.WithBaseURL(cfg.OMDb.URL),
		omdb.WithTimeout(cfg.OMDb.Timeout),
		omdb.WithRateLimit(cfg.OMDb.RequestsPerSecond, 1),
	)

	searcher = query.NewSearcher(omdbClient, logger,
		query.WithDebounce(cfg.Search.Debounce),
		query.WithFreshness(cfg.Search.Freshness),
		query.WithCacheSize(cfg.Search.CacheSize),
		query.WithRetries(cfg.Search.Retries),
	)

	return nil
}

// skipInit replaces initializeApp for commands that need no configuration
func skipInit(cmd *cobra.Command, args []string) error {
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isTerminal(os.Stderr),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
