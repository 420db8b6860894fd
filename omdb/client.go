package omdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public OMDb endpoint
	DefaultBaseURL = "http://www.omdbapi.com"

	// MinQueryLength is the shortest query Search sends to OMDb
	MinQueryLength = 3

	// connectionProbeID is a long-lived title used by TestConnection
	connectionProbeID = "tt0133093"
)

// Client represents an OMDb API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a new OMDb client. A missing API key does not prevent
// construction; OMDb will reject every call until one is configured.
func NewClient(apiKey string, logger zerolog.Logger, opts ...Option) *Client {
	client := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Inf, 0),
		logger:  logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	client.baseURL = strings.TrimRight(client.baseURL, "/")

	if apiKey == "" {
		logger.Warn().Msg("OMDb API key is missing, set OMDB_API_KEY or omdb.api_key")
	}

	return client
}

// doRequest performs a GET against the OMDb root with the given parameters
// and decodes the JSON body into v. Provider failure flags are left to the
// caller; only transport level problems are reported here, except for error
// bodies that carry an OMDb message.
func (c *Client) doRequest(ctx context.Context, op, failMsg string, params url.Values, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Op: op, Message: failMsg, Err: err}
	}

	params.Set("apikey", c.apiKey)
	requestURL := c.baseURL + "/?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return &TransportError{Op: op, Message: failMsg, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("op", op).
		Str("params", redact(params)).
		Msg("Making OMDb API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("op", op).Msg("OMDb request failed")
		return &TransportError{Op: op, Message: failMsg, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Message: failMsg, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		// OMDb answers bad keys and quota overruns with a JSON error body
		var flag struct {
			Error string `json:"Error"`
		}
		if json.Unmarshal(body, &flag) == nil && flag.Error != "" {
			return &ProviderError{Op: op, Message: flag.Error, StatusCode: resp.StatusCode}
		}
		return &TransportError{
			Op:      op,
			Message: failMsg,
			Err:     fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body)),
		}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &TransportError{Op: op, Message: failMsg, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	return nil
}

// Search searches OMDb for movies matching query. Queries shorter than
// MinQueryLength return an empty result carrying MsgQueryTooShort and no
// error, without any network traffic.
func (c *Client) Search(ctx context.Context, query string, page int) (*SearchResult, error) {
	if utf8.RuneCountInString(query) < MinQueryLength {
		return tooShortResult(), nil
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("s", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("type", string(MediaTypeMovie))

	var result SearchResult
	if err := c.doRequest(ctx, opSearch, MsgSearchFailed, params, &result); err != nil {
		return nil, err
	}

	if !result.OK() {
		msg := result.Error
		if msg == "" {
			msg = MsgSearchFailed
		}
		return nil, &ProviderError{Op: opSearch, Message: msg, StatusCode: http.StatusOK}
	}

	if result.Search == nil {
		result.Search = []Movie{}
	}

	c.logger.Debug().
		Str("query", query).
		Int("page", page).
		Int("count", len(result.Search)).
		Str("total", result.TotalResults).
		Msg("Retrieved search results from OMDb")

	return &result, nil
}

// GetDetails fetches the full record of the movie with the given IMDb ID
func (c *Client) GetDetails(ctx context.Context, imdbID string) (*Movie, error) {
	if imdbID == "" {
		return nil, ErrMissingID
	}

	params := url.Values{}
	params.Set("i", imdbID)
	params.Set("plot", "full")

	var movie Movie
	if err := c.doRequest(ctx, opDetails, MsgDetailsFailed, params, &movie); err != nil {
		return nil, err
	}

	if movie.Response == "False" {
		msg := movie.Error
		if msg == "" {
			msg = MsgMovieNotFound
		}
		return nil, &ProviderError{Op: opDetails, Message: msg, StatusCode: http.StatusOK}
	}

	c.logger.Debug().Str("imdb_id", imdbID).Str("title", movie.Title).Msg("Retrieved movie details from OMDb")
	return &movie, nil
}

// TestConnection verifies the endpoint is reachable and the API key accepted
func (c *Client) TestConnection(ctx context.Context) error {
	if _, err := c.GetDetails(ctx, connectionProbeID); err != nil {
		return fmt.Errorf("failed to connect to OMDb: %w", err)
	}
	return nil
}

// redact renders params for logging without the API key
func redact(params url.Values) string {
	safe := url.Values{}
	for k, v := range params {
		if k == "apikey" {
			continue
		}
		safe[k] = v
	}
	return safe.Encode()
}
