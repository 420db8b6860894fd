// Package omdb provides a client for the OMDb movie database API.
//
// The client wraps the two read operations moviedeck needs, searching by
// title and fetching a single title by its IMDb identifier, and normalises
// every failure into one of a few error types.
//
// # Usage
//
//	logger := zerolog.New(os.Stdout)
//	client := omdb.NewClient(
//		os.Getenv("OMDB_API_KEY"),
//		logger,
//		omdb.WithTimeout(10*time.Second),
//	)
//
//	result, err := client.Search(ctx, "batman", 1)
//	if err != nil {
//		fmt.Println(omdb.Message(err))
//	}
//
// # Error Handling
//
// The client never retries. Errors fall into three groups:
//
//   - ErrMissingID: input validation, no request was made
//   - ProviderError: OMDb answered with Response "False"
//   - TransportError: the request failed, or the answer could not be read
//
// Only TransportError is considered transient (see IsTransient), so callers
// wrapping the client in a retry policy should retry only those.
//
// Search treats a query shorter than MinQueryLength as a non-error: it
// returns an empty result carrying MsgQueryTooShort without touching the
// network.
package omdb
