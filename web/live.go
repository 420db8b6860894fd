package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/s0up4200/moviedeck/query"
)

// liveRequest is sent by the page on every change of the search box
type liveRequest struct {
	Query string `json:"query"`
	Page  int    `json:"page"`
}

// liveMovie is the card data the page needs for one result
type liveMovie struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Year   string `json:"year"`
	Poster string `json:"poster"`
}

// liveUpdate is sent for each settled input that is still the latest
type liveUpdate struct {
	Seq     uint64      `json:"seq"`
	Status  string      `json:"status"`
	Query   string      `json:"query"`
	Page    int         `json:"page"`
	Total   int         `json:"total"`
	Pages   int         `json:"pages"`
	Cached  bool        `json:"cached"`
	Movies  []liveMovie `json:"movies"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func newLiveUpdate(u query.Update) liveUpdate {
	out := liveUpdate{
		Seq:    u.Seq,
		Status: u.Outcome.Status.String(),
		Query:  u.Outcome.Query,
		Page:   u.Outcome.Page,
		Cached: u.Outcome.Cached,
		Movies: []liveMovie{},
	}

	if u.Err != nil {
		out.Status = "error"
		out.Error = u.Message()
		return out
	}

	out.Message = u.Message()
	if res := u.Outcome.Result; res != nil {
		out.Total = res.Total()
		out.Pages = res.Pages()
		for _, m := range res.Search {
			out.Movies = append(out.Movies, liveMovie{
				ID:     m.ImdbID,
				Title:  m.Title,
				Year:   m.Year,
				Poster: m.PosterOr(placeholderPoster),
			})
		}
	}
	return out
}

// handleLive upgrades to a websocket and runs a search session for it. The
// connection is read on the handler goroutine and written only by the
// update loop.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess := s.searcher.NewSession(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		s.writeUpdates(cancel, conn, sess)
	}()

	s.logger.Debug().Str("remote_addr", r.RemoteAddr).Msg("Live search connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug().Err(err).Msg("Live search connection closed")
			}
			break
		}

		var req liveRequest
		if err := json.Unmarshal(data, &req); err != nil {
			s.logger.Debug().Err(err).Msg("Ignoring malformed live search message")
			continue
		}
		sess.Input(req.Query, req.Page)
	}

	cancel()
	sess.Close()
	<-done
}

func (s *Server) writeUpdates(cancel context.CancelFunc, conn *websocket.Conn, sess *query.Session) {
	failed := false
	for u := range sess.Updates() {
		if failed {
			continue
		}

		s.recordSearch(u.Outcome, u.Err)
		if u.Err != nil {
			s.logger.Debug().Err(u.Err).Str("query", u.Outcome.Query).Msg("Live search failed")
		}

		if err := conn.WriteJSON(newLiveUpdate(u)); err != nil {
			s.logger.Debug().Err(err).Msg("Failed to write live update")
			failed = true
			cancel()
		}
	}
}
