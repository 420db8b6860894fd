package query

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/s0up4200/moviedeck/omdb"
)

// Input is one keystroke-level change of the search box
type Input struct {
	Text string
	Page int
}

// Update is delivered for the latest settled input only
type Update struct {
	Seq     uint64
	Outcome Outcome
	Err     error
}

// Message returns the text a view should show next to the results
func (u Update) Message() string {
	if u.Err != nil {
		return omdb.Message(u.Err)
	}
	return u.Outcome.Message
}

// Session turns a stream of inputs into searches. Inputs are debounced;
// each settled input is numbered, and its result is published only if no
// newer input settled in the meantime. Older results arriving late are
// dropped.
type Session struct {
	searcher  *Searcher
	debouncer *Debouncer[Input]
	updates   chan Update
	latest    atomic.Uint64
	pubMu     sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewSession starts a session bound to ctx
func (s *Searcher) NewSession(ctx context.Context) *Session {
	ctx, cancel := context.WithCancel(ctx)
	sess := &Session{
		searcher:  s,
		debouncer: NewDebouncer[Input](s.debounce),
		updates:   make(chan Update, 1),
		ctx:       ctx,
		cancel:    cancel,
	}

	sess.wg.Add(1)
	go sess.dispatch()

	go func() {
		<-ctx.Done()
		sess.debouncer.Stop()
	}()

	return sess
}

// Input records a change of the search box
func (sess *Session) Input(text string, page int) {
	sess.debouncer.Push(Input{Text: text, Page: page})
}

// Updates delivers results for settled inputs. It is closed by Close.
func (sess *Session) Updates() <-chan Update {
	return sess.updates
}

// Close stops the session and waits for in-flight work to finish
func (sess *Session) Close() {
	sess.closeOnce.Do(func() {
		sess.cancel()
		sess.debouncer.Stop()
		sess.wg.Wait()
		close(sess.updates)
	})
}

func (sess *Session) dispatch() {
	defer sess.wg.Done()

	for in := range sess.debouncer.Out() {
		seq := sess.latest.Add(1)

		sess.wg.Add(1)
		go func(in Input, seq uint64) {
			defer sess.wg.Done()

			outcome, err := sess.searcher.Search(sess.ctx, in.Text, in.Page)
			if seq != sess.latest.Load() {
				sess.searcher.logger.Debug().
					Str("query", in.Text).
					Uint64("seq", seq).
					Msg("Dropping result for superseded input")
				return
			}
			sess.publish(Update{Seq: seq, Outcome: outcome, Err: err})
		}(in, seq)
	}
}

// publish hands u to the consumer, replacing an unread older update
func (sess *Session) publish(u Update) {
	sess.pubMu.Lock()
	defer sess.pubMu.Unlock()

	if u.Seq != sess.latest.Load() {
		return
	}

	select {
	case <-sess.updates:
	default:
	}

	select {
	case sess.updates <- u:
	case <-sess.ctx.Done():
	}
}
