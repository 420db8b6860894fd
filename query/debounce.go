package query

import (
	"sync"
	"time"
)

// Debouncer delays values until input has been quiet for a fixed period.
// Every Push restarts the quiet timer; only the last value pushed before the
// timer fires is emitted on Out.
type Debouncer[T any] struct {
	quiet    time.Duration
	in       chan T
	out      chan T
	done     chan struct{}
	stopOnce sync.Once
}

// NewDebouncer starts a debouncer with the given quiet period
func NewDebouncer[T any](quiet time.Duration) *Debouncer[T] {
	d := &Debouncer[T]{
		quiet: quiet,
		in:    make(chan T),
		out:   make(chan T),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

// Push offers a new value, superseding any pending one. It is a no-op after
// Stop.
func (d *Debouncer[T]) Push(v T) {
	select {
	case d.in <- v:
	case <-d.done:
	}
}

// Out delivers settled values. It is closed after Stop.
func (d *Debouncer[T]) Out() <-chan T {
	return d.out
}

// Stop cancels any pending emission and closes Out
func (d *Debouncer[T]) Stop() {
	d.stopOnce.Do(func() {
		close(d.done)
	})
}

func (d *Debouncer[T]) run() {
	defer close(d.out)

	timer := time.NewTimer(d.quiet)
	timer.Stop()
	defer timer.Stop()

	var (
		pending T
		armed   <-chan time.Time
	)

	for {
		select {
		case v := <-d.in:
			pending = v
			timer.Reset(d.quiet)
			armed = timer.C

		case <-armed:
			armed = nil
			select {
			case d.out <- pending:
			case <-d.done:
				return
			}

		case <-d.done:
			return
		}
	}
}
