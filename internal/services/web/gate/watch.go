package gate

import (
	"context"

	"github.com/louisbranch/warehouse/internal/services/web/session"
)

// Watch evaluates the gate against src now and again after every session
// change, sending each distinct outcome on the returned channel. The
// subscription ends, and the channel closes, when ctx is done or src stops
// publishing.
func (g Gate) Watch(ctx context.Context, src session.Source) <-chan Outcome {
	out := make(chan Outcome, 1)
	if src == nil {
		src = session.Static(session.Anonymous())
	}
	updates, unsubscribe := src.Subscribe()

	go func() {
		defer close(out)
		defer unsubscribe()

		last := g.Evaluate(src.Current())
		if !send(ctx, out, last) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case next, ok := <-updates:
				if !ok {
					return
				}
				outcome := g.Evaluate(next)
				if outcome == last {
					continue
				}
				last = outcome
				if !send(ctx, out, outcome) {
					return
				}
			}
		}
	}()
	return out
}

func send(ctx context.Context, out chan<- Outcome, outcome Outcome) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- outcome:
		return true
	}
}
