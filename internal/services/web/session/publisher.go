package session

import "sync"

// Source exposes a session and notifies subscribers when it changes.
type Source interface {
	// Current returns the latest published session.
	Current() Session
	// Subscribe returns a channel that receives every subsequent change and a
	// function that ends the subscription. The channel is closed when the
	// subscription ends or the source shuts down.
	Subscribe() (<-chan Session, func())
}

// Publisher is an in-memory Source. Subscribers observe latest-value
// semantics: a slow reader skips intermediate sessions and only ever receives
// the newest one.
type Publisher struct {
	mu          sync.Mutex
	current     Session
	subscribers map[chan Session]struct{}
	closed      bool
}

// NewPublisher returns a publisher holding initial.
func NewPublisher(initial Session) *Publisher {
	return &Publisher{
		current:     initial.clone(),
		subscribers: make(map[chan Session]struct{}),
	}
}

// Current returns a copy of the latest session.
func (p *Publisher) Current() Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current.clone()
}

// Subscribe registers a change listener.
func (p *Publisher) Subscribe() (<-chan Session, func()) {
	ch := make(chan Session, 1)
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	p.subscribers[ch] = struct{}{}
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if _, ok := p.subscribers[ch]; !ok {
				return
			}
			delete(p.subscribers, ch)
			close(ch)
		})
	}
}

// Publish replaces the current session and notifies subscribers. It reports
// false when next equals the current session or the publisher is closed.
func (p *Publisher) Publish(next Session) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.current.Equal(next) {
		return false
	}
	p.current = next.clone()
	for ch := range p.subscribers {
		// Channels are only written under p.mu, so draining the stale value
		// guarantees room for the new one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- p.current.clone():
		default:
		}
	}
	return true
}

// Subscribers returns the number of live subscriptions.
func (p *Publisher) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subscribers)
}

// Close ends every subscription. Later publishes are ignored.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for ch := range p.subscribers {
		delete(p.subscribers, ch)
		close(ch)
	}
}

type staticSource struct {
	session Session
}

// Static returns a Source that never changes.
func Static(s Session) Source {
	return staticSource{session: s.clone()}
}

func (s staticSource) Current() Session {
	return s.session.clone()
}

func (s staticSource) Subscribe() (<-chan Session, func()) {
	ch := make(chan Session)
	var once sync.Once
	return ch, func() { once.Do(func() { close(ch) }) }
}
