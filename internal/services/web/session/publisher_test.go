package session

import (
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan Session) Session {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			t.Fatal("subscription closed")
		}
		return s
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for session")
	}
	return Session{}
}

func TestPublisherNotifiesSubscribers(t *testing.T) {
	t.Parallel()

	p := NewPublisher(Pending())
	updates, unsubscribe := p.Subscribe()
	defer unsubscribe()

	if !p.Publish(Authenticated(UserIdentity{ID: "u-1", Role: RoleAdmin})) {
		t.Fatal("Publish() = false, want true")
	}
	got := receive(t, updates)
	if got.Loading || got.User == nil || got.User.ID != "u-1" {
		t.Fatalf("received %+v", got)
	}
	if cur := p.Current(); cur.User == nil || cur.User.Role != RoleAdmin {
		t.Fatalf("Current() = %+v", cur)
	}
}

func TestPublisherSkipsUnchangedSession(t *testing.T) {
	t.Parallel()

	p := NewPublisher(Anonymous())
	if p.Publish(Anonymous()) {
		t.Fatal("Publish(same) = true, want false")
	}
}

func TestPublisherKeepsLatestForSlowSubscriber(t *testing.T) {
	t.Parallel()

	p := NewPublisher(Pending())
	updates, unsubscribe := p.Subscribe()
	defer unsubscribe()

	p.Publish(Anonymous())
	p.Publish(Authenticated(UserIdentity{ID: "u-2", Role: RoleStaff}))

	got := receive(t, updates)
	if got.User == nil || got.User.ID != "u-2" {
		t.Fatalf("received %+v, want latest session", got)
	}
	select {
	case extra := <-updates:
		t.Fatalf("unexpected extra session %+v", extra)
	default:
	}
}

func TestPublisherUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	p := NewPublisher(Pending())
	updates, unsubscribe := p.Subscribe()
	unsubscribe()
	unsubscribe()

	if _, ok := <-updates; ok {
		t.Fatal("expected closed channel")
	}
	if got := p.Subscribers(); got != 0 {
		t.Fatalf("Subscribers() = %d, want 0", got)
	}
}

func TestPublisherCloseEndsSubscriptions(t *testing.T) {
	t.Parallel()

	p := NewPublisher(Pending())
	updates, unsubscribe := p.Subscribe()
	defer unsubscribe()
	p.Close()

	if _, ok := <-updates; ok {
		t.Fatal("expected closed channel after Close")
	}
	if p.Publish(Anonymous()) {
		t.Fatal("Publish() after Close = true, want false")
	}
	late, _ := p.Subscribe()
	if _, ok := <-late; ok {
		t.Fatal("expected closed channel for late subscriber")
	}
}

func TestPublisherCurrentIsACopy(t *testing.T) {
	t.Parallel()

	p := NewPublisher(Authenticated(UserIdentity{ID: "u-3", Role: RoleStaff}))
	cur := p.Current()
	cur.User.Role = RoleAdmin
	if got := p.Current().User.Role; got != RoleStaff {
		t.Fatalf("Current().User.Role = %q, want %q", got, RoleStaff)
	}
}

func TestStaticSource(t *testing.T) {
	t.Parallel()

	src := Static(Anonymous())
	if src.Current().Loading {
		t.Fatal("static anonymous source is loading")
	}
	updates, unsubscribe := src.Subscribe()
	select {
	case <-updates:
		t.Fatal("static source emitted a change")
	default:
	}
	unsubscribe()
	if _, ok := <-updates; ok {
		t.Fatal("expected closed channel")
	}
}
