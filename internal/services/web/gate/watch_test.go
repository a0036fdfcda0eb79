package gate

import (
	"context"
	"testing"
	"time"

	"github.com/louisbranch/warehouse/internal/services/web/session"
)

func receive(t *testing.T, ch <-chan Outcome) Outcome {
	t.Helper()
	select {
	case outcome, ok := <-ch:
		if !ok {
			t.Fatal("outcome channel closed")
		}
		return outcome
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outcome")
	}
	return Outcome{}
}

func waitClosed(t *testing.T, ch <-chan Outcome) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("outcome channel not closed")
		}
	}
}

func TestWatchFollowsResolution(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pub := session.NewPublisher(session.Pending())
	defer pub.Close()

	outcomes := adminGate().Watch(ctx, pub)
	if got := receive(t, outcomes); got != Pending() {
		t.Fatalf("first outcome = %v, want pending", got)
	}
	pub.Publish(session.Authenticated(session.UserIdentity{ID: "u-1", Role: session.RoleStaff}))
	if got := receive(t, outcomes); got != Redirect("/dashboard") {
		t.Fatalf("outcome = %v, want redirect(/dashboard)", got)
	}
}

func TestWatchSuppressesRepeatedOutcomes(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pub := session.NewPublisher(session.Authenticated(session.UserIdentity{ID: "u-1", Role: session.RoleStaff}))
	defer pub.Close()

	outcomes := protectedGate().Watch(ctx, pub)
	if got := receive(t, outcomes); got != Render() {
		t.Fatalf("first outcome = %v, want render", got)
	}
	pub.Publish(session.Authenticated(session.UserIdentity{ID: "u-1", Role: session.RoleAdmin}))
	pub.Publish(session.Anonymous())
	if got := receive(t, outcomes); got != Redirect("/auth/login") {
		t.Fatalf("outcome after sign-out = %v, want redirect(/auth/login)", got)
	}
}

func TestWatchClosesOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	pub := session.NewPublisher(session.Pending())
	defer pub.Close()

	outcomes := protectedGate().Watch(ctx, pub)
	receive(t, outcomes)
	cancel()
	waitClosed(t, outcomes)

	deadline := time.Now().Add(2 * time.Second)
	for pub.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers = %d, want 0 after cancel", pub.Subscribers())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWatchClosesWhenSourceCloses(t *testing.T) {
	t.Parallel()

	pub := session.NewPublisher(session.Pending())
	outcomes := protectedGate().Watch(context.Background(), pub)
	receive(t, outcomes)
	pub.Close()
	waitClosed(t, outcomes)
}

func TestWatchNilSourceIsAnonymous(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if got := receive(t, adminGate().Watch(ctx, nil)); got != Redirect("/auth/login") {
		t.Fatalf("outcome = %v, want redirect(/auth/login)", got)
	}
}
