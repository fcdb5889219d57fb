package notifications

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubNotifier struct {
	err   error
	calls int
}

func (s *stubNotifier) SendWelcome(_ context.Context, _ SendWelcomeInput) error {
	s.calls++
	return s.err
}

func TestProtectedNotifier_PassThroughWhenClosed(t *testing.T) {
	inner := &stubNotifier{}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{})

	if err := n.SendWelcome(context.Background(), SendWelcomeInput{UserID: 1, Name: "alice"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inner.calls != 1 {
		t.Fatalf("inner calls = %d, want 1", inner.calls)
	}
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	inner := &stubNotifier{err: errors.New("smtp down")}

	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		FailureThreshold: 2,
		Cooldown:         time.Hour,
	})

	ctx := context.Background()
	in := SendWelcomeInput{UserID: 1, Name: "alice"}

	for i := 0; i < 2; i++ {
		if err := n.SendWelcome(ctx, in); err == nil {
			t.Fatal("expected inner error")
		}
	}

	// circuit is now open, the inner notifier must not be hit again
	err := n.SendWelcome(ctx, in)

	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("got %v, want ErrCircuitOpen", err)
	}

	if inner.calls != 2 {
		t.Fatalf("inner calls = %d, want 2", inner.calls)
	}
}

func TestProtectedNotifier_HalfOpenRecovery(t *testing.T) {
	inner := &stubNotifier{err: errors.New("smtp down")}

	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		FailureThreshold: 1,
		Cooldown:         10 * time.Millisecond,
	})

	ctx := context.Background()
	in := SendWelcomeInput{UserID: 1, Name: "alice"}

	if err := n.SendWelcome(ctx, in); err == nil {
		t.Fatal("expected inner error")
	}

	if err := n.SendWelcome(ctx, in); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("got %v, want ErrCircuitOpen", err)
	}

	time.Sleep(20 * time.Millisecond)

	// trial call succeeds and closes the circuit again
	inner.err = nil

	if err := n.SendWelcome(ctx, in); err != nil {
		t.Fatalf("half-open trial failed: %v", err)
	}

	if err := n.SendWelcome(ctx, in); err != nil {
		t.Fatalf("closed circuit should pass through: %v", err)
	}
}
