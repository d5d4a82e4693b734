package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastBackoff(attempts int) Backoff {
	return Backoff{Attempts: attempts, Initial: time.Millisecond, Max: 5 * time.Millisecond, Multiplier: 2}
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastBackoff(3), "test", func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_SuccessAfterRetry(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastBackoff(3), "test", func(context.Context) error {
		calls++
		if calls < 3 {
			return Transient(errors.New("starting up"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastBackoff(4), "test", func(context.Context) error {
		calls++
		return Transient(errors.New("always down"))
	})
	if err == nil || err.Error() != "always down" {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastBackoff(5), "test", func(context.Context) error {
		calls++
		return errors.New("password authentication failed")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_CustomRetryable(t *testing.T) {
	sentinel := errors.New("retry me")
	b := fastBackoff(3)
	b.Retryable = func(err error) bool { return errors.Is(err, sentinel) }

	var calls int
	_ = Do(context.Background(), b, "test", func(context.Context) error {
		calls++
		return sentinel
	})
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := Backoff{Attempts: 10, Initial: time.Hour, Max: time.Hour}

	var calls int
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, b, "test", func(context.Context) error {
			calls++
			return Transient(errors.New("down"))
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancel")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestBackoff_Delay(t *testing.T) {
	b := Backoff{Initial: 100 * time.Millisecond, Max: 300 * time.Millisecond, Multiplier: 2}.withDefaults()

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 300 * time.Millisecond},
		{8, 300 * time.Millisecond},
	}
	for _, c := range cases {
		if got := b.delay(c.attempt); got != c.want {
			t.Errorf("delay(%d) = %v, want %v", c.attempt, got, c.want)
		}
	}
}

func TestBackoff_JitterStaysInRange(t *testing.T) {
	b := Backoff{Initial: 100 * time.Millisecond, Max: time.Second, Multiplier: 2, Jitter: 0.5}.withDefaults()
	for i := 0; i < 100; i++ {
		d := b.delay(1)
		if d < 50*time.Millisecond || d > 150*time.Millisecond {
			t.Fatalf("delay %v outside ±50%% of 100ms", d)
		}
	}
}

func TestBackoff_Defaults(t *testing.T) {
	b := Backoff{}.withDefaults()
	if b.Attempts != 3 || b.Initial != 250*time.Millisecond || b.Max != 10*time.Second || b.Multiplier != 2 {
		t.Errorf("unexpected defaults: %+v", b)
	}
}
