package trigger

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunRejectsBadToken(t *testing.T) {
	r := NewRunner("secret", nil)

	err := r.Run("pipeline", "wrong", func(context.Context) error { return nil })
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestRunRejectsWhenTokenUnset(t *testing.T) {
	r := NewRunner("", nil)

	if err := r.Run("pipeline", "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected an error with no token configured")
	}
}

func TestRunRejectsOverlappingSameKind(t *testing.T) {
	r := NewRunner("secret", nil)
	release := make(chan struct{})
	started := make(chan struct{})

	err := r.Run("pipeline", "secret", func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	<-started

	if err := r.Run("pipeline", "secret", func(context.Context) error { return nil }); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("overlapping run err = %v, want ErrAlreadyRunning", err)
	}

	// A different kind is independent.
	done := make(chan struct{})
	if err := r.Run("clear", "secret", func(context.Context) error { close(done); return nil }); err != nil {
		t.Fatalf("independent kind rejected: %v", err)
	}
	<-done

	close(release)
	waitNotRunning(t, r, "pipeline")
	if err := r.Run("pipeline", "secret", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("rerun after completion: %v", err)
	}
}

func TestStatusRecordsFailure(t *testing.T) {
	r := NewRunner("secret", nil)

	if err := r.Run("pipeline", "secret", func(context.Context) error {
		return errors.New("boom")
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
	waitNotRunning(t, r, "pipeline")

	status := r.Status("pipeline")
	if status.LastError != "boom" {
		t.Fatalf("last error = %q", status.LastError)
	}
	if status.FinishedAt.IsZero() {
		t.Fatal("finished timestamp not set")
	}
}

func waitNotRunning(t *testing.T, r *Runner, kind string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !r.Status(kind).Running {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %q still running", kind)
}
