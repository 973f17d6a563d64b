package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/solenlabs/agent-relay/backend/pkg/retry"
)

func fastConfig() retry.Config {
	return retry.Config{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}
}

func TestExecuteSucceedsAfterTransientFailures(t *testing.T) {
	exec := retry.NewExecutor(fastConfig())

	attempts := 0
	out, err := exec.Execute(context.Background(), func(context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Execute err: %v", err)
	}
	if out != "ok" {
		t.Fatalf("unexpected output: %q", out)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteExhaustsRetries(t *testing.T) {
	exec := retry.NewExecutor(fastConfig())

	attempts := 0
	_, err := exec.Execute(context.Background(), func(context.Context) (string, error) {
		attempts++
		return "", errors.New("still failing")
	})
	if !errors.Is(err, retry.ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected attempt ceiling of 3, got %d", attempts)
	}
}

func TestExecuteFailsFastOnInvalidInput(t *testing.T) {
	exec := retry.NewExecutor(fastConfig())

	attempts := 0
	_, err := exec.Execute(context.Background(), func(context.Context) (string, error) {
		attempts++
		return "", retry.ErrInvalidInput
	})
	if !errors.Is(err, retry.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if errors.Is(err, retry.ErrRetriesExhausted) {
		t.Fatalf("invalid input must not be reported as exhaustion: %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected single attempt, got %d", attempts)
	}
}

func TestExecuteStopsOnContextCancel(t *testing.T) {
	exec := retry.NewExecutor(retry.Config{
		MaxAttempts:     3,
		InitialInterval: time.Hour,
		MaxInterval:     time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := exec.Execute(ctx, func(context.Context) (string, error) {
		return "", errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
