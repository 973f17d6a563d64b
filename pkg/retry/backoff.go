package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var (
	// ErrInvalidInput marks inputs that can never succeed; operations
	// returning it fail fast without consuming retry budget.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRetriesExhausted is returned once every attempt has failed.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// Config bounds the retry schedule.
type Config struct {
	MaxAttempts     uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConfig yields delays of roughly 4s, 8s, 10s between attempts; the
// cap dominates after the second failure.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     3,
		InitialInterval: 4 * time.Second,
		MaxInterval:     10 * time.Second,
	}
}

// Executor wraps external text-generation calls with bounded retries and
// exponential delay. The delay between attempts blocks only the calling
// worker.
type Executor struct {
	cfg Config
}

// NewExecutor builds an Executor, filling zero fields from DefaultConfig.
func NewExecutor(cfg Config) *Executor {
	def := DefaultConfig()
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = def.MaxInterval
	}
	return &Executor{cfg: cfg}
}

// Execute runs op until it succeeds or the attempt ceiling is reached.
// Exhaustion is reported via ErrRetriesExhausted so callers can substitute
// a fallback value instead of propagating the failure.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) (string, error)) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.cfg.InitialInterval
	bo.MaxInterval = e.cfg.MaxInterval
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0

	var out string
	attempt := func() error {
		result, err := op(ctx)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = result
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, e.cfg.MaxAttempts-1), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		if errors.Is(err, ErrInvalidInput) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, e.cfg.MaxAttempts, err)
	}

	return out, nil
}
