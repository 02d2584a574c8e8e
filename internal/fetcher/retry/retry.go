// Package retry wraps a league.Fetcher with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/league-watcher/internal/league"
)

// ErrExhausted reports that every attempt failed.
var ErrExhausted = errors.New("fetch attempts exhausted")

// Attempt outcomes reported to an AttemptObserver.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// ExponentialPolicy doubles the delay after every failed attempt.
type ExponentialPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
}

// NewExponentialPolicy builds a policy. Attempts below one are raised to one.
func NewExponentialPolicy(maxAttempts int, baseDelay time.Duration) *ExponentialPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay < 0 {
		baseDelay = 0
	}
	return &ExponentialPolicy{maxAttempts: maxAttempts, baseDelay: baseDelay}
}

// MaxAttempts returns the attempt budget.
func (p *ExponentialPolicy) MaxAttempts() int { return p.maxAttempts }

// ShouldRetry decides whether another attempt follows the given zero-based
// attempt. Per-request timeouts count as ordinary failures; the caller's own
// cancellation is checked by Fetch, not here.
func (p *ExponentialPolicy) ShouldRetry(err error, attempt int) bool {
	return err != nil && attempt+1 < p.maxAttempts
}

// Backoff returns the wait after the given zero-based attempt: base * 2^attempt.
func (p *ExponentialPolicy) Backoff(attempt int) time.Duration {
	return p.baseDelay << uint(attempt) //nolint:gosec // attempt is bounded by maxAttempts
}

// AttemptObserver receives one call per request made.
type AttemptObserver interface {
	ObserveFetchAttempt(outcome string)
}

// Fetcher retries an inner fetcher according to a policy.
type Fetcher struct {
	next     league.Fetcher
	policy   *ExponentialPolicy
	clock    league.Clock
	observer AttemptObserver
	logger   *zap.Logger
}

var _ league.Fetcher = (*Fetcher)(nil)

// New wraps next. observer may be nil.
func New(next league.Fetcher, policy *ExponentialPolicy, clock league.Clock, observer AttemptObserver, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == nil {
		policy = NewExponentialPolicy(1, 0)
	}
	return &Fetcher{
		next:     next,
		policy:   policy,
		clock:    clock,
		observer: observer,
		logger:   logger.Named("retry"),
	}
}

// Fetch calls the inner fetcher until it succeeds or the budget runs out.
// There is no wait after the final attempt. Only cancellation of ctx itself
// stops early; a request that timed out on its own is retried.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		body, err := f.next.Fetch(ctx)
		if err == nil {
			f.observe(OutcomeSuccess)
			return body, nil
		}
		f.observe(OutcomeFailure)
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("league fetch interrupted: %w: %w", ctxErr, err)
		}
		if !f.policy.ShouldRetry(err, attempt) {
			break
		}
		delay := f.policy.Backoff(attempt)
		f.logger.Warn("league fetch failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", f.policy.MaxAttempts()),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := f.clock.Sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("retry wait: %w", err)
		}
	}
	return nil, fmt.Errorf("%w after %d attempt(s): %w", ErrExhausted, f.policy.MaxAttempts(), lastErr)
}

func (f *Fetcher) observe(outcome string) {
	if f.observer != nil {
		f.observer.ObserveFetchAttempt(outcome)
	}
}
