package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v3"
	"github.com/sony/gobreaker"

	"evalviewer/src/log"
)

const (
	DefaultTimeout         = 30 * time.Second
	DefaultMaxRetries      = 2
	defaultInitialInterval = 500 * time.Millisecond
)

// Resilient bounds every attempt of the wrapped Completer with a timeout,
// retries transient failures a fixed number of times and stops calling the
// upstream while it keeps failing.
type Resilient struct {
	next            Completer
	timeout         time.Duration
	maxRetries      uint64
	initialInterval time.Duration
	breaker         *gobreaker.CircuitBreaker
}

var _ Completer = (*Resilient)(nil)

// Option configures a Resilient.
type Option func(*Resilient)

// WithTimeout bounds each attempt. A non-positive d keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(r *Resilient) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMaxRetries sets how many times a transient failure is retried
func WithMaxRetries(n uint64) Option {
	return func(r *Resilient) { r.maxRetries = n }
}

// WithInitialInterval sets the first wait between attempts
func WithInitialInterval(d time.Duration) Option {
	return func(r *Resilient) { r.initialInterval = d }
}

// NewResilient wraps next
func NewResilient(next Completer, opts ...Option) *Resilient {
	r := &Resilient{
		next:            next,
		timeout:         DefaultTimeout,
		maxRetries:      DefaultMaxRetries,
		initialInterval: defaultInitialInterval,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "chat-completion",
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// only transient failures count against the upstream
		IsSuccessful: func(err error) bool {
			return err == nil || !IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker changed state", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return r
}

func (r *Resilient) Complete(ctx context.Context, messages []Message) (Result, error) {
	var result Result

	operation := func() error {
		out, err := r.breaker.Execute(func() (interface{}, error) {
			attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()
			return r.next.Complete(attemptCtx, messages)
		})
		if err != nil {
			if IsTransient(err) && ctx.Err() == nil {
				return err
			}
			return backoff.Permanent(err)
		}
		result = out.(Result)
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initialInterval
	policy.MaxElapsedTime = 0

	err := backoff.RetryNotify(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, r.maxRetries), ctx),
		func(err error, wait time.Duration) {
			log.Warn("chat completion failed, retrying", "error", err.Error(), "wait", wait.String())
		},
	)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	return result, nil
}
