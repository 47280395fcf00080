package optimizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
	"github.com/riskibarqy/fantasy-autopick/internal/platform/logging"
)

type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half_open"
)

const defaultBreakerCoolDown = 30 * time.Second

var errCircuitOpen = errors.New("solver circuit open")

// Breaker stops calling the exact solver after repeated solver failures.
// While open every selection goes straight to the fallback; once the cool
// down passes a single probe solve decides whether it closes again.
// Infeasible models and rejected input are answers, not failures, and never
// count against the solver.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

func NewBreaker(failureThreshold int, coolDown time.Duration, logger *logging.Logger) *Breaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	if coolDown <= 0 {
		coolDown = defaultBreakerCoolDown
	}
	if logger == nil {
		logger = logging.Default()
	}

	threshold := uint32(failureThreshold)
	settings := gobreaker.Settings{
		Name:        "exact-solver",
		MaxRequests: 1,
		Timeout:     coolDown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isSolverFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("solver circuit changed state",
				"breaker", name,
				"from", breakerState(from),
				"to", breakerState(to),
			)
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn unless the circuit is open or a probe is already in
// flight, in which case it reports selection.ErrSolverUnavailable without
// calling fn.
func (b *Breaker) Execute(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		return fmt.Errorf("%w: %w", selection.ErrSolverUnavailable, errCircuitOpen)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %w: probe in flight", selection.ErrSolverUnavailable, errCircuitOpen)
	}
	return err
}

func (b *Breaker) State() BreakerState {
	return breakerState(b.cb.State())
}

func (b *Breaker) Counts() gobreaker.Counts {
	return b.cb.Counts()
}

func breakerState(s gobreaker.State) BreakerState {
	switch s {
	case gobreaker.StateOpen:
		return BreakerOpen
	case gobreaker.StateHalfOpen:
		return BreakerHalfOpen
	default:
		return BreakerClosed
	}
}
