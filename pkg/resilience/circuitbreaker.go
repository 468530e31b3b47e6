package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Execute while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the breaker phase. The numeric values are exported as the
// cache_circuit_state gauge.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig controls when the breaker trips and how it recovers.
// Zero fields take defaults.
type CircuitBreakerConfig struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	HalfOpenMaxRequests int

	// IsFailure decides whether an error returned by the guarded call counts
	// against the circuit. Nil counts every non-nil error. Errors that are
	// not failures are still returned to the caller.
	IsFailure func(error) bool

	// OnStateChange runs after every transition, with the breaker locked.
	// It must not call back into the breaker.
	OnStateChange func(name string, from, to State)
}

// CircuitBreaker fails fast once a dependency keeps erroring. After
// FailureThreshold consecutive failures it opens; after ResetTimeout it
// admits HalfOpenMaxRequests trial calls and closes on the first success.
type CircuitBreaker struct {
	name   string
	cfg    CircuitBreakerConfig
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	state    State
	gen      uint64
	failures int
	openedAt time.Time
	trials   int
}

// NewCircuitBreaker returns a closed breaker named name.
func NewCircuitBreaker(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxRequests <= 0 {
		cfg.HalfOpenMaxRequests = 1
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{
		name:   name,
		cfg:    cfg,
		logger: slog.Default().With("component", "circuit-breaker", "name", name),
		now:    time.Now,
	}
}

// Execute runs fn if the breaker admits it and returns fn's error unchanged.
// A rejected call returns an error wrapping ErrCircuitOpen without running fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	gen, err := cb.admit()
	if err != nil {
		return err
	}
	err = fn()
	cb.record(gen, err != nil && cb.cfg.IsFailure(err))
	return err
}

// State reports the current phase, moving an expired open circuit to
// half-open.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.expire()
	return cb.state
}

func (cb *CircuitBreaker) admit() (uint64, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.expire()
	switch cb.state {
	case StateOpen:
		wait := cb.cfg.ResetTimeout - cb.now().Sub(cb.openedAt)
		return 0, fmt.Errorf("%w: %s (retry after %v)", ErrCircuitOpen, cb.name, wait)
	case StateHalfOpen:
		if cb.trials >= cb.cfg.HalfOpenMaxRequests {
			return 0, fmt.Errorf("%w: %s (trial in flight)", ErrCircuitOpen, cb.name)
		}
		cb.trials++
	}
	return cb.gen, nil
}

// record applies the outcome of a call admitted in generation gen. Outcomes
// from an earlier generation arrive after a transition and are ignored.
func (cb *CircuitBreaker) record(gen uint64, failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if gen != cb.gen {
		return
	}
	switch {
	case !failed && cb.state == StateHalfOpen:
		cb.moveTo(StateClosed)
	case !failed:
		cb.failures = 0
	case cb.state == StateHalfOpen:
		cb.moveTo(StateOpen)
	default:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.moveTo(StateOpen)
		}
	}
}

func (cb *CircuitBreaker) expire() {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.ResetTimeout {
		cb.moveTo(StateHalfOpen)
	}
}

func (cb *CircuitBreaker) moveTo(to State) {
	from := cb.state
	cb.state = to
	cb.gen++
	cb.failures = 0
	cb.trials = 0
	if to == StateOpen {
		cb.openedAt = cb.now()
	}
	cb.logger.Info("circuit state changed", "from", from.String(), "to", to.String())
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.name, from, to)
	}
}
