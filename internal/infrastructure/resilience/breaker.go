package resilience

import (
	"time"

	"github.com/sony/gobreaker"
)

// State is the position of a breaker.
type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// Counts are the request tallies a breaker trips on.
type Counts = gobreaker.Counts

var (
	ErrCircuitOpen     = gobreaker.ErrOpenState
	ErrTooManyRequests = gobreaker.ErrTooManyRequests
)

// Settings configures the circuit breaker behavior
type Settings struct {
	// MaxRequests is the number of probes allowed while half-open
	MaxRequests uint32
	// Interval clears the closed-state counts; zero keeps them
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing
	Timeout time.Duration
	// ReadyToTrip decides, after a failure, whether to open
	ReadyToTrip func(counts Counts) bool
	// OnStateChange is called whenever the state changes
	OnStateChange func(name string, from State, to State)
	// IsSuccessful classifies a request error; nil counts only nil as success
	IsSuccessful func(err error) bool
}

// Breaker guards calls to one remote collaborator.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New creates a breaker. Unset thresholds open after five consecutive
// failures and probe again after thirty seconds.
func New(name string, settings Settings) *Breaker {
	if settings.MaxRequests == 0 {
		settings.MaxRequests = 1
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}
	if settings.ReadyToTrip == nil {
		settings.ReadyToTrip = func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 5
		}
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:          name,
		MaxRequests:   settings.MaxRequests,
		Interval:      settings.Interval,
		Timeout:       settings.Timeout,
		ReadyToTrip:   settings.ReadyToTrip,
		OnStateChange: settings.OnStateChange,
		IsSuccessful:  settings.IsSuccessful,
	})}
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.cb.Name()
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() State {
	return b.cb.State()
}

// Counts returns a copy of the current counts
func (b *Breaker) Counts() Counts {
	return b.cb.Counts()
}

// Execute runs req unless the breaker rejects it
func (b *Breaker) Execute(req func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, req()
	})
	return err
}
