package ai

import (
	"errors"
	"sync"
	"time"

	"github.com/soulchat/soulchat/internal/logging"
)

// ErrBreakerOpen is returned when a call is rejected without reaching the
// provider because its breaker is open.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// BreakerState is the state of a circuit breaker
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "CLOSED"
	}
}

// BreakerConfig tunes a circuit breaker
type BreakerConfig struct {
	// ErrorThresholdPct opens the breaker when the rolling failure rate
	// reaches this percentage
	ErrorThresholdPct int
	// VolumeThreshold is the minimum request count in the window before the
	// error rate is considered at all
	VolumeThreshold int
	// ResetTimeout is how long an open breaker waits before probing
	ResetTimeout time.Duration
	// Window is the rolling statistics window, split into Buckets
	Window  time.Duration
	Buckets int
	// HalfOpenCapacity is the number of trial requests admitted while
	// half-open; that many consecutive successes close the breaker
	HalfOpenCapacity int
}

// DefaultBreakerConfig returns the standard tuning
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		ErrorThresholdPct: 50,
		VolumeThreshold:   10,
		ResetTimeout:      60 * time.Second,
		Window:            10 * time.Second,
		Buckets:           10,
		HalfOpenCapacity:  2,
	}
}

type breakerBucket struct {
	successes int
	failures  int
}

// Breaker is a per-provider circuit breaker with a rolling bucket window.
// All methods are safe for concurrent use.
type Breaker struct {
	name string
	cfg  BreakerConfig

	mu                sync.Mutex
	state             BreakerState
	buckets           []breakerBucket
	bucketIdx         int
	bucketStart       time.Time
	openedAt          time.Time
	halfOpenInFlight  int
	halfOpenSuccesses int

	now func() time.Time
}

// NewBreaker creates a breaker for the named provider
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	if cfg.Buckets <= 0 {
		cfg.Buckets = 10
	}
	b := &Breaker{
		name:    name,
		cfg:     cfg,
		buckets: make([]breakerBucket, cfg.Buckets),
		now:     time.Now,
	}
	b.bucketStart = b.now()
	return b
}

// Allow reports whether a call may proceed. It returns ErrBreakerOpen when
// the breaker is open, or when the half-open trial capacity is exhausted.
// Every admitted call must be paired with RecordSuccess or RecordFailure.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cfg.ResetTimeout {
			return ErrBreakerOpen
		}
		b.transition(StateHalfOpen)
		b.halfOpenInFlight = 1
		b.halfOpenSuccesses = 0
		return nil
	case StateHalfOpen:
		if b.halfOpenInFlight >= b.cfg.HalfOpenCapacity {
			return ErrBreakerOpen
		}
		b.halfOpenInFlight++
		return nil
	default:
		return nil
	}
}

// RecordSuccess records a successful call
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.halfOpenInFlight--
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.cfg.HalfOpenCapacity {
			b.transition(StateClosed)
			b.resetWindow()
		}
	default:
		b.currentBucket().successes++
	}
}

// RecordFailure records a failed call and opens the breaker when the rolling
// error rate crosses the threshold.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		// One failed trial reopens immediately
		b.halfOpenInFlight--
		b.openedAt = b.now()
		b.transition(StateOpen)
	case StateOpen:
		// Late result from a call admitted before opening
	default:
		b.currentBucket().failures++
		requests, failures := b.windowTotals()
		if requests >= b.cfg.VolumeThreshold &&
			failures*100 >= requests*b.cfg.ErrorThresholdPct {
			b.openedAt = b.now()
			b.transition(StateOpen)
		}
	}
}

// Reset forces the breaker closed and clears the rolling window
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(StateClosed)
	b.resetWindow()
	b.halfOpenInFlight = 0
	b.halfOpenSuccesses = 0
}

// BreakerSnapshot is a point-in-time view of a breaker for inspection
type BreakerSnapshot struct {
	Provider          string    `json:"provider"`
	State             string    `json:"state"`
	Requests          int       `json:"requests"`
	Failures          int       `json:"failures"`
	ErrorPct          int       `json:"errorPct"`
	ErrorThresholdPct int       `json:"errorThresholdPct"`
	VolumeThreshold   int       `json:"volumeThreshold"`
	ResetTimeoutSec   int       `json:"resetTimeoutSec"`
	OpenedAt          time.Time `json:"openedAt,omitempty"`
}

// Snapshot returns the current state and rolling counts
func (b *Breaker) Snapshot() BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advanceWindow()
	requests, failures := b.windowTotals()
	errorPct := 0
	if requests > 0 {
		errorPct = failures * 100 / requests
	}
	snap := BreakerSnapshot{
		Provider:          b.name,
		State:             b.state.String(),
		Requests:          requests,
		Failures:          failures,
		ErrorPct:          errorPct,
		ErrorThresholdPct: b.cfg.ErrorThresholdPct,
		VolumeThreshold:   b.cfg.VolumeThreshold,
		ResetTimeoutSec:   int(b.cfg.ResetTimeout / time.Second),
	}
	if b.state == StateOpen {
		snap.OpenedAt = b.openedAt
	}
	return snap
}

// State returns the current state
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) transition(to BreakerState) {
	if b.state == to {
		return
	}
	logging.Infof("[breaker] %s: %s -> %s", b.name, b.state, to)
	b.state = to
}

// currentBucket rotates the window forward to now and returns the live bucket.
// Caller must hold b.mu.
func (b *Breaker) currentBucket() *breakerBucket {
	b.advanceWindow()
	return &b.buckets[b.bucketIdx]
}

func (b *Breaker) advanceWindow() {
	bucketLen := b.cfg.Window / time.Duration(b.cfg.Buckets)
	if bucketLen <= 0 {
		return
	}
	elapsed := b.now().Sub(b.bucketStart)
	steps := int(elapsed / bucketLen)
	if steps <= 0 {
		return
	}
	if steps >= b.cfg.Buckets {
		b.resetWindow()
		return
	}
	for i := 0; i < steps; i++ {
		b.bucketIdx = (b.bucketIdx + 1) % b.cfg.Buckets
		b.buckets[b.bucketIdx] = breakerBucket{}
	}
	b.bucketStart = b.bucketStart.Add(time.Duration(steps) * bucketLen)
}

func (b *Breaker) resetWindow() {
	for i := range b.buckets {
		b.buckets[i] = breakerBucket{}
	}
	b.bucketIdx = 0
	b.bucketStart = b.now()
}

func (b *Breaker) windowTotals() (requests, failures int) {
	for _, bucket := range b.buckets {
		requests += bucket.successes + bucket.failures
		failures += bucket.failures
	}
	return requests, failures
}
