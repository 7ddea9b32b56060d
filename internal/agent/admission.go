package agent

import (
	"errors"
	"sync"
)

// ErrBusy reports that the configured number of concurrent conversations is
// already in flight. The caller maps this to a user-visible busy message;
// excess work is rejected, never queued.
var ErrBusy = errors.New("too many concurrent conversations")

// DefaultMaxConcurrent is the default admission cap.
const DefaultMaxConcurrent = 2

// Admission caps the number of concurrent orchestration runs. The in-flight
// counter is the only process-wide mutable state in the request path.
type Admission struct {
	mu       sync.Mutex
	inFlight int
	max      int
}

// NewAdmission creates an admission controller with the given cap.
// Non-positive caps fall back to DefaultMaxConcurrent.
func NewAdmission(max int) *Admission {
	if max <= 0 {
		max = DefaultMaxConcurrent
	}
	return &Admission{max: max}
}

// Acquire claims a slot, failing immediately with ErrBusy when the cap is
// reached. The returned release is idempotent and must be called on every
// exit path, success or failure.
func (a *Admission) Acquire() (release func(), err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inFlight >= a.max {
		return nil, ErrBusy
	}
	a.inFlight++

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			a.inFlight--
			a.mu.Unlock()
		})
	}, nil
}

// InFlight reports the current number of claimed slots.
func (a *Admission) InFlight() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inFlight
}
