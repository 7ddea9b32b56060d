package agent

import (
	"errors"
	"testing"
)

func TestAdmissionRejectsBeyondCap(t *testing.T) {
	a := NewAdmission(2)

	r1, err := a.Acquire()
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	r2, err := a.Acquire()
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}

	if _, err := a.Acquire(); !errors.Is(err, ErrBusy) {
		t.Fatalf("third acquire error = %v, want ErrBusy", err)
	}

	// After one release, exactly one more acquisition succeeds.
	r1()
	r3, err := a.Acquire()
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	if _, err := a.Acquire(); !errors.Is(err, ErrBusy) {
		t.Fatalf("over-cap acquire error = %v, want ErrBusy", err)
	}

	r2()
	r3()
	if got := a.InFlight(); got != 0 {
		t.Errorf("in-flight after all releases = %d, want 0", got)
	}
}

func TestAdmissionReleaseIsIdempotent(t *testing.T) {
	a := NewAdmission(1)
	release, err := a.Acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	release()
	release()
	release()
	if got := a.InFlight(); got != 0 {
		t.Errorf("in-flight = %d, want 0 after repeated release", got)
	}
	if _, err := a.Acquire(); err != nil {
		t.Errorf("acquire after release: %v", err)
	}
}

func TestAdmissionDefaultsCap(t *testing.T) {
	a := NewAdmission(0)
	for i := 0; i < DefaultMaxConcurrent; i++ {
		if _, err := a.Acquire(); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}
	if _, err := a.Acquire(); !errors.Is(err, ErrBusy) {
		t.Errorf("acquire beyond default cap = %v, want ErrBusy", err)
	}
}
