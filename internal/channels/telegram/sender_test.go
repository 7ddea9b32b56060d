package telegram

import (
	"context"
	"errors"
	"testing"
)

func TestSendWithoutClientFailsOnlyTheSend(t *testing.T) {
	s := NewSender(nil, nil, nil)

	err := s.Send(context.Background(), 99, "hello")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Send error = %v, want ErrNotConfigured", err)
	}

	// The sender stays usable; a later send fails the same way instead of
	// panicking or poisoning state.
	if err := s.Send(context.Background(), 99, "again"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("second Send error = %v, want ErrNotConfigured", err)
	}
}
