// Package shutdown releases process resources in the reverse order they were
// acquired.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

type closer struct {
	name string
	fn   func(ctx context.Context) error
}

// Stack collects closers while a service starts up. Close runs them last in,
// first out, so consumers of a resource stop before the resource does.
type Stack struct {
	mu      sync.Mutex
	closers []closer
}

// Push registers fn under name
func (s *Stack) Push(name string, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, closer{name: name, fn: fn})
}

// PushFunc registers a closer that cannot fail
func (s *Stack) PushFunc(name string, fn func()) {
	s.Push(name, func(context.Context) error {
		fn()
		return nil
	})
}

// Close runs every closer even when some fail and joins their errors. The
// stack is empty afterwards.
func (s *Stack) Close(ctx context.Context, logger *slog.Logger) error {
	s.mu.Lock()
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.fn(ctx); err != nil {
			logger.Error("Failed to close resource", "resource", c.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		logger.Debug("Closed resource", "resource", c.name)
	}
	return errors.Join(errs...)
}
