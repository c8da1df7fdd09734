// Package pass hands out cancellable contexts for background passes where
// only the most recent pass may commit its result.
package pass

import (
	"context"
	"sync"
)

// Handle identifies one pass started by a Slot.
type Handle struct {
	cancel context.CancelFunc
}

// Slot tracks the current pass. Starting a new pass cancels the previous
// one, so at most one context handed out by a Slot is live at a time.
type Slot struct {
	mu      sync.Mutex
	current *Handle
}

// Renew cancels the current pass and starts a new one derived from parent.
func (s *Slot) Renew(parent context.Context) (context.Context, *Handle) {
	ctx, cancel := context.WithCancel(parent)
	h := &Handle{cancel: cancel}

	s.mu.Lock()
	prev := s.current
	s.current = h
	s.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
	return ctx, h
}

// IsCurrent reports whether h is the most recently started pass.
func (s *Slot) IsCurrent(h *Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return h != nil && s.current == h
}

// Do runs fn while holding the slot, but only if h is still current. It
// reports whether fn ran. Renew blocks until fn returns, so a commit made in
// fn cannot be overtaken by a pass that started earlier.
func (s *Slot) Do(h *Handle, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == nil || s.current != h {
		return false
	}
	fn()
	return true
}

// Cancel cancels the current pass, if any. A later IsCurrent reports false
// for every handle.
func (s *Slot) Cancel() {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
}

// Done releases the resources of h's context. It does not affect whether h
// is current.
func (h *Handle) Done() {
	if h != nil {
		h.cancel()
	}
}
