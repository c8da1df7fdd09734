package pass

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestRenewCancelsPrevious(t *testing.T) {
	t.Parallel()
	var s Slot

	first, h1 := s.Renew(context.Background())
	second, h2 := s.Renew(context.Background())
	defer h2.Done()

	if !errors.Is(first.Err(), context.Canceled) {
		t.Errorf("first pass err = %v, want context.Canceled", first.Err())
	}
	if second.Err() != nil {
		t.Errorf("second pass err = %v", second.Err())
	}
	if s.IsCurrent(h1) {
		t.Error("first handle still current")
	}
	if !s.IsCurrent(h2) {
		t.Error("second handle not current")
	}
}

func TestCancel(t *testing.T) {
	t.Parallel()
	var s Slot

	ctx, h := s.Renew(context.Background())
	s.Cancel()
	if ctx.Err() == nil {
		t.Error("context not cancelled")
	}
	if s.IsCurrent(h) {
		t.Error("handle current after Cancel")
	}
	if s.IsCurrent(nil) {
		t.Error("nil handle reported current")
	}
}

func TestParentCancellation(t *testing.T) {
	t.Parallel()
	var s Slot

	parent, cancel := context.WithCancel(context.Background())
	ctx, h := s.Renew(parent)
	cancel()
	if ctx.Err() == nil {
		t.Error("child context survived parent cancellation")
	}
	if !s.IsCurrent(h) {
		t.Error("parent cancellation should not change the current pass")
	}
}

func TestDoOnlyCommitsCurrent(t *testing.T) {
	t.Parallel()
	var s Slot

	_, stale := s.Renew(context.Background())
	_, fresh := s.Renew(context.Background())
	defer fresh.Done()

	var committed []string
	if s.Do(stale, func() { committed = append(committed, "stale") }) {
		t.Error("stale pass committed")
	}
	if !s.Do(fresh, func() { committed = append(committed, "fresh") }) {
		t.Error("current pass did not commit")
	}
	if len(committed) != 1 || committed[0] != "fresh" {
		t.Errorf("committed = %v", committed)
	}
}

func TestConcurrentRenew(t *testing.T) {
	t.Parallel()
	var s Slot

	var wg sync.WaitGroup
	handles := make([]*Handle, 50)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, handles[i] = s.Renew(context.Background())
		}(i)
	}
	wg.Wait()

	current := 0
	for _, h := range handles {
		if s.IsCurrent(h) {
			current++
		}
	}
	if current != 1 {
		t.Errorf("%d handles current, want exactly 1", current)
	}
	s.Cancel()
}
