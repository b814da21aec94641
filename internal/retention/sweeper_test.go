package retention

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type mockPurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	n       int64
	err     error
}

func (m *mockPurger) PurgeRevokedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoffs = append(m.cutoffs, cutoff)
	return m.n, m.err
}

func (m *mockPurger) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cutoffs)
}

func TestSweepOnce_CutoffHonorsHorizon(t *testing.T) {
	purger := &mockPurger{n: 3}
	s := NewSweeper(purger, 720*time.Hour, time.Hour)

	before := time.Now().UTC().Add(-720 * time.Hour)
	n, err := s.SweepOnce(context.Background())
	after := time.Now().UTC().Add(-720 * time.Hour)

	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if n != 3 {
		t.Fatalf("purged = %d, want 3", n)
	}
	if len(purger.cutoffs) != 1 {
		t.Fatalf("expected 1 purge call, got %d", len(purger.cutoffs))
	}
	cutoff := purger.cutoffs[0]
	if cutoff.Before(before) || cutoff.After(after) {
		t.Fatalf("cutoff %v outside [%v, %v]", cutoff, before, after)
	}
}

func TestSweepOnce_PropagatesError(t *testing.T) {
	purger := &mockPurger{err: errors.New("db down")}
	s := NewSweeper(purger, time.Hour, time.Hour)
	if _, err := s.SweepOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestRun_SweepsImmediatelyAndStops(t *testing.T) {
	purger := &mockPurger{}
	s := NewSweeper(purger, time.Hour, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for purger.calls() < 2 {
		select {
		case <-deadline:
			t.Fatal("sweeper did not tick")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
}

func TestRun_SurvivesSweepErrors(t *testing.T) {
	purger := &mockPurger{err: errors.New("db down")}
	s := NewSweeper(purger, time.Hour, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for purger.calls() < 3 {
		select {
		case <-deadline:
			t.Fatal("sweeper stopped after errors")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
