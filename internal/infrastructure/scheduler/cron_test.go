package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestCronSchedulerRunsOnStart(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/Denver")
	if err != nil {
		loc = time.UTC
	}
	s := NewCronScheduler("@every 1h", loc, true, nil)

	fired := make(chan time.Time, 1)
	if err := s.Start(context.Background(), func(at time.Time) { fired <- at }); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer func() {
		if err := s.Stop(context.Background()); err != nil {
			t.Fatalf("Stop error: %v", err)
		}
	}()

	select {
	case at := <-fired:
		if at.Location() != loc {
			t.Fatalf("job time should be in %v, got %v", loc, at.Location())
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("job did not run on start")
	}
}

func TestCronSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("every tuesday", nil, false, nil)
	if err := s.Start(context.Background(), func(time.Time) {}); err == nil {
		t.Fatalf("expected invalid spec error")
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop on unstarted scheduler: %v", err)
	}
}

func TestCronSchedulerStopsWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s := NewCronScheduler("0 7 * * MON", time.UTC, false, nil)
	if err := s.Start(ctx, func(time.Time) {}); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		stopped := s.cron == nil
		s.mu.Unlock()
		if stopped {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("scheduler did not stop after context cancel")
}
