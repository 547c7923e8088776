package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestAddRejectsBadSpec(t *testing.T) {
	t.Parallel()

	s := New()
	if err := s.Add("not a cron spec", "noop", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestScheduledJobRuns(t *testing.T) {
	t.Parallel()

	ran := make(chan struct{}, 1)
	s := New()
	if err := s.Add("@every 100ms", "ping", func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Start() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
