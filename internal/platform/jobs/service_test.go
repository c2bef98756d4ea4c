package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestServiceRunsQueuedJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := New(4)
	svc.Start(ctx)

	var ran atomic.Int32
	doneCh := make(chan struct{})
	svc.Enqueue("test", func(context.Context) error {
		ran.Add(1)
		close(doneCh)
		return nil
	})

	select {
	case <-doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	cancel()
	<-svc.Done()
	if ran.Load() != 1 {
		t.Fatalf("expected one run, got %d", ran.Load())
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	svc := New(1)
	var ran atomic.Int32
	svc.Enqueue("a", func(context.Context) error { ran.Add(1); return nil })
	svc.Enqueue("b", func(context.Context) error { ran.Add(1); return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Start(ctx)
	<-svc.Done()
	if ran.Load() != 1 {
		t.Fatalf("expected the overflow job to be dropped, ran=%d", ran.Load())
	}
}

func TestWorkerSurvivesFailureAndPanic(t *testing.T) {
	svc := New(4)
	var ran atomic.Int32
	svc.Enqueue("fail", func(context.Context) error { return errors.New("boom") })
	svc.Enqueue("panic", func(context.Context) error { panic("boom") })
	svc.Enqueue("ok", func(context.Context) error { ran.Add(1); return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Start(ctx)
	<-svc.Done()
	if ran.Load() != 1 {
		t.Fatalf("expected last job to run after failures, ran=%d", ran.Load())
	}
}

func TestInlineRunsImmediately(t *testing.T) {
	ran := false
	Inline{}.Enqueue("x", func(context.Context) error { ran = true; return nil })
	if !ran {
		t.Fatal("expected inline job to run")
	}
}
