package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool_StartStop(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, job int) error {
		processed.Add(1)
		return nil
	}

	pool := NewPool(2, 10, processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	for i := 0; i < 5; i++ {
		if err := pool.Submit(ctx, i); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	// Stop drains the queue before returning
	pool.Stop()

	if processed.Load() != 5 {
		t.Errorf("expected 5 jobs processed, got %d", processed.Load())
	}
}

func TestPool_ResultsBySlot(t *testing.T) {
	results := make([]int, 100)
	processor := func(ctx context.Context, job int) error {
		results[job] = job * job
		return nil
	}

	pool := NewPool(4, len(results), processor)
	ctx := context.Background()
	pool.Start(ctx)

	for i := range results {
		if err := pool.Submit(ctx, i); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	pool.Stop()

	for i, r := range results {
		if r != i*i {
			t.Fatalf("slot %d: expected %d, got %d", i, i*i, r)
		}
	}
}

func TestPool_CountsFailures(t *testing.T) {
	processor := func(ctx context.Context, job int) error {
		if job%2 == 0 {
			return errors.New("even")
		}
		return nil
	}

	pool := NewPool(3, 10, processor)
	ctx := context.Background()
	pool.Start(ctx)
	for i := 0; i < 10; i++ {
		_ = pool.Submit(ctx, i)
	}
	pool.Stop()

	if pool.Failed() != 5 {
		t.Errorf("expected 5 failures, got %d", pool.Failed())
	}
}

func TestPool_SubmitAfterCancel(t *testing.T) {
	pool := NewPool(1, 0, func(ctx context.Context, job int) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	cancel()

	// Unbuffered queue with no reader left: Submit must not block forever
	done := make(chan error, 1)
	go func() {
		done <- pool.Submit(ctx, 1)
	}()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked after cancellation")
	}

	pool.Stop()
}

func TestPool_GracefulShutdown(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, job int) error {
		time.Sleep(10 * time.Millisecond) // Simulate work
		processed.Add(1)
		return nil
	}

	pool := NewPool(2, 50, processor)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	for i := 0; i < 20; i++ {
		_ = pool.Submit(ctx, i)
	}

	cancel()

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool.Stop() timed out")
	}

	t.Logf("processed %d jobs before shutdown", processed.Load())
}

func TestNewPool_ClampsWorkers(t *testing.T) {
	pool := NewPool(0, 1, func(ctx context.Context, job int) error { return nil })
	if pool.numWorkers != 1 {
		t.Errorf("expected 1 worker, got %d", pool.numWorkers)
	}
}
