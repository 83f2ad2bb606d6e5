package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/smarthire/internal/domain/model"
)

func job(line int) Job {
	return Job{
		BatchID:  "batch",
		Record:   model.Record{Line: line, Name: fmt.Sprintf("c%d", line), Email: fmt.Sprintf("c%d@example.com", line), Skills: "Go"},
		Position: model.Position{ID: 1, Title: "Backend Developer"},
	}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, job(2)) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.Record.Line != 2 {
		t.Errorf("expected line 2, got %d", got.Record.Line)
	}
	if got.Position.Title != "Backend Developer" {
		t.Errorf("expected position to travel with the job, got %q", got.Position.Title)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2), WithBufferSize(1))
	ctx := context.Background()

	if q.Capacity() != 2 {
		t.Errorf("expected capacity 2, got %d", q.Capacity())
	}
	if !q.Enqueue(ctx, job(1)) || !q.Enqueue(ctx, job(2)) {
		t.Fatal("expected first two enqueues to succeed")
	}
	if q.Enqueue(ctx, job(3)) {
		t.Error("expected enqueue to fail when at capacity")
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, job(1)) {
		t.Error("expected enqueue to fail on a cancelled context")
	}
}

func TestInMemoryQueue_ClosedQueue(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	if err := q.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if q.Enqueue(ctx, job(1)) {
		t.Error("expected enqueue to fail after close")
	}
	if _, ok := <-q.Dequeue(ctx); ok {
		t.Error("expected dequeue channel to be closed")
	}
}

func TestInMemoryQueue_CancelledConsumerReportsJob(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	results := make(chan Outcome, 1)
	j := job(7)
	j.Result = results
	if !q.Enqueue(context.Background(), j) {
		t.Fatal("expected enqueue to succeed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = q.Dequeue(ctx)

	select {
	case out := <-results:
		if out.Line != 7 || out.Err == nil {
			t.Errorf("expected a failed outcome for line 7, got %+v", out)
		}
	case <-time.After(time.Second):
		t.Error("expected the cancelled job to be reported")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1000))
	ctx := context.Background()

	var wg sync.WaitGroup
	for p := 0; p < 10; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if !q.Enqueue(ctx, job(p*50+i)) {
					t.Errorf("enqueue %d failed", p*50+i)
				}
			}
		}(p)
	}
	wg.Wait()
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}

	seen := make(map[int]bool)
	for j := range q.Dequeue(ctx) {
		seen[j.Record.Line] = true
	}
	if len(seen) != 500 {
		t.Errorf("expected 500 distinct jobs, got %d", len(seen))
	}
}

func TestInMemoryQueue_Drain(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()
	results := make(chan Outcome, 4)

	for line := 2; line <= 4; line++ {
		j := job(line)
		j.Result = results
		if !q.Enqueue(ctx, j) {
			t.Fatalf("expected enqueue of line %d to succeed", line)
		}
	}

	if n := q.Drain(); n != 0 {
		t.Errorf("expected an open queue not to drain, got %d", n)
	}

	_ = q.Close()
	if n := q.Drain(); n != 3 {
		t.Fatalf("expected 3 drained jobs, got %d", n)
	}
	for line := 2; line <= 4; line++ {
		out := <-results
		if out.Line != line || !errors.Is(out.Err, ErrStopped) {
			t.Errorf("expected line %d stopped, got %+v", line, out)
		}
	}
	if q.Len(ctx) != 0 {
		t.Errorf("expected empty queue after drain, got %d", q.Len(ctx))
	}
}
