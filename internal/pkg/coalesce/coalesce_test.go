package coalesce

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mediashare/internal/pkg/cache"

	"github.com/go-kratos/kratos/v2/log"
)

func newTestCoalescer(retention time.Duration) *Coalescer {
	return New(cache.NewMemory(), retention, log.NewStdLogger(testWriter{}))
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestDo_EmptyIDRunsEveryTime(t *testing.T) {
	c := newTestCoalescer(time.Minute)
	var runs int32

	for i := 0; i < 3; i++ {
		c.Do(context.Background(), "", func(context.Context) Outcome {
			atomic.AddInt32(&runs, 1)
			return Outcome{Code: http.StatusOK}
		})
	}
	if runs != 3 {
		t.Errorf("expected 3 executions without an id, got %d", runs)
	}
}

func TestDo_ConcurrentCallsShareOneExecution(t *testing.T) {
	c := newTestCoalescer(time.Minute)
	var runs int32
	started := make(chan struct{})
	release := make(chan struct{})

	work := func(context.Context) Outcome {
		atomic.AddInt32(&runs, 1)
		close(started)
		<-release
		return Outcome{Code: http.StatusOK, Body: []byte(`{"success":true}`)}
	}

	const n = 8
	outcomes := make([]Outcome, n)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		outcomes[0] = c.Do(context.Background(), "req-1", work)
	}()

	<-started
	for i := 1; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = c.Do(context.Background(), "req-1", func(context.Context) Outcome {
				atomic.AddInt32(&runs, 1)
				return Outcome{Code: http.StatusInternalServerError}
			})
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if runs != 1 {
		t.Fatalf("expected exactly 1 execution, got %d", runs)
	}
	for i, o := range outcomes {
		if o.Code != http.StatusOK || string(o.Body) != `{"success":true}` {
			t.Errorf("caller %d observed a different outcome: %+v", i, o)
		}
	}
}

func TestDo_CompletedOutcomeReplayedWithinRetention(t *testing.T) {
	c := newTestCoalescer(time.Minute)
	var runs int32

	first := c.Do(context.Background(), "req-2", func(context.Context) Outcome {
		atomic.AddInt32(&runs, 1)
		return Outcome{Code: http.StatusBadRequest, Body: []byte(`{"success":false,"error":"rejected"}`)}
	})
	second := c.Do(context.Background(), "req-2", func(context.Context) Outcome {
		atomic.AddInt32(&runs, 1)
		return Outcome{Code: http.StatusOK}
	})

	if runs != 1 {
		t.Fatalf("expected 1 execution, got %d", runs)
	}
	if second.Code != first.Code || !bytes.Equal(second.Body, first.Body) {
		t.Error("late retry observed a different outcome")
	}
	if second.Code != http.StatusBadRequest {
		t.Errorf("failures must be shared too, got code %d", second.Code)
	}
}

func TestDo_RetentionExpiry(t *testing.T) {
	c := newTestCoalescer(20 * time.Millisecond)
	var runs int32

	work := func(context.Context) Outcome {
		atomic.AddInt32(&runs, 1)
		return Outcome{Code: http.StatusOK}
	}

	c.Do(context.Background(), "req-3", work)
	time.Sleep(60 * time.Millisecond)
	c.Do(context.Background(), "req-3", work)

	if runs != 2 {
		t.Errorf("expected re-execution after retention expiry, got %d runs", runs)
	}
}

func TestDo_DistinctIDsDoNotCoalesce(t *testing.T) {
	c := newTestCoalescer(time.Minute)
	var runs int32

	work := func(context.Context) Outcome {
		atomic.AddInt32(&runs, 1)
		return Outcome{Code: http.StatusOK}
	}
	c.Do(context.Background(), "req-a", work)
	c.Do(context.Background(), "req-b", work)

	if runs != 2 {
		t.Errorf("expected 2 executions for distinct ids, got %d", runs)
	}
}

func TestDo_PanicInWorkBecomesSharedOutcome(t *testing.T) {
	c := newTestCoalescer(time.Minute)

	first := c.Do(context.Background(), "req-5", func(context.Context) Outcome {
		panic("mid-moderation failure")
	})
	if first.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", first.Code)
	}

	// A retry with the same id must not block on the failed slot.
	done := make(chan Outcome, 1)
	go func() {
		done <- c.Do(context.Background(), "req-5", func(context.Context) Outcome {
			return Outcome{Code: http.StatusOK}
		})
	}()
	select {
	case second := <-done:
		if second.Code != first.Code || !bytes.Equal(second.Body, first.Body) {
			t.Errorf("retry observed a different outcome: %+v", second)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("retry with the same request id blocked after a failed execution")
	}
}

func TestDo_WorkOutlivesCallerCancel(t *testing.T) {
	c := newTestCoalescer(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := c.Do(ctx, "req-4", func(workCtx context.Context) Outcome {
		if workCtx.Err() != nil {
			t.Error("work context must not inherit caller cancellation")
		}
		return Outcome{Code: http.StatusOK}
	})
	if outcome.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", outcome.Code)
	}
}
