// Package coalesce deduplicates retried upload requests that share a
// client-supplied request identifier, so the moderation and storage
// work behind an upload runs at most once per identifier.
package coalesce

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"mediashare/internal/pkg/cache"

	"github.com/go-kratos/kratos/v2/log"
)

// Outcome is the materialized response of one unit of work: an HTTP
// status code and the response body. Failures are outcomes too, so
// every caller sharing an identifier observes the identical envelope.
type Outcome struct {
	Code int    `json:"code"`
	Body []byte `json:"body"`
}

// DefaultRetention is how long a completed outcome stays claimable by
// late retries. Best-effort only: it bounds memory, it is not a
// durability guarantee.
const DefaultRetention = 60 * time.Second

type call struct {
	done    chan struct{}
	outcome Outcome
}

// Coalescer shares one execution among all concurrent and retried
// requests carrying the same identifier. In-flight sharing is
// process-local; completed outcomes are also written to the injected
// cache, which a Redis backend extends across instances.
type Coalescer struct {
	mu        sync.Mutex
	inflight  map[string]*call
	outcomes  cache.Cache
	retention time.Duration
	log       *log.Helper
}

// New creates a Coalescer. A non-positive retention falls back to
// DefaultRetention.
func New(outcomes cache.Cache, retention time.Duration, logger log.Logger) *Coalescer {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Coalescer{
		inflight:  make(map[string]*call),
		outcomes:  outcomes,
		retention: retention,
		log:       log.NewHelper(logger),
	}
}

// Do executes work at most once per identifier. An empty identifier
// disables deduplication. Callers arriving while work is running block
// until it completes and receive the same outcome; callers arriving
// within the retention window after completion receive the recorded
// outcome without re-executing work.
func (c *Coalescer) Do(ctx context.Context, id string, work func(ctx context.Context) Outcome) Outcome {
	if id == "" {
		return work(ctx)
	}

	c.mu.Lock()
	if existing, ok := c.inflight[id]; ok {
		c.mu.Unlock()
		c.log.Debugf("coalesced duplicate request id=%s", id)
		<-existing.done
		return existing.outcome
	}
	cl := &call{done: make(chan struct{})}
	c.inflight[id] = cl
	c.mu.Unlock()

	if outcome, ok := c.recorded(ctx, id); ok {
		c.log.Debugf("replayed recorded outcome for request id=%s", id)
		c.finish(id, cl, outcome, false)
		return outcome
	}

	// A disconnecting first caller must not abort work its duplicates
	// are waiting on.
	outcome := c.run(context.WithoutCancel(ctx), id, work)
	c.finish(id, cl, outcome, true)
	return outcome
}

// run executes work, converting a panic into a 500 outcome. Waiters on
// the same identifier must always see the done channel close, so work
// must never unwind past finish.
func (c *Coalescer) run(ctx context.Context, id string, work func(ctx context.Context) Outcome) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorf("work panicked for request id=%s: %v", id, r)
			outcome = Outcome{
				Code: http.StatusInternalServerError,
				Body: []byte(`{"success":false,"error":"internal error"}`),
			}
		}
	}()
	return work(ctx)
}

func (c *Coalescer) finish(id string, cl *call, outcome Outcome, record bool) {
	cl.outcome = outcome
	close(cl.done)

	if record {
		if data, err := json.Marshal(outcome); err == nil {
			if err := c.outcomes.SetBytes(context.Background(), outcomeKey(id), data, c.retention); err != nil {
				c.log.Warnf("failed to record outcome for request id=%s: %v", id, err)
			}
		}
	}

	// The resolved slot keeps serving duplicates until the retention
	// window closes, then memory is released.
	time.AfterFunc(c.retention, func() {
		c.mu.Lock()
		if c.inflight[id] == cl {
			delete(c.inflight, id)
		}
		c.mu.Unlock()
	})
}

func (c *Coalescer) recorded(ctx context.Context, id string) (Outcome, bool) {
	data, err := c.outcomes.GetBytes(ctx, outcomeKey(id))
	if err != nil {
		if err != cache.ErrNotFound {
			c.log.Warnf("outcome lookup failed for request id=%s: %v", id, err)
		}
		return Outcome{}, false
	}
	var outcome Outcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return Outcome{}, false
	}
	return outcome, true
}

func outcomeKey(id string) string {
	return "upload:outcome:" + id
}
