// Package harvest orchestrates one catalog harvest run: discovery, per-item
// fetch/extract/upsert, counters, pacing, retries, and progress emission.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/discover"
	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/domain"
	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/extractor"
	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/logger"
	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/progress"
	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/storage"
	"github.com/gamedex-hq/gamedex-catalog-harvester/pkg/httpclient"
	"github.com/gamedex-hq/gamedex-catalog-harvester/pkg/listing"
)

// ErrRunActive is returned when Run is called while a run is in flight. At
// most one harvest run may be active per coordinator.
var ErrRunActive = errors.New("a harvest run is already active")

const (
	defaultFetchRetries = 3
	defaultRetryBackoff = 5 * time.Second
	defaultItemDelay    = 500 * time.Millisecond
)

// Options tunes a Coordinator.
type Options struct {
	// FetchRetries caps attempts per item fetch before the item is skipped.
	FetchRetries int
	// RetryBackoff is the linear backoff base: attempt n waits n*RetryBackoff.
	RetryBackoff time.Duration
	// ItemDelay paces requests between consecutive items.
	ItemDelay time.Duration
	// Headers are sent with every page fetch.
	Headers map[string]string
	Log     logger.Logger
}

func (o Options) withDefaults() Options {
	if o.FetchRetries <= 0 {
		o.FetchRetries = defaultFetchRetries
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = defaultRetryBackoff
	}
	if o.ItemDelay < 0 {
		o.ItemDelay = defaultItemDelay
	}
	if o.Log == nil {
		o.Log = &logger.NopLogger{}
	}
	return o
}

// Coordinator runs harvests. It exclusively owns the progress snapshot;
// observers only ever receive copies through the broadcaster.
type Coordinator struct {
	fetcher     httpclient.Client
	extractor   *extractor.Extractor
	store       storage.Store
	discoverer  *discover.Discoverer
	broadcaster *progress.Broadcaster
	opts        Options
	log         logger.Logger

	running   atomic.Bool
	cancelled atomic.Bool

	mu   sync.Mutex
	snap domain.ProgressSnapshot
}

// New wires a Coordinator.
func New(fetcher httpclient.Client, ext *extractor.Extractor, store storage.Store, disc *discover.Discoverer, bcast *progress.Broadcaster, opts Options) *Coordinator {
	opts = opts.withDefaults()
	return &Coordinator{
		fetcher:     fetcher,
		extractor:   ext,
		store:       store,
		discoverer:  disc,
		broadcaster: bcast,
		opts:        opts,
		log:         opts.Log,
	}
}

// Cancel requests cooperative cancellation. It is honored at the top of each
// per-item iteration; an in-flight fetch/extract/store finishes first.
func (c *Coordinator) Cancel() { c.cancelled.Store(true) }

// Snapshot returns a copy of the current progress state.
func (c *Coordinator) Snapshot() domain.ProgressSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Run executes one harvest over the given listing source. It returns an error
// only for failures to start (storage or listing unreachable) or a concurrent
// run; cancellation and per-item failures are normal outcomes. Items are
// processed in discovery order and progress percent never decreases within a
// run.
func (c *Coordinator) Run(ctx context.Context, src listing.Source) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrRunActive
	}
	defer c.running.Store(false)
	c.cancelled.Store(false)

	c.publish(func(s *domain.ProgressSnapshot) {
		*s = domain.ProgressSnapshot{
			IsActive:      true,
			State:         domain.RunStateRunning,
			StatusMessage: "Initializing harvest...",
		}
	})

	known, err := c.store.KnownIDs()
	if err != nil {
		return c.failStart(fmt.Errorf("load known ids: %w", err))
	}
	c.publish(func(s *domain.ProgressSnapshot) {
		s.AlreadyKnownCount = len(known)
		s.StatusMessage = "Collecting item links..."
	})

	refs, err := c.discoverer.Discover(ctx, src, known)
	if err != nil {
		if ctx.Err() != nil {
			c.finishCancelled()
			return nil
		}
		return c.failStart(fmt.Errorf("discover items: %w", err))
	}

	total := len(known) + len(refs)
	c.publish(func(s *domain.ProgressSnapshot) {
		s.TotalItems = total
	})
	c.log.InfoObj("discovery complete", "harvest_plan", map[string]any{
		"known_items": len(known),
		"new_items":   len(refs),
		"total_items": total,
	})

	if len(refs) == 0 {
		c.publish(func(s *domain.ProgressSnapshot) {
			s.IsActive = false
			s.State = domain.RunStateCompleted
			s.PercentComplete = 100
			s.StatusMessage = "No new items found to harvest."
		})
		return nil
	}

	harvested, skipped := 0, 0
	for i, ref := range refs {
		// Cooperative cancellation: polled between items, never preemptive.
		if c.cancelled.Load() || ctx.Err() != nil {
			c.finishCancelled()
			return nil
		}

		label := fmt.Sprintf("Item %d of %d", i+1, len(refs))
		c.publish(func(s *domain.ProgressSnapshot) {
			s.CurrentItemLabel = label
			s.StatusMessage = "Harvesting: " + label
			s.PercentComplete = i * 100 / len(refs)
		})

		if err := c.harvestOne(ctx, ref); err != nil {
			skipped++
			c.log.WarnObj("item skipped", "item_error", map[string]any{
				"item_id": ref.ID,
				"url":     ref.URL,
				"error":   err.Error(),
			})
		} else {
			harvested++
		}

		done := i + 1
		c.publish(func(s *domain.ProgressSnapshot) {
			s.NewlyHarvestedCount = harvested
			s.SkippedCount = skipped
			s.PercentComplete = done * 100 / len(refs)
		})

		if c.opts.ItemDelay > 0 && done < len(refs) {
			if !c.pause(ctx, c.opts.ItemDelay) {
				c.finishCancelled()
				return nil
			}
		}
	}

	// The flag may flip between the last item and here; cancellation wins.
	if c.cancelled.Load() {
		c.finishCancelled()
		return nil
	}

	c.publish(func(s *domain.ProgressSnapshot) {
		s.IsActive = false
		s.State = domain.RunStateCompleted
		s.PercentComplete = 100
		s.CurrentItemLabel = ""
		s.StatusMessage = fmt.Sprintf("Completed! Harvested %d new items (%d skipped).", harvested, skipped)
	})
	c.log.InfoObj("harvest completed", "harvest_result", map[string]any{
		"harvested": harvested,
		"skipped":   skipped,
	})
	return nil
}

// harvestOne fetches, extracts, and upserts a single item. Failures are
// contained by the caller as skips.
func (c *Coordinator) harvestOne(ctx context.Context, ref listing.ItemRef) error {
	body, err := c.fetchWithRetry(ctx, ref.URL)
	if err != nil {
		return err
	}

	res := c.extractor.Extract(body, ref.ID, ref.URL)
	result, err := c.store.Upsert(res.Record, res.Tags)
	if err != nil {
		return fmt.Errorf("store item %s: %w", ref.ID, err)
	}

	c.log.DebugObj("item harvested", "item_result", map[string]any{
		"item_id": ref.ID,
		"title":   res.Record.Title,
		"result":  result.String(),
	})
	return nil
}

// fetchWithRetry attempts the page fetch up to FetchRetries times with
// linearly increasing backoff. Network errors and non-200 statuses are both
// transient here; after the cap the last error surfaces to become a skip.
func (c *Coordinator) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.opts.FetchRetries; attempt++ {
		resp, err := c.fetcher.Get(ctx, url, c.opts.Headers)
		switch {
		case err != nil:
			lastErr = fmt.Errorf("fetch %s: %w", url, err)
		case resp.StatusCode() != http.StatusOK:
			lastErr = fmt.Errorf("fetch %s: status %d", url, resp.StatusCode())
		default:
			return resp.Body(), nil
		}

		if attempt < c.opts.FetchRetries {
			if !c.pause(ctx, time.Duration(attempt)*c.opts.RetryBackoff) {
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

// pause sleeps for d, returning false if the context ended first.
func (c *Coordinator) pause(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *Coordinator) finishCancelled() {
	c.publish(func(s *domain.ProgressSnapshot) {
		s.IsActive = false
		s.State = domain.RunStateCancelled
		s.StatusMessage = fmt.Sprintf("Cancelled after %d items (%d skipped).", s.NewlyHarvestedCount, s.SkippedCount)
	})
	c.log.InfoObj("harvest cancelled", "harvest_result", c.Snapshot())
}

func (c *Coordinator) failStart(err error) error {
	c.publish(func(s *domain.ProgressSnapshot) {
		s.IsActive = false
		s.State = domain.RunStateFailedToStart
		s.StatusMessage = "Failed to start: " + err.Error()
	})
	c.log.ErrorObj("harvest failed to start", "error", err)
	return err
}

// publish applies a mutation to the coordinator-owned snapshot and hands a
// copy to the broadcaster.
func (c *Coordinator) publish(mutate func(*domain.ProgressSnapshot)) {
	c.mu.Lock()
	mutate(&c.snap)
	snap := c.snap
	c.mu.Unlock()

	if c.broadcaster != nil {
		c.broadcaster.Publish(snap)
	}
}
