// Package discover incrementally surfaces not-yet-known item identifiers from
// a catalog listing. The listing's end is not directly observable, so the loop
// stops after a bounded number of consecutive steps that surface nothing new.
package discover

import (
	"context"
	"fmt"

	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/logger"
	"github.com/gamedex-hq/gamedex-catalog-harvester/pkg/listing"
)

const defaultMaxIdleSteps = 5

// Options tunes the discovery loop.
type Options struct {
	// MaxIdleSteps is how many consecutive zero-new steps end the run. This is
	// a heuristic threshold, not a correctness guarantee; sites that pause
	// content loading longer than MaxIdleSteps settle windows get cut short.
	MaxIdleSteps int
	Log          logger.Logger
}

// Discoverer walks a listing source and collects new item references.
type Discoverer struct {
	maxIdleSteps int
	log          logger.Logger
}

// New builds a Discoverer.
func New(opts Options) *Discoverer {
	if opts.MaxIdleSteps <= 0 {
		opts.MaxIdleSteps = defaultMaxIdleSteps
	}
	if opts.Log == nil {
		opts.Log = &logger.NopLogger{}
	}
	return &Discoverer{maxIdleSteps: opts.MaxIdleSteps, log: opts.Log}
}

// Discover advances the listing until it goes quiet and returns, in encounter
// order, every visible item reference whose id is neither in known nor already
// collected this run. A discovery run always re-scans from the top; it is not
// restartable mid-sequence. The error from the first Advance is returned
// as-is so callers can treat it as a failure to start.
func (d *Discoverer) Discover(ctx context.Context, src listing.Source, known map[string]struct{}) ([]listing.ItemRef, error) {
	if src == nil {
		return nil, fmt.Errorf("listing source is nil")
	}

	var refs []listing.ItemRef
	seen := make(map[string]struct{}, len(known))
	idleSteps := 0
	step := 0

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := src.Advance(ctx); err != nil {
			if step == 0 {
				return nil, fmt.Errorf("advance listing: %w", err)
			}
			// A mid-run advance failure ends discovery with what we have.
			d.log.WarnObj("listing advance failed mid-run", "discover_error", map[string]any{
				"step":  step,
				"error": err.Error(),
			})
			return refs, nil
		}
		step++

		visible, err := src.VisibleItemRefs()
		if err != nil {
			if step == 1 {
				return nil, fmt.Errorf("collect listing refs: %w", err)
			}
			d.log.WarnObj("listing collection failed mid-run", "discover_error", map[string]any{
				"step":  step,
				"error": err.Error(),
			})
			return refs, nil
		}

		newThisStep := 0
		for _, ref := range visible {
			if ref.ID == "" {
				continue
			}
			if _, ok := known[ref.ID]; ok {
				continue
			}
			if _, ok := seen[ref.ID]; ok {
				continue
			}
			seen[ref.ID] = struct{}{}
			refs = append(refs, ref)
			newThisStep++
		}

		if newThisStep == 0 {
			idleSteps++
			if idleSteps >= d.maxIdleSteps {
				break
			}
		} else {
			idleSteps = 0
		}

		d.log.DebugObj("discovery step", "discover_step", map[string]any{
			"step":       step,
			"new":        newThisStep,
			"total_new":  len(refs),
			"idle_steps": idleSteps,
		})
	}

	d.log.InfoObj("discovery finished", "discover_result", map[string]any{
		"steps":     step,
		"new_items": len(refs),
	})
	return refs, nil
}
