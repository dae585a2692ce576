package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/config"
	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/discover"
	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/extractor"
	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/harvest"
	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/logger"
	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/progress"
	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/storage"
	"github.com/gamedex-hq/gamedex-catalog-harvester/pkg/httpclient"
	"github.com/gamedex-hq/gamedex-catalog-harvester/pkg/listing"
	"github.com/gamedex-hq/gamedex-catalog-harvester/pkg/sinks"
)

// sinkDeliverTimeout bounds each fanned-out progress delivery so a stuck sink
// cannot hold up shutdown.
const sinkDeliverTimeout = 10 * time.Second

var defaultFetchHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
}

// Harvester represents the catalog harvester runtime. It wires storage, the
// harvest coordinator, the progress broadcaster, and the downstream sinks, and
// executes one harvest run over the configured catalog listing.
type Harvester struct {
	cfg         *config.Config
	fanout      *sinks.Fanout
	store       storage.Store
	broadcaster *progress.Broadcaster
	coordinator *harvest.Coordinator
	log         logger.Logger
}

// NewHarvester builds a harvester runtime from config files.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sinkReg, err := sinks.LoadRegistry(cfg.SinksFile)
	if err != nil {
		return nil, fmt.Errorf("load sinks registry: %w", err)
	}

	enabledSinks := sinkReg.Enabled()
	if len(enabledSinks) == 0 {
		return nil, fmt.Errorf("no sinks configured")
	}

	builtSinks, err := sinks.BuildAll(sinks.DefaultRegistry(ctx, log), enabledSinks)
	if err != nil {
		return nil, fmt.Errorf("build sinks: %w", err)
	}
	fanout := sinks.NewFanout(builtSinks)
	sinkSummaries := make([]map[string]string, 0, len(enabledSinks))
	for _, sinkCfg := range enabledSinks {
		sinkSummaries = append(sinkSummaries, map[string]string{
			"id":   sinkCfg.ID,
			"type": sinkCfg.Type,
		})
	}
	log.InfoObj("sinks registry loaded", "sinks_meta", map[string]any{
		"count": len(sinkSummaries),
		"sinks": sinkSummaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type": cfg.StorageType,
		"path": cfg.BBoltPath,
	})

	broadcaster := progress.NewBroadcaster()
	coordinator := harvest.New(
		httpclient.NewRestyClient(cfg.FetchTimeout),
		extractor.New(),
		store,
		discover.New(discover.Options{MaxIdleSteps: cfg.DiscoverMaxIdleSteps, Log: log}),
		broadcaster,
		harvest.Options{
			FetchRetries: cfg.FetchRetries,
			RetryBackoff: cfg.RetryBackoff,
			ItemDelay:    cfg.ItemDelay,
			Headers:      defaultFetchHeaders,
			Log:          log,
		},
	)

	return &Harvester{
		cfg:         cfg,
		fanout:      fanout,
		store:       store,
		broadcaster: broadcaster,
		coordinator: coordinator,
		log:         log,
	}, nil
}

// Run executes one harvest over the configured catalog listing, forwarding
// every progress snapshot to the configured sinks until the run reaches a
// terminal state or the context ends.
func (h *Harvester) Run(ctx context.Context) error {
	if h == nil || h.coordinator == nil {
		return fmt.Errorf("harvester is not initialized")
	}

	runID := fmt.Sprintf("run-%s", time.Now().UTC().Format("20060102T150405Z"))
	h.log.InfoObj("harvest run starting", "run_meta", map[string]any{
		"run_id":      runID,
		"catalog_url": h.cfg.CatalogURL,
		"sinks_count": h.fanout.Size(),
	})

	subID, events := h.broadcaster.Subscribe()
	var bridge sync.WaitGroup
	bridge.Add(1)
	go func() {
		defer bridge.Done()
		for snap := range events {
			// Deliveries use a detached context so the terminal snapshot still
			// reaches sinks after the run context is cancelled.
			evtCtx, cancel := context.WithTimeout(context.Background(), sinkDeliverTimeout)
			if _, err := h.fanout.Deliver(evtCtx, sinks.NewEvent(runID, h.cfg.CatalogURL, snap)); err != nil {
				h.log.WarnObj("progress delivery incomplete", "sink_error", err.Error())
			}
			cancel()
		}
	}()

	src, err := listing.NewBrowserSource(h.cfg.CatalogURL, listing.BrowserOptions{
		Headless:       h.cfg.BrowserHeadless,
		SettleDelay:    h.cfg.DiscoverSettle,
		ScrollsPerStep: h.cfg.DiscoverScrollsPerStep,
	})
	if err != nil {
		h.broadcaster.Unsubscribe(subID)
		bridge.Wait()
		return fmt.Errorf("open catalog listing: %w", err)
	}
	defer src.Close()

	runErr := h.coordinator.Run(ctx, src)

	// Drain the bridge so the terminal snapshot reaches every sink.
	h.broadcaster.Unsubscribe(subID)
	bridge.Wait()

	if runErr != nil {
		return fmt.Errorf("harvest run: %w", runErr)
	}
	h.log.InfoObj("harvest run finished", "run_meta", map[string]any{
		"run_id":   runID,
		"snapshot": h.coordinator.Snapshot(),
	})
	return nil
}

// Cancel requests cooperative cancellation of the active run.
func (h *Harvester) Cancel() {
	if h == nil || h.coordinator == nil {
		return
	}
	h.coordinator.Cancel()
}

// Close releases the storage backend and drops progress subscribers.
func (h *Harvester) Close() error {
	if h == nil {
		return nil
	}
	h.broadcaster.Close()
	if h.store == nil {
		return nil
	}
	return h.store.Close()
}
