package listing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const defaultRowSelector = "a.search_result_row"

// BrowserOptions configures a BrowserSource.
type BrowserOptions struct {
	Headless bool
	// SettleDelay is how long to wait after each scroll for lazy content.
	SettleDelay time.Duration
	// ScrollsPerStep is how many scroll-to-bottom passes one Advance performs.
	ScrollsPerStep int
	// RowSelector matches the listing's item anchors.
	RowSelector string
}

func (o BrowserOptions) withDefaults() BrowserOptions {
	if o.SettleDelay <= 0 {
		o.SettleDelay = 3 * time.Second
	}
	if o.ScrollsPerStep <= 0 {
		o.ScrollsPerStep = 3
	}
	if strings.TrimSpace(o.RowSelector) == "" {
		o.RowSelector = defaultRowSelector
	}
	return o
}

// BrowserSource drives a headless browser over a scrolling catalog listing.
// The first Advance navigates to the listing URL; each later Advance scrolls
// to the bottom and waits for content to settle.
type BrowserSource struct {
	url     string
	opts    BrowserOptions
	browser *rod.Browser
	page    *rod.Page
	started bool
}

// NewBrowserSource launches a browser and prepares a source for the given
// listing URL. The caller must Close it.
func NewBrowserSource(listingURL string, opts BrowserOptions) (*BrowserSource, error) {
	if strings.TrimSpace(listingURL) == "" {
		return nil, fmt.Errorf("listing url is empty")
	}

	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	return &BrowserSource{
		url:     listingURL,
		opts:    opts.withDefaults(),
		browser: browser,
	}, nil
}

// Advance loads more of the listing. On the first call it navigates to the
// listing URL and waits for the page to load; afterwards it performs the
// configured scroll passes with a settle delay after each.
func (s *BrowserSource) Advance(ctx context.Context) error {
	if !s.started {
		page, err := s.browser.Page(proto.TargetCreateTarget{URL: s.url})
		if err != nil {
			return fmt.Errorf("open listing page: %w", err)
		}
		if err := page.WaitLoad(); err != nil {
			return fmt.Errorf("wait listing load: %w", err)
		}
		s.page = page
		s.started = true
		return s.settle(ctx)
	}

	for i := 0; i < s.opts.ScrollsPerStep; i++ {
		if _, err := s.page.Eval(`window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			return fmt.Errorf("scroll listing: %w", err)
		}
		if err := s.settle(ctx); err != nil {
			return err
		}
	}
	return nil
}

// VisibleItemRefs reports every item anchor currently rendered on the listing.
func (s *BrowserSource) VisibleItemRefs() ([]ItemRef, error) {
	if s.page == nil {
		return nil, fmt.Errorf("listing page not loaded; call Advance first")
	}

	elements, err := s.page.Elements(s.opts.RowSelector)
	if err != nil {
		return nil, fmt.Errorf("query listing rows: %w", err)
	}

	refs := make([]ItemRef, 0, len(elements))
	for _, el := range elements {
		href, err := el.Attribute("href")
		if err != nil || href == nil || *href == "" {
			continue
		}
		id := ParseItemID(*href)
		if id == "" {
			continue
		}
		refs = append(refs, ItemRef{ID: id, URL: *href})
	}
	return refs, nil
}

// Close shuts the browser down.
func (s *BrowserSource) Close() error {
	if s.browser == nil {
		return nil
	}
	return s.browser.Close()
}

func (s *BrowserSource) settle(ctx context.Context) error {
	timer := time.NewTimer(s.opts.SettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
