package extractor

import (
	"fmt"
	"strings"
	"testing"
)

const samplePage = `
<html><body>
  <div class="apphub_AppName">Star Forge</div>
  <div id="developers_list">Forge Studio</div>
  <div class="glance_ctn">
    <div class="dev_row">
      <div class="subtitle">Publisher:</div>
      <a href="/publisher/bigpub">Big Pub</a>
    </div>
  </div>
  <div class="release_date"><div class="date">16 Oct, 2025</div></div>
  <div id="game_area_description">A long description.</div>
  <div class="game_description_snippet">Short one.</div>
  <div class="game_purchase_price">$19.99</div>
  <div class="sysreq_contents">OS: Any</div>
  <div id="language_dropdown">English, German</div>
  <div class="game_review_summary">87% of reviews are positive</div>
  <div class="review_count">(1,204)</div>
  <a class="app_tag">Indie</a>
  <a class="app_tag">Strategy</a>
</body></html>`

func TestExtractFullPage(t *testing.T) {
	res := New().Extract([]byte(samplePage), "730", "https://example.com/app/730/")
	rec := res.Record

	if rec.Title != "Star Forge" || rec.Developer != "Forge Studio" {
		t.Fatalf("title/developer = %q/%q", rec.Title, rec.Developer)
	}
	if rec.Publisher != "Big Pub" {
		t.Errorf("publisher = %q, want Big Pub", rec.Publisher)
	}
	if rec.ReleaseDateRaw != "16 Oct, 2025" {
		t.Errorf("release date = %q", rec.ReleaseDateRaw)
	}
	if rec.Price != 19.99 {
		t.Errorf("price = %v", rec.Price)
	}
	if rec.RatingPercent == nil || *rec.RatingPercent != 87 {
		t.Errorf("rating = %v", rec.RatingPercent)
	}
	if rec.ReviewCount != 1204 {
		t.Errorf("review count = %d", rec.ReviewCount)
	}
	if len(res.Tags) != 2 || res.Tags[0] != "Indie" || res.Tags[1] != "Strategy" {
		t.Errorf("tags = %v", res.Tags)
	}
}

func TestExtractPublisherFallsBackToDeveloper(t *testing.T) {
	page := `<html><body>
	  <div class="apphub_AppName">Solo Game</div>
	  <div id="developers_list">One Person Studio</div>
	</body></html>`

	rec := New().Extract([]byte(page), "1", "u").Record
	if rec.Publisher != "One Person Studio" {
		t.Fatalf("publisher = %q, want developer fallback", rec.Publisher)
	}
}

func TestExtractMissingFieldsResolveToSentinels(t *testing.T) {
	rec := New().Extract([]byte("<html><body></body></html>"), "9", "u").Record

	if rec.Title != "Unknown" || rec.Developer != "Unknown" || rec.Publisher != "Unknown" || rec.ReleaseDateRaw != "Unknown" {
		t.Errorf("expected Unknown sentinels, got %+v", rec)
	}
	if rec.Price != 0 || rec.ReviewCount != 0 || rec.RatingPercent != nil {
		t.Errorf("expected zero numerics, got price=%v reviews=%d rating=%v", rec.Price, rec.ReviewCount, rec.RatingPercent)
	}
	if len(rec.ScreenshotURLs) != 0 {
		t.Errorf("expected no screenshots, got %v", rec.ScreenshotURLs)
	}
}

func TestExtractScreenshotsStripsThumbsAndCaps(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 7; i++ {
		fmt.Fprintf(&b, `<img src="https://shared.cloudflare.steamstatic.com/store_item_assets/steam/apps/42/ss_%d.600x338.jpg">`, i)
	}
	b.WriteString(`<img src="https://shared.cloudflare.steamstatic.com/store_item_assets/steam/apps/42/ss_x/blank.gif">`)
	b.WriteString("</body></html>")

	rec := New().Extract([]byte(b.String()), "42", "u").Record
	if len(rec.ScreenshotURLs) != 5 {
		t.Fatalf("screenshots = %d, want capped at 5", len(rec.ScreenshotURLs))
	}
	for _, u := range rec.ScreenshotURLs {
		if strings.Contains(u, ".600x338") {
			t.Errorf("thumbnail suffix not stripped: %s", u)
		}
	}
	if rec.ScreenshotURLs[0] != "https://shared.cloudflare.steamstatic.com/store_item_assets/steam/apps/42/ss_0.jpg" {
		t.Errorf("order or rewrite wrong: %s", rec.ScreenshotURLs[0])
	}
}

func TestExtractScreenshotsFallbackContainer(t *testing.T) {
	page := `<html><body>
	  <div class="screenshot_holder"><img src="https://cdn.example.com/shot1.116x65.jpg"></div>
	  <div class="screenshot_holder"><img src="https://cdn.example.com/shot2.jpg"></div>
	</body></html>`

	rec := New().Extract([]byte(page), "77", "u").Record
	if len(rec.ScreenshotURLs) != 2 {
		t.Fatalf("screenshots = %v", rec.ScreenshotURLs)
	}
	if rec.ScreenshotURLs[0] != "https://cdn.example.com/shot1.jpg" {
		t.Errorf("fallback thumb not stripped: %s", rec.ScreenshotURLs[0])
	}
}

func TestExtractHeroImageConstructsCDNURL(t *testing.T) {
	rec := New().Extract([]byte("<html></html>"), "55", "u").Record
	want := "https://shared.cloudflare.steamstatic.com/store_item_assets/steam/apps/55/header.jpg"
	if rec.HeroImageURL != want {
		t.Errorf("hero = %q, want %q", rec.HeroImageURL, want)
	}
}

func TestExtractFreePrice(t *testing.T) {
	page := `<html><div class="game_purchase_price">Free</div></html>`
	if p := New().Extract([]byte(page), "3", "u").Record.Price; p != 0 {
		t.Errorf("price = %v, want 0 for free items", p)
	}
}
