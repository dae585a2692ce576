// Package extractor turns a fetched catalog page into a CatalogRecord. The
// source site's markup is not stable across an item's lifecycle, so every
// field is backed by an ordered chain of independent strategies; the first
// strategy producing a non-empty value wins and later ones are skipped.
package extractor

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/domain"
)

const (
	unknownSentinel = "Unknown"
	assetBaseURL    = "https://shared.cloudflare.steamstatic.com/store_item_assets/steam/apps"
	placeholderImg  = "blank.gif"
)

// Thumbnail size suffixes stripped to obtain full-resolution screenshot URLs.
var thumbSuffixes = []string{".116x65", ".600x338"}

var (
	percentRe = regexp.MustCompile(`(\d{1,3})\s*%`)
	digitsRe  = regexp.MustCompile(`\d`)
)

// strategy is one extraction attempt over the parsed page.
type strategy func(doc *goquery.Document) string

// Result is the extraction outcome for one page: the record plus its tag set.
type Result struct {
	Record domain.CatalogRecord
	Tags   []string
}

// Extractor builds catalog records from raw page markup.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor { return &Extractor{} }

// Extract never fails: missing fields resolve to documented sentinels
// ("Unknown" for text, 0 for numbers, empty slice for screenshots), and an
// unparsable page yields a full-sentinel record.
func (e *Extractor) Extract(pageHTML []byte, itemID, sourceURL string) Result {
	rec := domain.CatalogRecord{
		ID:             itemID,
		SourceURL:      sourceURL,
		Title:          unknownSentinel,
		Developer:      unknownSentinel,
		Publisher:      unknownSentinel,
		ReleaseDateRaw: unknownSentinel,
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageHTML))
	if err != nil {
		return Result{Record: rec}
	}

	rec.Title = firstMatch(doc, selectorText(".apphub_AppName")).or(unknownSentinel)
	rec.Developer = firstMatch(doc, selectorText("#developers_list")).or(unknownSentinel)
	rec.Publisher = extractPublisher(doc, rec.Developer)
	rec.ReleaseDateRaw = firstMatch(doc, selectorText(".release_date .date")).or(unknownSentinel)
	rec.DescriptionFull = firstMatch(doc, selectorText("#game_area_description")).or("")
	rec.DescriptionShort = firstMatch(doc, selectorText(".game_description_snippet")).or("")
	rec.SystemRequirements = firstMatch(doc, selectorText(".sysreq_contents")).or("")
	rec.SupportedLanguages = firstMatch(doc, selectorText("#language_dropdown")).or("")
	rec.Price = extractPrice(doc)
	rec.RatingPercent = extractRating(doc)
	rec.ReviewCount = extractReviewCount(doc)
	rec.ScreenshotURLs = extractScreenshots(doc, itemID)
	rec.HeroImageURL = extractHeroImage(doc, itemID)

	return Result{Record: rec, Tags: extractTags(doc)}
}

// candidate wraps a strategy-chain result so callers can attach a sentinel.
type candidate string

func (c candidate) or(fallback string) string {
	if c == "" {
		return fallback
	}
	return string(c)
}

// firstMatch runs strategies in order; the first non-empty result wins.
func firstMatch(doc *goquery.Document, strategies ...strategy) candidate {
	for _, s := range strategies {
		if v := strings.TrimSpace(s(doc)); v != "" {
			return candidate(v)
		}
	}
	return ""
}

func selectorText(sel string) strategy {
	return func(doc *goquery.Document) string {
		return doc.Find(sel).First().Text()
	}
}

// extractPublisher cascades four lookups before falling back to the developer
// value: small studios frequently self-publish.
func extractPublisher(doc *goquery.Document, developer string) string {
	pub := string(firstMatch(doc,
		publisherFromDevRow,
		publisherFromDetailsBlock,
		selectorText(`a[href*="/publisher/"]`),
		publisherFromGlanceSection,
	))
	if pub == "" && developer != unknownSentinel {
		return developer
	}
	if pub == "" {
		return unknownSentinel
	}
	return pub
}

func publisherFromDevRow(doc *goquery.Document) string {
	row := doc.Find(".dev_row").First()
	if row.Length() == 0 {
		return ""
	}
	subtitle := row.Find(".subtitle").First()
	if subtitle.Length() == 0 || !strings.Contains(strings.ToLower(subtitle.Text()), "publisher") {
		return ""
	}
	if link := row.Find("a").First(); link.Length() > 0 {
		return link.Text()
	}
	// No link; take the text after the "Publisher:" label.
	if text := row.Text(); strings.Contains(text, ":") {
		return strings.SplitN(text, ":", 2)[1]
	}
	return ""
}

func publisherFromDetailsBlock(doc *goquery.Document) string {
	var publisher string
	doc.Find(".details_block").EachWithBreak(func(_ int, block *goquery.Selection) bool {
		lines := strings.Split(block.Text(), "\n")
		for i, line := range lines {
			if strings.Contains(line, "Publisher:") && i+1 < len(lines) {
				publisher = strings.TrimSpace(lines[i+1])
				return false
			}
		}
		return true
	})
	return publisher
}

func publisherFromGlanceSection(doc *goquery.Document) string {
	var publisher string
	doc.Find(".glance_ctn .dev_row").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		subtitle := row.Find(".subtitle").First()
		if subtitle.Length() == 0 || !strings.Contains(strings.ToLower(subtitle.Text()), "publisher") {
			return true
		}
		if link := row.Find("a").First(); link.Length() > 0 {
			publisher = strings.TrimSpace(link.Text())
			return false
		}
		return true
	})
	return publisher
}

func extractPrice(doc *goquery.Document) float64 {
	text := strings.TrimSpace(doc.Find(".game_purchase_price").First().Text())
	if text == "" || strings.EqualFold(text, "free") {
		return 0
	}
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(text)
	price, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
	if err != nil || price < 0 {
		return 0
	}
	return price
}

func extractRating(doc *goquery.Document) *float64 {
	text := doc.Find(".game_review_summary").First().Text()
	m := percentRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil || pct < 0 || pct > 100 {
		return nil
	}
	return &pct
}

func extractReviewCount(doc *goquery.Document) int {
	text := doc.Find(".review_count").First().Text()
	digits := strings.Join(digitsRe.FindAllString(text, -1), "")
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// extractScreenshots scans image references for the per-item asset path first,
// falling back to the screenshot container structure. Thumbnail size suffixes
// are stripped so stored URLs are full resolution. Placeholders are dropped.
func extractScreenshots(doc *goquery.Document, itemID string) []string {
	pattern := fmt.Sprintf("%s/%s/ss_", assetBaseURL, itemID)

	var shots []string
	doc.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if strings.Contains(src, pattern) && !strings.Contains(src, placeholderImg) {
			shots = append(shots, stripThumbSuffixes(src))
		}
	})

	if len(shots) == 0 {
		doc.Find(".screenshot_holder img[src]").Each(func(_ int, img *goquery.Selection) {
			src, _ := img.Attr("src")
			if src != "" && !strings.Contains(src, placeholderImg) {
				shots = append(shots, stripThumbSuffixes(src))
			}
		})
	}
	if len(shots) == 0 {
		doc.Find(".screenshot_holder a[href]").Each(func(_ int, link *goquery.Selection) {
			href, _ := link.Attr("href")
			if href != "" && !strings.Contains(href, placeholderImg) {
				shots = append(shots, href)
			}
		})
	}

	if len(shots) > domain.MaxScreenshots {
		shots = shots[:domain.MaxScreenshots]
	}
	return shots
}

func stripThumbSuffixes(u string) string {
	for _, suffix := range thumbSuffixes {
		u = strings.ReplaceAll(u, suffix, "")
	}
	return u
}

// extractHeroImage tries the full-size header element, then its older variant,
// then constructs the CDN URL from the item id.
func extractHeroImage(doc *goquery.Document, itemID string) string {
	for _, sel := range []string{".game_header_image_full", ".game_header_image"} {
		if src, ok := doc.Find(sel).First().Attr("src"); ok {
			if src = strings.TrimSpace(src); src != "" && !strings.Contains(src, placeholderImg) {
				return src
			}
		}
	}
	return fmt.Sprintf("%s/%s/header.jpg", assetBaseURL, itemID)
}

func extractTags(doc *goquery.Document) []string {
	var tags []string
	doc.Find(".app_tag").Each(func(_ int, tag *goquery.Selection) {
		if text := strings.TrimSpace(tag.Text()); text != "" {
			tags = append(tags, text)
		}
	})
	return tags
}
