package domain

import "time"

// Domain contains core models shared across the harvester.

// MaxScreenshots caps how many screenshot URLs a record may carry.
const MaxScreenshots = 5

// CatalogRecord is one harvested catalog item. ReleaseDateRaw is stored exactly
// as sourced because date-range search replays the original string.
type CatalogRecord struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Developer          string    `json:"developer"`
	Publisher          string    `json:"publisher"`
	ReleaseDateRaw     string    `json:"release_date_raw"`
	DescriptionFull    string    `json:"description_full"`
	DescriptionShort   string    `json:"description_short"`
	Price              float64   `json:"price"`
	SystemRequirements string    `json:"system_requirements"`
	SupportedLanguages string    `json:"supported_languages"`
	RatingPercent      *float64  `json:"rating_percent,omitempty"`
	ReviewCount        int       `json:"review_count"`
	SourceURL          string    `json:"source_url"`
	HeroImageURL       string    `json:"hero_image_url"`
	ScreenshotURLs     []string  `json:"screenshot_urls,omitempty"`
	LastUpdated        time.Time `json:"last_updated"`
}

// Equal reports whether two records carry the same harvested data.
// LastUpdated is excluded: it is bookkeeping set on write, not harvested data.
func (r CatalogRecord) Equal(other CatalogRecord) bool {
	if r.ID != other.ID ||
		r.Title != other.Title ||
		r.Developer != other.Developer ||
		r.Publisher != other.Publisher ||
		r.ReleaseDateRaw != other.ReleaseDateRaw ||
		r.DescriptionFull != other.DescriptionFull ||
		r.DescriptionShort != other.DescriptionShort ||
		r.Price != other.Price ||
		r.SystemRequirements != other.SystemRequirements ||
		r.SupportedLanguages != other.SupportedLanguages ||
		r.ReviewCount != other.ReviewCount ||
		r.SourceURL != other.SourceURL ||
		r.HeroImageURL != other.HeroImageURL {
		return false
	}
	if (r.RatingPercent == nil) != (other.RatingPercent == nil) {
		return false
	}
	if r.RatingPercent != nil && *r.RatingPercent != *other.RatingPercent {
		return false
	}
	if len(r.ScreenshotURLs) != len(other.ScreenshotURLs) {
		return false
	}
	for i := range r.ScreenshotURLs {
		if r.ScreenshotURLs[i] != other.ScreenshotURLs[i] {
			return false
		}
	}
	return true
}

// RunState is the lifecycle state of a harvest run.
type RunState string

const (
	RunStateIdle          RunState = "idle"
	RunStateRunning       RunState = "running"
	RunStateCompleted     RunState = "completed"
	RunStateCancelled     RunState = "cancelled"
	RunStateFailedToStart RunState = "failed_to_start"
)

// ProgressSnapshot is the transient view of a harvest run handed to observers.
// The coordinator owns the mutable state; observers only ever see copies.
type ProgressSnapshot struct {
	IsActive            bool     `json:"is_active"`
	State               RunState `json:"state"`
	StatusMessage       string   `json:"status_message"`
	CurrentItemLabel    string   `json:"current_item_label"`
	PercentComplete     int      `json:"percent_complete"`
	TotalItems          int      `json:"total_items"`
	AlreadyKnownCount   int      `json:"already_known_count"`
	NewlyHarvestedCount int      `json:"newly_harvested_count"`
	SkippedCount        int      `json:"skipped_count"`
}
