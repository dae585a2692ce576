// Package listing defines the catalog listing collaborator: something that can
// load more of a paginated/scrolling listing and report the item references
// currently visible on it.
package listing

import (
	"context"
	"net/url"
	"strings"
)

// ItemRef is one visible listing entry: a stable identifier plus its page URL.
type ItemRef struct {
	ID  string
	URL string
}

// Source is a pull-based listing. Advance triggers further content load
// (including any settle delay the medium needs); VisibleItemRefs reports
// everything currently rendered, repeats included. Callers own deduplication.
type Source interface {
	Advance(ctx context.Context) error
	VisibleItemRefs() ([]ItemRef, error)
	Close() error
}

// ParseItemID derives the stable identifier from an item page URL, which
// embeds it as the path segment after "app" (e.g. /app/730/Name/).
func ParseItemID(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg == "app" && i+1 < len(segments) {
			return segments[i+1]
		}
	}
	return ""
}
