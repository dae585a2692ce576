package export

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/domain"
	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/storage"
)

func sampleRows() []storage.RecordWithTags {
	rating := 87.0
	return []storage.RecordWithTags{
		{
			Record: domain.CatalogRecord{
				ID:             "440",
				Title:          "Team Fortress 2",
				Developer:      "Valve",
				Publisher:      "Valve",
				ReleaseDateRaw: "10 Oct, 2007",
				Price:          0,
				RatingPercent:  &rating,
				ReviewCount:    123456,
				SourceURL:      "https://store.example.com/app/440/",
			},
			Tags: []string{"Free To Play", "Shooter"},
		},
		{
			Record: domain.CatalogRecord{
				ID:             "620",
				Title:          "Portal 2",
				ReleaseDateRaw: "April 2011",
				Price:          9.99,
			},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf strings.Builder
	if err := WriteCSV(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(records))
	}
	first := records[1]
	if first[0] != "440" || first[1] != "Team Fortress 2" {
		t.Fatalf("first row = %v", first)
	}
	if first[8] != "Free To Play, Shooter" {
		t.Fatalf("tags cell = %q", first[8])
	}
	if records[2][6] != "" {
		t.Fatalf("missing rating must export empty, got %q", records[2][6])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf strings.Builder
	if err := WriteJSON(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(buf.String()), &out); err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("rows = %d, want 2", len(out))
	}
	if out[0]["id"] != "440" {
		t.Fatalf("first row = %v", out[0])
	}
	tags, ok := out[0]["tags"].([]any)
	if !ok || len(tags) != 2 {
		t.Fatalf("tags = %v", out[0]["tags"])
	}
	if _, ok := out[1]["tags"].([]any); !ok {
		t.Fatalf("tagless record must still export an empty tags array: %v", out[1]["tags"])
	}
}

func TestWriteRejectsUnknownFormat(t *testing.T) {
	var buf strings.Builder
	if err := Write(&buf, "xml", nil); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
