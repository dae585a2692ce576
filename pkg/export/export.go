// Package export writes catalog query results to CSV or JSON files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/storage"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

var csvHeader = []string{
	"id", "title", "developer", "publisher", "release_date",
	"price", "rating_percent", "review_count", "tags", "source_url",
}

// Write serializes rows in the named format. Format matching is
// case-insensitive.
func Write(w io.Writer, format string, rows []storage.RecordWithTags) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatJSON:
		return WriteJSON(w, rows)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteFile writes rows to path in the named format, creating or truncating it.
func WriteFile(path, format string, rows []storage.RecordWithTags) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := Write(f, format, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteCSV emits a header row plus one row per record. Tags collapse to a
// comma-joined cell.
func WriteCSV(w io.Writer, rows []storage.RecordWithTags) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range rows {
		rec := row.Record
		rating := ""
		if rec.RatingPercent != nil {
			rating = strconv.FormatFloat(*rec.RatingPercent, 'f', -1, 64)
		}
		fields := []string{
			rec.ID,
			rec.Title,
			rec.Developer,
			rec.Publisher,
			rec.ReleaseDateRaw,
			strconv.FormatFloat(rec.Price, 'f', 2, 64),
			rating,
			strconv.Itoa(rec.ReviewCount),
			strings.Join(row.Tags, ", "),
			rec.SourceURL,
		}
		if err := cw.Write(fields); err != nil {
			return fmt.Errorf("write csv row %s: %w", rec.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON emits an indented JSON array of records with their tags inlined.
func WriteJSON(w io.Writer, rows []storage.RecordWithTags) error {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		raw, err := json.Marshal(row.Record)
		if err != nil {
			return fmt.Errorf("marshal record %s: %w", row.Record.ID, err)
		}
		obj := map[string]any{}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return fmt.Errorf("flatten record %s: %w", row.Record.ID, err)
		}
		tags := row.Tags
		if tags == nil {
			tags = []string{}
		}
		obj["tags"] = tags
		out = append(out, obj)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
