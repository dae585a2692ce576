// vaultsearch queries a harvested catalog database for items released inside
// a date range and exports the matches to CSV or JSON.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/dates"
	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/storage"
	"github.com/gamedex-hq/gamedex-catalog-harvester/pkg/export"
)

const dateLayout = "2006-01-02"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "vaultsearch failed: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		dbPath   string
		startRaw string
		endRaw   string
		format   string
		outPath  string
	)

	cmd := &cobra.Command{
		Use:   "vaultsearch",
		Short: "Search a harvested catalog database by release date range",
		Long: `vaultsearch scans every record in a harvested catalog database and keeps
those whose release date falls inside the given range. Month-only dates
("April 2011") match when the month overlaps the range. Records whose dates
cannot be interpreted are excluded.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := time.Parse(dateLayout, startRaw)
			if err != nil {
				return fmt.Errorf("invalid --start (want YYYY-MM-DD): %w", err)
			}
			end, err := time.Parse(dateLayout, endRaw)
			if err != nil {
				return fmt.Errorf("invalid --end (want YYYY-MM-DD): %w", err)
			}
			if end.Before(start) {
				return fmt.Errorf("--end must not be before --start")
			}

			format = strings.ToLower(strings.TrimSpace(format))
			if format != export.FormatCSV && format != export.FormatJSON {
				return fmt.Errorf("unsupported --format %q (want csv or json)", format)
			}

			if outPath == "" {
				outPath = defaultOutPath(dbPath, startRaw, endRaw, format)
			}

			return runSearch(cmd, dbPath, start, end, format, outPath)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "./data/catalog.db", "path to the harvested catalog database")
	cmd.Flags().StringVar(&startRaw, "start", "", "range start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&endRaw, "end", "", "range end date, YYYY-MM-DD")
	cmd.Flags().StringVar(&format, "format", export.FormatCSV, "output format: csv or json")
	cmd.Flags().StringVar(&outPath, "out", "", "output file (defaults to <db>_<start>_to_<end>.<format>)")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")

	return cmd
}

func runSearch(cmd *cobra.Command, dbPath string, start, end time.Time, format, outPath string) error {
	store, err := storage.NewStore("bbolt", dbPath, storage.Options{})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	rows, err := store.AllRecords()
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}

	matched := make([]storage.RecordWithTags, 0, len(rows))
	for _, row := range rows {
		if dates.InRange(row.Record.ReleaseDateRaw, start, end) {
			matched = append(matched, row)
		}
	}

	if err := export.WriteFile(outPath, format, matched); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	cmd.Printf("Scanned %d records: %d matched, %d excluded.\n", len(rows), len(matched), len(rows)-len(matched))
	cmd.Printf("Wrote %s\n", outPath)
	return nil
}

// defaultOutPath derives an output filename next to the database file.
func defaultOutPath(dbPath, startRaw, endRaw, format string) string {
	base := strings.TrimSuffix(dbPath, filepath.Ext(dbPath))
	return fmt.Sprintf("%s_%s_to_%s.%s", base, startRaw, endRaw, format)
}
