package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/domain"
)

// Package storage provides the local catalog store abstraction.

// UpsertResult describes what a change-aware write did.
type UpsertResult int

const (
	Unchanged UpsertResult = iota
	Inserted
	Updated
)

func (r UpsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// RecordWithTags pairs a record with its tag set for queries and export.
type RecordWithTags struct {
	Record domain.CatalogRecord
	Tags   []string
}

// Store is a key-addressed record table plus a per-record tag index. Upsert
// writes only when the incoming data differs from the stored data; the record
// replacement and the tag rewrite commit in one transaction or not at all.
type Store interface {
	Close() error
	// KnownIDs is a single bulk read returning a fast-membership set; callers
	// hold it for a whole harvest run instead of probing per item.
	KnownIDs() (map[string]struct{}, error)
	Upsert(rec domain.CatalogRecord, tags []string) (UpsertResult, error)
	Record(id string) (domain.CatalogRecord, bool, error)
	Tags(id string) ([]string, error)
	AllRecords() ([]RecordWithTags, error)
}

// Options controls behavior of concrete store implementations.
type Options struct {
	// Now overrides the clock used for LastUpdated stamps. Nil means time.Now.
	Now func() time.Time
}

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

type noopStore struct{}

func (noopStore) Close() error                              { return nil }
func (noopStore) KnownIDs() (map[string]struct{}, error)    { return map[string]struct{}{}, nil }
func (noopStore) Record(string) (domain.CatalogRecord, bool, error) {
	return domain.CatalogRecord{}, false, nil
}
func (noopStore) Tags(string) ([]string, error)        { return nil, nil }
func (noopStore) AllRecords() ([]RecordWithTags, error) { return nil, nil }
func (noopStore) Upsert(domain.CatalogRecord, []string) (UpsertResult, error) {
	return Inserted, nil
}
