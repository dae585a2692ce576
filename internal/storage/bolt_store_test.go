package storage

import (
	"testing"
	"time"

	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/domain"
)

func testRecord() domain.CatalogRecord {
	return domain.CatalogRecord{
		ID:             "100",
		Title:          "Star Forge",
		Developer:      "Forge Studio",
		Publisher:      "Forge Studio",
		ReleaseDateRaw: "16 Oct, 2025",
		Price:          19.99,
		SourceURL:      "https://example.com/app/100/",
		ScreenshotURLs: []string{"https://cdn.example.com/ss_1.jpg"},
	}
}

func openTestStore(t *testing.T, now func() time.Time) Store {
	t.Helper()
	store, err := openBolt(t.TempDir()+"/catalog.db", Options{Now: now})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUpsertInsertThenUnchanged(t *testing.T) {
	clock := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	store := openTestStore(t, func() time.Time { return clock })

	res, err := store.Upsert(testRecord(), []string{"Indie", "Strategy"})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if res != Inserted {
		t.Fatalf("first upsert = %v, want Inserted", res)
	}

	stored, found, err := store.Record("100")
	if err != nil || !found {
		t.Fatalf("Record: found=%v err=%v", found, err)
	}
	firstStamp := stored.LastUpdated

	// Second identical write must be a no-op: same result data, no timestamp bump.
	clock = clock.Add(time.Hour)
	res, err = store.Upsert(testRecord(), []string{"Indie", "Strategy"})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if res != Unchanged {
		t.Fatalf("second upsert = %v, want Unchanged", res)
	}
	stored, _, _ = store.Record("100")
	if !stored.LastUpdated.Equal(firstStamp) {
		t.Fatalf("LastUpdated bumped on unchanged upsert: %v -> %v", firstStamp, stored.LastUpdated)
	}
}

func TestUpsertDetectsFieldChange(t *testing.T) {
	clock := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	store := openTestStore(t, func() time.Time { return clock })

	if _, err := store.Upsert(testRecord(), []string{"Indie"}); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}

	clock = clock.Add(time.Hour)
	changed := testRecord()
	changed.Price = 9.99
	res, err := store.Upsert(changed, []string{"Indie"})
	if err != nil {
		t.Fatalf("upsert changed: %v", err)
	}
	if res != Updated {
		t.Fatalf("upsert changed = %v, want Updated", res)
	}
	stored, _, _ := store.Record("100")
	if stored.Price != 9.99 {
		t.Errorf("price not replaced: %v", stored.Price)
	}
	if !stored.LastUpdated.Equal(clock) {
		t.Errorf("LastUpdated not bumped on update")
	}
}

func TestUpsertReplacesTagsAtomically(t *testing.T) {
	store := openTestStore(t, nil)

	if _, err := store.Upsert(testRecord(), []string{"Indie", "Strategy", "Roguelike"}); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}

	// A tag-only difference is still an update, and the new set fully replaces
	// the old one with no residue.
	res, err := store.Upsert(testRecord(), []string{"Casual"})
	if err != nil {
		t.Fatalf("tag upsert: %v", err)
	}
	if res != Updated {
		t.Fatalf("tag upsert = %v, want Updated", res)
	}

	tags, err := store.Tags("100")
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if len(tags) != 1 || tags[0] != "Casual" {
		t.Fatalf("tags = %v, want exactly [Casual]", tags)
	}
}

func TestKnownIDsBulkRead(t *testing.T) {
	store := openTestStore(t, nil)

	for _, id := range []string{"1", "2", "3"} {
		rec := testRecord()
		rec.ID = id
		if _, err := store.Upsert(rec, nil); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}

	ids, err := store.KnownIDs()
	if err != nil {
		t.Fatalf("KnownIDs: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("len(ids) = %d", len(ids))
	}
	if _, ok := ids["2"]; !ok {
		t.Fatalf("id 2 missing from known set")
	}
}

func TestAllRecordsIncludesTags(t *testing.T) {
	store := openTestStore(t, nil)
	if _, err := store.Upsert(testRecord(), []string{"Indie"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	rows, err := store.AllRecords()
	if err != nil {
		t.Fatalf("AllRecords: %v", err)
	}
	if len(rows) != 1 || rows[0].Record.ID != "100" || len(rows[0].Tags) != 1 {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestUpsertRejectsEmptyID(t *testing.T) {
	store := openTestStore(t, nil)
	if _, err := store.Upsert(domain.CatalogRecord{}, nil); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if _, err := store.Upsert(domain.CatalogRecord{ID: "x"}, nil); err != nil {
		t.Fatalf("noop store Upsert: %v", err)
	}
}
