package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const (
	recordBucket = "records"
	tagBucket    = "tags"
)

// boltStore implements Store backed by BoltDB. bbolt serializes writers, so
// no two upserts for the same id can interleave; each Upsert is one
// transaction and rolls back in full on failure.
type boltStore struct {
	db  *bolt.DB
	now func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{recordBucket, tagBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	store := &boltStore{db: db, now: opts.Now}
	if store.now == nil {
		store.now = time.Now
	}
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// KnownIDs returns every stored record id as a membership set in one read.
func (b *boltStore) KnownIDs() (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(recordBucket))
		if bucket == nil {
			return fmt.Errorf("record bucket missing")
		}
		return bucket.ForEach(func(k, _ []byte) error {
			ids[string(k)] = struct{}{}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Upsert writes the record and replaces its tag set, unless the stored data is
// field-for-field identical (tags included), in which case nothing is written
// and the stored LastUpdated stays untouched.
func (b *boltStore) Upsert(rec domain.CatalogRecord, tags []string) (UpsertResult, error) {
	if rec.ID == "" {
		return Unchanged, fmt.Errorf("record id is empty")
	}
	if len(rec.ScreenshotURLs) > domain.MaxScreenshots {
		rec.ScreenshotURLs = rec.ScreenshotURLs[:domain.MaxScreenshots]
	}

	result := Unchanged
	err := b.db.Update(func(tx *bolt.Tx) error {
		records := tx.Bucket([]byte(recordBucket))
		tagIdx := tx.Bucket([]byte(tagBucket))
		if records == nil || tagIdx == nil {
			return fmt.Errorf("storage buckets missing")
		}

		key := []byte(rec.ID)
		if existing := records.Get(key); existing != nil {
			var stored domain.CatalogRecord
			if err := json.Unmarshal(existing, &stored); err != nil {
				return fmt.Errorf("decode stored record %s: %w", rec.ID, err)
			}
			storedTags, err := decodeTags(tagIdx.Get(key))
			if err != nil {
				return fmt.Errorf("decode stored tags %s: %w", rec.ID, err)
			}
			if stored.Equal(rec) && tagsEqual(storedTags, tags) {
				result = Unchanged
				return nil
			}
			result = Updated
		} else {
			result = Inserted
		}

		rec.LastUpdated = b.now()
		encoded, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", rec.ID, err)
		}
		if err := records.Put(key, encoded); err != nil {
			return err
		}

		// Tag set is replaced wholesale, never merged.
		encodedTags, err := json.Marshal(normalizeTags(tags))
		if err != nil {
			return fmt.Errorf("encode tags %s: %w", rec.ID, err)
		}
		return tagIdx.Put(key, encodedTags)
	})
	if err != nil {
		return Unchanged, err
	}
	return result, nil
}

// Record loads one record by id.
func (b *boltStore) Record(id string) (domain.CatalogRecord, bool, error) {
	var rec domain.CatalogRecord
	found := false
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(recordBucket))
		if bucket == nil {
			return fmt.Errorf("record bucket missing")
		}
		raw := bucket.Get([]byte(id))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("decode record %s: %w", id, err)
		}
		found = true
		return nil
	})
	return rec, found, err
}

// Tags loads the tag set for a record id.
func (b *boltStore) Tags(id string) ([]string, error) {
	var tags []string
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(tagBucket))
		if bucket == nil {
			return fmt.Errorf("tag bucket missing")
		}
		decoded, err := decodeTags(bucket.Get([]byte(id)))
		if err != nil {
			return err
		}
		tags = decoded
		return nil
	})
	return tags, err
}

// AllRecords streams every stored record with its tags, in key order.
func (b *boltStore) AllRecords() ([]RecordWithTags, error) {
	var out []RecordWithTags
	err := b.db.View(func(tx *bolt.Tx) error {
		records := tx.Bucket([]byte(recordBucket))
		tagIdx := tx.Bucket([]byte(tagBucket))
		if records == nil || tagIdx == nil {
			return fmt.Errorf("storage buckets missing")
		}
		return records.ForEach(func(k, v []byte) error {
			var rec domain.CatalogRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record %s: %w", k, err)
			}
			tags, err := decodeTags(tagIdx.Get(k))
			if err != nil {
				return fmt.Errorf("decode tags %s: %w", k, err)
			}
			out = append(out, RecordWithTags{Record: rec, Tags: tags})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decodeTags(raw []byte) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func normalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func tagsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
