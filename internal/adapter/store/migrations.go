package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when changing how symbols or proposals are encoded.
const CurrentSchemaVersion = 1

var keySchemaVersion = []byte("schema_version")

// SchemaVersion returns the stored schema version, 0 for a new database.
func (s *BoltStore) SchemaVersion() (int, error) {
	version := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keySchemaVersion)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &version); err != nil {
			version = 0
		}
		return nil
	})
	return version, err
}

func (s *BoltStore) setSchemaVersion(tx *bbolt.Tx, version int) error {
	data, err := json.Marshal(version)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketMeta).Put(keySchemaVersion, data)
}

// MigrationResult describes what Migrate did.
type MigrationResult struct {
	OldVersion    int
	NewVersion    int
	ClearedCaches bool
	Reason        string
}

// Migrate brings the database to CurrentSchemaVersion. Cached symbols are
// dropped on any version change since they can be fetched again; proposals
// are kept unless the database comes from a newer version.
func (s *BoltStore) Migrate() (*MigrationResult, error) {
	version, err := s.SchemaVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}

	result := &MigrationResult{OldVersion: version, NewVersion: CurrentSchemaVersion}
	switch {
	case version == CurrentSchemaVersion:
		return result, nil
	case version == 0:
		result.Reason = "initializing schema version"
	case version < CurrentSchemaVersion:
		result.Reason = fmt.Sprintf("schema upgrade from v%d to v%d", version, CurrentSchemaVersion)
	default:
		result.Reason = fmt.Sprintf("database created by newer version (v%d > v%d)", version, CurrentSchemaVersion)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketSymbols}
		if version > CurrentSchemaVersion {
			buckets = append(buckets, bucketProposals)
		}
		for _, name := range buckets {
			if err := clearBucket(tx.Bucket(name)); err != nil {
				return err
			}
		}
		return s.setSchemaVersion(tx, CurrentSchemaVersion)
	})
	if err != nil {
		return nil, err
	}
	result.ClearedCaches = true
	return result, nil
}

// Clear removes all cached symbols.
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return clearBucket(tx.Bucket(bucketSymbols))
	})
}

func clearBucket(b *bbolt.Bucket) error {
	if b == nil {
		return nil
	}
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
