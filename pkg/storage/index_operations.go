package storage

import (
	"context"
	"time"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

// EnsureIndex creates an index on a field unless one already exists. The
// id field is always indexed by the collection map, so requests for it (or
// for an empty field) are ignored. The definition is written to the
// collection file so it survives a reopen.
func (se *StorageEngine) EnsureIndex(ctx context.Context, collName, fieldName string, unique bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if fieldName == "" || fieldName == domain.IDField {
		return nil
	}

	return se.withCollectionWriteLock(collName, func() error {
		se.mu.Lock()
		defer se.mu.Unlock()

		collection, found, err := se.getCollectionInternal(collName)
		if err != nil {
			return err
		}
		docs := map[string]domain.Document{}
		if found {
			docs = collection.Documents
		}

		created, err := se.indexEngine.EnsureIndex(collName, fieldName, unique, docs)
		if err != nil {
			return err
		}
		if !created {
			return nil
		}
		se.logger.Debugf("Created index on '%s.%s' (unique=%t)", collName, fieldName, unique)

		if !found || !se.IsPersistent() {
			return nil
		}
		size, err := se.saveCollectionToFile(collName, docs, se.indexEngine.Definitions(collName))
		if err != nil {
			return err
		}
		if info, exists := se.collections[collName]; exists {
			info.SizeOnDisk = size
			info.LastModified = time.Now()
		}
		return nil
	})
}

// GetIndexes returns all index names for a collection
func (se *StorageEngine) GetIndexes(collName string) []string {
	return se.indexEngine.GetIndexes(collName)
}
