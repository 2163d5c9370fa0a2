package storage

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

// getCollectionInternal loads a collection on demand (lazy loading). The
// boolean is false when the collection does not exist. The caller holds se.mu.
func (se *StorageEngine) getCollectionInternal(collName string) (*domain.Collection, bool, error) {
	// First check cache
	if collection, _, found := se.cache.Get(collName); found {
		return collection, true, nil
	}

	// Check if collection exists in metadata
	collectionInfo, exists := se.collections[collName]
	if !exists || !se.IsPersistent() {
		return nil, false, nil
	}

	// Load collection from disk
	collection, indexes, err := se.loadCollectionFromDisk(collName)
	if err != nil {
		if os.IsNotExist(err) {
			delete(se.collections, collName)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load collection %s: %w", collName, err)
	}
	if err := se.indexEngine.Restore(collName, indexes, collection.Documents); err != nil {
		return nil, false, err
	}

	// Add to cache
	collectionInfo.State = CollectionStateLoaded
	collectionInfo.DocumentCount = int64(len(collection.Documents))
	collectionInfo.LastAccessed = time.Now()
	se.cache.Put(collName, collection, collectionInfo)

	return collection, true, nil
}

// handleEvict drops the indexes of a collection pushed out of the cache;
// they are restored from the file on the next load
func (se *StorageEngine) handleEvict(collName string, info *CollectionInfo) {
	info.State = CollectionStateUnloaded
	se.indexEngine.DropCollection(collName)
	se.logger.Debugf("Evicted collection '%s' from memory", collName)
}

// ListCollections returns the names of all known collections, sorted
func (se *StorageEngine) ListCollections() []string {
	se.mu.RLock()
	defer se.mu.RUnlock()
	names := make([]string, 0, len(se.collections))
	for name := range se.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CollectionInfo returns a copy of the metadata of a collection
func (se *StorageEngine) CollectionInfo(collName string) (CollectionInfo, bool) {
	se.mu.RLock()
	defer se.mu.RUnlock()
	info, ok := se.collections[collName]
	if !ok {
		return CollectionInfo{}, false
	}
	return *info, true
}

// DropCollection removes a collection, its indexes and its file. Dropping a
// collection that does not exist is not an error.
func (se *StorageEngine) DropCollection(ctx context.Context, collName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return se.withCollectionWriteLock(collName, func() error {
		se.mu.Lock()
		defer se.mu.Unlock()

		if se.IsPersistent() {
			if err := se.removeCollectionFile(collName); err != nil {
				return err
			}
		}
		se.cache.Remove(collName)
		delete(se.collections, collName)
		se.indexEngine.DropCollection(collName)

		se.logger.Debugf("Dropped collection '%s'", collName)
		return nil
	})
}
