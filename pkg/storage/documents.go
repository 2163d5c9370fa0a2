package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

// UpsertMany replaces documents whose id already exists and inserts the rest
func (se *StorageEngine) UpsertMany(ctx context.Context, collName string, docs []domain.Document) error {
	return se.ApplyBatch(ctx, collName, domain.Batch{Upserts: docs})
}

// DeleteWhereIDIn removes every document whose id is listed. Unknown ids
// are ignored.
func (se *StorageEngine) DeleteWhereIDIn(ctx context.Context, collName string, ids []string) error {
	return se.ApplyBatch(ctx, collName, domain.Batch{Removals: ids})
}

// ApplyBatch applies upserts then removals as one unit. The new state is
// built aside, indexes are rebuilt against it and the file is rewritten
// before anything becomes visible, so a failure leaves the collection as it
// was.
func (se *StorageEngine) ApplyBatch(ctx context.Context, collName string, batch domain.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := batch.Validate(); err != nil {
		return err
	}
	if batch.Empty() {
		return nil
	}

	upserts := make([]domain.Document, len(batch.Upserts))
	for i, doc := range batch.Upserts {
		upserts[i] = doc.Clone()
	}
	batch.Upserts = upserts

	return se.withCollectionWriteLock(collName, func() error {
		se.mu.Lock()
		defer se.mu.Unlock()

		collection, found, err := se.getCollectionInternal(collName)
		if err != nil {
			return err
		}
		if !found {
			if len(batch.Upserts) == 0 {
				// Removing from a collection that does not exist
				return nil
			}
			collection = domain.NewCollection(collName)
		}

		next := batch.Apply(collection.Documents)
		indexes, err := se.indexEngine.Rebuild(collName, next)
		if err != nil {
			return err
		}

		var size int64
		if se.IsPersistent() {
			size, err = se.saveCollectionToFile(collName, next, se.indexEngine.Definitions(collName))
			if err != nil {
				return err
			}
		}

		collection.Documents = next
		se.indexEngine.Install(collName, indexes)

		info, exists := se.collections[collName]
		if !exists {
			info = &CollectionInfo{Name: collName}
			se.collections[collName] = info
		}
		info.State = CollectionStateLoaded
		info.DocumentCount = int64(len(next))
		info.SizeOnDisk = size
		info.LastModified = time.Now()
		se.cache.Put(collName, collection, info)

		se.logger.Debugf("Applied batch to '%s': %d upserts, %d removals", collName, len(batch.Upserts), len(batch.Removals))
		return nil
	})
}

// readCollection runs fn against a loaded collection under the collection
// read lock. fn receives nil when the collection does not exist.
func (se *StorageEngine) readCollection(ctx context.Context, collName string, fn func(*domain.Collection) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return se.withCollectionReadLock(collName, func() error {
		se.mu.Lock()
		collection, found, err := se.getCollectionInternal(collName)
		se.mu.Unlock()
		if err != nil {
			return err
		}
		if !found {
			collection = nil
		}
		return fn(collection)
	})
}

// FindByID retrieves a specific document by its ID
func (se *StorageEngine) FindByID(ctx context.Context, collName, docID string) (domain.Document, error) {
	var result domain.Document
	err := se.readCollection(ctx, collName, func(collection *domain.Collection) error {
		if collection != nil {
			if doc, exists := collection.Documents[docID]; exists {
				result = doc.Clone()
				return nil
			}
		}
		return fmt.Errorf("%w: id %s in collection %s", domain.ErrNotFound, docID, collName)
	})
	return result, err
}

// FindOneWhere returns the first document in id order that matches filter
func (se *StorageEngine) FindOneWhere(ctx context.Context, collName string, filter domain.Filter) (domain.Document, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var result domain.Document
	err := se.readCollection(ctx, collName, func(collection *domain.Collection) error {
		if collection != nil {
			if docs := se.matchingDocuments(collection, &filter); len(docs) > 0 {
				result = docs[0].Clone()
				return nil
			}
		}
		return fmt.Errorf("%w: no match for %s %s %v in collection %s",
			domain.ErrNotFound, filter.Field, filter.Operator, filter.Value, collName)
	})
	return result, err
}

// FindPage returns one sorted page of the documents matching the query
// filter, plus the number of matching documents ignoring the page.
func (se *StorageEngine) FindPage(ctx context.Context, collName string, query domain.PageQuery) ([]domain.Document, int64, error) {
	if err := query.Page.Validate(); err != nil {
		return nil, 0, err
	}
	if query.Filter != nil {
		if err := query.Filter.Validate(); err != nil {
			return nil, 0, err
		}
	}

	var (
		results []domain.Document
		total   int64
	)
	err := se.readCollection(ctx, collName, func(collection *domain.Collection) error {
		if collection == nil {
			results = []domain.Document{}
			return nil
		}
		docs := se.matchingDocuments(collection, query.Filter)
		total = int64(len(docs))
		sortDocuments(docs, query.Sort)

		page := paginate(docs, query.Page)
		results = make([]domain.Document, len(page))
		for i, doc := range page {
			results[i] = doc.Clone()
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
