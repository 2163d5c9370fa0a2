package indexing

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

// IndexEngine keeps the secondary indexes of every collection
type IndexEngine struct {
	mu      sync.RWMutex
	indexes map[string]map[string]*Index // Collection name -> field name -> index
}

// NewIndexEngine creates a new index engine
func NewIndexEngine() *IndexEngine {
	return &IndexEngine{
		indexes: make(map[string]map[string]*Index),
	}
}

// Index stores a mapping from a field's value to document IDs.
type Index struct {
	Field    string
	Unique   bool
	Inverted map[interface{}][]string
}

// NewIndex creates an index on a specific field.
func NewIndex(field string, unique bool) *Index {
	return &Index{
		Field:    field,
		Unique:   unique,
		Inverted: make(map[interface{}][]string),
	}
}

// Key normalises a field value into an index key. Strings compare without
// case, numbers as float64. Values that are absent, nil or not scalar are
// not indexed.
func Key(value interface{}) (interface{}, bool) {
	value = domain.Normalize(value)
	switch v := value.(type) {
	case nil:
		return nil, false
	case string:
		return strings.ToLower(v), true
	case bool:
		return v, true
	}
	if f, ok := domain.ToFloat64(value); ok {
		return f, true
	}
	return nil, false
}

// BuildIndex indexes all documents by the index field. Documents are
// visited in id order so the id lists are sorted.
func (idx *Index) BuildIndex(docs map[string]domain.Document) error {
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, docID := range ids {
		key, ok := Key(docs[docID][idx.Field])
		if !ok {
			continue
		}
		if idx.Unique && len(idx.Inverted[key]) > 0 {
			return fmt.Errorf("%w: field %s value %v is held by %s and %s",
				domain.ErrUniqueViolation, idx.Field, docs[docID][idx.Field], idx.Inverted[key][0], docID)
		}
		idx.Inverted[key] = append(idx.Inverted[key], docID)
	}
	return nil
}

// Query returns document IDs that match a given value in the indexed field.
func (idx *Index) Query(value interface{}) []string {
	key, ok := Key(value)
	if !ok {
		return nil
	}
	return idx.Inverted[key]
}

// EnsureIndex registers an index definition. It reports whether a new
// index was created; an existing index on the field is left untouched.
func (ie *IndexEngine) EnsureIndex(collectionName, fieldName string, unique bool, docs map[string]domain.Document) (bool, error) {
	ie.mu.Lock()
	defer ie.mu.Unlock()

	if _, exists := ie.indexes[collectionName][fieldName]; exists {
		return false, nil
	}

	index := NewIndex(fieldName, unique)
	if err := index.BuildIndex(docs); err != nil {
		return false, err
	}

	if ie.indexes[collectionName] == nil {
		ie.indexes[collectionName] = make(map[string]*Index)
	}
	ie.indexes[collectionName][fieldName] = index
	return true, nil
}

// Rebuild builds fresh copies of every index of a collection against docs
// without installing them, so a unique violation leaves the current indexes
// in place. Pass the result to Install once the new state is committed.
func (ie *IndexEngine) Rebuild(collectionName string, docs map[string]domain.Document) (map[string]*Index, error) {
	ie.mu.RLock()
	defer ie.mu.RUnlock()

	rebuilt := make(map[string]*Index, len(ie.indexes[collectionName]))
	for fieldName, current := range ie.indexes[collectionName] {
		index := NewIndex(fieldName, current.Unique)
		if err := index.BuildIndex(docs); err != nil {
			return nil, err
		}
		rebuilt[fieldName] = index
	}
	return rebuilt, nil
}

// Install replaces the indexes of a collection
func (ie *IndexEngine) Install(collectionName string, indexes map[string]*Index) {
	ie.mu.Lock()
	defer ie.mu.Unlock()
	if len(indexes) == 0 {
		delete(ie.indexes, collectionName)
		return
	}
	ie.indexes[collectionName] = indexes
}

// Restore rebuilds indexes from persisted definitions (field -> unique)
func (ie *IndexEngine) Restore(collectionName string, definitions map[string]bool, docs map[string]domain.Document) error {
	indexes := make(map[string]*Index, len(definitions))
	for fieldName, unique := range definitions {
		index := NewIndex(fieldName, unique)
		if err := index.BuildIndex(docs); err != nil {
			return fmt.Errorf("failed to restore index %s on %s: %w", fieldName, collectionName, err)
		}
		indexes[fieldName] = index
	}
	ie.Install(collectionName, indexes)
	return nil
}

// Definitions returns field -> unique for every index of a collection
func (ie *IndexEngine) Definitions(collectionName string) map[string]bool {
	ie.mu.RLock()
	defer ie.mu.RUnlock()
	defs := make(map[string]bool, len(ie.indexes[collectionName]))
	for fieldName, index := range ie.indexes[collectionName] {
		defs[fieldName] = index.Unique
	}
	return defs
}

// DropCollection removes every index of a collection
func (ie *IndexEngine) DropCollection(collectionName string) {
	ie.mu.Lock()
	defer ie.mu.Unlock()
	delete(ie.indexes, collectionName)
}

// GetIndexes returns all index names for a collection, sorted
func (ie *IndexEngine) GetIndexes(collectionName string) []string {
	ie.mu.RLock()
	defer ie.mu.RUnlock()

	indexNames := make([]string, 0, len(ie.indexes[collectionName]))
	for fieldName := range ie.indexes[collectionName] {
		indexNames = append(indexNames, fieldName)
	}
	sort.Strings(indexNames)
	return indexNames
}

// GetIndex returns the index on a field, if any
func (ie *IndexEngine) GetIndex(collectionName, fieldName string) (*Index, bool) {
	ie.mu.RLock()
	defer ie.mu.RUnlock()
	if collectionIndexes, exists := ie.indexes[collectionName]; exists {
		if index, exists := collectionIndexes[fieldName]; exists {
			return index, true
		}
	}
	return nil, false
}
