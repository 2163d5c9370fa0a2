package storage

import (
	"sort"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

// sortedIDs returns the document ids of docs in ascending order
func sortedIDs(docs map[string]domain.Document) []string {
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// sortDocuments orders docs by the sort field. Documents with equal values
// keep ascending id order whatever the direction.
func sortDocuments(docs []domain.Document, order domain.Sort) {
	field := order.Field
	if field == "" {
		field = domain.IDField
	}
	sort.SliceStable(docs, func(i, j int) bool {
		cmp, ok := domain.CompareValues(docs[i][field], docs[j][field])
		if ok && cmp != 0 {
			if order.Direction == domain.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return docs[i].ID() < docs[j].ID()
	})
}

// paginate returns the rows of docs that fall inside page
func paginate(docs []domain.Document, page domain.Page) []domain.Document {
	if page.Offset >= len(docs) {
		return []domain.Document{}
	}
	end := page.Offset + page.Rows
	if end > len(docs) || end < page.Offset {
		end = len(docs)
	}
	return docs[page.Offset:end]
}

// UnionStringSlices returns the distinct ids of every slice, sorted
func UnionStringSlices(slices ...[]string) []string {
	seen := make(map[string]struct{})
	var result []string
	for _, slice := range slices {
		for _, id := range slice {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			result = append(result, id)
		}
	}
	sort.Strings(result)
	return result
}

// optimizeWithIndexes uses an index on the filter field, if any, to narrow
// the documents a filter has to be evaluated against. Returns candidate
// document IDs and whether index optimization was used.
func (se *StorageEngine) optimizeWithIndexes(collName string, filter domain.Filter) ([]string, bool) {
	index, exists := se.indexEngine.GetIndex(collName, filter.Field)
	if !exists {
		return nil, false
	}

	switch filter.Operator {
	case domain.Equals:
		if filter.Value == nil {
			return nil, false
		}
		return UnionStringSlices(index.Query(filter.Value)), true
	case domain.Within:
		candidates, err := filter.Candidates()
		if err != nil {
			return nil, false
		}
		results := make([][]string, 0, len(candidates))
		for _, candidate := range candidates {
			if candidate == nil {
				// nil matches documents missing the field, which are not indexed
				return nil, false
			}
			results = append(results, index.Query(candidate))
		}
		return UnionStringSlices(results...), true
	}
	return nil, false
}

// matchingDocuments returns the documents of collection matching filter in
// ascending id order. A nil filter matches everything.
func (se *StorageEngine) matchingDocuments(collection *domain.Collection, filter *domain.Filter) []domain.Document {
	var (
		ids     []string
		indexed bool
	)
	if filter != nil {
		ids, indexed = se.optimizeWithIndexes(collection.Name, *filter)
	}
	if !indexed {
		ids = sortedIDs(collection.Documents)
	}

	docs := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		doc, exists := collection.Documents[id]
		if !exists {
			continue
		}
		if filter == nil || filter.Matches(doc) {
			docs = append(docs, doc)
		}
	}
	return docs
}
