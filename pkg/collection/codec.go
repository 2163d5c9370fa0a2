package collection

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

// encode converts a typed document into its store representation. The
// JSON form must carry the same identifier under domain.IDField.
func encode[T domain.Identifiable](v T) (domain.Document, error) {
	id := v.DocumentID()
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: document has no identifier", domain.ErrInvalidDocument)
	}

	if doc, ok := any(v).(domain.Document); ok {
		out := doc.Clone()
		out[domain.IDField] = id.String()
		return out, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal %T: %v", domain.ErrInvalidDocument, v, err)
	}
	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %T does not encode as a JSON object: %v", domain.ErrInvalidDocument, v, err)
	}
	if doc.DocumentID() != id {
		return nil, fmt.Errorf("%w: %T must serialise its identifier %s under %q", domain.ErrInvalidDocument, v, id, domain.IDField)
	}
	doc[domain.IDField] = id.String()
	return doc, nil
}

func encodeAll[T domain.Identifiable](values []T) ([]domain.Document, error) {
	docs := make([]domain.Document, len(values))
	for i, v := range values {
		doc, err := encode(v)
		if err != nil {
			return nil, err
		}
		docs[i] = doc
	}
	return docs, nil
}

// decode converts a stored document back into T
func decode[T domain.Identifiable](doc domain.Document) (T, error) {
	var out T
	if d, ok := any(&out).(*domain.Document); ok {
		*d = doc
		return out, nil
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return out, fmt.Errorf("failed to marshal stored document %s: %w", doc.ID(), err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode stored document %s into %T: %w", doc.ID(), out, err)
	}
	return out, nil
}

func decodeAll[T domain.Identifiable](docs []domain.Document) ([]T, error) {
	out := make([]T, len(docs))
	for i, doc := range docs {
		v, err := decode[T](doc)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
