package domain

import (
	"github.com/google/uuid"
)

// IDField is the document key holding the identifier
const IDField = "_id"

// Identifiable is implemented by every document type a collection can hold.
// The identifier must also be serialised under IDField.
type Identifiable interface {
	DocumentID() uuid.UUID
}

// Document represents a document in the database
type Document map[string]interface{}

// DocumentID returns the identifier stored under IDField, or uuid.Nil when
// it is missing or malformed.
func (d Document) DocumentID() uuid.UUID {
	switch v := d[IDField].(type) {
	case uuid.UUID:
		return v
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil
		}
		return id
	default:
		return uuid.Nil
	}
}

// ID returns the identifier in its stored string form
func (d Document) ID() string {
	id, _ := d[IDField].(string)
	return id
}

// Clone returns a shallow copy of the document
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Collection represents a collection of documents keyed by id
type Collection struct {
	Name      string              `json:"name"`
	Documents map[string]Document `json:"documents"`
}

// NewCollection creates a new collection
func NewCollection(name string) *Collection {
	return &Collection{
		Name:      name,
		Documents: make(map[string]Document),
	}
}
