package domain

import (
	"context"
	"fmt"
)

// Store defines the document engine primitives a collection reference
// relies on. Identifiers are passed in their string form.
type Store interface {
	// UpsertMany replaces documents whose IDField already exists and
	// creates the rest. Later entries win over earlier ones with the same id.
	UpsertMany(ctx context.Context, collection string, docs []Document) error

	// DeleteWhereIDIn removes every document whose id is in ids.
	DeleteWhereIDIn(ctx context.Context, collection string, ids []string) error

	// FindByID returns ErrNotFound when no document has the id.
	FindByID(ctx context.Context, collection, id string) (Document, error)

	// FindOneWhere returns the first match in id order, or ErrNotFound.
	FindOneWhere(ctx context.Context, collection string, filter Filter) (Document, error)

	// FindPage returns one sorted page plus the number of matching
	// documents ignoring the page slicing.
	FindPage(ctx context.Context, collection string, query PageQuery) ([]Document, int64, error)

	EnsureIndex(ctx context.Context, collection, field string, unique bool) error

	DropCollection(ctx context.Context, collection string) error
}

// Session is a Store handle scoped to a single operation
type Session interface {
	Store
	Close() error
}

// Opener acquires a Session on a store location
type Opener interface {
	Open(ctx context.Context, location string) (Session, error)
}

// BatchApplier is implemented by stores that can apply a whole Batch as
// one transaction.
type BatchApplier interface {
	ApplyBatch(ctx context.Context, collection string, batch Batch) error
}

// Batch is the store-level unit of work produced by a commit. Upserts are
// applied in order before Removals.
type Batch struct {
	Upserts  []Document
	Removals []string
}

// Empty reports whether the batch carries no changes
func (b Batch) Empty() bool {
	return len(b.Upserts) == 0 && len(b.Removals) == 0
}

// Validate checks that every upsert carries a string id and no removal id
// is empty
func (b Batch) Validate() error {
	for i, doc := range b.Upserts {
		if doc == nil {
			return fmt.Errorf("%w: document %d is nil", ErrInvalidDocument, i)
		}
		if doc.ID() == "" {
			return fmt.Errorf("%w: document %d has no %s", ErrInvalidDocument, i, IDField)
		}
	}
	for i, id := range b.Removals {
		if id == "" {
			return fmt.Errorf("%w: removal %d has an empty id", ErrInvalidDocument, i)
		}
	}
	return nil
}

// Apply returns the collection state that results from applying the batch
// to state. state is not modified.
func (b Batch) Apply(state map[string]Document) map[string]Document {
	next := make(map[string]Document, len(state)+len(b.Upserts))
	for id, doc := range state {
		next[id] = doc
	}
	for _, doc := range b.Upserts {
		next[doc.ID()] = doc
	}
	for _, id := range b.Removals {
		delete(next, id)
	}
	return next
}
