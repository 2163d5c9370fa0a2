// Package changeset holds staged inserts, updates and removals for one
// collection reference until they are committed.
//
// Staging only appends. A commit takes an immutable Pending snapshot, turns
// it into a Plan with Merge and, once the store has accepted the plan, calls
// Drain to drop exactly the snapshotted entries. Entries staged while the
// commit was in flight stay queued for the next commit.
package changeset

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

// ChangeSet is the staging area of a collection reference
type ChangeSet[T domain.Identifiable] struct {
	mu       sync.Mutex
	toInsert []T
	toUpdate []T
	toRemove []uuid.UUID
}

// New creates an empty change set
func New[T domain.Identifiable]() *ChangeSet[T] {
	return &ChangeSet[T]{}
}

// Add stages documents for insertion. Nothing is staged if any document is
// malformed.
func (c *ChangeSet[T]) Add(docs ...T) error {
	if err := Validate(docs...); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toInsert = append(c.toInsert, docs...)
	return nil
}

// Modify stages documents for replacement
func (c *ChangeSet[T]) Modify(docs ...T) error {
	if err := Validate(docs...); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toUpdate = append(c.toUpdate, docs...)
	return nil
}

// Remove stages identifiers for deletion
func (c *ChangeSet[T]) Remove(ids ...uuid.UUID) error {
	for i, id := range ids {
		if id == uuid.Nil {
			return fmt.Errorf("%w: removal %d has a nil identifier", domain.ErrInvalidDocument, i)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toRemove = append(c.toRemove, ids...)
	return nil
}

// Snapshot returns a copy of everything staged so far
func (c *ChangeSet[T]) Snapshot() Pending[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Pending[T]{
		inserts:  append([]T(nil), c.toInsert...),
		updates:  append([]T(nil), c.toUpdate...),
		removals: append([]uuid.UUID(nil), c.toRemove...),
	}
}

// Drain drops the entries captured by p. Staging only appends, so they are
// always the leading entries of each sequence.
func (c *ChangeSet[T]) Drain(p Pending[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toInsert = dropPrefix(c.toInsert, len(p.inserts))
	c.toUpdate = dropPrefix(c.toUpdate, len(p.updates))
	c.toRemove = dropPrefix(c.toRemove, len(p.removals))
}

// Reset discards all staged entries
func (c *ChangeSet[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toInsert, c.toUpdate, c.toRemove = nil, nil, nil
}

// Len returns the number of staged entries
func (c *ChangeSet[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.toInsert) + len(c.toUpdate) + len(c.toRemove)
}

func dropPrefix[E any](s []E, n int) []E {
	if n >= len(s) {
		return nil
	}
	return append([]E(nil), s[n:]...)
}

// Validate rejects nil documents and documents without an identifier
func Validate[T domain.Identifiable](docs ...T) error {
	for i, doc := range docs {
		if isNil(doc) {
			return fmt.Errorf("%w: document %d is nil", domain.ErrInvalidDocument, i)
		}
		if doc.DocumentID() == uuid.Nil {
			return fmt.Errorf("%w: document %d has a nil identifier", domain.ErrInvalidDocument, i)
		}
	}
	return nil
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Interface, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
