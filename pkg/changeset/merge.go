package changeset

import (
	"github.com/google/uuid"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

// Pending is an immutable snapshot of a change set
type Pending[T domain.Identifiable] struct {
	inserts  []T
	updates  []T
	removals []uuid.UUID
}

// Inserts returns a copy of the staged inserts in staging order
func (p Pending[T]) Inserts() []T { return append([]T(nil), p.inserts...) }

// Updates returns a copy of the staged updates in staging order
func (p Pending[T]) Updates() []T { return append([]T(nil), p.updates...) }

// Removals returns a copy of the staged removals in staging order
func (p Pending[T]) Removals() []uuid.UUID { return append([]uuid.UUID(nil), p.removals...) }

// Empty reports whether nothing was staged
func (p Pending[T]) Empty() bool {
	return len(p.inserts) == 0 && len(p.updates) == 0 && len(p.removals) == 0
}

// Len returns the number of staged entries
func (p Pending[T]) Len() int {
	return len(p.inserts) + len(p.updates) + len(p.removals)
}

// Plan is what a commit applies: Upserts in order, then Removals.
type Plan[T domain.Identifiable] struct {
	Upserts  []T
	Removals []uuid.UUID
}

// Merge combines pending changes into a plan. Upserts are the inserts
// followed by the updates, each in staging order, so a later entry for the
// same identifier replaces an earlier one. Removals are deduplicated,
// keeping first-seen order.
func Merge[T domain.Identifiable](p Pending[T]) Plan[T] {
	plan := Plan[T]{}
	if n := len(p.inserts) + len(p.updates); n > 0 {
		plan.Upserts = make([]T, 0, n)
		plan.Upserts = append(plan.Upserts, p.inserts...)
		plan.Upserts = append(plan.Upserts, p.updates...)
	}
	if len(p.removals) > 0 {
		seen := make(map[uuid.UUID]struct{}, len(p.removals))
		for _, id := range p.removals {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			plan.Removals = append(plan.Removals, id)
		}
	}
	return plan
}

// Empty reports whether the plan changes nothing
func (pl Plan[T]) Empty() bool {
	return len(pl.Upserts) == 0 && len(pl.Removals) == 0
}
