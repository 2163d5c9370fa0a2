// Package collection provides Reference, a typed handle on one collection
// that stages inserts, updates and removals and applies them in one commit.
// Reads go straight to the store and only see committed state.
package collection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adfharrison1/go-docref/pkg/changeset"
	"github.com/adfharrison1/go-docref/pkg/domain"
	"github.com/adfharrison1/go-docref/pkg/metrics"
	"github.com/adfharrison1/go-docref/pkg/storage"
)

// Reference stages changes to one collection and commits them as a unit.
// Staging is safe for concurrent use; commits on one Reference are
// serialized. Two References never share staged changes.
type Reference[T domain.Identifiable] struct {
	config   Config
	opener   domain.Opener
	changes  *changeset.ChangeSet[T]
	commitMu sync.Mutex
	logger   *zap.SugaredLogger
	metrics  *metrics.Recorder
}

// Option configures a Reference
type Option func(*options)

type options struct {
	opener  domain.Opener
	logger  *zap.SugaredLogger
	metrics *metrics.Recorder
}

// WithOpener sets where sessions come from. The default is the process wide
// file engine opener, with the location used as its data directory.
func WithOpener(opener domain.Opener) Option {
	return func(o *options) {
		if opener != nil {
			o.opener = opener
		}
	}
}

// WithLogger sets the logger commits and reads are reported on
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records staging and commit metrics on r
func WithMetrics(r *metrics.Recorder) Option {
	return func(o *options) {
		o.metrics = r
	}
}

// New creates a Reference on collection at location. An empty or blank
// argument fails with domain.ErrConfiguration.
func New[T domain.Identifiable](location, collection string, opts ...Option) (*Reference[T], error) {
	config, err := NewConfig(location, collection)
	if err != nil {
		return nil, err
	}
	return NewWithConfig[T](config, opts...), nil
}

// NewWithConfig creates a Reference from an already validated Config
func NewWithConfig[T domain.Identifiable](config Config, opts ...Option) *Reference[T] {
	o := options{logger: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.opener == nil {
		o.opener = storage.SharedOpener()
	}
	return &Reference[T]{
		config:  config,
		opener:  o.opener,
		changes: changeset.New[T](),
		logger:  o.logger.With("collection", config.Collection()),
		metrics: o.metrics,
	}
}

// Config returns the collection identity
func (r *Reference[T]) Config() Config {
	return r.config
}

// Add stages documents for insertion
func (r *Reference[T]) Add(docs ...T) error {
	if err := r.validate(docs); err != nil {
		return err
	}
	if err := r.changes.Add(docs...); err != nil {
		return err
	}
	r.metrics.Staged(r.config.Collection(), metrics.KindInsert, len(docs))
	return nil
}

// Modify stages documents to replace the stored documents with the same
// identifier. A document that does not exist yet is inserted.
func (r *Reference[T]) Modify(docs ...T) error {
	if err := r.validate(docs); err != nil {
		return err
	}
	if err := r.changes.Modify(docs...); err != nil {
		return err
	}
	r.metrics.Staged(r.config.Collection(), metrics.KindUpdate, len(docs))
	return nil
}

// Remove stages identifiers for deletion. Unknown identifiers are ignored
// at commit.
func (r *Reference[T]) Remove(ids ...uuid.UUID) error {
	if err := r.changes.Remove(ids...); err != nil {
		return err
	}
	r.metrics.Staged(r.config.Collection(), metrics.KindRemove, len(ids))
	return nil
}

// validate rejects documents the store could not accept, before anything
// is staged
func (r *Reference[T]) validate(docs []T) error {
	if err := changeset.Validate(docs...); err != nil {
		return err
	}
	for i, doc := range docs {
		if _, err := encode(doc); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
	}
	return nil
}

// Pending returns a snapshot of the staged changes
func (r *Reference[T]) Pending() changeset.Pending[T] {
	return r.changes.Snapshot()
}

// Commit applies everything staged so far: inserts and updates are upserted
// in staging order, then the removals are deleted, so a document both
// written and removed ends up removed. On success the committed entries are
// cleared; on failure they stay staged and the error is returned. Committing
// with nothing staged does not touch the store.
func (r *Reference[T]) Commit(ctx context.Context) error {
	r.commitMu.Lock()
	defer r.commitMu.Unlock()

	pending := r.changes.Snapshot()
	if pending.Empty() {
		return nil
	}
	plan := changeset.Merge(pending)

	start := time.Now()
	err := r.apply(ctx, plan)
	r.metrics.Commit(r.config.Collection(), time.Since(start), err)
	if err != nil {
		r.logger.Warnw("Commit failed", "upserts", len(plan.Upserts), "removals", len(plan.Removals), "error", err)
		return err
	}

	r.changes.Drain(pending)
	r.logger.Debugw("Committed changes", "upserts", len(plan.Upserts), "removals", len(plan.Removals))
	return nil
}

func (r *Reference[T]) apply(ctx context.Context, plan changeset.Plan[T]) error {
	upserts, err := encodeAll(plan.Upserts)
	if err != nil {
		return err
	}
	removals := make([]string, len(plan.Removals))
	for i, id := range plan.Removals {
		removals[i] = id.String()
	}
	batch := domain.Batch{Upserts: upserts, Removals: removals}

	return r.withSession(ctx, "commit", func(session domain.Session) error {
		if applier, ok := session.(domain.BatchApplier); ok {
			return applier.ApplyBatch(ctx, r.config.Collection(), batch)
		}

		var errs []error
		if len(batch.Upserts) > 0 {
			errs = append(errs, session.UpsertMany(ctx, r.config.Collection(), batch.Upserts))
		}
		if len(batch.Removals) > 0 {
			errs = append(errs, session.DeleteWhereIDIn(ctx, r.config.Collection(), batch.Removals))
		}
		for _, err := range errs {
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns the document with id. The boolean is false when there is no
// such document.
func (r *Reference[T]) Get(ctx context.Context, id uuid.UUID) (T, bool, error) {
	var zero T
	var doc domain.Document
	err := r.withSession(ctx, "get", func(session domain.Session) error {
		var err error
		doc, err = session.FindByID(ctx, r.config.Collection(), id.String())
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	v, err := decode[T](doc)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// GetWhere returns the first document, in identifier order, that matches
// filter. The boolean is false when nothing matches.
func (r *Reference[T]) GetWhere(ctx context.Context, filter domain.Filter) (T, bool, error) {
	var zero T
	var doc domain.Document
	err := r.withSession(ctx, "get_where", func(session domain.Session) error {
		var err error
		doc, err = session.FindOneWhere(ctx, r.config.Collection(), filter)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	v, err := decode[T](doc)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// GetPaged returns one page of the whole collection ordered by order.
// TotalRows counts every document in the collection. A non-unique index on
// the sort field is created on first use.
func (r *Reference[T]) GetPaged(ctx context.Context, page domain.Page, order domain.Sort) (domain.PagedResult[T], error) {
	return r.page(ctx, "get_paged", domain.PageQuery{Sort: order, Page: page})
}

// GetPagedWhere is GetPaged restricted to documents matching filter;
// TotalRows counts the matching documents.
func (r *Reference[T]) GetPagedWhere(ctx context.Context, filter domain.Filter, page domain.Page, order domain.Sort) (domain.PagedResult[T], error) {
	return r.page(ctx, "get_paged_where", domain.PageQuery{Filter: &filter, Sort: order, Page: page})
}

func (r *Reference[T]) page(ctx context.Context, op string, query domain.PageQuery) (domain.PagedResult[T], error) {
	if err := query.Page.Validate(); err != nil {
		return domain.PagedResult[T]{}, err
	}

	var (
		docs  []domain.Document
		total int64
	)
	err := r.withSession(ctx, op, func(session domain.Session) error {
		if err := session.EnsureIndex(ctx, r.config.Collection(), query.Sort.Field, false); err != nil {
			return err
		}
		var err error
		docs, total, err = session.FindPage(ctx, r.config.Collection(), query)
		return err
	})
	if err != nil {
		return domain.PagedResult[T]{}, err
	}

	results, err := decodeAll[T](docs)
	if err != nil {
		return domain.PagedResult[T]{}, err
	}
	return domain.PagedResult[T]{TotalRows: total, Results: results}, nil
}

// Drop removes the collection from the store. Staged changes are kept.
func (r *Reference[T]) Drop(ctx context.Context) error {
	return r.withSession(ctx, "drop", func(session domain.Session) error {
		return session.DropCollection(ctx, r.config.Collection())
	})
}

// withSession opens a session for one operation and always closes it. Store
// failures are wrapped in a *domain.StoreError.
func (r *Reference[T]) withSession(ctx context.Context, op string, fn func(domain.Session) error) (err error) {
	defer func() {
		if err == nil || errors.Is(err, domain.ErrNotFound) {
			r.metrics.StoreOp(r.config.Collection(), op, nil)
			return
		}
		r.metrics.StoreOp(r.config.Collection(), op, err)
		var storeErr *domain.StoreError
		if !errors.As(err, &storeErr) {
			err = &domain.StoreError{Op: op, Collection: r.config.Collection(), Err: err}
		}
	}()

	session, err := r.opener.Open(ctx, r.config.Location())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			r.logger.Warnw("Failed to close session", "op", op, "error", closeErr)
			if err == nil {
				err = closeErr
			}
		}
	}()

	return fn(session)
}
