// Package sqlstore keeps document collections in a single SQLite database.
//
// Tables:
//
//	documents(collection, id, data)   PRIMARY KEY (collection, id)
//	indexes(collection, field, uniq)  PRIMARY KEY (collection, field)
//
// Documents are stored as JSON text; filters and sorts are evaluated with
// json_extract, and indexes are expression indexes over it.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

// rows per multi-row statement, well below SQLite's bound parameter limit
const batchSize = 200

var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (collection, id)
	)`,
	`CREATE TABLE IF NOT EXISTS indexes (
		collection TEXT NOT NULL,
		field TEXT NOT NULL,
		uniq INTEGER NOT NULL,
		PRIMARY KEY (collection, field)
	)`,
}

// Store is a domain.Session backed by one SQLite database file
type Store struct {
	db      *sql.DB
	builder *sqlBuilder
	logger  *zap.SugaredLogger
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger statements are reported on
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens (creating if needed) the database at path
func Open(ctx context.Context, path string, options ...Option) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", buildConnectionString(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	store := &Store{
		db:      db,
		builder: newSQLBuilder(),
		logger:  zap.NewNop().Sugar(),
	}
	for _, option := range options {
		option(store)
	}
	return store, nil
}

func buildConnectionString(path string) string {
	return "file:" + path + "?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000"
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertMany replaces documents whose id already exists and inserts the rest
func (s *Store) UpsertMany(ctx context.Context, collection string, docs []domain.Document) error {
	return s.ApplyBatch(ctx, collection, domain.Batch{Upserts: docs})
}

// DeleteWhereIDIn removes every document whose id is listed
func (s *Store) DeleteWhereIDIn(ctx context.Context, collection string, ids []string) error {
	return s.ApplyBatch(ctx, collection, domain.Batch{Removals: ids})
}

// ApplyBatch runs the upserts and then the removals in one transaction
func (s *Store) ApplyBatch(ctx context.Context, collection string, batch domain.Batch) error {
	if err := batch.Validate(); err != nil {
		return err
	}
	if batch.Empty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for start := 0; start < len(batch.Upserts); start += batchSize {
		end := min(start+batchSize, len(batch.Upserts))
		if err := s.upsert(ctx, tx, collection, batch.Upserts[start:end]); err != nil {
			return err
		}
	}
	for start := 0; start < len(batch.Removals); start += batchSize {
		end := min(start+batchSize, len(batch.Removals))
		query, args, err := s.builder.buildDelete(squirrel.Eq{
			"collection": collection,
			"id":         batch.Removals[start:end],
		})
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to delete documents: %w", mapError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapError(err))
	}
	s.logger.Debugf("Applied batch to '%s': %d upserts, %d removals", collection, len(batch.Upserts), len(batch.Removals))
	return nil
}

func (s *Store) upsert(ctx context.Context, tx *sql.Tx, collection string, docs []domain.Document) error {
	ids := make([]string, len(docs))
	data := make([][]byte, len(docs))
	for i, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("%w: failed to marshal document %s: %v", domain.ErrInvalidDocument, doc.ID(), err)
		}
		ids[i] = doc.ID()
		data[i] = raw
	}
	query, args, err := s.builder.buildUpsert(collection, ids, data)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert documents: %w", mapError(err))
	}
	return nil
}

// FindByID retrieves a specific document by its ID
func (s *Store) FindByID(ctx context.Context, collection, id string) (domain.Document, error) {
	query, args, err := s.builder.sq.Select("data").From("documents").
		Where(squirrel.Eq{"collection": collection, "id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var raw string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %s in collection %s", domain.ErrNotFound, id, collection)
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return decode(raw)
}

// FindOneWhere returns the first document in id order that matches filter
func (s *Store) FindOneWhere(ctx context.Context, collection string, filter domain.Filter) (domain.Document, error) {
	where, err := buildWhere(collection, &filter)
	if err != nil {
		return nil, err
	}
	docs, err := s.selectDocuments(ctx, where, []string{"id ASC"}, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no match for %s %s %v in collection %s",
			domain.ErrNotFound, filter.Field, filter.Operator, filter.Value, collection)
	}
	return docs[0], nil
}

// FindPage returns one sorted page of the documents matching the query
// filter, plus the number of matching documents ignoring the page.
func (s *Store) FindPage(ctx context.Context, collection string, q domain.PageQuery) ([]domain.Document, int64, error) {
	if err := q.Page.Validate(); err != nil {
		return nil, 0, err
	}
	where, err := buildWhere(collection, q.Filter)
	if err != nil {
		return nil, 0, err
	}
	order, err := orderBy(q.Sort)
	if err != nil {
		return nil, 0, err
	}

	countQuery, countArgs, err := s.builder.buildSelectCount(where)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	docs, err := s.selectDocuments(ctx, where, order, uint64(q.Page.Rows), uint64(q.Page.Offset))
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (s *Store) selectDocuments(ctx context.Context, where squirrel.Sqlizer, order []string, limit, offset uint64) ([]domain.Document, error) {
	query, args, err := s.builder.buildSelect(where, order, limit, offset)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc, err := decode(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// EnsureIndex creates an expression index on a field unless one exists.
// Requests for the id field or an empty field are ignored.
func (s *Store) EnsureIndex(ctx context.Context, collection, field string, unique bool) error {
	if field == "" || field == domain.IDField {
		return nil
	}
	stmt, err := buildCreateIndex(collection, field, unique)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := s.builder.sq.Select("COUNT(*)").From("indexes").
		Where(squirrel.Eq{"collection": collection, "field": field}).ToSql()
	if err != nil {
		return err
	}
	var existing int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&existing); err != nil {
		return fmt.Errorf("failed to look up index: %w", err)
	}
	if existing > 0 {
		return nil
	}

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create index on %s.%s: %w", collection, field, mapError(err))
	}
	query, args, err = s.builder.sq.Insert("indexes").Columns("collection", "field", "uniq").
		Values(collection, field, unique).ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record index: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.logger.Debugf("Created index on '%s.%s' (unique=%t)", collection, field, unique)
	return nil
}

// Indexes returns field -> unique for every index of a collection
func (s *Store) Indexes(ctx context.Context, collection string) (map[string]bool, error) {
	query, args, err := s.builder.sq.Select("field", "uniq").From("indexes").
		Where(squirrel.Eq{"collection": collection}).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}
	defer rows.Close()

	defs := make(map[string]bool)
	for rows.Next() {
		var (
			field  string
			unique bool
		)
		if err := rows.Scan(&field, &unique); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		defs[field] = unique
	}
	return defs, rows.Err()
}

// DropCollection removes the documents and indexes of a collection
func (s *Store) DropCollection(ctx context.Context, collection string) error {
	defs, err := s.Indexes(ctx, collection)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for field := range defs {
		if _, err := tx.ExecContext(ctx, "DROP INDEX IF EXISTS "+indexName(collection, field)); err != nil {
			return fmt.Errorf("failed to drop index on %s.%s: %w", collection, field, err)
		}
	}
	for _, table := range []string{"documents", "indexes"} {
		query, args, err := s.builder.sq.Delete(table).Where(squirrel.Eq{"collection": collection}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to drop collection %s: %w", collection, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.logger.Debugf("Dropped collection '%s'", collection)
	return nil
}

func decode(raw string) (domain.Document, error) {
	var doc domain.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}

// mapError surfaces unique constraint failures as domain.ErrUniqueViolation
func mapError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %v", domain.ErrUniqueViolation, err)
	}
	return err
}

// Opener opens a Store per session; the location is the database file path
type Opener struct {
	options []Option
}

// NewOpener creates an Opener that applies options to every Store it opens
func NewOpener(options ...Option) *Opener {
	return &Opener{options: options}
}

// Open implements domain.Opener
func (o *Opener) Open(ctx context.Context, location string) (domain.Session, error) {
	return Open(ctx, location, o.options...)
}
