package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/adfharrison1/go-docref/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpener_SessionsShareTheEngine(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	opener := NewOpener()
	defer opener.Close()

	session, err := opener.Open(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, session.UpsertMany(ctx, "notes", []domain.Document{{"_id": "n1", "text": "hi"}}))
	require.NoError(t, session.Close())

	second, err := opener.Open(ctx, dir)
	require.NoError(t, err)
	defer second.Close()

	doc, err := second.FindByID(ctx, "notes", "n1")
	require.NoError(t, err)
	assert.Equal(t, "hi", doc["text"])

	assert.Same(t, session.(sharedSession).StorageEngine, second.(sharedSession).StorageEngine)
	_, isBatcher := second.(domain.BatchApplier)
	assert.True(t, isBatcher)
}

func TestOpener_HoldsTheDirectoryUntilClosed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := NewOpener()
	session, err := first.Open(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, session.UpsertMany(ctx, "notes", []domain.Document{{"_id": "n1"}}))
	require.NoError(t, session.Close())

	// Closing a session does not release the lock
	second := NewOpener(WithLockTimeout(100 * time.Millisecond))
	_, err = second.Open(ctx, dir)
	assert.ErrorIs(t, err, domain.ErrLocationLocked)

	require.NoError(t, first.Close())
	session, err = second.Open(ctx, dir)
	require.NoError(t, err)
	defer second.Close()

	_, err = session.FindByID(ctx, "notes", "n1")
	assert.NoError(t, err)
}

func TestOpener_ConcurrentReadsAndCommits(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	opener := NewOpener()
	defer opener.Close()

	session, err := opener.Open(ctx, dir)
	require.NoError(t, err)
	docs := make([]domain.Document, 1000)
	for i := range docs {
		docs[i] = domain.Document{"_id": fmt.Sprintf("doc-%04d", i), "n": i}
	}
	require.NoError(t, session.UpsertMany(ctx, "items", docs))

	var wg sync.WaitGroup
	errs := make(chan error, 60)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := opener.Open(ctx, dir)
			if err != nil {
				errs <- err
				return
			}
			defer s.Close()
			_, err = s.FindByID(ctx, "items", fmt.Sprintf("doc-%04d", i))
			errs <- err
		}(i)
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := opener.Open(ctx, dir)
			if err != nil {
				errs <- err
				return
			}
			defer s.Close()
			errs <- s.UpsertMany(ctx, fmt.Sprintf("log-%d", i), []domain.Document{{"_id": "entry"}})
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestOpener_EvictsBeyondMaxCollections(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	opener := NewOpener(WithMaxCollections(1))
	defer opener.Close()

	session, err := opener.Open(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, session.EnsureIndex(ctx, "first", "kind", false))
	require.NoError(t, session.UpsertMany(ctx, "first", []domain.Document{{"_id": "a", "kind": "x"}}))
	require.NoError(t, session.UpsertMany(ctx, "second", []domain.Document{{"_id": "b"}}))

	engine := session.(sharedSession).StorageEngine
	assert.Equal(t, 1, engine.cache.Len())
	info, ok := engine.CollectionInfo("first")
	require.True(t, ok)
	assert.Equal(t, CollectionStateUnloaded, info.State)
	assert.Empty(t, engine.GetIndexes("first"))

	// The next session reloads the evicted collection and its index
	next, err := opener.Open(ctx, dir)
	require.NoError(t, err)
	doc, err := next.FindOneWhere(ctx, "first", domain.NewFilter("kind", domain.Equals, "x"))
	require.NoError(t, err)
	assert.Equal(t, "a", doc["_id"])
	assert.Equal(t, []string{"kind"}, engine.GetIndexes("first"))

	info, _ = engine.CollectionInfo("second")
	assert.Equal(t, CollectionStateUnloaded, info.State)
}

func TestOpener_CloseAllowsReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	opener := NewOpener()

	session, err := opener.Open(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, session.UpsertMany(ctx, "notes", []domain.Document{{"_id": "n1"}}))
	require.NoError(t, opener.Close())
	require.NoError(t, opener.Close())

	session, err = opener.Open(ctx, dir)
	require.NoError(t, err)
	defer opener.Close()
	_, err = session.FindByID(ctx, "notes", "n1")
	assert.NoError(t, err)
}

func TestSharedOpener(t *testing.T) {
	assert.Same(t, SharedOpener(), SharedOpener())
}

func TestMemoryOpener(t *testing.T) {
	ctx := context.Background()
	opener := NewMemoryOpener()

	session, err := opener.Open(ctx, "alpha")
	require.NoError(t, err)
	require.NoError(t, session.UpsertMany(ctx, "notes", []domain.Document{{"_id": "n1"}}))
	require.NoError(t, session.Close())

	// Closing a session keeps the data for the next one on the same location
	session, err = opener.Open(ctx, "alpha")
	require.NoError(t, err)
	_, err = session.FindByID(ctx, "notes", "n1")
	assert.NoError(t, err)

	other, err := opener.Open(ctx, "beta")
	require.NoError(t, err)
	_, err = other.FindByID(ctx, "notes", "n1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, isBatcher := session.(domain.BatchApplier)
	assert.True(t, isBatcher)
}
