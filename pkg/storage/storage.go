package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/adfharrison1/go-docref/pkg/indexing"
)

// CollectionLock provides per-collection concurrency control
type CollectionLock struct {
	mu sync.RWMutex
}

// StorageEngine keeps collections in memory, loads them lazily from the
// data directory and writes a collection back to disk on every change.
// Without a data directory it is memory only.
type StorageEngine struct {
	mu          sync.RWMutex
	cache       *LRUCache
	collections map[string]*CollectionInfo // Collection metadata (always in memory)
	indexEngine *indexing.IndexEngine

	// Per-collection locks for better concurrency
	collectionLocks map[string]*CollectionLock
	locksMu         sync.RWMutex

	// Configuration
	dataDir        string
	maxCollections int
	lockFactory    FileLockFactory
	lockTimeout    time.Duration
	logger         *zap.SugaredLogger

	fileLock  FileLock
	closeOnce sync.Once
	closeErr  error
}

// NewStorageEngine creates a memory-only storage engine
func NewStorageEngine(options ...StorageOption) *StorageEngine {
	engine := &StorageEngine{
		collections:     make(map[string]*CollectionInfo),
		indexEngine:     indexing.NewIndexEngine(),
		collectionLocks: make(map[string]*CollectionLock),
		lockFactory:     &FlockFactory{},
		lockTimeout:     defaultLockTimeout,
		logger:          zap.NewNop().Sugar(),
	}

	// Apply options
	for _, option := range options {
		option(engine)
	}

	capacity := engine.maxCollections
	if engine.dataDir == "" {
		// Nothing to reload from, so nothing may be evicted
		capacity = 0
	}
	engine.cache = NewLRUCache(capacity)
	engine.cache.onEvict = engine.handleEvict

	return engine
}

// Open opens the engine on a data directory. It holds an exclusive file
// lock on the directory until Close.
func Open(ctx context.Context, dataDir string, options ...StorageOption) (*StorageEngine, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}
	engine := NewStorageEngine(append(options, WithDataDir(dataDir))...)

	if err := os.MkdirAll(engine.collectionsDir(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	engine.fileLock = engine.lockFactory.New(filepath.Join(dataDir, lockFileName))
	if err := engine.acquireLock(ctx); err != nil {
		return nil, err
	}

	if err := engine.LoadCollectionMetadata(); err != nil {
		_ = engine.fileLock.Unlock()
		return nil, err
	}

	engine.logger.Debugf("Opened storage engine on %s with %d collections", dataDir, len(engine.collections))
	return engine, nil
}

// Close releases the directory lock. Every committed change is already on
// disk, so there is nothing to flush.
func (se *StorageEngine) Close() error {
	se.closeOnce.Do(func() {
		if se.fileLock != nil {
			se.closeErr = se.fileLock.Unlock()
		}
	})
	return se.closeErr
}

// getOrCreateCollectionLock gets or creates a lock for a collection
func (se *StorageEngine) getOrCreateCollectionLock(collName string) *CollectionLock {
	se.locksMu.RLock()
	if lock, exists := se.collectionLocks[collName]; exists {
		se.locksMu.RUnlock()
		return lock
	}
	se.locksMu.RUnlock()

	// Need to create the lock
	se.locksMu.Lock()
	defer se.locksMu.Unlock()

	// Double-check in case another goroutine created it
	if lock, exists := se.collectionLocks[collName]; exists {
		return lock
	}

	lock := &CollectionLock{}
	se.collectionLocks[collName] = lock
	return lock
}

// withCollectionReadLock executes a function with a read lock on the specified collection
func (se *StorageEngine) withCollectionReadLock(collName string, fn func() error) error {
	lock := se.getOrCreateCollectionLock(collName)
	lock.mu.RLock()
	defer lock.mu.RUnlock()
	return fn()
}

// withCollectionWriteLock executes a function with a write lock on the specified collection
func (se *StorageEngine) withCollectionWriteLock(collName string, fn func() error) error {
	lock := se.getOrCreateCollectionLock(collName)
	lock.mu.Lock()
	defer lock.mu.Unlock()
	return fn()
}

// IsPersistent reports whether the engine writes collections to disk
func (se *StorageEngine) IsPersistent() bool {
	return se.dataDir != ""
}
