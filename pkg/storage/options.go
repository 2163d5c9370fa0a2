package storage

import (
	"time"

	"go.uber.org/zap"
)

type StorageOption func(*StorageEngine)

// WithDataDir sets the directory collections are stored in
func WithDataDir(dir string) StorageOption {
	return func(engine *StorageEngine) {
		engine.dataDir = dir
	}
}

// WithMaxCollections bounds how many collections stay loaded in memory.
// Zero means no bound. Ignored for memory-only engines.
func WithMaxCollections(n int) StorageOption {
	return func(engine *StorageEngine) {
		engine.maxCollections = n
	}
}

// WithLockFactory replaces the flock based directory lock
func WithLockFactory(factory FileLockFactory) StorageOption {
	return func(engine *StorageEngine) {
		engine.lockFactory = factory
	}
}

// WithLockTimeout bounds how long Open waits for the directory lock
func WithLockTimeout(timeout time.Duration) StorageOption {
	return func(engine *StorageEngine) {
		engine.lockTimeout = timeout
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *zap.SugaredLogger) StorageOption {
	return func(engine *StorageEngine) {
		if logger != nil {
			engine.logger = logger
		}
	}
}
