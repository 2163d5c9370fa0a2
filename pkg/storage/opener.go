package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

// Opener keeps one file-backed engine per data directory. The first session
// on a location opens the engine and takes the directory lock; later
// sessions share it, so reads and commits on different collections run side
// by side under the engine's collection locks. The lock is held until
// Close.
type Opener struct {
	mu      sync.Mutex
	engines map[string]*StorageEngine
	options []StorageOption
}

// NewOpener creates an Opener that applies options to every engine it opens
func NewOpener(options ...StorageOption) *Opener {
	return &Opener{
		engines: make(map[string]*StorageEngine),
		options: options,
	}
}

var (
	sharedOpener     *Opener
	sharedOpenerOnce sync.Once
)

// SharedOpener returns the process wide Opener. A data directory can only be
// locked once per process, so callers that do not manage their own Opener
// must share this one.
func SharedOpener() *Opener {
	sharedOpenerOnce.Do(func() {
		sharedOpener = NewOpener()
	})
	return sharedOpener
}

// Open implements domain.Opener
func (o *Opener) Open(ctx context.Context, location string) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	engine, ok := o.engines[location]
	if !ok {
		var err error
		engine, err = Open(ctx, location, o.options...)
		if err != nil {
			return nil, err
		}
		o.engines[location] = engine
	}
	return sharedSession{engine}, nil
}

// Close closes every engine the opener holds and releases their directory
// locks. A later Open starts over from disk.
func (o *Opener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var errs []error
	for location, engine := range o.engines {
		if err := engine.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(o.engines, location)
	}
	return errors.Join(errs...)
}

// MemoryOpener hands out memory-only engines, one per location, shared by
// every session on that location for the life of the opener.
type MemoryOpener struct {
	mu      sync.Mutex
	engines map[string]*StorageEngine
	options []StorageOption
}

// NewMemoryOpener creates an empty MemoryOpener
func NewMemoryOpener(options ...StorageOption) *MemoryOpener {
	return &MemoryOpener{
		engines: make(map[string]*StorageEngine),
		options: options,
	}
}

// Open implements domain.Opener
func (o *MemoryOpener) Open(ctx context.Context, location string) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	engine, ok := o.engines[location]
	if !ok {
		engine = NewStorageEngine(o.options...)
		o.engines[location] = engine
	}
	return sharedSession{engine}, nil
}

// sharedSession keeps the shared engine alive when a session is closed
type sharedSession struct {
	*StorageEngine
}

func (sharedSession) Close() error {
	return nil
}
