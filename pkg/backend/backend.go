// Package backend selects the store implementation a collection reference
// opens its sessions on.
package backend

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/adfharrison1/go-docref/pkg/domain"
	"github.com/adfharrison1/go-docref/pkg/sqlstore"
	"github.com/adfharrison1/go-docref/pkg/storage"
)

const (
	// GoDB is the file engine; the location is a data directory
	GoDB = "godb"
	// SQLite keeps every collection in one database; the location is the file path
	SQLite = "sqlite"
	// Memory keeps collections in process; the location only names the store
	Memory = "memory"
)

// Settings carries the backend independent knobs
type Settings struct {
	MaxCollections int
	Logger         *zap.SugaredLogger
}

type factory func(Settings) domain.Opener

var factories = map[string]factory{
	GoDB: func(s Settings) domain.Opener {
		return storage.NewOpener(storage.WithMaxCollections(s.MaxCollections), storage.WithLogger(s.Logger))
	},
	SQLite: func(s Settings) domain.Opener {
		return sqlstore.NewOpener(sqlstore.WithLogger(s.Logger))
	},
	Memory: func(s Settings) domain.Opener {
		return storage.NewMemoryOpener(storage.WithLogger(s.Logger))
	},
}

// New returns the Opener for a backend name. An empty name selects GoDB.
func New(name string, settings Settings) (domain.Opener, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = GoDB
	}
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", domain.ErrUnknownBackend, name, strings.Join(Names(), ", "))
	}
	return f(settings), nil
}

// Names lists the known backends, sorted
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
