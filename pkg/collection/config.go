package collection

import (
	"fmt"
	"strings"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

// Config identifies the collection a Reference works on. It is validated on
// construction and cannot be changed afterwards.
type Config struct {
	location   string
	collection string
}

// NewConfig validates location and collection. Either being empty or blank
// fails with domain.ErrConfiguration.
func NewConfig(location, collection string) (Config, error) {
	if strings.TrimSpace(location) == "" {
		return Config{}, fmt.Errorf("%w: location cannot be empty", domain.ErrConfiguration)
	}
	if strings.TrimSpace(collection) == "" {
		return Config{}, fmt.Errorf("%w: collection name cannot be empty", domain.ErrConfiguration)
	}
	return Config{location: location, collection: collection}, nil
}

// Location is the store location sessions are opened on
func (c Config) Location() string { return c.location }

// Collection is the collection name
func (c Config) Collection() string { return c.collection }
