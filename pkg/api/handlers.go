package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/adfharrison1/go-docref/pkg/collection"
	"github.com/adfharrison1/go-docref/pkg/domain"
	"github.com/adfharrison1/go-docref/pkg/metrics"
)

// Handler provides HTTP handlers for the collection API. Every request works
// on a fresh collection reference over the shared opener, so nothing is
// staged across requests.
type Handler struct {
	opener   domain.Opener
	location string
	logger   *zap.SugaredLogger
	metrics  *metrics.Recorder
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithLogger sets the logger request failures are reported on
func WithLogger(logger *zap.SugaredLogger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics records the metrics of every reference the handler opens on r
func WithMetrics(r *metrics.Recorder) HandlerOption {
	return func(h *Handler) {
		h.metrics = r
	}
}

// NewHandler creates a new API handler serving the store at location
func NewHandler(opener domain.Opener, location string, opts ...HandlerOption) *Handler {
	h := &Handler{
		opener:   opener,
		location: location,
		logger:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) reference(collName string) (*collection.Reference[domain.Document], error) {
	return collection.New[domain.Document](h.location, collName,
		collection.WithOpener(h.opener),
		collection.WithLogger(h.logger),
		collection.WithMetrics(h.metrics))
}

// statusFor maps an error onto the HTTP status reported to the client
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUniqueViolation):
		return http.StatusConflict
	case errors.Is(err, domain.ErrConfiguration),
		errors.Is(err, domain.ErrRange),
		errors.Is(err, domain.ErrInvalidFilter),
		errors.Is(err, domain.ErrInvalidDocument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
