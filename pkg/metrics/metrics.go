// Package metrics records Prometheus metrics for staging and commits.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "docref"
	subsystem = "collection"

	ResultSuccess = "success"
	ResultError   = "error"

	KindInsert = "insert"
	KindUpdate = "update"
	KindRemove = "remove"

	// DefaultCollectionLimit bounds how many collections get their own label
	DefaultCollectionLimit = 100
	// OtherCollection labels every collection seen after the limit is reached
	OtherCollection = "_other"
)

// Recorder holds one set of collectors. A nil *Recorder records nothing.
type Recorder struct {
	staged         *prometheus.CounterVec
	commits        *prometheus.CounterVec
	commitDuration *prometheus.HistogramVec
	storeOps       *prometheus.CounterVec

	// Collection names come from callers, so the label set is capped
	labelsMu sync.Mutex
	labels   map[string]struct{}
	limit    int
}

// RecorderOption configures a Recorder
type RecorderOption func(*Recorder)

// WithCollectionLimit sets how many distinct collection labels are kept.
// Zero or less means no limit.
func WithCollectionLimit(n int) RecorderOption {
	return func(r *Recorder) {
		r.limit = n
	}
}

var (
	defaultOnce     sync.Once
	defaultRecorder *Recorder
)

// Default returns the recorder registered with the default Prometheus
// registry, which promhttp.Handler serves.
func Default() *Recorder {
	defaultOnce.Do(func() {
		defaultRecorder = NewRecorder(prometheus.DefaultRegisterer)
	})
	return defaultRecorder
}

// NewRecorder registers a fresh set of collectors with reg
func NewRecorder(reg prometheus.Registerer, opts ...RecorderOption) *Recorder {
	factory := promauto.With(reg)
	r := &Recorder{
		labels: make(map[string]struct{}),
		limit:  DefaultCollectionLimit,
		staged: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "staged_changes_total",
				Help:      "Total number of changes staged, by kind",
			},
			[]string{"collection", "kind"},
		),
		commits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "commits_total",
				Help:      "Total number of commits that reached the store, by result",
			},
			[]string{"collection", "result"},
		),
		commitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "commit_duration_seconds",
				Help:      "Time taken to apply a commit to the store",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"collection"},
		),
		storeOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "store_operations_total",
				Help:      "Total number of store operations, by operation and result",
			},
			[]string{"collection", "op", "result"},
		),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// collectionLabel returns collection while fewer than limit distinct
// collections have been seen, and OtherCollection after that
func (r *Recorder) collectionLabel(collection string) string {
	r.labelsMu.Lock()
	defer r.labelsMu.Unlock()
	if _, ok := r.labels[collection]; ok {
		return collection
	}
	if r.limit > 0 && len(r.labels) >= r.limit {
		return OtherCollection
	}
	r.labels[collection] = struct{}{}
	return collection
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// Staged counts n changes of a kind staged on a collection
func (r *Recorder) Staged(collection, kind string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.staged.WithLabelValues(r.collectionLabel(collection), kind).Add(float64(n))
}

// Commit records the outcome and duration of a commit
func (r *Recorder) Commit(collection string, d time.Duration, err error) {
	if r == nil {
		return
	}
	label := r.collectionLabel(collection)
	r.commits.WithLabelValues(label, result(err)).Inc()
	r.commitDuration.WithLabelValues(label).Observe(d.Seconds())
}

// StoreOp records a single store operation
func (r *Recorder) StoreOp(collection, op string, err error) {
	if r == nil {
		return
	}
	r.storeOps.WithLabelValues(r.collectionLabel(collection), op, result(err)).Inc()
}
