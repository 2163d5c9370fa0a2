package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.Staged("users", KindInsert, 3)
	r.Staged("users", KindInsert, 0)
	r.Staged("users", KindRemove, 1)
	r.Commit("users", 5*time.Millisecond, nil)
	r.Commit("users", time.Millisecond, errors.New("boom"))
	r.StoreOp("users", "get", nil)

	assert.Equal(t, 3.0, testutil.ToFloat64(r.staged.WithLabelValues("users", KindInsert)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.staged.WithLabelValues("users", KindRemove)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.commits.WithLabelValues("users", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.commits.WithLabelValues("users", ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.storeOps.WithLabelValues("users", "get", ResultSuccess)))
	assert.Equal(t, 1, testutil.CollectAndCount(r.commitDuration))
}

func TestRecorder_CollectionLimit(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry(), WithCollectionLimit(2))

	r.Staged("a", KindInsert, 1)
	r.Staged("b", KindInsert, 1)
	r.Staged("c", KindInsert, 1)
	r.Staged("d", KindInsert, 2)
	r.Staged("a", KindInsert, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.staged.WithLabelValues("a", KindInsert)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.staged.WithLabelValues("b", KindInsert)))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.staged.WithLabelValues(OtherCollection, KindInsert)))
	assert.Equal(t, 3, testutil.CollectAndCount(r.staged))

	unlimited := NewRecorder(prometheus.NewRegistry(), WithCollectionLimit(0))
	for i := 0; i < DefaultCollectionLimit+5; i++ {
		unlimited.StoreOp(fmt.Sprintf("c%d", i), "get", nil)
	}
	assert.Equal(t, DefaultCollectionLimit+5, testutil.CollectAndCount(unlimited.storeOps))
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Staged("users", KindInsert, 1)
		r.Commit("users", time.Second, nil)
		r.StoreOp("users", "get", nil)
	})
}

func TestDefault(t *testing.T) {
	assert.Same(t, Default(), Default())
}
