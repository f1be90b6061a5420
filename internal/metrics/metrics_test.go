//go:build unit

package metrics

import (
	"database/sql"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveContentWrite(t *testing.T) {
	initial := testutil.ToFloat64(ContentWrites.WithLabelValues("post", "create"))

	ObserveContentWrite("post", "create")

	after := testutil.ToFloat64(ContentWrites.WithLabelValues("post", "create"))
	assert.Equal(t, initial+1, after, "ContentWrites should increment by 1")
}

type fakeStats struct{ stats sql.DBStats }

func (f fakeStats) Stats() sql.DBStats { return f.stats }

func TestPoolStatsCollector(t *testing.T) {
	c := NewPoolStatsCollector(fakeStats{sql.DBStats{OpenConnections: 3, Idle: 1, InUse: 2}})
	c.Start(time.Hour)
	c.Stop()

	assert.Equal(t, float64(3), testutil.ToFloat64(DBConnections.WithLabelValues("open")))
	assert.Equal(t, float64(1), testutil.ToFloat64(DBConnections.WithLabelValues("idle")))
	assert.Equal(t, float64(2), testutil.ToFloat64(DBConnections.WithLabelValues("in_use")))
}
