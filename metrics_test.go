package natmap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	m.Dropped("MAP_STREET", "ferry", 3)
	m.Dropped("MAP_STREET", "ferry", 0)
	m.Dropped("MAP_STREET", "ferry", -1)
	m.Written("MAP_TURN", 10)
	m.Written("MAP_TURN", 5)
	m.StateFailed()
	m.References("MAP_TURN", ResolveStats{Resolved: 4, Unresolved: 1})
	m.StageDone("merge", 1500*time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.droppedTotal.WithLabelValues("MAP_STREET", "ferry")))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.writtenTotal.WithLabelValues("MAP_TURN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failedStates))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.resolvedTotal.WithLabelValues("MAP_TURN", "resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolvedTotal.WithLabelValues("MAP_TURN", "unresolved")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.stageDuration))

	fname := filepath.Join(t.TempDir(), "natmap.prom")
	require.NoError(t, m.WriteTextfile(fname))
	raw, err := os.ReadFile(fname)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `natmap_records_dropped_total{dataset="MAP_STREET",reason="ferry"} 3`)
	assert.Contains(t, string(raw), "natmap_failed_states_total 1")
}
