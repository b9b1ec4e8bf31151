package promstats

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecprep"
)

var _ vecprep.MetricsCollector = (*Collector)(nil)

func TestCollector_WriteTextfile(t *testing.T) {
	c := New()

	c.RecordLoad("cifar10", 60000, 2*time.Second, nil)
	c.RecordGroundTruth(10000, 100, time.Minute, nil)
	c.RecordWrite(4096, time.Millisecond, nil)
	c.RecordSplit(0, time.Millisecond, errors.New("boom"))
	c.RecordPublish(5, time.Second, nil)

	path := filepath.Join(t.TempDir(), "vecprep.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, `vecprep_rows_total{operation="load"} 60000`)
	assert.Contains(t, text, `vecprep_rows_total{operation="groundtruth"} 10000`)
	assert.Contains(t, text, `vecprep_written_bytes_total 4096`)
	assert.Contains(t, text, `vecprep_published_files_total 5`)
	assert.Contains(t, text, `vecprep_operations_total{operation="split",status="error"} 1`)
	assert.Contains(t, text, `vecprep_operation_duration_seconds_count{operation="groundtruth"} 1`)
	assert.NotContains(t, text, `vecprep_rows_total{operation="split"}`)
	assert.NotContains(t, text, `last_success_timestamp_seconds{operation="split"}`)
}

func TestCollector_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordWrite(1, 0, nil)

	fa, err := a.Registry().Gather()
	require.NoError(t, err)
	fb, err := b.Registry().Gather()
	require.NoError(t, err)

	assert.NotEmpty(t, fa)
	assert.Less(t, len(fb), len(fa))
}
