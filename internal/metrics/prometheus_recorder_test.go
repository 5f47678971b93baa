package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("convert_notebooks", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("convert_notebooks", ResultSuccess)
	pr.IncStageResult("convert_notebooks", ResultWarning)
	pr.IncBuildOutcome("success")
	pr.ObserveConversionDuration("intro", time.Second, true)
	pr.ObserveConversionDuration("intro", time.Second, false)
	pr.SetNotebooksDiscovered(4)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)

	values := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] = m.GetGauge().GetValue()
			}
		}
	}
	assert.InDelta(t, 2, values["nbdocs_stage_results_total"], 0)
	assert.InDelta(t, 2, values["nbdocs_conversion_results_total"], 0)
	assert.InDelta(t, 4, values["nbdocs_notebooks_discovered"], 0)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveStageDuration("x", time.Second)
	pr.IncBuildOutcome("failed")
	pr.ObserveConversionDuration("x", time.Second, true)
}

func TestPrometheusRecorder_WriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncBuildOutcome("warning")

	path := filepath.Join(t.TempDir(), "metrics", "nbdocs.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `nbdocs_build_outcomes_total{outcome="warning"} 1`), string(data))
}
