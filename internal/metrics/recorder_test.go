package metrics

import (
	"testing"
	"time"
)

var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("prepare_output", time.Millisecond)
	r.ObserveBuildDuration(time.Second)
	r.IncStageResult("prepare_output", ResultFatal)
	r.IncBuildOutcome("failed")
	r.ObserveConversionDuration("intro", time.Second, false)
	r.SetNotebooksDiscovered(0)
}
