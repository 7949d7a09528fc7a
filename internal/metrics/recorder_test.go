package metrics

import (
	"testing"
	"time"
)

type testRecorder struct {
	stageDurations map[string]int
	documents      map[ResultLabel]int
	warnings       map[string]int
	buildDurations int
	lastBuild      time.Time
}

func newTestRecorder() *testRecorder {
	return &testRecorder{stageDurations: map[string]int{}, documents: map[ResultLabel]int{}, warnings: map[string]int{}}
}

func (t *testRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	t.stageDurations[stage]++
}
func (t *testRecorder) ObserveBuildDuration(time.Duration) { t.buildDurations++ }
func (t *testRecorder) IncDocuments(result ResultLabel)    { t.documents[result]++ }
func (t *testRecorder) IncWarnings(category string)        { t.warnings[category]++ }
func (t *testRecorder) SetLastBuild(ts time.Time)          { t.lastBuild = ts }

func TestRecorderInterfaces(t *testing.T) {
	var _ Recorder = NoopRecorder{}
	var _ Recorder = (*PrometheusRecorder)(nil)
	var _ Recorder = newTestRecorder()

	r := newTestRecorder()
	r.ObserveStageDuration("parse", time.Millisecond)
	r.IncDocuments(ResultWritten)
	if r.stageDurations["parse"] != 1 || r.documents[ResultWritten] != 1 {
		t.Fatalf("unexpected counts: %+v", r)
	}
}
