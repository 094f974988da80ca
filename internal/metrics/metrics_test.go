package metrics

import (
	"testing"
	"time"
)

// TestLifecycle runs the pre-Init and post-Init assertions in one fixed
// sequence, since Init is process-global.
func TestLifecycle(t *testing.T) {
	// Before Init every observer is a no-op and must not panic.
	if snapshotsTotal == nil {
		ObserveSnapshot("persisted")
		ObserveFetchDuration("html", time.Second)
		WorkerStarted()
		WorkerFinished()
	}

	Init()
	Init() // idempotent

	if snapshotsTotal == nil || fetchDurationSeconds == nil || activeWorkers == nil {
		t.Fatal("Init did not build all collectors")
	}

	ObserveSnapshot("persisted")
	ObserveSnapshot("skipped")
	ObserveFetchDuration("pdf", 250*time.Millisecond)
	WorkerStarted()
	WorkerFinished()
}
