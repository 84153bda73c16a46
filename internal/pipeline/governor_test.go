package pipeline

import (
	"testing"

	"contentdex/internal/model"
)

func okResult() model.Result {
	return model.Result{Response: model.StorageResponse{Status: model.StorageSuccess}}
}

func failedResult() model.Result {
	return model.Result{ErrKind: model.KindTimeout}
}

func TestGovernorTripsAtThreshold(t *testing.T) {
	g := NewGovernor()
	for i := 0; i < governorThreshold; i++ {
		g.Observe(failedResult())
		g.Observe(okResult())
	}
	if !g.Tripped() {
		t.Errorf("governor not tripped at %d failures in window of %d", governorThreshold, governorWindow)
	}
}

func TestGovernorBelowThreshold(t *testing.T) {
	g := NewGovernor()
	for i := 0; i < governorThreshold-1; i++ {
		g.Observe(failedResult())
	}
	for i := 0; i < governorWindow-governorThreshold+1; i++ {
		g.Observe(okResult())
	}
	if g.Tripped() {
		t.Error("governor tripped below threshold")
	}
}

func TestGovernorNeedsFullWindow(t *testing.T) {
	g := NewGovernor()
	for i := 0; i < governorThreshold; i++ {
		g.Observe(failedResult())
	}
	if g.Tripped() {
		t.Error("governor tripped before the window filled")
	}
}

func TestGovernorTripIsSticky(t *testing.T) {
	g := NewGovernor()
	for i := 0; i < governorWindow; i++ {
		g.Observe(failedResult())
	}
	if !g.Tripped() {
		t.Fatal("governor should trip on all-failed window")
	}
	for i := 0; i < 2*governorWindow; i++ {
		g.Observe(okResult())
	}
	if !g.Tripped() {
		t.Error("trip flag must stick for the run")
	}
}

func TestGovernorSlidingWindowEvicts(t *testing.T) {
	g := NewGovernor()
	// 49 old failures slide out before the window fills with successes
	for i := 0; i < governorThreshold-1; i++ {
		g.Observe(failedResult())
	}
	for i := 0; i < 2*governorWindow; i++ {
		g.Observe(okResult())
	}
	if g.Tripped() {
		t.Error("evicted failures must not count toward the threshold")
	}
}

func TestGovernorStats(t *testing.T) {
	g := NewGovernor()
	g.Observe(okResult())
	g.Observe(failedResult())
	dup := model.Result{Response: model.StorageResponse{Status: model.StorageDuplicate}}
	g.Observe(dup)
	child := okResult()
	child.Extracted = true
	g.Observe(child)

	stats := g.Finish()
	if stats.Total != 4 || stats.Completed != 3 || stats.Failed != 1 {
		t.Errorf("totals = %+v", stats)
	}
	if stats.Duplicates != 1 {
		t.Errorf("duplicates = %d", stats.Duplicates)
	}
	if stats.ExtractedFiles != 1 || stats.OriginalFiles != 3 {
		t.Errorf("extracted/original = %d/%d", stats.ExtractedFiles, stats.OriginalFiles)
	}
	if stats.EndTime.Before(stats.StartTime) {
		t.Error("end time precedes start time")
	}
}
