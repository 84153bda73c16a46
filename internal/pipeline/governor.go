package pipeline

import (
	"sync"
	"time"

	"contentdex/internal/model"
)

const (
	governorWindow    = 100
	governorThreshold = 50
)

// Governor watches a sliding window of recent task outcomes and trips when
// failures dominate. It is advisory: the dispatcher keeps draining queued
// work, but the CLI surfaces the trip and callers can stop submitting.
type Governor struct {
	mu      sync.Mutex
	window  [governorWindow]bool
	filled  int
	next    int
	fails   int
	tripped bool
	stats   model.RunStats
}

func NewGovernor() *Governor {
	return &Governor{stats: model.RunStats{StartTime: time.Now()}}
}

// Observe folds one result into the window and the run statistics.
func (g *Governor) Observe(res model.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()

	failed := res.Failed()
	if g.filled == governorWindow {
		if g.window[g.next] {
			g.fails--
		}
	} else {
		g.filled++
	}
	g.window[g.next] = failed
	if failed {
		g.fails++
	}
	g.next = (g.next + 1) % governorWindow
	if g.filled == governorWindow && g.fails >= governorThreshold {
		g.tripped = true
	}

	g.stats.Total++
	if failed {
		g.stats.Failed++
	} else {
		g.stats.Completed++
	}
	if res.Response.Status == model.StorageDuplicate {
		g.stats.Duplicates++
	}
	if res.Extracted {
		g.stats.ExtractedFiles++
	} else {
		g.stats.OriginalFiles++
	}
}

// Tripped reports whether the failure threshold was crossed at any point.
// The flag is sticky for the remainder of the run.
func (g *Governor) Tripped() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tripped
}

// Finish stamps the end time and returns a copy of the run statistics.
func (g *Governor) Finish() model.RunStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stats.EndTime = time.Now()
	return g.stats
}

// Stats returns a snapshot of the counters without closing the run.
func (g *Governor) Stats() model.RunStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}
