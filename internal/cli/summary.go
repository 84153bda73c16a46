package cli

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"contentdex/internal/model"
)

const summaryTopTypes = 8

// runSummary accumulates per-run display counters from the result stream.
type runSummary struct {
	mu       sync.Mutex
	byExt    map[string]int
	byErr    map[model.ErrorKind]int
	bytes    int64
	chunks   int
	readDocs int
}

func newRunSummary() *runSummary {
	return &runSummary{
		byExt: make(map[string]int),
		byErr: make(map[model.ErrorKind]int),
	}
}

func (r *runSummary) observe(res model.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ext := res.File.Ext
	if ext == "" {
		ext = "(none)"
	}
	r.byExt[ext]++
	if res.ErrKind != "" {
		r.byErr[res.ErrKind]++
	}
	if res.Response.Status == model.StorageSuccess {
		r.bytes += res.File.Size
	}
}

func (r *runSummary) print(w io.Writer, s styles, stats model.RunStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := stats.EndTime.Sub(stats.StartTime).Round(10 * time.Millisecond)
	rate := 0.0
	if stats.Total > 0 {
		rate = 100 * float64(stats.Completed) / float64(stats.Total)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, s.sectionHeader("Run summary"))
	fmt.Fprintln(w, s.kv("Files", fmt.Sprintf("%d (%d original, %d extracted)",
		stats.Total, stats.OriginalFiles, stats.ExtractedFiles)))
	fmt.Fprintln(w, s.kv("Completed", fmt.Sprintf("%d (%.1f%%)", stats.Completed, rate)))
	fmt.Fprintln(w, s.kv("Failed", fmt.Sprintf("%d", stats.Failed)))
	fmt.Fprintln(w, s.kv("Duplicates", fmt.Sprintf("%d", stats.Duplicates)))
	fmt.Fprintln(w, s.kv("Bytes stored", fmt.Sprintf("%d", r.bytes)))
	fmt.Fprintln(w, s.kv("Elapsed", elapsed.String()))

	if len(r.byExt) > 0 {
		fmt.Fprintln(w, s.separator(40))
		fmt.Fprintln(w, s.sectionHeader("File types"))
		for _, e := range topCounts(r.byExt, summaryTopTypes) {
			fmt.Fprintln(w, s.kv("."+e.key, fmt.Sprintf("%d", e.count)))
		}
	}
	if len(r.byErr) > 0 {
		fmt.Fprintln(w, s.separator(40))
		fmt.Fprintln(w, s.sectionHeader("Failures by kind"))
		kinds := make([]string, 0, len(r.byErr))
		for k := range r.byErr {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintln(w, s.kv(k, fmt.Sprintf("%d", r.byErr[model.ErrorKind(k)])))
		}
	}
}

type extCount struct {
	key   string
	count int
}

// topCounts returns the n largest entries, ties broken by name.
func topCounts(m map[string]int, n int) []extCount {
	out := make([]extCount, 0, len(m))
	for k, v := range m {
		out = append(out, extCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
