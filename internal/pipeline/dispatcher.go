package pipeline

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"contentdex/internal/actionlog"
	"contentdex/internal/config"
	"contentdex/internal/extract"
	"contentdex/internal/model"
)

// task is one unit of scheduled work: a single file, or a batch of small
// text files processed back to back.
type task struct {
	file     model.FileInfo
	batch    []model.FileInfo
	priority int
	seq      int64
}

// taskHeap orders by priority band, then submission order within a band.
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)   { *h = append(*h, x.(*task)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// Dispatcher schedules extraction and storage across two worker pools: an
// I/O pool for cheap formats and a CPU pool for rendering, OCR and
// decompression. Every submitted file produces exactly one Result on the
// Results channel, including timeouts and worker panics.
type Dispatcher struct {
	cfg    *config.Config
	reg    *extract.Registry
	storer *Storer
	log    zerolog.Logger
	alog   *actionlog.Recorder

	sourceID int64
	sideID   int64

	mu         sync.Mutex
	cond       *sync.Cond
	ioQueue    taskHeap
	cpuQueue   taskHeap
	smallBatch []model.FileInfo
	closed     bool
	seq        int64

	pending sync.WaitGroup
	workers *errgroup.Group
	cpuSem  *semaphore.Weighted
	quit    chan struct{}
	results chan model.Result
}

func NewDispatcher(cfg *config.Config, reg *extract.Registry, storer *Storer, sourceID, sideID int64, logger zerolog.Logger, alog *actionlog.Recorder) *Dispatcher {
	d := &Dispatcher{
		cfg:      cfg,
		reg:      reg,
		storer:   storer,
		log:      logger,
		alog:     alog,
		sourceID: sourceID,
		sideID:   sideID,
		workers:  new(errgroup.Group),
		cpuSem:   semaphore.NewWeighted(int64(cfg.CPUWorkers())),
		quit:     make(chan struct{}),
		results:  make(chan model.Result, 256),
	}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// Results yields one entry per submitted file. The channel closes after
// Drain completes.
func (d *Dispatcher) Results() <-chan model.Result { return d.results }

// Start launches the worker pools. Workers run until Drain. Both pools
// run max_workers goroutines; concurrent CPU-bound execution is gated by
// a weighted semaphore sized to the CPU slot count.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.cfg.MaxWorkers; i++ {
		d.workers.Go(func() error {
			d.worker(ctx, &d.ioQueue, nil)
			return nil
		})
	}
	for i := 0; i < d.cfg.MaxWorkers; i++ {
		d.workers.Go(func() error {
			d.worker(ctx, &d.cpuQueue, d.cpuSem)
			return nil
		})
	}
	if d.cfg.Monitoring {
		go d.monitor()
	}
}

// Submit queues one file. Small text files accumulate into batch tasks;
// everything else is scheduled individually by priority.
func (d *Dispatcher) Submit(fi model.FileInfo) {
	d.pending.Add(1)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.pending.Done()
		d.log.Error().Str("file", fi.Name).Msg("submission after drain dropped")
		return
	}

	if Batchable(fi) {
		d.smallBatch = append(d.smallBatch, fi)
		if len(d.smallBatch) >= batchMaxFiles {
			d.enqueueLocked(&task{batch: d.smallBatch, priority: priorityText})
			d.smallBatch = nil
		}
		return
	}
	d.enqueueLocked(&task{file: fi, priority: Priority(fi)})
}

func (d *Dispatcher) enqueueLocked(t *task) {
	d.seq++
	t.seq = d.seq
	target := &d.ioQueue
	if t.batch == nil && NeedsCPUPool(t.file) {
		target = &d.cpuQueue
	}
	heap.Push(target, t)
	d.cond.Broadcast()
}

// Drain flushes the pending small-file batch, waits for all outstanding
// tasks (including recursively submitted children) and closes Results.
func (d *Dispatcher) Drain() {
	d.mu.Lock()
	if len(d.smallBatch) > 0 {
		d.enqueueLocked(&task{batch: d.smallBatch, priority: priorityText})
		d.smallBatch = nil
	}
	d.mu.Unlock()

	d.pending.Wait()

	d.mu.Lock()
	d.closed = true
	d.cond.Broadcast()
	d.mu.Unlock()
	close(d.quit)

	_ = d.workers.Wait()
	close(d.results)
}

func (d *Dispatcher) worker(ctx context.Context, queue *taskHeap, sem *semaphore.Weighted) {
	for {
		d.mu.Lock()
		for queue.Len() == 0 && !d.closed {
			d.cond.Wait()
		}
		if queue.Len() == 0 {
			d.mu.Unlock()
			return
		}
		t := heap.Pop(queue).(*task)
		d.mu.Unlock()

		if sem != nil {
			// gate CPU-heavy work to the configured slot count even
			// though more goroutines serve the queue
			if err := sem.Acquire(context.Background(), 1); err == nil {
				d.runTask(ctx, t)
				sem.Release(1)
				continue
			}
		}
		d.runTask(ctx, t)
	}
}

func (d *Dispatcher) runTask(ctx context.Context, t *task) {
	if t.batch != nil {
		for _, fi := range t.batch {
			d.runOne(ctx, fi)
		}
		return
	}
	d.runOne(ctx, t.file)
}

// monitor periodically logs queue depth while the run is active.
func (d *Dispatcher) monitor() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-d.quit:
			return
		case <-ticker.C:
			d.mu.Lock()
			ioLen, cpuLen := d.ioQueue.Len(), d.cpuQueue.Len()
			d.mu.Unlock()
			d.log.Info().Int("io_queue", ioLen).Int("cpu_queue", cpuLen).Msg("dispatcher queues")
		}
	}
}

// runOne processes a single file under the task timeout and emits its
// Result. The processing goroutine is abandoned on timeout; its late
// result, if any, is discarded through the buffered channel.
func (d *Dispatcher) runOne(ctx context.Context, fi model.FileInfo) {
	defer d.pending.Done()

	start := time.Now()
	tctx, cancel := context.WithTimeout(ctx, d.cfg.TaskTimeout)
	defer cancel()

	done := make(chan model.Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- model.Result{
					File:    fi,
					ErrKind: model.KindInternal,
					Detail:  fmt.Sprintf("worker panic: %v", r),
				}
			}
		}()
		done <- d.process(tctx, fi)
	}()

	var res model.Result
	select {
	case res = <-done:
	case <-tctx.Done():
		kind := model.KindTimeout
		detail := fmt.Sprintf("task exceeded %s", d.cfg.TaskTimeout)
		if ctx.Err() != nil {
			kind = model.KindTransient
			detail = "run canceled"
		}
		res = model.Result{File: fi, ErrKind: kind, Detail: detail}
	}
	res.Elapsed = time.Since(start)
	d.record(res)
	d.results <- res
}

func (d *Dispatcher) process(ctx context.Context, fi model.FileInfo) model.Result {
	if err := ctx.Err(); err != nil {
		return model.Result{
			File:      fi,
			ErrKind:   model.KindTransient,
			Detail:    "run canceled",
			Extracted: fi.Depth > 0,
		}
	}

	if fi.Depth > maxDepth {
		resp := d.storer.Store(ctx, fi, model.ExtractError{
			Kind:   model.KindMaxDepthExceeded,
			Detail: fmt.Sprintf("nested beyond depth %d", maxDepth),
		}, d.sourceID, d.sideID)
		return model.Result{
			File:      fi,
			Response:  resp,
			ErrKind:   model.KindMaxDepthExceeded,
			Detail:    fmt.Sprintf("nested beyond depth %d", maxDepth),
			Extracted: true,
		}
	}

	// containers are routinely mislabeled; trust the magic bytes over
	// the claimed extension
	if corrected := extract.CorrectName(fi.Name, fi.Path); corrected != fi.Name {
		d.log.Debug().Str("from", fi.Name).Str("to", corrected).Msg("extension corrected")
		fi.Name = corrected
		fi.Ext = model.ExtOf(corrected)
	}

	// resolved here rather than inside the storer so the result (and the
	// resume checkpoint) carries the digest
	if fi.Digest == "" {
		fi.Digest = Digest(fi.Path, fi.Size)
	}
	// the queued registration keeps the dedup index complete even when
	// the per-file store call fails; orphan hash rows never count as
	// duplicates
	if model.ValidDigest(fi.Digest) {
		if err := d.storer.batch.AddHash(ctx, fi.Digest); err != nil {
			d.log.Warn().Err(err).Str("file", fi.Name).Msg("digest registration flush failed")
		}
	}

	ex := d.reg.Extract(ctx, fi)
	resp := d.storer.Store(ctx, fi, ex, d.sourceID, d.sideID)

	res := model.Result{
		File:      fi,
		Response:  resp,
		Extracted: fi.Depth > 0,
	}
	if ee, ok := ex.(model.ExtractError); ok {
		res.ErrKind = ee.Kind
		res.Detail = ee.Detail
	}

	// children are submitted only once the container's own path row is
	// durable, so parent_path_id always resolves
	if resp.Status == model.StorageSuccess && resp.PathID > 0 {
		switch v := ex.(type) {
		case model.Archive:
			d.submitChildren(ctx, v.ExtractionDir, resp.PathID, fi.Depth)
		case model.Email:
			if v.AttachmentsDir != "" {
				d.submitChildren(ctx, v.AttachmentsDir, resp.PathID, fi.Depth)
			}
		}
	}
	return res
}

func (d *Dispatcher) record(res model.Result) {
	details := map[string]any{
		"file":    res.File.Name,
		"status":  string(res.Response.Status),
		"path_id": res.Response.PathID,
		"elapsed": res.Elapsed.String(),
	}
	switch {
	case res.ErrKind != "":
		details["error_kind"] = string(res.ErrKind)
		d.alog.Error("file_failed", res.Detail, details)
	case res.Response.Status == model.StorageDuplicate:
		d.alog.Info("file_duplicate", res.Response.Message, details)
	default:
		d.alog.Info("file_stored", "file ingested", details)
	}
}
