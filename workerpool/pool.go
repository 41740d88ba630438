// Package workerpool implements the job queue and 1ms-polled worker
// threads section 4.5 describes: N workers dequeuing under one mutex, an
// atomic in-flight counter, a single shutdown flag, and a progress bar
// refreshed under the same lock as dequeue. The queue has no capacity
// limit: Enqueue never blocks, and the queue grows with every job added.
//
// Generic over the job type so both batch (one job per game file) and
// online (one job per (board, expert move) pair) share this
// implementation, per section 3's Job data model.
package workerpool

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Pool runs jobs of type J across a fixed number of workers. It is not
// restartable: create a new Pool per run.
type Pool[J any] struct {
	handle func(workerIdx int, job J)

	mu        sync.Mutex
	queue     []J
	total     int
	completed int

	activeCount int32
	shutdown    int32

	progress func(completed, total int)

	wg sync.WaitGroup
}

// New starts nt workers, each calling handle(workerIdx, job) for every
// dequeued job. Workers poll the queue on a 1ms tick, matching the
// reference design's "no condition variables" simplicity (design
// section 5).
func New[J any](nt int, handle func(workerIdx int, job J)) *Pool[J] {
	p := &Pool[J]{handle: handle}
	p.wg.Add(nt)
	for i := 0; i < nt; i++ {
		go p.worker(i)
	}
	return p
}

// SetProgress installs a callback invoked under the pool's lock after
// each completed job, with the running completed/total counts. Pass
// nil to disable progress reporting.
func (p *Pool[J]) SetProgress(progress func(completed, total int)) {
	p.mu.Lock()
	p.progress = progress
	p.mu.Unlock()
}

// Enqueue adds job to the queue. Safe to call from any goroutine before
// Shutdown.
func (p *Pool[J]) Enqueue(job J) {
	p.mu.Lock()
	p.queue = append(p.queue, job)
	p.total++
	p.mu.Unlock()
}

func (p *Pool[J]) worker(idx int) {
	defer p.wg.Done()
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for {
		if atomic.LoadInt32(&p.shutdown) != 0 {
			return
		}
		job, ok := p.dequeue()
		if !ok {
			<-ticker.C
			continue
		}
		p.handle(idx, job)
		p.finish()
	}
}

func (p *Pool[J]) dequeue() (job J, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return job, false
	}
	job, p.queue = p.queue[0], p.queue[1:]
	atomic.AddInt32(&p.activeCount, 1)
	return job, true
}

func (p *Pool[J]) finish() {
	atomic.AddInt32(&p.activeCount, -1)
	p.mu.Lock()
	p.completed++
	if p.progress != nil {
		p.progress(p.completed, p.total)
	}
	p.mu.Unlock()
}

// Wait blocks until the queue is empty and no job is in flight
// (section 4.5's waitForWorkers).
func (p *Pool[J]) Wait() {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		p.mu.Lock()
		empty := len(p.queue) == 0
		p.mu.Unlock()
		if empty && atomic.LoadInt32(&p.activeCount) == 0 {
			return
		}
		<-ticker.C
	}
}

// Shutdown sets the shutdown flag and joins every worker. Callers must
// call Wait first if they need to be sure the queue drained before
// workers exit; Shutdown itself does not drain the queue.
func (p *Pool[J]) Shutdown() {
	atomic.StoreInt32(&p.shutdown, 1)
	p.wg.Wait()
}

// ProgressBar renders a 50-character completion bar with a percentage
// suffix, the exact shape section 4.5 and the original's
// updateProgress() paint.
func ProgressBar(completed, total int) string {
	const width = 50
	if total == 0 {
		return fmt.Sprintf("[%s] 100%%", strings.Repeat("=", width))
	}
	filled := completed * width / total
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", width-filled)
	pct := completed * 100 / total
	return fmt.Sprintf("[%s] %3d%%", bar, pct)
}
