package workerpool

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolProcessesAllJobsExactlyOnce(t *testing.T) {
	var completed int32
	p := New(4, func(_ int, job int) {
		atomic.AddInt32(&completed, int32(job))
	})

	const n = 200
	var want int32
	for i := 1; i <= n; i++ {
		p.Enqueue(i)
		want += int32(i)
	}

	p.Wait()
	p.Shutdown()

	if got := atomic.LoadInt32(&completed); got != want {
		t.Fatalf("sum of processed jobs = %d, want %d", got, want)
	}
}

func TestWaitReturnsWhenQueueEmptyAndNoneActive(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	p := New(1, func(_ int, job int) {
		close(started)
		<-release
	})
	p.Enqueue(1)

	<-started
	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned while a job was still active")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-done
	p.Shutdown()
}

func TestProgressBarShape(t *testing.T) {
	bar := ProgressBar(25, 100)
	if len(bar) == 0 {
		t.Fatal("expected a non-empty progress bar")
	}
	full := ProgressBar(100, 100)
	if got := ProgressBar(0, 0); got == "" {
		t.Fatal("progress bar must handle a zero-total pool")
	}
	_ = full
}
