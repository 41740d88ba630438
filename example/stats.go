package example

import "sync"

// Stats holds the window/out-of-window bookkeeping section 4.4
// requires be counted "under the mutex" — shared by every worker's
// Generator calls within one gradient pass or example-generation run.
type Stats struct {
	mu               sync.Mutex
	totalMoves       int64
	outOfWindLoss    int64
	errorSum         float64
	errorCount       int64
	contributingJobs int64
}

func (s *Stats) recordMove() {
	s.mu.Lock()
	s.totalMoves++
	s.mu.Unlock()
}

func (s *Stats) recordOutOfWindow() {
	s.mu.Lock()
	s.outOfWindLoss++
	s.mu.Unlock()
}

// recordContribution marks one online job as having passed both early-
// return guards (enough legal moves, expert eval inside mate range) and
// so contributed NumberOfSiblingNodes worth of normalization mass to
// the mini-batch, per OnlineLearning.cpp's miniBatchScale_ bookkeeping.
func (s *Stats) recordContribution() {
	s.mu.Lock()
	s.contributingJobs++
	s.mu.Unlock()
}

// ContributingJobs returns the number of online jobs that contributed
// to the current mini-batch since the last Reset.
func (s *Stats) ContributingJobs() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contributingJobs
}

// depositGradient runs write under the same mutex as the other
// bookkeeping in Stats, serializing concurrent online-mode gradient FV
// writes exactly as section 5 requires ("it is serialized by
// the same mutex in the reference design").
func (s *Stats) depositGradient(write func()) {
	s.mu.Lock()
	write()
	s.mu.Unlock()
}

// RecordError accumulates the online regime's windowed error statistic
// (design section 4's errorSum_/errorCount_ supplement), a
// clipped hinge distance logged once per mini-batch.
func (s *Stats) RecordError(e float64) {
	s.mu.Lock()
	s.errorSum += e
	s.errorCount++
	s.mu.Unlock()
}

// Snapshot returns the current totalMoves and outOfWindLoss counters
// without resetting them; Reset clears them, and AverageError reads and
// clears errorSum/errorCount at the online driver's own cadence.
func (s *Stats) Snapshot() (totalMoves, outOfWindLoss int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	totalMoves, outOfWindLoss = s.totalMoves, s.outOfWindLoss
	return
}

// Reset zeroes totalMoves, outOfWindLoss and contributingJobs for the
// next pass.
func (s *Stats) Reset() {
	s.mu.Lock()
	s.totalMoves, s.outOfWindLoss, s.contributingJobs = 0, 0, 0
	s.mu.Unlock()
}

// AverageError returns errorSum/errorCount and resets both, matching
// the original's per-mini-batch log-then-clear cadence.
func (s *Stats) AverageError() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var avg float64
	if s.errorCount > 0 {
		avg = s.errorSum / float64(s.errorCount)
	}
	s.errorSum, s.errorCount = 0, 0
	return avg
}
