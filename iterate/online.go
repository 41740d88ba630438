package iterate

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/exp/rand"

	"github.com/sunfish-shogi/learntrain/eval"
	"github.com/sunfish-shogi/learntrain/example"
	"github.com/sunfish-shogi/learntrain/fv"
	"github.com/sunfish-shogi/learntrain/internal/log"
	"github.com/sunfish-shogi/learntrain/search"
	"github.com/sunfish-shogi/learntrain/update"
	"github.com/sunfish-shogi/learntrain/workerpool"
)

// onlineJob is one (position, expert move) pair, the online regime's
// unit of work (section 3's Job data model).
type onlineJob struct {
	pos        Position
	progression float64
}

// OnlineDriver runs the averaged-perceptron regime: load every game's
// positions into one shuffled job list, then repeatedly drain
// update.MiniBatchLength-sized mini-batches through the worker pool,
// depositing gradients and publishing averaged weights after each.
type OnlineDriver struct {
	Kifu        string
	Threads     int
	Depth       int
	WeightsPath string

	GameReader GameReader

	Weights   *fv.FV[float32]
	Evaluator eval.Evaluator
	Searchers []search.Searcher
	Generator *example.Generator

	Updater *update.OnlineUpdater
	// Rand shuffles the job list once, single-threaded, before workers
	// start. WorkerRands holds one generator per worker for the
	// concurrent per-job sibling shuffle inside OnlineExample — sharing
	// one *rand.Rand across workers would race, since it carries mutable
	// state with no internal locking.
	Rand        *rand.Rand
	WorkerRands []*rand.Rand
	Logger      *log.Logger

	SkippedGames int
}

// Run loads all jobs, shuffles them, and mini-batches until fewer than
// update.MiniBatchLength jobs remain (section 4.8's online loop).
func (d *OnlineDriver) Run(ctx context.Context) error {
	games, err := filepath.Glob(filepath.Join(d.Kifu, "*.csa"))
	if err != nil {
		return fmt.Errorf("iterate: list games: %w", err)
	}
	if len(games) == 0 {
		return fmt.Errorf("iterate: empty game directory %s", d.Kifu)
	}

	var jobs []onlineJob
	for _, path := range games {
		game, err := d.GameReader(path)
		if err != nil {
			d.Logger.Error("skipping unreadable game %s: %v", path, err)
			d.SkippedGames++
			continue
		}
		for i, pos := range game.Positions {
			progression := 0.0
			if n := len(game.Positions); n > 1 {
				progression = float64(i) / float64(n-1)
			}
			jobs = append(jobs, onlineJob{pos: pos, progression: progression})
		}
	}
	d.Rand.Shuffle(len(jobs), func(i, j int) { jobs[i], jobs[j] = jobs[j], jobs[i] })

	start := time.Now()
	for len(jobs) >= update.MiniBatchLength {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := jobs[:update.MiniBatchLength]
		jobs = jobs[update.MiniBatchLength:]
		if err := d.miniBatch(batch, start); err != nil {
			return err
		}
	}
	return nil
}

func (d *OnlineDriver) miniBatch(batch []onlineJob, start time.Time) error {
	d.Generator.Stats.Reset()

	pool := workerpool.New(d.Threads, func(workerIdx int, job onlineJob) {
		d.Generator.OnlineExample(workerIdx, job.pos.Board, job.pos.Expert, d.Depth, job.progression, d.Weights, d.WorkerRands[workerIdx])
	})
	for _, j := range batch {
		pool.Enqueue(j)
	}
	pool.Wait()
	pool.Shutdown()

	scale := float32(example.NumberOfSiblingNodes) * float32(d.Generator.Stats.ContributingJobs())
	stats := d.Updater.Apply(d.Weights, d.Evaluator, d.Searchers, scale)
	if d.WeightsPath != "" {
		if err := fv.Save(d.WeightsPath, d.Updater.Published); err != nil {
			return fmt.Errorf("iterate: save weights: %w", err)
		}
	}

	avgErr := d.Generator.Stats.AverageError()
	d.Logger.Message("elapsed=%v miniBatch=%d error=%.6f max=%.4f magnitude=%.4f",
		time.Since(start), d.Updater.MiniBatchCount, avgErr, stats.MaxAbs, stats.Magnitude)
	return nil
}
