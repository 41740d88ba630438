package iterate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sunfish-shogi/learntrain/eval"
	"github.com/sunfish-shogi/learntrain/example"
	"github.com/sunfish-shogi/learntrain/fv"
	"github.com/sunfish-shogi/learntrain/gradient"
	"github.com/sunfish-shogi/learntrain/internal/log"
	"github.com/sunfish-shogi/learntrain/material"
	"github.com/sunfish-shogi/learntrain/search"
	"github.com/sunfish-shogi/learntrain/shogi"
	"github.com/sunfish-shogi/learntrain/trainset"
	"github.com/sunfish-shogi/learntrain/update"
	"github.com/sunfish-shogi/learntrain/workerpool"
)

// initialUpdateCount and minUpdateCount bound the per-iteration
// gradient-pass budget section 4.8 step 3 decays.
const (
	initialUpdateCount = 256
	minUpdateCount     = 16
)

// BatchDriver runs the Bonanza-style batch regime: generate a training
// set from every game, then repeatedly re-derive gradients from that
// fixed set and apply updates, on a per-iteration budget that halves
// each round down to a floor.
type BatchDriver struct {
	Kifu            string
	Threads         int
	Depth           int
	IterationCount  int
	TrainingSetPath string
	WeightsPath     string
	MaterialPath    string

	GameReader GameReader

	Weights     *fv.FV[int16]
	GradWeights *fv.FV[float32]
	Material    *material.Table
	Evaluator   eval.Evaluator
	Searchers   []search.Searcher
	Generator   *example.Generator

	BatchUpdater    *update.BatchUpdater
	MaterialUpdater *update.MaterialUpdater
	MaterialGrad    *[material.NumKinds]float64

	Logger *log.Logger

	// SkippedGames counts per-game parse errors that were logged and
	// skipped rather than treated as fatal (design's Open
	// Question decision 1).
	SkippedGames int

	updateCount int
}

// Run executes the full batch schedule. It returns an error for setup
// failures (section 7): an empty game directory, or an
// unopenable training/weights file.
func (d *BatchDriver) Run(ctx context.Context) error {
	games, err := filepath.Glob(filepath.Join(d.Kifu, "*.csa"))
	if err != nil {
		return fmt.Errorf("iterate: list games: %w", err)
	}
	if len(games) == 0 {
		d.Logger.Error("no .csa files found in %s", d.Kifu)
		return fmt.Errorf("iterate: empty game directory %s", d.Kifu)
	}

	d.updateCount = initialUpdateCount
	start := time.Now()

	for i := 0; i < d.IterationCount; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.runIteration(ctx, i, games, start); err != nil {
			return err
		}
	}
	return nil
}

func (d *BatchDriver) runIteration(ctx context.Context, i int, games []string, start time.Time) error {
	d.Generator.Stats.Reset()

	trainFile, err := os.Create(d.TrainingSetPath)
	if err != nil {
		return fmt.Errorf("iterate: create training file: %w", err)
	}
	writer := trainset.NewWriter(trainFile)

	pool := workerpool.New(d.Threads, func(workerIdx int, path string) {
		game, err := d.GameReader(path)
		if err != nil {
			d.Logger.Error("skipping unreadable game %s: %v", path, err)
			d.SkippedGames++
			return
		}
		for _, pos := range game.Positions {
			group, ok := d.Generator.BatchExample(workerIdx, pos.Board, pos.Expert, d.Depth)
			if !ok {
				continue
			}
			lines := append([][]shogi.Move{group.ExpertLine}, group.SiblingLines...)
			if err := writer.AppendGroup(group.Root, lines); err != nil {
				d.Logger.Error("writing training group for %s: %v", path, err)
			}
		}
	})
	pool.SetProgress(func(completed, total int) {
		d.Logger.Message("%s", workerpool.ProgressBar(completed, total))
	})
	for _, g := range games {
		pool.Enqueue(g)
	}
	pool.Wait()
	pool.Shutdown()

	if err := trainFile.Close(); err != nil {
		return fmt.Errorf("iterate: close training file: %w", err)
	}

	d.updateCount = max(d.updateCount/2, minUpdateCount)

	for j := 0; j < d.updateCount; j++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.runUpdate(i, j, start); err != nil {
			return err
		}
	}

	if err := d.Material.Save(d.MaterialPath); err != nil {
		return fmt.Errorf("iterate: save material: %w", err)
	}
	if err := fv.Save(d.WeightsPath, d.Weights); err != nil {
		return fmt.Errorf("iterate: save weights: %w", err)
	}
	d.Evaluator.ClearCache()
	return nil
}

func (d *BatchDriver) runUpdate(i, j int, start time.Time) error {
	f, err := os.Open(d.TrainingSetPath)
	if err != nil {
		return fmt.Errorf("iterate: open training file: %w", err)
	}
	defer f.Close()

	d.GradWeights.Init()
	if d.MaterialGrad != nil {
		*d.MaterialGrad = [material.NumKinds]float64{}
	}

	reader := trainset.NewReader(f)
	acc := &gradient.Accumulator{Weights: d.GradWeights}
	result, err := acc.Run(reader, d.Evaluator, gradient.Options{Gain: gradient.Gain, Material: d.MaterialGrad})
	if err != nil {
		return fmt.Errorf("iterate: gradient pass: %w", err)
	}

	stats := d.BatchUpdater.Apply(d.GradWeights, d.Weights, d.Evaluator, d.Searchers)

	if d.MaterialGrad != nil && d.MaterialUpdater != nil {
		d.MaterialUpdater.Apply(*d.MaterialGrad, d.Material)
	}

	totalMoves, outOfWindow := d.Generator.Stats.Snapshot()
	loss := float64(outOfWindow)
	if totalMoves > 0 {
		loss = (loss + result.Loss) / float64(totalMoves)
	}
	d.Logger.Message("elapsed=%v iter=%d update=%d outWindLoss=%d loss=%.6f max=%d magnitude=%d",
		time.Since(start), i, j, outOfWindow, loss, stats.MaxAbs, stats.Magnitude)
	return nil
}

