package iterate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/sunfish-shogi/learntrain/eval"
	"github.com/sunfish-shogi/learntrain/example"
	"github.com/sunfish-shogi/learntrain/fv"
	"github.com/sunfish-shogi/learntrain/internal/log"
	"github.com/sunfish-shogi/learntrain/material"
	"github.com/sunfish-shogi/learntrain/search"
	"github.com/sunfish-shogi/learntrain/update"
)

func TestBatchDriverReturnsErrorOnEmptyCorpus(t *testing.T) {
	dir := t.TempDir()

	var w fv.FV[int16]
	ev := eval.NewDefault(&w, material.NewDefault())
	s := search.NewAlphaBeta(ev, search.Config{MaxDepth: 1, Learning: true})

	d := &BatchDriver{
		Kifu:            dir,
		Threads:         1,
		Depth:           1,
		IterationCount:  1,
		TrainingSetPath: filepath.Join(dir, "train.bin"),
		WeightsPath:     filepath.Join(dir, "weights.bin"),
		MaterialPath:    filepath.Join(dir, "material.bin"),
		Weights:         &w,
		GradWeights:     &fv.FV[float32]{},
		Material:        material.NewDefault(),
		Evaluator:       ev,
		Searchers:       []search.Searcher{s},
		Generator:       &example.Generator{Searchers: []search.Searcher{s}, Stats: &example.Stats{}},
		BatchUpdater:    &update.BatchUpdater{Rand: rand.New(rand.NewSource(1)), ClearTranspositionTables: true},
		Logger:          log.New(nil),
	}

	if err := d.Run(context.Background()); err == nil {
		t.Fatal("expected an error for an empty game directory")
	}
}

func TestBatchDriverSkipsUnreadableGameAndCounts(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.csa"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	var w fv.FV[int16]
	ev := eval.NewDefault(&w, material.NewDefault())
	s := search.NewAlphaBeta(ev, search.Config{MaxDepth: 1, Learning: true})

	d := &BatchDriver{
		Kifu:            dir,
		Threads:         1,
		Depth:           1,
		IterationCount:  1,
		TrainingSetPath: filepath.Join(dir, "train.bin"),
		WeightsPath:     filepath.Join(dir, "weights.bin"),
		MaterialPath:    filepath.Join(dir, "material.bin"),
		GameReader: func(path string) (Game, error) {
			return Game{}, errors.New("unreadable game file")
		},
		Weights:      &w,
		GradWeights:  &fv.FV[float32]{},
		Material:     material.NewDefault(),
		Evaluator:    ev,
		Searchers:    []search.Searcher{s},
		Generator:    &example.Generator{Searchers: []search.Searcher{s}, Stats: &example.Stats{}},
		BatchUpdater: &update.BatchUpdater{Rand: rand.New(rand.NewSource(1)), ClearTranspositionTables: true},
		Logger:       log.New(nil),
	}

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if d.SkippedGames != 1 {
		t.Fatalf("SkippedGames = %d, want 1", d.SkippedGames)
	}
}

// TestOnlineDriverEmptyCorpusFails exercises the same setup-error path
// as the batch driver for the online regime.
func TestOnlineDriverEmptyCorpusFails(t *testing.T) {
	dir := t.TempDir()

	var w fv.FV[float32]
	var e fv.FV[int16]
	ev := eval.NewDefault(&e, material.NewDefault())
	s := search.NewAlphaBeta(ev, search.Config{MaxDepth: 1, Learning: true})

	d := &OnlineDriver{
		Kifu:      dir,
		Threads:   1,
		Depth:     1,
		Weights:   &w,
		Evaluator: ev,
		Searchers: []search.Searcher{s},
		Generator: &example.Generator{Searchers: []search.Searcher{s}, Stats: &example.Stats{}},
		Updater: &update.OnlineUpdater{
			W: &w, U: &fv.FV[float32]{}, E: &e, Published: &fv.FV[int16]{},
		},
		Rand:   rand.New(rand.NewSource(1)),
		Logger: log.New(nil),
	}

	if err := d.Run(context.Background()); err == nil {
		t.Fatal("expected an error for an empty game directory")
	}
}
