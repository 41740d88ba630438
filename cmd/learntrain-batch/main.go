// Command learntrain-batch runs the Bonanza-style batch learning
// regime (section 4.8): generate a training set from a corpus
// of .csa games, then repeatedly re-derive gradients from that set and
// apply weight/material updates on a decaying per-iteration budget.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"golang.org/x/exp/rand"

	"github.com/sunfish-shogi/learntrain/config"
	"github.com/sunfish-shogi/learntrain/eval"
	"github.com/sunfish-shogi/learntrain/example"
	"github.com/sunfish-shogi/learntrain/fv"
	"github.com/sunfish-shogi/learntrain/internal/csa"
	"github.com/sunfish-shogi/learntrain/internal/log"
	"github.com/sunfish-shogi/learntrain/iterate"
	"github.com/sunfish-shogi/learntrain/material"
	"github.com/sunfish-shogi/learntrain/search"
	"github.com/sunfish-shogi/learntrain/update"
)

func main() {
	logger := log.New(nil)
	cfg, err := config.ParseBatch(flag.CommandLine, os.Args[1:])
	if err != nil {
		logger.Error("parsing flags: %v", err)
		os.Exit(2)
	}
	if cfg.Kifu == "" {
		fmt.Fprintln(os.Stderr, "usage: learntrain-batch -kifu <dir> [-weights f] [-material f] [-threads n] [-depth n] [-iteration n]")
		os.Exit(2)
	}

	weights, err := loadOrInitWeights(cfg.WeightsPath)
	if err != nil {
		logger.Error("loading weights: %v", err)
		os.Exit(1)
	}
	mtable, err := loadOrInitMaterial(cfg.MaterialPath)
	if err != nil {
		logger.Error("loading material: %v", err)
		os.Exit(1)
	}

	evaluator := eval.NewDefault(weights, mtable)
	searchers := make([]search.Searcher, cfg.Threads)
	for i := range searchers {
		searchers[i] = search.NewAlphaBeta(evaluator, search.Config{MaxDepth: cfg.Depth, Learning: true})
	}

	var gradWeights fv.FV[float32]
	var materialGrad [material.NumKinds]float64

	driver := &iterate.BatchDriver{
		Kifu:            cfg.Kifu,
		Threads:         cfg.Threads,
		Depth:           cfg.Depth,
		IterationCount:  cfg.Iteration,
		TrainingSetPath: cfg.WeightsPath + ".trainset",
		WeightsPath:     cfg.WeightsPath,
		MaterialPath:    cfg.MaterialPath,
		GameReader:      csa.ReadGame,
		Weights:         weights,
		GradWeights:     &gradWeights,
		Material:        mtable,
		Evaluator:       evaluator,
		Searchers:       searchers,
		Generator:       &example.Generator{Searchers: searchers, Stats: &example.Stats{}},
		BatchUpdater:    &update.BatchUpdater{Rand: rand.New(rand.NewSource(1)), ClearTranspositionTables: true},
		MaterialUpdater: &update.MaterialUpdater{Rand: rand.New(rand.NewSource(2))},
		MaterialGrad:    &materialGrad,
		Logger:          logger,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := driver.Run(ctx); err != nil {
		logger.Error("iteration failed: %v", err)
		os.Exit(1)
	}
	if driver.SkippedGames > 0 {
		logger.Warning("skipped %d unreadable games", driver.SkippedGames)
	}
}

func loadOrInitWeights(path string) (*fv.FV[int16], error) {
	if _, err := os.Stat(path); err == nil {
		return fv.Load[int16](path)
	}
	w := &fv.FV[int16]{}
	w.Init()
	return w, nil
}

func loadOrInitMaterial(path string) (*material.Table, error) {
	if _, err := os.Stat(path); err == nil {
		return material.Load(path)
	}
	return material.NewDefault(), nil
}
