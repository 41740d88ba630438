// Command learntrain-online runs the averaged-perceptron online
// learning regime (section 4.8): stream (board, expert move)
// jobs from a corpus of .csa games through a worker pool, applying a
// mini-batch update after every update.MiniBatchLength jobs and
// publishing averaged weights to disk.
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
	cfg, err := config.ParseOnline(flag.CommandLine, os.Args[1:])
	if err != nil {
		logger.Error("parsing flags: %v", err)
		os.Exit(2)
	}
	if cfg.Kifu == "" {
		fmt.Fprintln(os.Stderr, "usage: learntrain-online -kifu <dir> [-weights f] [-threads n] [-depth n]")
		os.Exit(2)
	}

	live, err := loadOrInitLiveWeights(cfg.WeightsPath)
	if err != nil {
		logger.Error("loading weights: %v", err)
		os.Exit(1)
	}

	evaluator := eval.NewDefault(live, material.NewDefault())
	searchers := make([]search.Searcher, cfg.Threads)
	workerRands := make([]*rand.Rand, cfg.Threads)
	for i := range searchers {
		searchers[i] = search.NewAlphaBeta(evaluator, search.Config{MaxDepth: cfg.Depth, Learning: true})
		workerRands[i] = rand.New(rand.NewSource(1 + uint64(i)))
	}

	var grad, w, u fv.FV[float32]
	var published fv.FV[int16]

	driver := &iterate.OnlineDriver{
		Kifu:        cfg.Kifu,
		Threads:     cfg.Threads,
		Depth:       cfg.Depth,
		WeightsPath: cfg.WeightsPath,
		GameReader:  csa.ReadGame,
		Weights:     &grad,
		Evaluator:   evaluator,
		Searchers:   searchers,
		Generator:   &example.Generator{Searchers: searchers, Stats: &example.Stats{}},
		Updater: &update.OnlineUpdater{
			W:         &w,
			U:         &u,
			E:         live,
			Published: &published,
		},
		Rand:        rand.New(rand.NewSource(0)),
		WorkerRands: workerRands,
		Logger:      logger,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := driver.Run(ctx); err != nil {
		logger.Error("online run failed: %v", err)
		os.Exit(1)
	}
	if driver.SkippedGames > 0 {
		logger.Warning("skipped %d unreadable games", driver.SkippedGames)
	}
}

func loadOrInitLiveWeights(path string) (*fv.FV[int16], error) {
	if _, err := os.Stat(path); err == nil {
		return fv.Load[int16](path)
	}
	w := &fv.FV[int16]{}
	w.Init()
	return w, nil
}
