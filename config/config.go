// Package config parses the CLI flags common to both learning regimes
// (section 6), grounded on the cmd/texel flag style: each Parse function
// registers its flags as fields of a config struct on a caller-supplied
// flag.FlagSet, parses once, and leaves validation to the caller.
package config

import "flag"

// Batch holds the flags recognized by the batch learning driver.
type Batch struct {
	Kifu         string
	WeightsPath  string
	MaterialPath string
	Threads      int
	Depth        int
	Iteration    int
}

// ParseBatch registers and parses the batch driver's flags against fs
// (pass flag.CommandLine for a real CLI, or a fresh FlagSet in tests).
func ParseBatch(fs *flag.FlagSet, args []string) (*Batch, error) {
	c := &Batch{}
	fs.StringVar(&c.Kifu, "kifu", "", "directory containing .csa game files")
	fs.StringVar(&c.WeightsPath, "weights", "weights.bin", "path to the evaluator weights file")
	fs.StringVar(&c.MaterialPath, "material", "material.bin", "path to the material table file")
	fs.IntVar(&c.Threads, "threads", 1, "worker thread count")
	fs.IntVar(&c.Depth, "depth", 4, "base search depth")
	fs.IntVar(&c.Iteration, "iteration", 1, "outer iteration count")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

// Online holds the flags recognized by the online learning driver.
type Online struct {
	Kifu        string
	WeightsPath string
	Threads     int
	Depth       int
}

// ParseOnline registers and parses the online driver's flags.
func ParseOnline(fs *flag.FlagSet, args []string) (*Online, error) {
	c := &Online{}
	fs.StringVar(&c.Kifu, "kifu", "", "directory containing .csa game files")
	fs.StringVar(&c.WeightsPath, "weights", "weights.bin", "path to the evaluator weights file")
	fs.IntVar(&c.Threads, "threads", 1, "worker thread count")
	fs.IntVar(&c.Depth, "depth", 4, "base search depth")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}
