// Package search is the alpha-beta black box the training core drives
// but never tunes: a configuration struct plus an idsearch/search
// operation returning a principal variation and a score (design
// section 1's "out of scope" list). Grounded on CounterGo's
// SearchService, trimmed to what example.Generator needs.
package search

import "github.com/sunfish-shogi/learntrain/shogi"

// Mate is the score magnitude search reports for a forced mate. The
// example generator treats any |score| >= Mate as decisive and skips
// sibling generation (section 4.4 step 3).
const Mate int32 = 30000

// Config controls a Searcher's behavior. Learning, when true, is a
// group toggle: the reference disables all of the normal engine's
// time-management and UCI logging machinery for learning searchers, so
// setting it forces EnableLimit, EnableTimeManagement, Ponder and
// Logging false regardless of their individual values.
type Config struct {
	MaxDepth             int
	EnableLimit          bool
	EnableTimeManagement bool
	Ponder               bool
	Logging              bool
	Learning             bool
}

// Normalize applies the Learning group override in place.
func (c *Config) Normalize() {
	if c.Learning {
		c.EnableLimit = false
		c.EnableTimeManagement = false
		c.Ponder = false
		c.Logging = false
	}
}

// Info is one search result: the principal variation (root move first)
// and its score from the side-to-move's perspective.
type Info struct {
	PV    []shogi.Move
	Score int32
}
