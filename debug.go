package toxicity

import (
	"log/slog"
	"time"
)

// frameStats holds per-frame counters. Only populated in debug mode.
type frameStats struct {
	frame     uint64
	commands  int
	events    int
	released  int
	intervals int
	nodes     int
	took      time.Duration
}

// debugLog writes the frame's stats at debug level.
func (w *Window) debugLog(s frameStats) {
	w.logger.Debug("frame stepped",
		"frame", s.frame,
		"took", s.took,
		"nodes", s.nodes,
		"commands", s.commands,
		"events", s.events,
		"released", s.released,
		"intervals", s.intervals,
	)
}

// debugMaxTreeDepth is the depth past which a reparent logs a warning.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(logger *slog.Logger, n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent() {
		depth++
	}
	if depth > debugMaxTreeDepth {
		logger.Warn("tree depth exceeds threshold",
			"node", n.Name, "depth", depth, "threshold", debugMaxTreeDepth)
	}
}

// debugMaxChildCount is the child count past which a reparent logs a warning.
const debugMaxChildCount = 1000

func debugCheckChildCount(logger *slog.Logger, n *Node) {
	if n == nil {
		return
	}
	if c := n.NumChildren(); c > debugMaxChildCount {
		logger.Warn("child count exceeds threshold",
			"node", n.Name, "children", c, "threshold", debugMaxChildCount)
	}
}

// countNodes returns the size of the tree rooted at root.
func countNodes(root *Node) int {
	count := 0
	walk(root, func(*Node) bool {
		count++
		return true
	})
	return count
}
