// Package workflow runs CKAN exploration pipelines as small step graphs.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
)

// End is the terminal node of every graph.
const End = "end"

// DefaultMaxSteps bounds a run when the runner is built with zero.
const DefaultMaxSteps = 32

// StepFunc advances a run. Steps must return the state unchanged once
// State.Error is set.
type StepFunc func(ctx context.Context, s State) State

// RouteFunc names the step that follows, or End.
type RouteFunc func(s State) string

// Graph is a workflow definition. After a node runs, its route decides the
// next node when one is set; otherwise its edge does.
type Graph struct {
	Name   string
	Start  string
	Nodes  map[string]StepFunc
	Edges  map[string]string
	Routes map[string]RouteFunc
}

// Validate checks that every edge points at a known node and that every node
// can leave.
func (g Graph) Validate() error {
	if _, ok := g.Nodes[g.Start]; !ok {
		return fmt.Errorf("%w: start %q", ErrUnknownNode, g.Start)
	}
	for from, to := range g.Edges {
		if _, ok := g.Nodes[from]; !ok {
			return fmt.Errorf("%w: edge from %q", ErrUnknownNode, from)
		}
		if _, ok := g.Nodes[to]; !ok && to != End {
			return fmt.Errorf("%w: edge to %q", ErrUnknownNode, to)
		}
	}
	for name := range g.Nodes {
		_, hasEdge := g.Edges[name]
		_, hasRoute := g.Routes[name]
		if !hasEdge && !hasRoute {
			return fmt.Errorf("%w: %q", ErrDeadEnd, name)
		}
	}
	return nil
}

func (g Graph) next(current string, s State) (string, error) {
	var target string
	if route, ok := g.Routes[current]; ok {
		target = route(s)
	} else if edge, ok := g.Edges[current]; ok {
		target = edge
	} else {
		return "", fmt.Errorf("%w: %q", ErrDeadEnd, current)
	}
	if _, ok := g.Nodes[target]; !ok && target != End {
		return "", fmt.Errorf("%w: %q routed to %q", ErrUnknownNode, current, target)
	}
	return target, nil
}

// Runner executes graphs one step at a time.
type Runner struct {
	maxSteps int
	logger   *slog.Logger
}

// NewRunner creates a runner that stops after maxSteps steps.
func NewRunner(maxSteps int, logger *slog.Logger) *Runner {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{maxSteps: maxSteps, logger: logger}
}

// Run executes g from its start node until End. The returned error reports a
// broken graph; failures of the run itself are recorded in State.Error.
func (r *Runner) Run(ctx context.Context, g Graph, s State) (State, error) {
	if err := g.Validate(); err != nil {
		return s, err
	}
	logger := r.logger.With("workflow", g.Name, "run_id", s.RunID)

	current := g.Start
	for steps := 0; current != End; steps++ {
		if steps >= r.maxSteps {
			return s, fmt.Errorf("%w: %d", ErrStepLimit, r.maxSteps)
		}
		logger.Debug("step started", "step", current)
		s = g.Nodes[current](ctx, s).withStep(current)

		next, err := g.next(current, s)
		if err != nil {
			return s, err
		}
		logger.Debug("step finished", "step", current, "next", next, "failed", s.Failed())
		current = next
	}

	if s.Failed() {
		logger.Warn("workflow failed", "error", s.Error)
	} else {
		logger.Info("workflow finished", "steps", len(s.Steps))
	}
	return s, nil
}
