// Package workflow implements a small directed-graph engine over the shared
// trading state. Nodes run strictly sequentially; each returns a partial
// delta that is applied copy-on-write, so a failing node can never leave a
// half-mutated state behind.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agora-quant/agora/internal/models"
)

// END is the terminal pseudo-node every path must reach.
const END = "END"

// NodeFunc executes one stage and returns the changes it wants applied.
// A nil delta is a valid no-op.
type NodeFunc func(ctx context.Context, state *models.TradingState) (*models.StateDelta, error)

// Predicate selects the next node name from the current state.
type Predicate func(state *models.TradingState) string

type edge struct {
	predicate  Predicate
	successors []string // conditional targets, or a single unconditional one
}

// Graph is a mutable builder; Compile freezes it into a Runner.
type Graph struct {
	nodes map[string]NodeFunc
	edges map[string]edge
	entry string
}

func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]NodeFunc),
		edges: make(map[string]edge),
	}
}

func (g *Graph) AddNode(name string, fn NodeFunc) *Graph {
	g.nodes[name] = fn
	return g
}

// AddEdge wires an unconditional transition.
func (g *Graph) AddEdge(from, to string) *Graph {
	g.edges[from] = edge{successors: []string{to}}
	return g
}

// AddConditionalEdge wires a predicate-selected transition. The predicate
// must return one of the listed successors.
func (g *Graph) AddConditionalEdge(from string, p Predicate, successors ...string) *Graph {
	g.edges[from] = edge{predicate: p, successors: successors}
	return g
}

func (g *Graph) SetEntry(name string) *Graph {
	g.entry = name
	return g
}

// Compile validates the graph and returns an immutable Runner. Every node
// must have an out-edge, every edge target must exist, and END must be
// reachable from the entry.
func (g *Graph) Compile(log zerolog.Logger) (*Runner, error) {
	if g.entry == "" {
		return nil, fmt.Errorf("graph has no entry node")
	}
	if _, ok := g.nodes[g.entry]; !ok {
		return nil, fmt.Errorf("entry node %q is not defined", g.entry)
	}
	for name := range g.nodes {
		if _, ok := g.edges[name]; !ok {
			return nil, fmt.Errorf("node %q has no out-edge", name)
		}
	}
	for from, e := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("edge from undefined node %q", from)
		}
		if len(e.successors) == 0 {
			return nil, fmt.Errorf("node %q edge has no successors", from)
		}
		for _, to := range e.successors {
			if to == END {
				continue
			}
			if _, ok := g.nodes[to]; !ok {
				return nil, fmt.Errorf("node %q routes to undefined node %q", from, to)
			}
		}
	}
	if !g.reachesEnd() {
		return nil, fmt.Errorf("END is not reachable from entry %q", g.entry)
	}

	return &Runner{
		nodes: g.nodes,
		edges: g.edges,
		entry: g.entry,
		log:   log.With().Str("component", "workflow").Logger(),
	}, nil
}

func (g *Graph) reachesEnd() bool {
	seen := map[string]bool{}
	stack := []string{g.entry}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if name == END {
			return true
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		stack = append(stack, g.edges[name].successors...)
	}
	return false
}

// maxSteps bounds total node executions so a miswired predicate cannot
// spin forever.
const maxSteps = 256

// Runner executes a compiled graph.
type Runner struct {
	nodes map[string]NodeFunc
	edges map[string]edge
	entry string
	log   zerolog.Logger
}

// Run drives the state from the entry node to END and returns the final
// state. On node failure the returned error is a *WorkflowError carrying
// the last fully applied state; on deadline expiry it is a *TimeoutError.
func (r *Runner) Run(ctx context.Context, state *models.TradingState) (*models.TradingState, error) {
	current := r.entry
	steps := 0

	for current != END {
		steps++
		if steps > maxSteps {
			return state, &WorkflowError{
				Node:     current,
				Snapshot: state,
				Err:      fmt.Errorf("step limit %d exceeded, routing loop suspected", maxSteps),
			}
		}

		if err := ctx.Err(); err != nil {
			return state, &TimeoutError{Stage: current, Snapshot: state, Err: err}
		}

		fn, ok := r.nodes[current]
		if !ok {
			return state, &WorkflowError{Node: current, Snapshot: state, Err: fmt.Errorf("node not defined")}
		}

		r.log.Debug().Str("node", current).Int("step", steps).Msg("running node")
		delta, err := fn(ctx, state)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return state, &TimeoutError{Stage: current, Snapshot: state, Err: err}
			}
			return state, &WorkflowError{Node: current, Snapshot: state, Err: err}
		}

		next := state
		if delta != nil {
			next = delta.Apply(state)
		} else {
			next = state.Clone()
		}
		next.LastStage = current
		state = next

		e := r.edges[current]
		if e.predicate != nil {
			target := e.predicate(state)
			if !contains(e.successors, target) {
				return state, &WorkflowError{
					Node:     current,
					Snapshot: state,
					Err:      fmt.Errorf("predicate chose %q which is not a declared successor", target),
				}
			}
			current = target
		} else {
			current = e.successors[0]
		}
	}

	return state, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
