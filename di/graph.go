package di

import (
	"context"
	"time"

	"github.com/kbukum/injector/logger"
)

// Node is one registration in the dependency graph.
type Node struct {
	Token string `json:"token"`
	Index int    `json:"index"`
	Kind  string `json:"kind"`
}

// Edge is a dependency: To needs From to be built first.
type Edge struct {
	From Node `json:"from"`
	To   Node `json:"to"`
}

// Graph is the declared dependency graph. It follows the same edges as
// Validate: One and Any reach the first registration, All and AllOrNone reach
// every registration, aliases reach their target. Missing dependencies have
// no edge.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

type graphIndex struct {
	frames []frame
	nodes  map[frame]Node
	deps   map[frame][]frame
}

func (c *Container) buildGraph() graphIndex {
	g := graphIndex{nodes: make(map[frame]Node), deps: make(map[frame][]frame)}
	for _, token := range c.registry.Tokens() {
		for i, inj := range c.registry.Lookup(token) {
			f := frame{token, i}
			g.frames = append(g.frames, f)
			g.nodes[f] = Node{Token: token.String(), Index: i, Kind: inj.Kind().String()}
			g.deps[f] = c.dependencyFrames(inj)
		}
	}
	return g
}

func (c *Container) dependencyFrames(inj Injectable) []frame {
	var out []frame
	add := func(token Token, req Requirement) {
		n := len(c.registry.Lookup(token))
		if n == 0 {
			return
		}
		if !req.Multiple() {
			n = 1
		}
		for i := 0; i < n; i++ {
			out = append(out, frame{token, i})
		}
	}
	switch inj.Kind() {
	case KindClass:
		for _, d := range inj.Class().Dependencies() {
			add(d.Token, d.Requirement)
		}
	case KindAlias:
		add(inj.Target(), One)
	}
	return out
}

// Graph returns the declared dependency graph without constructing anything.
func (c *Container) Graph() Graph {
	g := c.buildGraph()
	out := Graph{Nodes: make([]Node, 0, len(g.frames)), Edges: []Edge{}}
	for _, f := range g.frames {
		out.Nodes = append(out.Nodes, g.nodes[f])
		for _, d := range g.deps[f] {
			out.Edges = append(out.Edges, Edge{From: g.nodes[d], To: g.nodes[f]})
		}
	}
	return out
}

// Levels groups registrations by construction depth with Kahn's algorithm:
// level 0 has no dependencies, and every node depends only on earlier levels.
// Within a level nodes keep registration order. An invalid graph returns the
// Validate error.
func (c *Container) Levels() ([][]Node, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	g := c.buildGraph()
	levels := kahnLevels(g)

	out := make([][]Node, len(levels))
	for i, level := range levels {
		out[i] = make([]Node, len(level))
		for j, f := range level {
			out[i][j] = g.nodes[f]
		}
	}
	return out, nil
}

// kahnLevels assumes an acyclic graph.
func kahnLevels(g graphIndex) [][]frame {
	inDegree := make(map[frame]int, len(g.frames))
	dependents := make(map[frame][]frame)
	for _, f := range g.frames {
		for _, d := range g.deps[f] {
			inDegree[f]++
			dependents[d] = append(dependents[d], f)
		}
	}

	var levels [][]frame
	done := make(map[frame]bool, len(g.frames))
	for len(done) < len(g.frames) {
		var level []frame
		for _, f := range g.frames {
			if !done[f] && inDegree[f] == 0 {
				level = append(level, f)
			}
		}
		if len(level) == 0 {
			break
		}
		for _, f := range level {
			done[f] = true
			for _, dep := range dependents[f] {
				inDegree[dep]--
			}
		}
		levels = append(levels, level)
	}
	return levels
}

// Warm constructs every singleton class registration level by level, so the
// first Resolve finds them cached. It validates the graph first and stops at
// the first constructor error.
func (c *Container) Warm(ctx context.Context) error {
	if err := c.Validate(); err != nil {
		return err
	}
	start := time.Now()
	g := c.buildGraph()
	built := 0
	for _, level := range kahnLevels(g) {
		for _, f := range level {
			if err := ctx.Err(); err != nil {
				return err
			}
			inj := c.registry.Lookup(f.token)[f.index]
			if inj.Kind() != KindClass || inj.Scope() != Singleton {
				continue
			}
			res := &resolution{ctx: ctx}
			if _, err := c.instantiate(res, f.token, f.index, inj); err != nil {
				return err
			}
			built++
		}
	}
	c.logger().WithContext(ctx).Info("container warmed", logger.Fields(
		"singletons", built,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return nil
}
