package di

import apperrors "github.com/kbukum/injector/errors"

// Validate checks the declared dependency graph without constructing
// anything. It reports missing and ambiguous dependencies and cycles as a
// *ValidationError, or returns nil.
//
// Dependencies with requirement One or Any follow the first registration,
// All and AllOrNone follow every registration. Aliases follow their target.
func (c *Container) Validate() error {
	v := &validator{
		registry: c.registry,
		state:    make(map[frame]visitState),
	}
	for _, token := range c.registry.Tokens() {
		for i := range c.registry.Lookup(token) {
			v.visit(frame{token, i})
		}
	}
	if len(v.problems) == 0 {
		return nil
	}
	c.logger().Warn("container validation failed", map[string]interface{}{
		"problems": len(v.problems),
	})
	return &ValidationError{Problems: v.problems}
}

type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

type validator struct {
	registry *Registry
	state    map[frame]visitState
	stack    []frame
	problems []error
}

type edge struct {
	token Token
	req   Requirement
	from  string
}

func (v *validator) visit(f frame) {
	switch v.state[f] {
	case visited:
		return
	case visiting:
		v.reportCycle(f)
		return
	}

	matches := v.registry.Lookup(f.token)
	if f.index >= len(matches) {
		return
	}
	inj := matches[f.index]

	var edges []edge
	switch inj.Kind() {
	case KindClass:
		for _, d := range inj.Class().Dependencies() {
			edges = append(edges, edge{token: d.Token, req: d.Requirement, from: inj.Class().String()})
		}
	case KindAlias:
		edges = append(edges, edge{token: inj.Target(), req: One, from: f.token.String()})
	default:
		v.state[f] = visited
		return
	}

	v.state[f] = visiting
	v.stack = append(v.stack, f)
	for _, e := range edges {
		n := len(v.registry.Lookup(e.token))
		switch {
		case n == 0:
			if !e.req.Optional() {
				v.problems = append(v.problems, apperrors.NotFound(e.token.String(), e.req.String()).
					WithDetail("required_by", e.from))
			}
			continue
		case n > 1 && e.req.exclusive():
			v.problems = append(v.problems, apperrors.AmbiguousMatch(e.token.String(), e.req.String(), n).
				WithDetail("required_by", e.from))
			continue
		}
		if e.req.Multiple() {
			for i := 0; i < n; i++ {
				v.visit(frame{e.token, i})
			}
		} else {
			v.visit(frame{e.token, 0})
		}
	}
	v.stack = v.stack[:len(v.stack)-1]
	v.state[f] = visited
}

func (v *validator) reportCycle(f frame) {
	for i, active := range v.stack {
		if active != f {
			continue
		}
		path := make([]Token, 0, len(v.stack)-i+1)
		for _, p := range v.stack[i:] {
			path = append(path, p.token)
		}
		v.problems = append(v.problems, newCircularError(append(path, f.token)))
		return
	}
}
