package di

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/kbukum/injector/errors"
	"github.com/kbukum/injector/logger"
	"github.com/kbukum/injector/observability"
)

// frame is one registration under construction.
type frame struct {
	token Token
	index int
}

// resolution is the per-call state of one top-level Resolve. It is confined
// to the calling goroutine and discarded when the call returns.
type resolution struct {
	ctx   context.Context
	stack []frame
	wait  waiter
}

func (r *resolution) enter(f frame) error {
	for i, active := range r.stack {
		if active == f {
			path := make([]Token, 0, len(r.stack)-i+1)
			for _, p := range r.stack[i:] {
				path = append(path, p.token)
			}
			return newCircularError(append(path, f.token))
		}
	}
	r.stack = append(r.stack, f)
	return nil
}

func (r *resolution) leave() { r.stack = r.stack[:len(r.stack)-1] }

// crossCycle builds the cycle path for a wait cycle with other goroutines.
// The path starts at the caller's frame for the last key, runs through the
// caller's stack and closes on that key again.
func (r *resolution) crossCycle(keys []cacheKey) *apperrors.AppError {
	closing := keys[len(keys)-1]
	start := 0
	for i, f := range r.stack {
		if f.token == closing.token && f.index == closing.index {
			start = i
			break
		}
	}
	path := make([]Token, 0, len(r.stack)-start+1)
	for _, f := range r.stack[start:] {
		path = append(path, f.token)
	}
	return newCircularError(append(path, closing.token))
}

// chain lists the tokens under construction, outermost first.
func (r *resolution) chain() []string {
	names := make([]string, len(r.stack))
	for i, f := range r.stack {
		names[i] = f.token.String()
	}
	return names
}

// Resolve resolves token under req.
//
// One, Any, OneOrNone and AnyOrNone yield a single value; All and AllOrNone
// yield []any in registration order. Optional requirements report absence as
// (nil, nil). Constructor errors are returned unchanged.
func (c *Container) Resolve(token Token, req Requirement) (any, error) {
	return c.ResolveContext(context.Background(), token, req)
}

// ResolveContext is Resolve with a context used for tracing and logging.
func (c *Container) ResolveContext(ctx context.Context, token Token, req Requirement) (any, error) {
	if token == nil {
		return nil, apperrors.InvalidDeclaration("resolve", "nil token")
	}
	if !req.valid() {
		return nil, apperrors.InvalidDeclaration(token.String(), fmt.Sprintf("unknown requirement %d", int(req)))
	}

	start := time.Now()
	ctx, span := c.tracer.Start(ctx, observability.SpanResolve, trace.WithAttributes(
		attribute.String(observability.AttrToken, token.String()),
		attribute.String(observability.AttrRequirement, req.String()),
	))
	defer span.End()

	res := &resolution{ctx: ctx}
	value, err := c.resolve(res, token, req)

	status := "ok"
	if err != nil {
		status = "error"
		code := "CONSTRUCTOR_ERROR"
		if appErr, ok := apperrors.AsAppError(err); ok {
			code = string(appErr.Code)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(observability.AttrErrorCode, code))
		if c.metrics != nil {
			c.metrics.RecordError(ctx, code)
		}
		c.logger().WithContext(ctx).Debug("resolution failed", logger.Fields(
			logger.FieldToken, token.String(),
			logger.FieldRequirement, req.String(),
			logger.FieldError, err.Error(),
		))
	}
	if c.metrics != nil {
		c.metrics.RecordResolve(ctx, req.String(), status, time.Since(start))
	}
	return value, err
}

// resolve applies the multiplicity rules of req to the registrations of token.
func (c *Container) resolve(res *resolution, token Token, req Requirement) (any, error) {
	matches := c.registry.Lookup(token)
	n := len(matches)

	switch {
	case n == 0:
		switch req {
		case OneOrNone, AnyOrNone:
			return nil, nil
		case AllOrNone:
			return []any{}, nil
		}
		return nil, apperrors.NotFound(token.String(), req.String()).
			WithDetail("chain", res.chain())
	case n > 1 && req.exclusive():
		return nil, apperrors.AmbiguousMatch(token.String(), req.String(), n).
			WithDetail("chain", res.chain())
	}

	if !req.Multiple() {
		return c.instantiate(res, token, 0, matches[0])
	}
	values := make([]any, 0, n)
	for i, inj := range matches {
		v, err := c.instantiate(res, token, i, inj)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// instantiate produces the value of one registration.
func (c *Container) instantiate(res *resolution, token Token, index int, inj Injectable) (any, error) {
	switch inj.Kind() {
	case KindValue:
		return inj.Value(), nil

	case KindAlias:
		if err := res.enter(frame{token, index}); err != nil {
			return nil, err
		}
		defer res.leave()
		return c.resolve(res, inj.Target(), One)

	case KindClass:
		if err := res.enter(frame{token, index}); err != nil {
			return nil, err
		}
		defer res.leave()
		value, _, err := c.cache.getOrCreate(cacheKey{token, index}, inj.Scope(), &res.wait, func() (any, error) {
			return c.construct(res, token, index, inj)
		})
		if wc, ok := err.(*waitCycleError); ok {
			return nil, res.crossCycle(wc.keys)
		}
		return value, err
	}
	return nil, apperrors.InvalidDeclaration(token.String(), fmt.Sprintf("unknown injectable kind %d", int(inj.Kind())))
}

// construct resolves a class's declared parameters in ascending order and
// invokes its constructor.
func (c *Container) construct(res *resolution, token Token, index int, inj Injectable) (any, error) {
	class := inj.Class()

	parent := res.ctx
	ctx, span := c.tracer.Start(parent, observability.SpanConstruct, trace.WithAttributes(
		attribute.String(observability.AttrToken, token.String()),
		attribute.Int(observability.AttrIndex, index),
		attribute.String(observability.AttrScope, inj.Scope().String()),
	))
	res.ctx = ctx
	defer func() {
		res.ctx = parent
		span.End()
	}()

	start := time.Now()
	args := class.zeroArgs()
	for _, dep := range class.Dependencies() {
		v, err := c.resolve(res, dep.Token, dep.Requirement)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		arg, err := convertArg(v, class.fnType.In(dep.Index), dep.Token)
		if err != nil {
			if appErr, ok := apperrors.AsAppError(err); ok {
				appErr.WithDetails(map[string]any{"class": class.String(), "parameter": dep.Index})
			}
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		args[dep.Index] = arg
	}

	value, err := class.invoke(args)
	log := c.logger().WithContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Debug("constructor failed", logger.Fields(
			logger.FieldToken, token.String(),
			logger.FieldIndex, index,
			logger.FieldError, err.Error(),
		))
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.RecordConstruct(ctx, token.String(), inj.Scope().String())
	}
	log.Debug("constructed", logger.Fields(
		logger.FieldToken, token.String(),
		logger.FieldIndex, index,
		logger.FieldScope, inj.Scope().String(),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return value, nil
}
