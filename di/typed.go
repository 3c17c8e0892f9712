package di

import (
	"context"
	"reflect"

	apperrors "github.com/kbukum/injector/errors"
)

// Resolve resolves token with requirement One and asserts the result to T.
func Resolve[T any](c *Container, token Token) (T, error) {
	return ResolveContext[T](context.Background(), c, token)
}

// ResolveContext is Resolve with a context carried into tracing and logging.
func ResolveContext[T any](ctx context.Context, c *Container, token Token) (T, error) {
	var zero T
	v, err := c.ResolveContext(ctx, token, One)
	if err != nil {
		return zero, err
	}
	return assertAs[T](token, v)
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](c *Container, token Token) T {
	v, err := Resolve[T](c, token)
	if err != nil {
		panic(err)
	}
	return v
}

// TryResolve resolves token with requirement OneOrNone. ok is false when
// nothing is registered. Ambiguity, constructor failures and type mismatches
// are returned as errors, never folded into absence.
func TryResolve[T any](c *Container, token Token) (value T, ok bool, err error) {
	return TryResolveContext[T](context.Background(), c, token)
}

// TryResolveContext is TryResolve with a context.
func TryResolveContext[T any](ctx context.Context, c *Container, token Token) (value T, ok bool, err error) {
	v, err := c.ResolveContext(ctx, token, OneOrNone)
	if err != nil || v == nil {
		return value, false, err
	}
	value, err = assertAs[T](token, v)
	if err != nil {
		return value, false, err
	}
	return value, true, nil
}

// ResolveAll resolves every registration of token, requiring at least one.
func ResolveAll[T any](c *Container, token Token) ([]T, error) {
	return resolveSlice[T](context.Background(), c, token, All)
}

// ResolveAllContext is ResolveAll with a context.
func ResolveAllContext[T any](ctx context.Context, c *Container, token Token) ([]T, error) {
	return resolveSlice[T](ctx, c, token, All)
}

// ResolveAllOrNone resolves every registration of token. The result is empty,
// not nil, when nothing is registered.
func ResolveAllOrNone[T any](c *Container, token Token) ([]T, error) {
	return resolveSlice[T](context.Background(), c, token, AllOrNone)
}

// ResolveAllOrNoneContext is ResolveAllOrNone with a context.
func ResolveAllOrNoneContext[T any](ctx context.Context, c *Container, token Token) ([]T, error) {
	return resolveSlice[T](ctx, c, token, AllOrNone)
}

func resolveSlice[T any](ctx context.Context, c *Container, token Token, req Requirement) ([]T, error) {
	v, err := c.ResolveContext(ctx, token, req)
	if err != nil {
		return nil, err
	}
	items := v.([]any)
	out := make([]T, 0, len(items))
	for _, item := range items {
		typed, err := assertAs[T](token, item)
		if err != nil {
			return nil, err
		}
		out = append(out, typed)
	}
	return out, nil
}

func assertAs[T any](token Token, v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, apperrors.TypeMismatch(token.String(), reflect.TypeOf(v), reflect.TypeOf((*T)(nil)).Elem())
	}
	return typed, nil
}
