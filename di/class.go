package di

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/injector/errors"
	"github.com/kbukum/injector/logger"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Dependency is the declaration for one constructor parameter.
type Dependency struct {
	Index       int
	Token       Token
	Requirement Requirement
}

// Class wraps a constructor function together with the dependency
// declarations for its parameters. A *Class is also a Token, so a class can
// be registered and requested by its own reference.
//
// Constructors have the shape func(...) T or func(...) (T, error). Parameters
// without a declaration receive the zero value of their type.
type Class struct {
	name       string
	id         uuid.UUID
	fn         reflect.Value
	fnType     reflect.Type
	returnsErr bool
	scope      Scope

	mu   sync.RWMutex
	deps map[int]Dependency
}

// ClassOption configures a Class at build time.
type ClassOption func(*Class) error

// WithScope sets the scope used when the class is declared. Defaults to Singleton.
func WithScope(scope Scope) ClassOption {
	return func(c *Class) error {
		if !scope.valid() {
			return apperrors.InvalidDeclaration(c.name, fmt.Sprintf("unknown scope %d", int(scope)))
		}
		c.scope = scope
		return nil
	}
}

// Inject declares that parameter index is satisfied by resolving token.
// The requirement defaults to One.
func Inject(index int, token Token, req ...Requirement) ClassOption {
	requirement := One
	if len(req) > 0 {
		requirement = req[0]
	}
	return func(c *Class) error {
		return c.DeclareDependency(index, token, requirement)
	}
}

func InjectOne(index int, token Token) ClassOption       { return Inject(index, token, One) }
func InjectAny(index int, token Token) ClassOption       { return Inject(index, token, Any) }
func InjectOneOrNone(index int, token Token) ClassOption { return Inject(index, token, OneOrNone) }
func InjectAnyOrNone(index int, token Token) ClassOption { return Inject(index, token, AnyOrNone) }
func InjectAll(index int, token Token) ClassOption       { return Inject(index, token, All) }
func InjectAllOrNone(index int, token Token) ClassOption { return Inject(index, token, AllOrNone) }

// NewClass builds a class from a constructor function.
func NewClass(name string, constructor any, opts ...ClassOption) (*Class, error) {
	if name == "" {
		return nil, apperrors.InvalidDeclaration("class", "name is required")
	}
	fn := reflect.ValueOf(constructor)
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, apperrors.InvalidDeclaration(name, fmt.Sprintf("constructor must be a function, got %T", constructor))
	}
	ft := fn.Type()
	if ft.IsVariadic() {
		return nil, apperrors.InvalidDeclaration(name, "variadic constructors are not supported")
	}
	returnsErr := false
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return nil, apperrors.InvalidDeclaration(name, "second return value must be error")
		}
		returnsErr = true
	default:
		return nil, apperrors.InvalidDeclaration(name, "constructor must return T or (T, error)")
	}

	c := &Class{
		name:       name,
		id:         uuid.New(),
		fn:         fn,
		fnType:     ft,
		returnsErr: returnsErr,
		scope:      Singleton,
		deps:       make(map[int]Dependency),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustClass is like NewClass but panics on error.
func MustClass(name string, constructor any, opts ...ClassOption) *Class {
	c, err := NewClass(name, constructor, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Class) String() string { return c.name }

// ID returns the class's unique identifier.
func (c *Class) ID() string { return c.id.String() }

// Scope returns the scope the class is declared with.
func (c *Class) Scope() Scope { return c.scope }

// NumParams returns the constructor's parameter count.
func (c *Class) NumParams() int { return c.fnType.NumIn() }

// DeclareDependency records that parameter index is satisfied by resolving
// token with req. Declaring the same index again replaces the earlier entry.
func (c *Class) DeclareDependency(index int, token Token, req Requirement) error {
	if index < 0 || index >= c.fnType.NumIn() {
		return apperrors.InvalidDeclaration(c.name,
			fmt.Sprintf("parameter index %d out of range [0,%d)", index, c.fnType.NumIn()))
	}
	if token == nil {
		return apperrors.InvalidDeclaration(c.name, fmt.Sprintf("nil token for parameter %d", index))
	}
	if !reflect.TypeOf(token).Comparable() {
		return apperrors.InvalidDeclaration(c.name, fmt.Sprintf("token type %T is not comparable", token))
	}
	if !req.valid() {
		return apperrors.InvalidDeclaration(c.name, fmt.Sprintf("unknown requirement %d for parameter %d", int(req), index))
	}

	c.mu.Lock()
	prev, replaced := c.deps[index]
	c.deps[index] = Dependency{Index: index, Token: token, Requirement: req}
	c.mu.Unlock()

	if replaced {
		logger.WithComponent("di").Warn("dependency declaration replaced", logger.Fields(
			"class", c.name,
			logger.FieldIndex, index,
			"previous_token", prev.Token.String(),
			"previous_requirement", prev.Requirement.String(),
			logger.FieldToken, token.String(),
			logger.FieldRequirement, req.String(),
		))
	}
	return nil
}

// Dependencies returns the declared dependencies in ascending parameter order.
func (c *Class) Dependencies() []Dependency {
	c.mu.RLock()
	deps := make([]Dependency, 0, len(c.deps))
	for _, d := range c.deps {
		deps = append(deps, d)
	}
	c.mu.RUnlock()
	sort.Slice(deps, func(i, j int) bool { return deps[i].Index < deps[j].Index })
	return deps
}

// zeroArgs returns the default argument list: the zero value of every parameter.
func (c *Class) zeroArgs() []reflect.Value {
	args := make([]reflect.Value, c.fnType.NumIn())
	for i := range args {
		args[i] = reflect.Zero(c.fnType.In(i))
	}
	return args
}

// invoke calls the constructor. A returned error is passed through unchanged.
func (c *Class) invoke(args []reflect.Value) (any, error) {
	out := c.fn.Call(args)
	if c.returnsErr && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

// convertArg adapts a resolved value to the parameter type want.
// Absence becomes the zero value and []any results are converted element-wise
// into typed slices.
func convertArg(v any, want reflect.Type, token Token) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(want), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(want) {
		return rv, nil
	}
	if items, ok := v.([]any); ok && want.Kind() == reflect.Slice {
		elem := want.Elem()
		out := reflect.MakeSlice(want, len(items), len(items))
		for i, item := range items {
			if item == nil {
				continue
			}
			iv := reflect.ValueOf(item)
			if !iv.Type().AssignableTo(elem) {
				return reflect.Value{}, apperrors.TypeMismatch(token.String(), iv.Type(), elem).
					WithDetail("element", i)
			}
			out.Index(i).Set(iv)
		}
		return out, nil
	}
	return reflect.Value{}, apperrors.TypeMismatch(token.String(), rv.Type(), want)
}
