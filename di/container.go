package di

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/injector/logger"
	"github.com/kbukum/injector/observability"
)

// Stopper is implemented by singletons that need context-aware teardown.
type Stopper interface {
	Stop(ctx context.Context) error
}

// Container pairs a Registry with a scope cache and resolves tokens against them.
type Container struct {
	registry *Registry
	cache    *scopeCache
	log      *logger.Logger
	tracer   trace.Tracer
	metrics  *observability.Metrics
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger. Defaults to the global logger at call time.
func WithLogger(l *logger.Logger) Option {
	return func(c *Container) { c.log = l }
}

// WithTracer sets the tracer used for resolution spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Container) { c.tracer = t }
}

// WithMetrics enables resolution metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Container) { c.metrics = m }
}

// NewContainer creates an empty container.
func NewContainer(opts ...Option) *Container {
	c := &Container{
		registry: NewRegistry(),
		cache:    newScopeCache(),
		tracer:   observability.Tracer(observability.InstrumentationName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	globalMu sync.RWMutex
	global   = NewContainer()
)

// Global returns the process-wide container.
func Global() *Container {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// SetGlobal replaces the process-wide container and returns the previous one.
// Intended for process setup and tests.
func SetGlobal(c *Container) *Container {
	globalMu.Lock()
	defer globalMu.Unlock()
	prev := global
	global = c
	return prev
}

// Register adds a registration to the global container.
func Register(token Token, injectable Injectable) { Global().Register(token, injectable) }

// RegisterBatch adds registrations to the global container in order.
func RegisterBatch(bindings ...Binding) { Global().RegisterBatch(bindings...) }

// Declare registers class under its own token in the global container.
func Declare(class *Class) { Global().Declare(class) }

func (c *Container) logger() *logger.Logger {
	if c.log != nil {
		return c.log.WithComponent("di")
	}
	return logger.WithComponent("di")
}

// Registry exposes the container's registry.
func (c *Container) Registry() *Registry { return c.registry }

// Register appends injectable to token's registrations. It panics on a nil or
// non-comparable token.
func (c *Container) Register(token Token, injectable Injectable) {
	c.registry.Register(token, injectable)
	c.logRegistered(token, injectable)
}

// RegisterBatch registers every binding in slice order.
func (c *Container) RegisterBatch(bindings ...Binding) {
	c.registry.RegisterBatch(bindings)
	for _, b := range bindings {
		c.logRegistered(b.Token, b.Injectable)
	}
}

// Declare registers class under its own token with the class's scope.
func (c *Container) Declare(class *Class) {
	c.Register(class, ClassOf(class, class.Scope()))
}

// Lookup returns the registrations for token in registration order.
func (c *Container) Lookup(token Token) []Injectable {
	return c.registry.Lookup(token)
}

func (c *Container) logRegistered(token Token, injectable Injectable) {
	log := c.logger()
	if !log.Enabled(zerolog.DebugLevel) {
		return
	}
	fields := logger.Fields(
		logger.FieldToken, token.String(),
		logger.FieldKind, injectable.Kind().String(),
	)
	if injectable.Kind() == KindClass {
		fields[logger.FieldScope] = injectable.Scope().String()
	}
	log.Debug("registered", fields)
}

// DependencyInfo describes one declared constructor parameter.
type DependencyInfo struct {
	Index       int    `json:"index"`
	Token       string `json:"token"`
	Requirement string `json:"requirement"`
}

// RegistrationInfo is a read-only view of one registration.
type RegistrationInfo struct {
	Token        string           `json:"token"`
	TokenID      string           `json:"token_id"`
	Index        int              `json:"index"`
	Kind         string           `json:"kind"`
	Scope        string           `json:"scope,omitempty"`
	Target       string           `json:"target,omitempty"`
	Initialized  bool             `json:"initialized"`
	Dependencies []DependencyInfo `json:"dependencies,omitempty"`
}

// Registrations describes every registration in registration order. It never
// constructs anything.
func (c *Container) Registrations() []RegistrationInfo {
	var out []RegistrationInfo
	for _, token := range c.registry.Tokens() {
		for i, inj := range c.registry.Lookup(token) {
			info := RegistrationInfo{
				Token:   token.String(),
				TokenID: tokenID(token),
				Index:   i,
				Kind:    inj.Kind().String(),
			}
			switch inj.Kind() {
			case KindClass:
				info.Scope = inj.Scope().String()
				info.Initialized = c.cache.initialized(cacheKey{token, i})
				for _, d := range inj.Class().Dependencies() {
					info.Dependencies = append(info.Dependencies, DependencyInfo{
						Index:       d.Index,
						Token:       d.Token.String(),
						Requirement: d.Requirement.String(),
					})
				}
			case KindAlias:
				info.Target = inj.Target().String()
			}
			out = append(out, info)
		}
	}
	return out
}

// Close tears down constructed singletons in reverse construction order,
// calling Stop(ctx) or Close() where implemented, then empties the cache.
// Registrations are kept, so later resolutions construct fresh instances.
func (c *Container) Close(ctx context.Context) error {
	instances := c.cache.drain()
	log := c.logger()

	var errs []error
	for _, inst := range instances {
		var err error
		switch v := inst.(type) {
		case Stopper:
			err = v.Stop(ctx)
		case io.Closer:
			err = v.Close()
		default:
			continue
		}
		if err != nil {
			log.Warn("instance teardown failed", logger.Fields(
				"instance", fmt.Sprintf("%T", inst),
				logger.FieldError, err.Error(),
			))
			errs = append(errs, err)
		}
	}
	log.Debug("container closed", logger.Fields("instances", len(instances)))
	return errors.Join(errs...)
}
