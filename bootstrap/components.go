package bootstrap

import (
	"context"
	"fmt"
	"sync"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/injector/component"
	"github.com/kbukum/injector/di"
	"github.com/kbukum/injector/logger"
	"github.com/kbukum/injector/observability"
)

// containerComponent ties a container to the component lifecycle: Start
// optionally validates the graph or warms every singleton, Stop tears down
// resolved singletons.
type containerComponent struct {
	container *di.Container
	cfg       ContainerConfig
	log       *logger.Logger
}

func newContainerComponent(c *di.Container, cfg ContainerConfig, log *logger.Logger) *containerComponent {
	return &containerComponent{container: c, cfg: cfg, log: log.WithComponent("container")}
}

func (c *containerComponent) Name() string { return "container" }

func (c *containerComponent) Start(ctx context.Context) error {
	switch {
	case c.cfg.Eager:
		if err := c.container.Warm(ctx); err != nil {
			return fmt.Errorf("container warm-up: %w", err)
		}
	case c.cfg.Validate:
		if err := c.container.Validate(); err != nil {
			return fmt.Errorf("container validation: %w", err)
		}
		c.log.Info("dependency graph validated", logger.Fields("registrations", c.container.Registry().Len()))
	}
	return nil
}

func (c *containerComponent) Stop(ctx context.Context) error {
	return c.container.Close(ctx)
}

// Health reports degraded when the declared graph has problems.
func (c *containerComponent) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if err := c.container.Validate(); err != nil {
		h.Status = component.StatusDegraded
		h.Message = err.Error()
	}
	return h
}

func (c *containerComponent) Describe() component.Description {
	return component.Description{
		Name:    "Container",
		Type:    "container",
		Details: fmt.Sprintf("%d registrations, validate=%t eager=%t", c.container.Registry().Len(), c.cfg.Validate, c.cfg.Eager),
	}
}

// tracingComponent owns the OTLP tracer provider.
type tracingComponent struct {
	cfg observability.TracerConfig

	mu sync.Mutex
	tp *sdktrace.TracerProvider
}

func (t *tracingComponent) Name() string { return "tracing" }

func (t *tracingComponent) Start(ctx context.Context) error {
	tp, err := observability.InitTracer(ctx, t.cfg)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.tp = tp
	t.mu.Unlock()
	return nil
}

// Stop flushes pending spans.
func (t *tracingComponent) Stop(ctx context.Context) error {
	t.mu.Lock()
	tp := t.tp
	t.tp = nil
	t.mu.Unlock()
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}

func (t *tracingComponent) Health(context.Context) component.Health {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tp == nil {
		return component.Health{Name: t.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: t.Name(), Status: component.StatusHealthy}
}

func (t *tracingComponent) Describe() component.Description {
	return component.Description{
		Name:    "Tracing",
		Type:    "telemetry",
		Details: fmt.Sprintf("otlp %s sample=%.2f", t.cfg.Endpoint, t.cfg.SampleRate),
	}
}

// metricsComponent owns the OTLP meter provider.
type metricsComponent struct {
	cfg observability.MeterConfig

	mu sync.Mutex
	mp *sdkmetric.MeterProvider
}

func (m *metricsComponent) Name() string { return "metrics" }

func (m *metricsComponent) Start(ctx context.Context) error {
	mp, err := observability.InitMeter(ctx, &m.cfg)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.mp = mp
	m.mu.Unlock()
	return nil
}

// Stop flushes pending measurements.
func (m *metricsComponent) Stop(ctx context.Context) error {
	m.mu.Lock()
	mp := m.mp
	m.mp = nil
	m.mu.Unlock()
	if mp == nil {
		return nil
	}
	return mp.Shutdown(ctx)
}

func (m *metricsComponent) Health(context.Context) component.Health {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mp == nil {
		return component.Health{Name: m.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: m.Name(), Status: component.StatusHealthy}
}

func (m *metricsComponent) Describe() component.Description {
	return component.Description{
		Name:    "Metrics",
		Type:    "telemetry",
		Details: fmt.Sprintf("otlp %s every %s", m.cfg.Endpoint, m.cfg.Interval),
	}
}
