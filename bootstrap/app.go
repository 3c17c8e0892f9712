package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/injector/component"
	"github.com/kbukum/injector/config"
	"github.com/kbukum/injector/di"
	"github.com/kbukum/injector/inspect"
	"github.com/kbukum/injector/logger"
	"github.com/kbukum/injector/observability"
)

// App is an application built around one container, with uniform lifecycle
// management for the container, telemetry providers and the inspect server.
// The type parameter C is the config type.
//
//	app, err := bootstrap.NewApp(cfg)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*bootstrap.AppConfig]) error {
//	    a.Container.Declare(repositoryClass)
//	    return nil
//	})
//	app.RunTask(ctx, work)
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Container  *di.Container
	Components *component.Registry
	Logger     *logger.Logger
	Summary    *Summary
	// Inspect is nil unless inspect.enabled is set.
	Inspect *inspect.Server

	gracefulTimeout time.Duration
	onConfigure     []func(ctx context.Context, app *App[C]) error

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewApp creates an application from a typed config. It applies defaults,
// validates the config, initializes the logger, registers config values in
// the container and sets up the lifecycle components.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetAppConfig()
	o := resolveOptions(opts)

	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		Components:      component.NewRegistry(),
		gracefulTimeout: 15 * time.Second,
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	app.Components.SetStopTimeout(app.gracefulTimeout)

	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(&base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}

	container, err := app.buildContainer(base, o)
	if err != nil {
		return nil, err
	}
	app.Container = container
	app.registerValues(base.Values)

	if err := app.registerComponents(base); err != nil {
		return nil, err
	}

	out := o.summaryOut
	if out == nil {
		out = os.Stdout
	}
	app.Summary = NewSummary(base.Name, base.Version, out)
	return app, nil
}

func (a *App[C]) buildContainer(base *AppConfig, o *appOptions) (*di.Container, error) {
	switch {
	case o.container != nil:
		return o.container, nil
	case base.Container.UseGlobal:
		return di.Global(), nil
	}

	opts := []di.Option{di.WithLogger(a.Logger)}
	if base.Metrics.Enabled {
		m, err := observability.NewMetrics(observability.Meter(observability.InstrumentationName))
		if err != nil {
			return nil, fmt.Errorf("container metrics: %w", err)
		}
		opts = append(opts, di.WithMetrics(m))
	}
	return di.NewContainer(opts...), nil
}

// registerValues binds each flattened config value as a value registration.
func (a *App[C]) registerValues(values map[string]any) {
	if len(values) == 0 {
		return
	}
	flat := config.Flatten(values)
	bindings := make([]di.Binding, 0, len(flat))
	for _, key := range config.SortedKeys(flat) {
		bindings = append(bindings, di.Bind(ConfigToken(key), di.ValueOf(flat[key])))
	}
	a.Container.RegisterBatch(bindings...)
	a.Logger.Debug("config values registered", logger.Fields("count", len(bindings)))
}

// ConfigToken is the token under which NewApp registers the config value at
// the dotted key.
func ConfigToken(key string) di.Name { return di.Name("config." + key) }

// registerComponents orders components so telemetry starts first and stops
// last, and the inspect server stops before the container is closed.
func (a *App[C]) registerComponents(base *AppConfig) error {
	if base.Tracing.Enabled {
		if err := a.Components.Register(&tracingComponent{cfg: base.Tracing}); err != nil {
			return err
		}
	}
	if base.Metrics.Enabled {
		if err := a.Components.Register(&metricsComponent{cfg: base.Metrics}); err != nil {
			return err
		}
	}
	if err := a.Components.Register(newContainerComponent(a.Container, base.Container, a.Logger)); err != nil {
		return err
	}
	if base.Inspect.Enabled {
		a.Inspect = inspect.New(base.Inspect, a.Container, a.Logger,
			inspect.WithHealthChecker(a.Components.HealthAll))
		if err := a.Components.Register(a.Inspect); err != nil {
			return err
		}
	}
	return nil
}

// RegisterComponent adds a component to the application's registry.
func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// OnConfigure registers a callback to run during the configure phase.
// Use it to declare classes and register business-layer values.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, app *App[C]) error) {
	a.onConfigure = append(a.onConfigure, fn)
}

// ReadyCheck verifies that all registered components are healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	results := a.Components.HealthAll(ctx)
	var unhealthy []string
	for _, h := range results {
		if h.Status != component.StatusHealthy {
			detail := h.Name + "=" + string(h.Status)
			if h.Message != "" {
				detail += "(" + h.Message + ")"
			}
			unhealthy = append(unhealthy, detail)
		}
	}
	if len(unhealthy) > 0 {
		return fmt.Errorf("unhealthy components: %v", unhealthy)
	}
	return nil
}

// Run executes the full lifecycle for long-running processes:
// start components, OnStart hooks, configure, ready check, OnReady hooks,
// block on signal, OnStop hooks, graceful shutdown.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		return err
	}

	a.Logger.Info("Application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)

	return a.stop()
}

// RunTask runs a finite task with the same lifecycle as Run. The task's
// context is canceled on SIGINT or SIGTERM, and the application shuts down
// when the task returns. The task error takes precedence over shutdown errors.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx); err != nil {
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("Received signal, canceling task", map[string]interface{}{
				"signal": sig.String(),
			})
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)

	if stopErr := a.stop(); stopErr != nil {
		if taskErr != nil {
			return taskErr
		}
		return stopErr
	}
	return taskErr
}

// startup performs the initialization sequence shared by Run and RunTask.
// Components are started after the configure phase so container validation
// sees the full graph.
func (a *App[C]) startup(ctx context.Context) error {
	start := time.Now()

	a.Logger.Info("Starting application", map[string]interface{}{
		"name":    a.Name,
		"version": a.Version,
	})

	if err := a.configure(ctx); err != nil {
		return fmt.Errorf("configuration failed: %w", err)
	}

	if err := a.initialize(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	if err := runHooks(ctx, a.onStart); err != nil {
		_ = a.stop()
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("Ready check reported issues", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := runHooks(ctx, a.onReady); err != nil {
		_ = a.stop()
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.Summary.SetStartupDuration(time.Since(start))
	a.DisplaySummary()
	return nil
}

// initialize starts all registered components. On failure the components
// already started are stopped again.
func (a *App[C]) initialize(ctx context.Context) error {
	a.Logger.Info("Starting components")

	if err := a.Components.StartAll(ctx); err != nil {
		if stopErr := a.Components.StopAll(context.Background()); stopErr != nil {
			a.Logger.Warn("Cleanup after failed start reported errors", map[string]interface{}{
				"error": stopErr.Error(),
			})
		}
		return fmt.Errorf("failed to start components: %w", err)
	}

	a.Logger.Info("All components started")
	return nil
}

// configure runs registered configuration callbacks.
func (a *App[C]) configure(ctx context.Context) error {
	if len(a.onConfigure) == 0 {
		return nil
	}

	a.Logger.Info("Running configuration callbacks", map[string]interface{}{
		"count": len(a.onConfigure),
	})

	for _, fn := range a.onConfigure {
		if err := fn(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// DisplaySummary writes the startup summary.
func (a *App[C]) DisplaySummary() {
	a.Summary.Display(a.Components, a.Container)
}

// WaitForSignal blocks until SIGINT, SIGTERM or context cancellation.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Received shutdown signal, graceful shutdown starting", map[string]interface{}{
			"signal": sig.String(),
		})
		return sig
	case <-ctx.Done():
		a.Logger.Info("Context canceled, shutting down")
		return nil
	}
}

// Shutdown performs graceful shutdown. Use when managing your own lifecycle.
func (a *App[C]) Shutdown(ctx context.Context) error {
	return a.stop()
}

// stop runs OnStop hooks then stops components in reverse order, which
// closes the container after the inspect server and before telemetry.
func (a *App[C]) stop() error {
	a.Logger.Info("Shutting down application", map[string]interface{}{
		"timeout": a.gracefulTimeout.String(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var shutdownErr error
	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("OnStop hook error", map[string]interface{}{
			"error": err.Error(),
		})
		shutdownErr = err
	}

	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("Shutdown completed with errors", map[string]interface{}{
			"error": err.Error(),
		})
		if shutdownErr == nil {
			shutdownErr = err
		}
	}

	a.Logger.Info("Application shutdown complete")
	return shutdownErr
}
