// Package bootstrap runs an application around a di.Container.
//
// NewApp applies config defaults and validation, initializes the logger,
// registers every entry of the config's values block as
// di.Name("config.<dotted.key>") and assembles the lifecycle components:
// tracing and metrics providers when enabled, the container itself, and the
// inspect server when enabled.
//
//	cfg, err := bootstrap.Load("my-service")
//	app, err := bootstrap.NewApp(cfg)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*bootstrap.AppConfig]) error {
//	    a.Container.Declare(serviceClass)
//	    return nil
//	})
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    svc, err := di.Resolve[*Service](app.Container, serviceClass)
//	    ...
//	})
//
// Startup order is configure callbacks, component start (container validation
// when container.validate is set), OnStart hooks, ready check, OnReady hooks
// and the summary. Shutdown runs OnStop hooks then stops components in
// reverse, so resolved singletons are closed after the inspect server stops.
package bootstrap
