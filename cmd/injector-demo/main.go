// Command injector-demo wires a small dependency graph through bootstrap,
// resolves it and writes a few catalog items. With --serve it keeps running
// and exposes the inspect server until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kbukum/injector/bootstrap"
	"github.com/kbukum/injector/config"
	"github.com/kbukum/injector/di"
	"github.com/kbukum/injector/inspect"
	"github.com/kbukum/injector/logger"
)

const serviceName = "injector-demo"

func main() {
	var (
		configFile   = flag.StringP("config", "c", "", "config file (default: search standard locations)")
		withSink     = flag.Bool("sink", false, "register the optional metrics sink")
		serve        = flag.Bool("serve", false, "keep running after the task until interrupted")
		issueToken   = flag.String("issue-token", "", "print an inspect bearer token for this subject and exit")
		tokenTTL     = flag.Duration("token-ttl", time.Hour, "lifetime of tokens printed by --issue-token")
		hashPassword = flag.String("hash-password", "", "print the bcrypt hash of this password and exit")
	)
	flag.Parse()

	if err := run(*configFile, *withSink, *serve, *issueToken, *tokenTTL, *hashPassword); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(configFile string, withSink, serve bool, subject string, ttl time.Duration, password string) error {
	if password != "" {
		hash, err := inspect.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	}

	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	cfg, err := bootstrap.Load(serviceName, opts...)
	if err != nil {
		return err
	}

	if subject != "" {
		cfg.ApplyDefaults()
		token, err := inspect.IssueToken(cfg.Inspect.Auth, subject, ttl)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}

	cl := newClasses(app.Logger)
	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*bootstrap.AppConfig]) error {
		cl.register(a.Container, withSink)
		return nil
	})

	task := func(ctx context.Context) error {
		return populate(ctx, app.Container, cl, app.Logger)
	}
	if !serve {
		return app.RunTask(context.Background(), task)
	}

	app.OnReady(task)
	return app.Run(context.Background())
}

// populate resolves the catalog and writes sample items through it.
func populate(ctx context.Context, c *di.Container, cl classes, log *logger.Logger) error {
	catalog, err := di.ResolveContext[*Catalog](ctx, c, cl.catalog)
	if err != nil {
		return fmt.Errorf("resolve catalog: %w", err)
	}

	for i, item := range []string{"alpha", "beta", "gamma"} {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := catalog.Add(item, fmt.Sprint(i)); err != nil {
			return err
		}
	}

	for _, s := range catalog.Stores() {
		log.Info("store contents", logger.Fields("store", s.Name(), "keys", s.Keys()))
	}

	// the class token and the storage alias share one singleton
	direct, err := di.ResolveContext[Store](ctx, c, cl.memory)
	if err != nil {
		return err
	}
	log.Info("memory store shared", logger.Fields("same_instance", direct == catalog.Stores()[0]))

	_, ok, err := di.TryResolveContext[Sink](ctx, c, SinkToken)
	if err != nil {
		return fmt.Errorf("resolve sink: %w", err)
	}
	if !ok {
		log.Info("no metrics sink registered; run with --sink to add one")
	}
	return nil
}
