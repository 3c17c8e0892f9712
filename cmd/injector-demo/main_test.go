package main

import (
	"context"
	"strings"
	"testing"

	"github.com/kbukum/injector/bootstrap"
	"github.com/kbukum/injector/di"
	"github.com/kbukum/injector/logger"
)

func newDemoContainer(t *testing.T, withSink bool, limit int) (*di.Container, classes) {
	t.Helper()
	c := di.NewContainer(di.WithLogger(logger.Nop()))
	c.RegisterBatch(
		di.Bind(bootstrap.ConfigToken("catalog.name"), di.ValueOf("test")),
		di.Bind(bootstrap.ConfigToken("storage.journal_limit"), di.ValueOf(limit)),
	)
	cl := newClasses(logger.Nop())
	cl.register(c, withSink)
	return c, cl
}

func TestGraphValidates(t *testing.T) {
	for _, withSink := range []bool{false, true} {
		c, _ := newDemoContainer(t, withSink, 2)
		if err := c.Validate(); err != nil {
			t.Errorf("withSink=%t: unexpected validation error: %v", withSink, err)
		}
	}
}

func TestPopulate(t *testing.T) {
	c, cl := newDemoContainer(t, true, 2)
	if err := populate(context.Background(), c, cl, logger.Nop()); err != nil {
		t.Fatalf("populate: %v", err)
	}

	catalog := di.MustResolve[*Catalog](c, cl.catalog)
	if catalog.sink == nil {
		t.Error("expected the sink to be injected")
	}
	stores := catalog.Stores()
	if len(stores) != 2 || stores[0].Name() != "memory" || stores[1].Name() != "journal" {
		t.Fatalf("unexpected stores %v", stores)
	}
	if got := strings.Join(stores[0].Keys(), ","); got != "alpha,beta,gamma" {
		t.Errorf("unexpected memory keys %q", got)
	}
	if got := strings.Join(stores[1].Keys(), ","); got != "beta=1,gamma=2" {
		t.Errorf("unexpected journal entries %q", got)
	}
}

func TestCatalogWithoutSink(t *testing.T) {
	c, cl := newDemoContainer(t, false, 5)
	catalog, err := di.Resolve[*Catalog](c, cl.catalog)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if catalog.sink != nil {
		t.Error("expected no sink")
	}
	if err := catalog.Add("k", "v"); err != nil {
		t.Errorf("Add: %v", err)
	}
}

func TestJournalLimitMustBePositive(t *testing.T) {
	c, cl := newDemoContainer(t, false, 0)
	if _, err := di.Resolve[*Catalog](c, cl.catalog); err == nil || !strings.Contains(err.Error(), "journal limit") {
		t.Errorf("expected constructor error, got %v", err)
	}
}
