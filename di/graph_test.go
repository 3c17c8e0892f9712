package di

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func nodeNames(level []Node) []string {
	names := make([]string, len(level))
	for i, n := range level {
		names[i] = n.Token
	}
	return names
}

func TestGraphEdges(t *testing.T) {
	c := NewContainer()
	var calls int64
	db := countingClass("db", Singleton, &calls)
	r := MustClass("repo", func(db *counted) *repo { return &repo{db: db} }, InjectOne(0, db))
	c.Declare(r)
	c.Declare(db)
	c.Register(Name("alias"), AliasOf(r))
	c.Register(Name("dsn"), ValueOf("x"))

	g := c.Graph()
	if len(g.Nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(g.Nodes))
	}
	if len(g.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %+v", g.Edges)
	}
	if e := g.Edges[0]; e.From.Token != "db" || e.To.Token != "repo" {
		t.Errorf("expected db -> repo, got %+v", e)
	}
	if e := g.Edges[1]; e.From.Token != "repo" || e.To.Token != "alias" || e.To.Kind != "alias" {
		t.Errorf("expected repo -> alias, got %+v", e)
	}
	if calls != 0 {
		t.Error("Graph must not construct anything")
	}
}

func TestGraphMultiplicity(t *testing.T) {
	c := NewContainer()
	backends := NewKey("backend")
	c.Register(backends, ValueOf(1))
	c.Register(backends, ValueOf(2))
	all := MustClass("all", func(v []int) int { return len(v) }, InjectAll(0, backends))
	first := MustClass("first", func(v int) int { return v }, Inject(0, backends, Any))
	optional := MustClass("optional", func(v any) any { return v }, InjectOneOrNone(0, Name("missing")))
	c.Declare(all)
	c.Declare(first)
	c.Declare(optional)

	count := map[string]int{}
	for _, e := range c.Graph().Edges {
		count[e.To.Token]++
	}
	if count["all"] != 2 || count["first"] != 1 || count["optional"] != 0 {
		t.Errorf("unexpected edge counts %v", count)
	}
}

func TestLevels(t *testing.T) {
	c := NewContainer()
	c.Register(Name("n"), ValueOf(2))
	double := MustClass("double", func(n int) int { return n * 2 }, InjectOne(0, Name("n")))
	square := MustClass("square", func(n int) int { return n * n }, InjectOne(0, Name("n")))
	sum := MustClass("sum", func(a, b int) int { return a + b }, InjectOne(0, double), InjectOne(1, square))
	c.Declare(sum)
	c.Declare(double)
	c.Declare(square)

	levels, err := c.Levels()
	if err != nil {
		t.Fatalf("Levels: %v", err)
	}
	want := [][]string{{"n"}, {"double", "square"}, {"sum"}}
	if len(levels) != len(want) {
		t.Fatalf("expected %d levels, got %v", len(want), levels)
	}
	for i := range want {
		got := nodeNames(levels[i])
		if len(got) != len(want[i]) {
			t.Fatalf("level %d: expected %v, got %v", i, want[i], got)
		}
		for j := range got {
			if got[j] != want[i][j] {
				t.Errorf("level %d: expected %v, got %v", i, want[i], got)
			}
		}
	}
}

func TestLevelsInvalidGraph(t *testing.T) {
	c := NewContainer()
	a := MustClass("A", func(v int) int { return v }, InjectOne(0, Name("B")))
	c.Register(Name("B"), AliasOf(a))
	c.Declare(a)

	if _, err := c.Levels(); !IsCircular(err) {
		t.Errorf("expected circular dependency error, got %v", err)
	}
}

func TestWarm(t *testing.T) {
	c := NewContainer()
	var singletons, transients int64
	s := countingClass("singleton", Singleton, &singletons)
	tr := countingClass("transient", Transient, &transients)
	user := MustClass("user", func(v *counted) *repo { return &repo{db: v} }, InjectOne(0, s))
	c.Declare(user)
	c.Declare(s)
	c.Declare(tr)

	if err := c.Warm(context.Background()); err != nil {
		t.Fatalf("Warm: %v", err)
	}
	if singletons != 1 || transients != 0 {
		t.Errorf("expected one singleton and no transient construction, got %d/%d", singletons, transients)
	}
	for _, info := range c.Registrations() {
		if info.Kind == "class" && info.Scope == "SINGLETON" && !info.Initialized {
			t.Errorf("expected %s to be initialized", info.Token)
		}
	}

	if _, err := c.Resolve(user, One); err != nil {
		t.Fatal(err)
	}
	if singletons != 1 {
		t.Errorf("expected cached singleton after Warm, got %d constructions", singletons)
	}
}

func TestWarmStopsOnConstructorError(t *testing.T) {
	c := NewContainer()
	boom := errors.New("boom")
	var later int64
	c.Declare(MustClass("failing", func() (int, error) { return 0, boom }))
	c.Declare(countingClass("later", Singleton, &later))

	if err := c.Warm(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected constructor error, got %v", err)
	}
	if atomic.LoadInt64(&later) != 0 {
		t.Error("expected Warm to stop at the first error")
	}
}

func TestWarmCanceled(t *testing.T) {
	c := NewContainer()
	var calls int64
	c.Declare(countingClass("svc", Singleton, &calls))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Warm(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Error("expected nothing to be constructed")
	}
}
