package di

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/injector/logger"
	"github.com/kbukum/injector/observability"
)

func TestGlobalContainer(t *testing.T) {
	prev := SetGlobal(NewContainer())
	defer SetGlobal(prev)

	cls := MustClass("global-svc", func(n int) int { return n * 2 }, InjectOne(0, Name("n")))
	RegisterBatch(Bind(Name("n"), ValueOf(21)))
	Register(Name("other"), ValueOf(true))
	Declare(cls)

	v, err := Resolve[int](Global(), cls)
	if err != nil || v != 42 {
		t.Errorf("expected 42, got %v, %v", v, err)
	}
	if Global() == prev {
		t.Error("expected SetGlobal to replace the global container")
	}
}

func TestConcurrentSingletonConstruction(t *testing.T) {
	c := NewContainer()
	var calls int64
	cls := MustClass("slow", func() *counted {
		time.Sleep(10 * time.Millisecond)
		return &counted{n: atomic.AddInt64(&calls, 1)}
	})
	c.Declare(cls)

	const workers = 16
	results := make([]any, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Resolve(cls, One)
			if err != nil {
				t.Errorf("Resolve failed: %v", err)
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("expected exactly one construction, got %d", calls)
	}
	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Fatal("expected every goroutine to observe the same instance")
		}
	}
}

func TestConcurrentRegisterAndResolve(t *testing.T) {
	c := NewContainer()
	tok := NewKey("items")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.Register(tok, ValueOf(i))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = c.Resolve(tok, AllOrNone)
		}()
	}
	wg.Wait()
	if n := len(c.Lookup(tok)); n != 50 {
		t.Errorf("expected 50 registrations, got %d", n)
	}
}

func TestRegistrations(t *testing.T) {
	c := NewContainer()
	key := NewKey("plugins")
	impl := MustClass("impl", func(string) int { return 1 }, InjectOne(0, Name("dsn")))
	c.Register(Name("dsn"), ValueOf("mem://"))
	c.Declare(impl)
	c.Register(key, AliasOf(impl))
	c.Register(key, ValueOf(2))

	if _, err := c.Resolve(impl, One); err != nil {
		t.Fatal(err)
	}

	infos := c.Registrations()
	if len(infos) != 4 {
		t.Fatalf("expected 4 registrations, got %d", len(infos))
	}
	if infos[0].Token != "dsn" || infos[0].Kind != "value" || infos[0].TokenID != "name:dsn" {
		t.Errorf("unexpected value info %+v", infos[0])
	}
	cls := infos[1]
	if cls.Kind != "class" || cls.Scope != "SINGLETON" || !cls.Initialized || cls.TokenID != impl.ID() {
		t.Errorf("unexpected class info %+v", cls)
	}
	if len(cls.Dependencies) != 1 || cls.Dependencies[0].Token != "dsn" || cls.Dependencies[0].Requirement != "ONE" {
		t.Errorf("unexpected dependencies %+v", cls.Dependencies)
	}
	if infos[2].Kind != "alias" || infos[2].Target != "impl" || infos[2].TokenID != key.ID() {
		t.Errorf("unexpected alias info %+v", infos[2])
	}
	if infos[3].Index != 1 {
		t.Errorf("expected index 1, got %d", infos[3].Index)
	}
}

type stopper struct {
	name  string
	order *[]string
	err   error
}

func (s *stopper) Stop(ctx context.Context) error {
	*s.order = append(*s.order, s.name)
	return s.err
}

type closer struct {
	name  string
	order *[]string
}

func (c *closer) Close() error {
	*c.order = append(*c.order, c.name)
	return nil
}

func TestCloseReverseOrder(t *testing.T) {
	c := NewContainer()
	var order []string
	failure := errors.New("flush failed")

	first := MustClass("first", func() *stopper { return &stopper{name: "first", order: &order} })
	second := MustClass("second", func(*stopper) *closer {
		return &closer{name: "second", order: &order}
	}, InjectOne(0, first))
	third := MustClass("third", func(*closer) *stopper {
		return &stopper{name: "third", order: &order, err: failure}
	}, InjectOne(0, second))
	plain := MustClass("plain", func() int { return 1 })
	for _, cls := range []*Class{first, second, third, plain} {
		c.Declare(cls)
	}
	if _, err := c.Resolve(third, One); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Resolve(plain, One); err != nil {
		t.Fatal(err)
	}

	err := c.Close(context.Background())
	if !errors.Is(err, failure) {
		t.Errorf("expected teardown error, got %v", err)
	}
	if strings.Join(order, ",") != "third,second,first" {
		t.Errorf("expected reverse construction order, got %v", order)
	}
	if c.cache.len() != 0 {
		t.Error("expected empty cache after Close")
	}

	// registrations survive; singletons are rebuilt
	order = nil
	if _, err := c.Resolve(first, One); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(context.Background()); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	if strings.Join(order, ",") != "first" {
		t.Errorf("expected rebuilt singleton to be stopped, got %v", order)
	}
}

func TestCloseSkipsTransients(t *testing.T) {
	c := NewContainer()
	var order []string
	cls := MustClass("t", func() *closer { return &closer{name: "t", order: &order} }, WithScope(Transient))
	c.Declare(cls)
	_, _ = c.Resolve(cls, One)
	if err := c.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(order) != 0 {
		t.Errorf("transients are not owned by the container, got %v", order)
	}
}

func TestCloseDuringConstruction(t *testing.T) {
	c := NewContainer()
	var order []string
	started := make(chan struct{})
	release := make(chan struct{})
	cls := MustClass("slow", func() *stopper {
		close(started)
		<-release
		return &stopper{name: "slow", order: &order}
	})
	c.Declare(cls)

	done := make(chan error, 1)
	go func() {
		_, err := c.Resolve(cls, One)
		done <- err
	}()
	<-started

	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close during construction: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if strings.Join(order, ",") != "slow" {
		t.Errorf("expected the instance built across Close to be stopped, got %v", order)
	}
	if c.cache.len() != 0 {
		t.Error("expected empty cache after Close")
	}
}

func TestConcurrentCycleFromBothEnds(t *testing.T) {
	c := NewContainer()

	// each gate holds its goroutine until both hold their singleton lock
	var arrived sync.WaitGroup
	arrived.Add(2)
	var onceA, onceB sync.Once
	gate := func(once *sync.Once) func() int {
		return func() int {
			once.Do(func() {
				arrived.Done()
				arrived.Wait()
			})
			return 0
		}
	}
	gateA := MustClass("gateA", gate(&onceA), WithScope(Transient))
	gateB := MustClass("gateB", gate(&onceB), WithScope(Transient))
	a := MustClass("A", func(int, any) string { return "a" }, InjectOne(0, gateA))
	b := MustClass("B", func(int, any) string { return "b" }, InjectOne(0, gateB))
	if err := a.DeclareDependency(1, b, One); err != nil {
		t.Fatal(err)
	}
	if err := b.DeclareDependency(1, a, One); err != nil {
		t.Fatal(err)
	}
	for _, cls := range []*Class{gateA, gateB, a, b} {
		c.Declare(cls)
	}

	errs := make(chan error, 2)
	for _, cls := range []*Class{a, b} {
		go func(cls *Class) {
			_, err := c.Resolve(cls, One)
			errs <- err
		}(cls)
	}

	timeout := time.After(2 * time.Second)
	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			if !IsCircular(err) {
				t.Errorf("expected CIRCULAR_DEPENDENCY, got %v", err)
				continue
			}
			path := CyclePath(err)
			if len(path) != 3 || path[0] != path[2] {
				t.Errorf("expected a closed path of three tokens, got %v", tokenNames(path))
			}
		case <-timeout:
			t.Fatal("resolutions entering one cycle from both ends blocked each other")
		}
	}
}

func TestResolveEmitsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	c := NewContainer(WithTracer(tp.Tracer(observability.InstrumentationName)))
	dep := MustClass("dep", func() int { return 1 })
	top := MustClass("top", func(n int) int { return n }, InjectOne(0, dep))
	c.Declare(dep)
	c.Declare(top)

	if _, err := c.Resolve(top, One); err != nil {
		t.Fatal(err)
	}

	spans := recorder.Ended()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}
	byName := map[string]int{}
	var root sdktrace.ReadOnlySpan
	for _, s := range spans {
		byName[s.Name()]++
		if s.Name() == observability.SpanResolve {
			root = s
		}
	}
	if byName[observability.SpanResolve] != 1 || byName[observability.SpanConstruct] != 2 {
		t.Errorf("unexpected spans %v", byName)
	}
	for _, s := range spans {
		if s.SpanContext().TraceID() != root.SpanContext().TraceID() {
			t.Error("expected every span in one trace")
		}
	}
	// dep is constructed inside top's construction
	var depSpan, topSpan sdktrace.ReadOnlySpan
	for _, s := range spans {
		if s.Name() != observability.SpanConstruct {
			continue
		}
		for _, a := range s.Attributes() {
			if string(a.Key) == observability.AttrToken && a.Value.AsString() == "dep" {
				depSpan = s
			}
			if string(a.Key) == observability.AttrToken && a.Value.AsString() == "top" {
				topSpan = s
			}
		}
	}
	if depSpan == nil || topSpan == nil {
		t.Fatal("expected construct spans for dep and top")
	}
	if depSpan.Parent().SpanID() != topSpan.SpanContext().SpanID() {
		t.Error("expected dep construction nested under top construction")
	}
}

func TestResolveRecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	metrics, err := observability.NewMetrics(mp.Meter(observability.InstrumentationName))
	if err != nil {
		t.Fatal(err)
	}

	c := NewContainer(WithMetrics(metrics))
	cls := MustClass("svc", func() int { return 1 })
	c.Declare(cls)
	_, _ = c.Resolve(cls, One)
	_, _ = c.Resolve(cls, One)
	_, _ = c.Resolve(Name("missing"), One)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	if sums["di.resolve.total"] != 3 || sums["di.construct.total"] != 1 || sums["di.resolve.errors"] != 1 {
		t.Errorf("unexpected metric sums %v", sums)
	}
}

func TestContainerLogsConstruction(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, &logger.Config{Level: "debug", Format: "json"}, "test")
	c := NewContainer(WithLogger(log))
	cls := MustClass("svc", func() int { return 1 })
	c.Declare(cls)
	_, _ = c.Resolve(cls, One)

	out := buf.String()
	if !strings.Contains(out, `"message":"registered"`) || !strings.Contains(out, `"message":"constructed"`) {
		t.Errorf("expected registration and construction logs, got %s", out)
	}
	if !strings.Contains(out, `"component":"di"`) {
		t.Errorf("expected component field, got %s", out)
	}
}
