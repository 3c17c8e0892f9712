package di

import (
	"context"
	"errors"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/injector/observability"
)

func TestTypedResolve(t *testing.T) {
	c := NewContainer()
	c.Register(Name("port"), ValueOf(8080))

	port, err := Resolve[int](c, Name("port"))
	if err != nil || port != 8080 {
		t.Errorf("expected 8080, got %v, %v", port, err)
	}
	if _, err := Resolve[string](c, Name("port")); !IsTypeMismatch(err) {
		t.Errorf("expected TYPE_MISMATCH, got %v", err)
	}
	if _, err := Resolve[int](c, Name("missing")); !IsNotFound(err) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestTypedResolveInterface(t *testing.T) {
	c := NewContainer()
	cls := MustClass("english", func() greeter { return english{} })
	c.Declare(cls)

	g, err := Resolve[greeter](c, cls)
	if err != nil || g.Greet() != "hello" {
		t.Errorf("expected greeter, got %v, %v", g, err)
	}
}

func TestMustResolve(t *testing.T) {
	c := NewContainer()
	c.Register(Name("x"), ValueOf("v"))
	if MustResolve[string](c, Name("x")) != "v" {
		t.Error("expected v")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for missing token")
		}
	}()
	MustResolve[string](c, Name("missing"))
}

func TestTryResolve(t *testing.T) {
	c := NewContainer()
	if _, ok, err := TryResolve[int](c, Name("missing")); ok || err != nil {
		t.Errorf("expected absence without error, got %v, %v", ok, err)
	}

	c.Register(Name("n"), ValueOf(1))
	if v, ok, err := TryResolve[int](c, Name("n")); !ok || err != nil || v != 1 {
		t.Errorf("expected 1, got %v, %v, %v", v, ok, err)
	}
	if _, ok, err := TryResolve[string](c, Name("n")); ok || !IsTypeMismatch(err) {
		t.Errorf("expected TYPE_MISMATCH, got %v, %v", ok, err)
	}

	c.Register(Name("n"), ValueOf(2))
	if _, ok, err := TryResolve[int](c, Name("n")); ok || !IsAmbiguous(err) {
		t.Errorf("expected AMBIGUOUS_MATCH, got %v, %v", ok, err)
	}

	failure := errors.New("boom")
	broken := MustClass("broken", func() (int, error) { return 0, failure })
	c.Declare(broken)
	if _, ok, err := TryResolve[int](c, broken); ok || !errors.Is(err, failure) {
		t.Errorf("expected the constructor error, got %v, %v", ok, err)
	}
}

func TestTypedResolveContextKeepsTrace(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())
	tracer := tp.Tracer("test")

	c := NewContainer(WithTracer(tracer))
	tok := NewKey("plugins")
	c.Register(Name("port"), ValueOf(8080))
	c.Register(tok, ValueOf("a"))

	ctx, parent := tracer.Start(context.Background(), "task")
	if _, err := ResolveContext[int](ctx, c, Name("port")); err != nil {
		t.Fatal(err)
	}
	if _, _, err := TryResolveContext[int](ctx, c, Name("missing")); err != nil {
		t.Fatal(err)
	}
	if _, err := ResolveAllContext[string](ctx, c, tok); err != nil {
		t.Fatal(err)
	}
	if _, err := ResolveAllOrNoneContext[string](ctx, c, tok); err != nil {
		t.Fatal(err)
	}
	parent.End()

	resolves := 0
	for _, s := range recorder.Ended() {
		if s.Name() != observability.SpanResolve {
			continue
		}
		resolves++
		if s.Parent().SpanID() != parent.SpanContext().SpanID() {
			t.Errorf("expected resolve span under the caller's span, parent %s", s.Parent().SpanID())
		}
	}
	if resolves != 4 {
		t.Errorf("expected 4 resolve spans, got %d", resolves)
	}
}

func TestResolveAll(t *testing.T) {
	c := NewContainer()
	tok := NewKey("plugins")

	if _, err := ResolveAll[string](c, tok); !IsNotFound(err) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
	none, err := ResolveAllOrNone[string](c, tok)
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("expected empty slice, got %#v, %v", none, err)
	}

	c.Register(tok, ValueOf("a"))
	c.Register(tok, ValueOf("b"))
	all, err := ResolveAll[string](c, tok)
	if err != nil || len(all) != 2 || all[0] != "a" || all[1] != "b" {
		t.Errorf("expected [a b], got %v, %v", all, err)
	}

	c.Register(tok, ValueOf(3))
	if _, err := ResolveAllOrNone[string](c, tok); !IsTypeMismatch(err) {
		t.Errorf("expected TYPE_MISMATCH, got %v", err)
	}
}
