package di

import (
	"errors"
	"reflect"
	"testing"

	apperrors "github.com/kbukum/injector/errors"
)

func TestValidateEmptyContainer(t *testing.T) {
	if err := NewContainer().Validate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestValidateHealthyGraph(t *testing.T) {
	c := NewContainer()
	plugins := NewKey("plugins")
	c.Register(plugins, ValueOf("p1"))
	c.Register(plugins, ValueOf("p2"))
	c.Register(Name("dsn"), ValueOf("mem://"))
	svc := MustClass("svc", func(string, []any, any, any) int { return 0 },
		InjectOne(0, Name("dsn")),
		InjectAll(1, plugins),
		InjectOneOrNone(2, Name("optional")),
		InjectAny(3, plugins),
	)
	c.Declare(svc)

	if err := c.Validate(); err != nil {
		t.Errorf("expected a valid graph, got %v", err)
	}
}

func TestValidateReportsProblems(t *testing.T) {
	c := NewContainer()
	c.Register(Name("dup"), ValueOf(1))
	c.Register(Name("dup"), ValueOf(2))

	a := MustClass("A", func(any) int { return 0 })
	b := MustClass("B", func(any) int { return 0 })
	_ = a.DeclareDependency(0, b, One)
	_ = b.DeclareDependency(0, a, One)
	svc := MustClass("svc", func(any, any) int { return 0 },
		InjectOne(0, Name("missing")),
		InjectOne(1, Name("dup")),
	)
	c.Declare(a)
	c.Declare(b)
	c.Declare(svc)

	var calls int
	counted := MustClass("never", func() int { calls++; return 0 })
	c.Declare(counted)

	err := c.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(verr.Problems) != 3 {
		t.Fatalf("expected 3 problems, got %d: %v", len(verr.Problems), verr.Problems)
	}

	if !IsNotFound(err) || !IsAmbiguous(err) || !IsCircular(err) {
		t.Errorf("expected missing, ambiguous and cycle problems, got %v", err)
	}
	if got := tokenNames(CyclePath(err)); !reflect.DeepEqual(got, []string{"A", "B", "A"}) {
		t.Errorf("expected cycle [A B A], got %v", got)
	}
	for _, p := range verr.Problems {
		appErr, _ := apperrors.AsAppError(p)
		if appErr.Code == apperrors.ErrCodeNotFound && appErr.Details["required_by"] != "svc" {
			t.Errorf("expected required_by=svc, got %v", appErr.Details)
		}
	}
	if calls != 0 {
		t.Error("Validate must not construct anything")
	}
}

func TestValidateFollowsAliases(t *testing.T) {
	c := NewContainer()
	c.Register(Name("alias"), AliasOf(Name("nowhere")))
	if err := c.Validate(); !IsNotFound(err) {
		t.Errorf("expected NOT_FOUND through alias, got %v", err)
	}
}

func TestValidateAllFollowsEveryRegistration(t *testing.T) {
	c := NewContainer()
	tok := NewKey("handlers")
	ok := MustClass("ok", func() int { return 0 })
	broken := MustClass("broken", func(int) int { return 0 }, InjectOne(0, Name("missing")))
	c.Register(tok, ClassOf(ok, Singleton))
	c.Register(tok, ClassOf(broken, Singleton))
	root := MustClass("root", func([]any) int { return 0 }, InjectAll(0, tok))
	c.Declare(root)

	var verr *ValidationError
	if err := c.Validate(); !errors.As(err, &verr) || len(verr.Problems) != 1 {
		t.Errorf("expected one problem from the second handler, got %v", err)
	}
}
