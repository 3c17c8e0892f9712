package di

import "testing"

func TestRegistryLookupEmpty(t *testing.T) {
	r := NewRegistry()
	got := r.Lookup(Name("missing"))
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestRegistryAppendsInOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(Name("a"), ValueOf(1))
	r.Register(Name("b"), ValueOf("x"))
	r.Register(Name("a"), ValueOf(2))

	got := r.Lookup(Name("a"))
	if len(got) != 2 {
		t.Fatalf("expected 2 registrations, got %d", len(got))
	}
	if got[0].Value() != 1 || got[1].Value() != 2 {
		t.Errorf("expected registration order [1 2], got [%v %v]", got[0].Value(), got[1].Value())
	}

	tokens := r.Tokens()
	if len(tokens) != 2 || tokens[0] != Name("a") || tokens[1] != Name("b") {
		t.Errorf("unexpected token order %v", tokens)
	}
	if r.Len() != 3 {
		t.Errorf("expected Len 3, got %d", r.Len())
	}
}

func TestRegistryLookupReturnsCopy(t *testing.T) {
	r := NewRegistry()
	r.Register(Name("a"), ValueOf(1))
	got := r.Lookup(Name("a"))
	got[0] = ValueOf(99)
	if r.Lookup(Name("a"))[0].Value() != 1 {
		t.Error("mutating the lookup result must not affect the registry")
	}
}

func TestRegistryBatch(t *testing.T) {
	r := NewRegistry()
	key := NewKey("k")
	r.RegisterBatch([]Binding{
		Bind(key, ValueOf("first")),
		Bind(Name("other"), ValueOf(0)),
		Bind(key, ValueOf("second")),
	})
	got := r.Lookup(key)
	if len(got) != 2 || got[0].Value() != "first" || got[1].Value() != "second" {
		t.Errorf("unexpected batch registrations %v", got)
	}
}

func TestKeysWithEqualNamesAreDistinct(t *testing.T) {
	r := NewRegistry()
	k1, k2 := NewKey("same"), NewKey("same")
	r.Register(k1, ValueOf(1))
	if len(r.Lookup(k2)) != 0 {
		t.Error("keys with equal names must not collide")
	}
	if k1.ID() == k2.ID() {
		t.Error("expected distinct key ids")
	}
	if k1.String() != "same" {
		t.Errorf("unexpected key name %q", k1.String())
	}
}

func TestNamesCompareByValue(t *testing.T) {
	r := NewRegistry()
	r.Register(Name("db"), ValueOf(1))
	if len(r.Lookup(Name("db"))) != 1 {
		t.Error("equal names must resolve to the same registrations")
	}
}

type sliceToken []string

func (s sliceToken) String() string { return "slice" }

func TestRegisterRejectsUnusableTokens(t *testing.T) {
	tests := []struct {
		name  string
		token Token
	}{
		{"nil", nil},
		{"non-comparable", sliceToken{"a"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			NewRegistry().Register(tc.token, ValueOf(1))
		})
	}
}

func TestScopeAndRequirementStrings(t *testing.T) {
	if Singleton.String() != "SINGLETON" || Transient.String() != "TRANSIENT" {
		t.Error("unexpected scope names")
	}
	s, err := ParseScope("transient")
	if err != nil || s != Transient {
		t.Errorf("ParseScope: got %v, %v", s, err)
	}
	if _, err := ParseScope("request"); err == nil {
		t.Error("expected error for unknown scope")
	}

	tests := []struct {
		in       string
		want     Requirement
		multiple bool
		optional bool
	}{
		{"ONE", One, false, false},
		{"any", Any, false, false},
		{"one_or_none", OneOrNone, false, true},
		{"any-or-none", AnyOrNone, false, true},
		{"ALL", All, true, false},
		{"all_or_none", AllOrNone, true, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseRequirement(tc.in)
			if err != nil {
				t.Fatalf("ParseRequirement failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
			if got.Multiple() != tc.multiple || got.Optional() != tc.optional {
				t.Errorf("unexpected flags for %v", got)
			}
		})
	}
	if _, err := ParseRequirement("SOME"); err == nil {
		t.Error("expected error for unknown requirement")
	}
}
