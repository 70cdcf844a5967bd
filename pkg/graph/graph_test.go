package graph

import (
	"errors"
	"reflect"
	"testing"
)

func TestRegisterSource(t *testing.T) {
	g := New()

	if err := g.RegisterSource("region", "CA"); err != nil {
		t.Fatalf("RegisterSource failed: %v", err)
	}

	v, ok := g.Value("region")
	if !ok || v != "CA" {
		t.Errorf("expected CA, got %v (ok=%v)", v, ok)
	}

	kind, ok := g.Kind("region")
	if !ok || kind != KindSource {
		t.Errorf("expected Source kind, got %v", kind)
	}
}

func TestRegisterDuplicateKey(t *testing.T) {
	g := New()
	if err := g.RegisterSource("a", 1); err != nil {
		t.Fatalf("RegisterSource failed: %v", err)
	}

	err := g.RegisterSource("a", 2)
	var dup *DuplicateKeyError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateKeyError, got %v", err)
	}
	if dup.Key != "a" {
		t.Errorf("expected key a, got %q", dup.Key)
	}

	// Original value untouched.
	if v, _ := g.Value("a"); v != 1 {
		t.Errorf("expected 1, got %v", v)
	}

	err = g.RegisterDerived("a", nil, func([]any) (any, error) { return nil, nil })
	if !errors.As(err, &dup) {
		t.Errorf("expected DuplicateKeyError for derived, got %v", err)
	}
}

func TestRegisterUnknownUpstream(t *testing.T) {
	g := New()

	err := g.RegisterDerived("d", []string{"missing"}, func([]any) (any, error) {
		return nil, nil
	})
	var unknown *UnknownUpstreamError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownUpstreamError, got %v", err)
	}
	if unknown.Upstream != "missing" {
		t.Errorf("expected upstream missing, got %q", unknown.Upstream)
	}

	// Atomicity: the failed node was not inserted.
	if _, ok := g.Kind("d"); ok {
		t.Error("node d should not exist after failed registration")
	}
}

func TestRegisterEffectUpstreamIsTerminal(t *testing.T) {
	g := New()
	if err := g.RegisterSource("s", 0); err != nil {
		t.Fatal(err)
	}
	if err := g.RegisterEffect("e", []string{"s"}, func([]any) error { return nil }); err != nil {
		t.Fatal(err)
	}

	err := g.RegisterDerived("d", []string{"e"}, func([]any) (any, error) {
		return nil, nil
	})
	var terminal *TerminalNodeError
	if !errors.As(err, &terminal) {
		t.Fatalf("expected TerminalNodeError, got %v", err)
	}
}

func TestRegisterSelfCycle(t *testing.T) {
	g := New()

	err := g.RegisterDerived("d", []string{"d"}, func([]any) (any, error) {
		return nil, nil
	})
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected CycleError, got %v", err)
	}

	// Atomicity: the graph is unchanged.
	if g.Len() != 0 {
		t.Errorf("expected empty graph, got %d nodes", g.Len())
	}
}

func TestRegistrationAtomicity(t *testing.T) {
	g := New()
	if err := g.RegisterSource("a", 1); err != nil {
		t.Fatal(err)
	}

	// Second upstream is unknown; the a -> d edge must not survive.
	err := g.RegisterDerived("d", []string{"a", "nope"}, func([]any) (any, error) {
		return nil, nil
	})
	if err == nil {
		t.Fatal("expected registration to fail")
	}
	if deps := g.DependentsOf("a"); len(deps) != 0 {
		t.Errorf("expected no dependents of a, got %v", deps)
	}
}

func TestDependentsOf(t *testing.T) {
	g := New()
	if err := g.RegisterSource("a", 1); err != nil {
		t.Fatal(err)
	}
	if err := g.RegisterDerived("b", []string{"a"}, passthrough); err != nil {
		t.Fatal(err)
	}
	if err := g.RegisterDerived("c", []string{"a", "b"}, passthrough); err != nil {
		t.Fatal(err)
	}

	got := g.DependentsOf("a")
	want := []string{"b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DependentsOf(a) = %v, want %v", got, want)
	}

	// One hop only: c depends on a both directly and through b, but
	// DependentsOf(b) must not include anything beyond c.
	if got := g.DependentsOf("b"); !reflect.DeepEqual(got, []string{"c"}) {
		t.Errorf("DependentsOf(b) = %v, want [c]", got)
	}
	if got := g.DependentsOf("c"); len(got) != 0 {
		t.Errorf("DependentsOf(c) = %v, want empty", got)
	}
}

func TestSetValidation(t *testing.T) {
	g := New()
	if err := g.RegisterSource("s", 0); err != nil {
		t.Fatal(err)
	}
	if err := g.RegisterDerived("d", []string{"s"}, passthrough); err != nil {
		t.Fatal(err)
	}

	var unknown *UnknownKeyError
	if err := g.Set("missing", 1); !errors.As(err, &unknown) {
		t.Errorf("expected UnknownKeyError, got %v", err)
	}

	var notSource *NotSourceError
	if err := g.Set("d", 1); !errors.As(err, &notSource) {
		t.Errorf("expected NotSourceError, got %v", err)
	}

	if err := g.Set("s", 42); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, _ := g.Value("s"); v != 42 {
		t.Errorf("expected 42, got %v", v)
	}
}

func TestUpstreamOf(t *testing.T) {
	g := New()
	if err := g.RegisterSource("a", 0); err != nil {
		t.Fatal(err)
	}
	if err := g.RegisterSource("b", 0); err != nil {
		t.Fatal(err)
	}
	if err := g.RegisterDerived("d", []string{"b", "a"}, passthrough); err != nil {
		t.Fatal(err)
	}

	// Declaration order is preserved.
	if got := g.UpstreamOf("d"); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("UpstreamOf(d) = %v, want [b a]", got)
	}
}

func TestRelease(t *testing.T) {
	g := New()
	if err := g.RegisterSource("s", "value"); err != nil {
		t.Fatal(err)
	}

	g.Release()
	if !g.Released() {
		t.Error("expected graph to be released")
	}
	if v, _ := g.Value("s"); v != nil {
		t.Errorf("expected nil after release, got %v", v)
	}

	// Propagation is a no-op on a released graph.
	result := g.Propagate([]string{"s"})
	if len(result.Changed) != 0 {
		t.Errorf("expected no-op pass, got %+v", result)
	}

	// Idempotent.
	g.Release()
}

// passthrough returns its first upstream value.
func passthrough(vals []any) (any, error) {
	return vals[0], nil
}
