package graph

import (
	"fmt"
	"testing"
)

// buildChain makes a source feeding a linear chain of n derived nodes.
func buildChain(b *testing.B, n int) *Graph {
	b.Helper()
	g := New()
	if err := g.RegisterSource("s", 0); err != nil {
		b.Fatal(err)
	}
	prev := "s"
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("d%d", i)
		if err := g.RegisterDerived(key, []string{prev}, func(vals []any) (any, error) {
			return vals[0].(int) + 1, nil
		}); err != nil {
			b.Fatal(err)
		}
		prev = key
	}
	return g
}

// buildFanOut makes a source feeding n independent derived nodes.
func buildFanOut(b *testing.B, n int) *Graph {
	b.Helper()
	g := New()
	if err := g.RegisterSource("s", 0); err != nil {
		b.Fatal(err)
	}
	for i := 0; i < n; i++ {
		if err := g.RegisterDerived(fmt.Sprintf("d%d", i), []string{"s"}, func(vals []any) (any, error) {
			return vals[0], nil
		}); err != nil {
			b.Fatal(err)
		}
	}
	return g
}

func BenchmarkPropagateChain(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("depth-%d", n), func(b *testing.B) {
			g := buildChain(b, n)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := g.Set("s", i); err != nil {
					b.Fatal(err)
				}
				g.Propagate([]string{"s"})
			}
		})
	}
}

func BenchmarkPropagateFanOut(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("width-%d", n), func(b *testing.B) {
			g := buildFanOut(b, n)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := g.Set("s", i); err != nil {
					b.Fatal(err)
				}
				g.Propagate([]string{"s"})
			}
		})
	}
}

func BenchmarkPropagateUnaffected(b *testing.B) {
	// A change to one source must not pay for the rest of the graph.
	g := buildFanOut(b, 1000)
	if err := g.RegisterSource("lone", 0); err != nil {
		b.Fatal(err)
	}
	if err := g.RegisterDerived("loneView", []string{"lone"}, func(vals []any) (any, error) {
		return vals[0], nil
	}); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := g.Set("lone", i); err != nil {
			b.Fatal(err)
		}
		g.Propagate([]string{"lone"})
	}
}
