package ripple

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ripple-dev/ripple/internal/config"
)

func TestGraphFacade(t *testing.T) {
	g := NewGraph()
	if err := g.RegisterSource("region", "CA"); err != nil {
		t.Fatal(err)
	}
	if err := g.RegisterDerived("upper", []string{"region"}, func(vals []any) (any, error) {
		return vals[0].(string) + "!", nil
	}); err != nil {
		t.Fatal(err)
	}

	if err := g.Set("region", "TX"); err != nil {
		t.Fatal(err)
	}
	result := g.Propagate([]string{"region"})
	if !result.OK() {
		t.Fatalf("pass failed: %v", result.Errors)
	}
	if v, _ := g.Value("upper"); v != "TX!" {
		t.Errorf("upper = %v, want TX!", v)
	}
}

func TestSessionFacade(t *testing.T) {
	sess := NewSession("facade", nil)
	defer sess.Close()

	if err := sess.Graph().RegisterSource("a", 0); err != nil {
		t.Fatal(err)
	}
	if err := sess.Set("a", 1); err != nil {
		t.Fatal(err)
	}
	if results := sess.Flush(); len(results) != 1 {
		t.Fatalf("expected 1 pass, got %d", len(results))
	}
}

func TestErrorAliases(t *testing.T) {
	g := NewGraph()
	if err := g.RegisterSource("a", 0); err != nil {
		t.Fatal(err)
	}

	var dup *DuplicateKeyError
	if err := g.RegisterSource("a", 0); !errors.As(err, &dup) {
		t.Errorf("expected DuplicateKeyError, got %v", err)
	}

	var cycle *CycleError
	if err := g.RegisterDerived("d", []string{"d"}, nil); !errors.As(err, &cycle) {
		t.Errorf("expected CycleError, got %v", err)
	}
}

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "breweries.csv")
	csv := "name,region,locality\nGolden Road,CA,LA\nFog City,CA,SF\nHill Country,TX,Austin\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewApp(t *testing.T) {
	cfg := config.Default()
	cfg.Dataset.Path = writeDataset(t)

	app, err := NewApp(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	if app.Source().Len() != 3 {
		t.Errorf("dataset = %d records, want 3", app.Source().Len())
	}
	if app.Server() == nil {
		t.Error("expected a server")
	}
}

func TestNewAppValidatesConfig(t *testing.T) {
	if _, err := NewApp(context.Background(), config.Default(), nil); err == nil {
		t.Error("expected error for config without dataset")
	}
}

func TestNewAppMissingDataset(t *testing.T) {
	cfg := config.Default()
	cfg.Dataset.Path = filepath.Join(t.TempDir(), "absent.csv")
	if _, err := NewApp(context.Background(), cfg, nil); err == nil {
		t.Error("expected error for missing dataset file")
	}
}

func TestAppRunStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.Dataset.Path = writeDataset(t)

	app, err := NewApp(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
