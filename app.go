package ripple

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ripple-dev/ripple/internal/config"
	"github.com/ripple-dev/ripple/pkg/cascade"
	"github.com/ripple-dev/ripple/pkg/records"
	"github.com/ripple-dev/ripple/pkg/server"
	sess "github.com/ripple-dev/ripple/pkg/session"
)

// App assembles a record source, the cascading-filter graph wiring, and
// the live server from a configuration.
type App struct {
	config *config.Config
	source records.Source
	server *server.Server
	logger *slog.Logger
}

// NewApp loads the dataset named by cfg and builds the server.
// The context bounds dataset fetching (S3 in particular).
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	source, err := loadDataset(ctx, cfg.Dataset)
	if err != nil {
		return nil, err
	}
	logger.Info("dataset loaded",
		"records", source.Len(),
		"regions", len(source.Distinct(records.FieldRegion)))

	opts := cascade.Options{
		NameField: cfg.Dataset.NameColumn,
		TopWords:  cfg.Dataset.TopWords,
	}

	srv, err := server.New(server.Config{
		Addr: cfg.Addr,
		Build: func(s *sess.Session, surface server.Surface) error {
			return cascade.Build(s, source, surface, opts)
		},
		Sessions: sess.Config{
			MaxSessions:       cfg.Sessions.MaxSessions,
			MaxPassesPerFlush: cfg.Sessions.MaxPassesPerFlush,
			Logger:            logger,
		},
		EnableMetrics: cfg.Metrics,
		EnableTracing: cfg.Tracing,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		config: cfg,
		source: source,
		server: srv,
		logger: logger,
	}, nil
}

// loadDataset builds the record source from local CSV or S3.
func loadDataset(ctx context.Context, d config.DatasetConfig) (records.Source, error) {
	opts := records.CSVOptions{
		RegionColumn:   d.RegionColumn,
		LocalityColumn: d.LocalityColumn,
	}

	if d.Path != "" {
		return records.FromCSVFile(d.Path, opts)
	}

	client, err := records.NewS3Client(ctx)
	if err != nil {
		return nil, err
	}
	return records.FromS3(ctx, client, d.S3Bucket, d.S3Key, opts)
}

// Source returns the loaded record source.
func (a *App) Source() records.Source {
	return a.source
}

// Server returns the underlying live server.
func (a *App) Server() *server.Server {
	return a.server
}

// Run serves until the context is canceled or the listener fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.logger.Info("shutting down")
		if err := a.server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("ripple: shutdown: %w", err)
		}
		return nil
	}
}
