package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ripple-dev/ripple"
	"github.com/ripple-dev/ripple/internal/config"
)

func serveCmd() *cobra.Command {
	var (
		configDir string
		addr      string
		dataPath  string
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the live session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configDir)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if dataPath != "" {
				cfg.Dataset.Path = dataPath
				cfg.Dataset.S3Bucket = ""
				cfg.Dataset.S3Key = ""
			}

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			}))
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := ripple.NewApp(ctx, cfg, logger)
			if err != nil {
				return err
			}

			success("listening on %s", cfg.Addr)
			return app.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&configDir, "config", "c", ".", "directory containing ripple.json")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides config)")
	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "CSV dataset path (overrides config)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	return cmd
}
