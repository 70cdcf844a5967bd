package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ripple-dev/ripple/internal/config"
	"github.com/ripple-dev/ripple/pkg/cascade"
	"github.com/ripple-dev/ripple/pkg/records"
)

func inspectCmd() *cobra.Command {
	var (
		configDir string
		dataPath  string
		topWords  int
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize a dataset's regions, localities, and word frequencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configDir)
			if err != nil {
				return err
			}
			if dataPath != "" {
				cfg.Dataset.Path = dataPath
			}
			if cfg.Dataset.Path == "" {
				return fmt.Errorf("inspect requires a local dataset (--data or ripple.json)")
			}

			src, err := records.FromCSVFile(cfg.Dataset.Path, records.CSVOptions{
				RegionColumn:   cfg.Dataset.RegionColumn,
				LocalityColumn: cfg.Dataset.LocalityColumn,
			})
			if err != nil {
				return err
			}

			success("%d records", src.Len())
			for _, region := range src.Distinct(records.FieldRegion) {
				matched := src.Filter(func(r records.Record) bool {
					return r.Region == region
				})
				localities := make(map[string]bool)
				for _, r := range matched {
					localities[r.Locality] = true
				}
				info("%s: %d records, %d localities", region, len(matched), len(localities))
			}

			nameField := cfg.Dataset.NameColumn
			if nameField == "" {
				nameField = "name"
			}
			all := src.Filter(func(records.Record) bool { return true })
			counts := cascade.CountWords(all, nameField, topWords)
			if len(counts) > 0 {
				info("top %q words:", nameField)
				for _, wc := range counts {
					info("  %-20s %d", wc.Word, wc.Count)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configDir, "config", "c", ".", "directory containing ripple.json")
	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "CSV dataset path (overrides config)")
	cmd.Flags().IntVarP(&topWords, "top", "n", 10, "number of top words to show")

	return cmd
}
