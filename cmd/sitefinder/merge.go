package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/williampepple1/dspace-site-finder/internal/io"
	"github.com/williampepple1/dspace-site-finder/internal/logger"
	"github.com/williampepple1/dspace-site-finder/internal/merge"
)

func mergeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <first.csv> [second.csv] [merged.csv] [url-column]",
		Short: "Merge two site tables and drop duplicate sites",
		Long: `Writes the first table (with its header) followed by the second (without
its header) to merged.csv (default output.csv), keeping only the first row
for each site. Sites are compared on the URL column (default 1). Pass a
single table to just remove its duplicates.`,
		Args: cobra.RangeArgs(1, 4),
		RunE: runMerge,
	}
}

func runMerge(cmd *cobra.Command, args []string) error {
	d, err := loadDeps()
	if err != nil {
		return err
	}
	defer func() { _ = d.Logger.Sync() }()

	column, err := columnArg(args, 3, merge.DefaultURLColumn)
	if err != nil {
		return err
	}
	first := args[0]
	second := stringArg(args, 1, "")
	merged := stringArg(args, 2, merge.DefaultOutput)

	d.Logger.Info("merging tables",
		logger.String("first", first),
		logger.String("second", second),
		logger.String("output", merged),
		logger.Int("url_column", column))

	res, err := merge.Files(io.NewTableReader(d.Config.IO.FallbackEncoding), first, second, merged, column)
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Read %d rows, wrote %d to %s\n", res.Read, res.Written, merged)
	return nil
}
