package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/williampepple1/dspace-site-finder/internal/classifier"
	"github.com/williampepple1/dspace-site-finder/internal/fetcher"
	"github.com/williampepple1/dspace-site-finder/internal/io"
	"github.com/williampepple1/dspace-site-finder/internal/logger"
	"github.com/williampepple1/dspace-site-finder/internal/proxy"
	"github.com/williampepple1/dspace-site-finder/internal/runner"
	"github.com/williampepple1/dspace-site-finder/pkg/models"
)

func parseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <input.csv> <output.csv> [url-column]",
		Short: "Probe every site in a table and report its DSpace version and UI",
		Long: `Reads a table of candidate sites (header row first) and writes
SOURCE, DSPACE_URL, RESPONSE, VERSION_TAG, UI_TYPE for each row.

The URL column defaults to the second column, or the first when a row has
only one. Input and output may also be set in the io section of the config.`,
		Args: cobra.MaximumNArgs(3),
		RunE: runParse,
	}
}

func runParse(cmd *cobra.Command, args []string) error {
	d, err := loadDeps()
	if err != nil {
		return err
	}
	defer func() { _ = d.Logger.Sync() }()

	inputFile := stringArg(args, 0, d.Config.IO.InputFile)
	outputFile := stringArg(args, 1, d.Config.IO.OutputFile)
	if inputFile == "" || outputFile == "" {
		return errors.New("input and output files are required")
	}
	column, err := columnArg(args, 2, d.Config.IO.URLColumn)
	if err != nil {
		return err
	}

	table, err := io.NewTableReader(d.Config.IO.FallbackEncoding).Open(inputFile)
	if err != nil {
		return err
	}
	out, err := io.NewResultWriter(outputFile, models.OutputHeader)
	if err != nil {
		return err
	}
	defer out.Close()

	f := fetcher.New(d.Config.Fetcher, proxy.NewManager(&d.Config.Proxies), d.Logger)
	r := runner.New(f, classifier.New(f, d.Logger), column, d.Logger)

	d.Logger.Info("parsing sites",
		logger.String("input", inputFile),
		logger.String("output", outputFile),
		logger.Int("max_redirects", d.Config.Fetcher.MaxRedirects),
		logger.Duration("timeout", d.Config.Fetcher.Timeout))

	counters, err := r.Run(cmd.Context(), table, out)
	if err != nil {
		return fmt.Errorf("parse %s: %w", inputFile, err)
	}

	elapsed := time.Since(counters.Started).Round(time.Second)
	fmt.Fprintf(cmd.OutOrStdout(),
		"Processed %d sites in %v. Valid: %d (JSPUI: %d, XMLUI: %d), Unknown UI: %d, Invalid: %d, Errors: %d\n",
		counters.Processed, elapsed, counters.Valid, counters.JSPUI, counters.XMLUI,
		counters.UnknownUI, counters.Invalid, counters.Errors)
	fmt.Fprintf(cmd.OutOrStdout(), "Results saved to %s\n", outputFile)

	return out.Close()
}
