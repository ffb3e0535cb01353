package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/williampepple1/dspace-site-finder/internal/config"
	"github.com/williampepple1/dspace-site-finder/internal/geo"
	"github.com/williampepple1/dspace-site-finder/internal/io"
	"github.com/williampepple1/dspace-site-finder/internal/proxy"
	"github.com/williampepple1/dspace-site-finder/internal/scraper"
)

func countryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "country <input.csv> <output.csv> [url-column]",
		Short: "Append the hosting country of each site",
		Long: `Copies the input table to the output with a COUNTRY column, looked up
from the host of the URL column (default 1) via geo.endpoint.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: runCountry,
	}
}

func runCountry(cmd *cobra.Command, args []string) error {
	d, err := loadDeps()
	if err != nil {
		return err
	}
	defer func() { _ = d.Logger.Sync() }()

	column, err := columnArg(args, 2, 1)
	if err != nil {
		return err
	}

	table, err := io.NewTableReader(d.Config.IO.FallbackEncoding).Open(args[0])
	if err != nil {
		return err
	}
	out, err := io.NewResultWriter(args[1], nil)
	if err != nil {
		return err
	}
	defer out.Close()

	fetcherCfg := config.FetcherConfig{Timeout: d.Config.Geo.Timeout, UserAgents: d.Config.Fetcher.UserAgents}
	loader := scraper.NewHTTPLoader(&fetcherCfg, proxy.NewManager(&d.Config.Proxies), d.Logger)

	rows, err := geo.NewLocator(loader, d.Config.Geo.Endpoint, d.Logger).Enrich(cmd.Context(), table, out, column)
	if err != nil {
		return fmt.Errorf("country lookup: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", rows, args[1])
	return out.Close()
}
