package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/williampepple1/dspace-site-finder/internal/discovery"
	"github.com/williampepple1/dspace-site-finder/internal/io"
	"github.com/williampepple1/dspace-site-finder/internal/proxy"
	"github.com/williampepple1/dspace-site-finder/internal/scraper"
	"github.com/williampepple1/dspace-site-finder/pkg/models"
)

func findCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "find <output.csv>",
		Short: "Collect DSpace sites listed by OpenDOAR and ROAR",
		Long: `Queries the repository registries enabled under discovery.sources and
writes the unique, valid site URLs as SOURCE, DSPACE_URL.`,
		Args: cobra.ExactArgs(1),
		RunE: runFind,
	}
}

func runFind(cmd *cobra.Command, args []string) error {
	d, err := loadDeps()
	if err != nil {
		return err
	}
	defer func() { _ = d.Logger.Sync() }()

	cfg := d.Config.Discovery
	loader := scraper.NewHTTPLoader(&d.Config.Fetcher, proxy.NewManager(&d.Config.Proxies), d.Logger)
	sources := []discovery.Source{
		discovery.NewOpenDOAR(loader, cfg.OpenDOARURL, d.Logger),
		discovery.NewROAR(loader, cfg.ROARURL, cfg.ROARSets, d.Logger),
	}

	return discover(cmd.Context(), cmd, d, sources, args[0])
}

// discover runs sources and writes their candidates to outputFile
func discover(ctx context.Context, cmd *cobra.Command, d *deps, sources []discovery.Source, outputFile string) error {
	candidates, err := discovery.Run(ctx, sources, d.Config.Discovery, d.Logger)
	if err != nil {
		return fmt.Errorf("discover sites: %w", err)
	}

	out, err := io.NewResultWriter(outputFile, models.CandidateHeader)
	if err != nil {
		return err
	}
	defer out.Close()

	for _, c := range candidates {
		if err := out.Write(c.Record()); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Found %d sites. Results saved to %s\n", len(candidates), outputFile)
	return out.Close()
}
