package main

import (
	"github.com/spf13/cobra"

	"github.com/williampepple1/dspace-site-finder/internal/discovery"
	"github.com/williampepple1/dspace-site-finder/internal/logger"
	"github.com/williampepple1/dspace-site-finder/internal/scraper"
)

func googleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "google <output.csv> [all|1,2,5]",
		Short: "Collect DSpace sites from canned Google searches",
		Long: `Runs the selected searches (all by default) and writes the unique,
valid site URLs as SOURCE, DSPACE_URL. Searches are paced by
discovery.google_pause; running a few at a time avoids being blocked.

  1  htmlmap "url list" -map
  2  htmlmap "ResourceNotFoundException"
  3  allinurl:xmlui community-list
  4  allinurl:jspui community-list
  5  allinurl:dspace community-list
  6  allinurl:oai request`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runGoogle,
	}
}

func runGoogle(cmd *cobra.Command, args []string) error {
	d, err := loadDeps()
	if err != nil {
		return err
	}
	defer func() { _ = d.Logger.Sync() }()

	queries, err := discovery.SelectQueries(stringArg(args, 1, "all"))
	if err != nil {
		return err
	}
	for _, q := range queries {
		d.Logger.Debug("query selected", logger.String("id", q.ID), logger.String("query", q.Text))
	}

	g := discovery.NewGoogle(scraper.New(d.Config, d.Logger), d.Config.Discovery, queries, d.Logger)
	return discover(cmd.Context(), cmd, d, []discovery.Source{g}, args[0])
}
