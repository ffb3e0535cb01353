package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/williampepple1/dspace-site-finder/internal/config"
	"github.com/williampepple1/dspace-site-finder/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	// cfgFile is the optional YAML configuration file
	cfgFile string

	// debug switches the logger to development mode at debug level
	debug bool

	rootCmd = &cobra.Command{
		Use:   "sitefinder",
		Short: "Find DSpace repositories and report their version and UI",
		Long: `sitefinder discovers candidate DSpace sites from registries and search
results, then probes each one to report the DSpace version and whether it
runs the JSPUI or XMLUI.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); defaults are used when omitted")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sitefinder version %s\n", version)
		},
	})

	rootCmd.AddCommand(parseCommand())
	rootCmd.AddCommand(findCommand())
	rootCmd.AddCommand(googleCommand())
	rootCmd.AddCommand(mergeCommand())
	rootCmd.AddCommand(countryCommand())
}

// deps are the pieces every subcommand needs
type deps struct {
	Config *config.AppConfig
	Logger logger.Logger
}

func loadDeps() (*deps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if debug {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &deps{Config: cfg, Logger: log}, nil
}

// columnArg parses an optional column index argument
func columnArg(args []string, i, fallback int) (int, error) {
	if len(args) <= i || args[i] == "" {
		return fallback, nil
	}
	column, err := strconv.Atoi(args[i])
	if err != nil || column < 0 {
		return 0, fmt.Errorf("invalid url column %q", args[i])
	}
	return column, nil
}

// stringArg returns args[i] or fallback
func stringArg(args []string, i int, fallback string) string {
	if len(args) <= i || args[i] == "" {
		return fallback
	}
	return args[i]
}
