// Command plantctl inspects a plant catalog and replays walks through it
// without a device.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abgtour/planttour/internal/adapters/catalog"
	"github.com/abgtour/planttour/internal/core/usecases"
	"github.com/abgtour/planttour/internal/pkg/config"
	"github.com/abgtour/planttour/internal/pkg/logging"
)

var (
	catalogFlag  string
	heightColumn int
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:           "plantctl",
	Short:         "Inspect the plant catalog and replay tours",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "warn"
		if verbose {
			level = "debug"
		}
		logging.Setup(level, "text")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&catalogFlag, "catalog", "c", "", "catalog file path or URL (default: configured catalog)")
	rootCmd.PersistentFlags().IntVar(&heightColumn, "height-column", 0, "zero-based height column (default: configured)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// catalogService builds a CatalogService from flags, falling back to the
// service configuration.
func catalogService() (*usecases.CatalogService, error) {
	cfg, err := config.Load("planttour-plantctl")
	if err != nil {
		return nil, err
	}
	location := cfg.Tour.CatalogSource()
	if catalogFlag != "" {
		location = catalogFlag
	}
	layout := usecases.DefaultLayout
	layout.Height = cfg.Tour.HeightColumn
	if heightColumn > 0 {
		layout.Height = heightColumn
	}
	timeout := cfg.Tour.FetchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return usecases.NewCatalogService(catalog.NewSource(location, timeout), nil, layout, 0), nil
}
