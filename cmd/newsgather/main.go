// Command newsgather manages news sources and runs the acquisition
// pipeline by hand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pevans/newsgather/app"
	"github.com/pevans/newsgather/config"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string

	// logLevel overrides the configured log level.
	logLevel string

	rootCmd = &cobra.Command{
		Use:           "newsgather",
		Short:         "Regional news acquisition",
		Long:          `Fetch local news sources, extract their articles and keep the ones relevant to a region or topic.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ~/.newsgather/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level: debug, info, warn or error")

	rootCmd.AddCommand(newSourcesCommand())
	rootCmd.AddCommand(newScrapeCommand())
	rootCmd.AddCommand(newExtractCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newResultsCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// openApp loads the configuration and wires the components. The caller
// closes the app.
func openApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Open(cfg)
}
