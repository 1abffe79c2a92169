package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"leona-console/internal/config"
)

var (
	cfg = config.Load()

	executeAPI bool
	debug      bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "leona",
	Short: "Converse with LEONA about satellite data",
	Long: `leona is a terminal client for the LEONA satellite-data assistant.

Ask about deforestation, urban heat islands or crop irrigation; analysis
results are rendered as tables and range bars. Conversations are kept per
tab in a local cache and mirrored to the remote history service.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("execute-api") {
			cfg.SetExecuteAPI(executeAPI)
		}
		return cfg.Validate()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.BackendURL, "backend-url", cfg.BackendURL, "LEONA backend URL (or set LEONA_BACKEND_URL)")
	flags.StringVar(&cfg.ParamPrefix, "param-prefix", cfg.ParamPrefix, "SSM parameter prefix used to resolve the backend URL")
	flags.StringVar(&cfg.TabID, "tab", cfg.TabID, "Tab id scoping the local conversation cache")
	flags.StringVar(&cfg.CachePath, "cache", cfg.CachePath, "Path of the local tab cache file")
	flags.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Directory for log, trace and metric files")
	flags.BoolVar(&executeAPI, "execute-api", cfg.ExecuteAPI, "Let the backend run the recommended analysis")
	flags.BoolVar(&cfg.Telemetry, "telemetry", cfg.Telemetry, "Export traces and metrics to the log directory")
	flags.BoolVarP(&debug, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
