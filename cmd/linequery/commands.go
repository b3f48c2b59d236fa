package main

import (
	"log/slog"
	"os"

	"github.com/JonMunkholm/linequery/internal/logging"
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. A fresh tree per call keeps flag state
// out of package globals.
func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:          "linequery",
		Short:        "Query the lines of a text file",
		Long:         "linequery applies filter, map, regex, sort and limit or unique to the lines of a file and prints the result as a JSON array.",
		SilenceUsage: true,
		// Logs go to stderr so stdout stays valid JSON.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), logLevel, "text"))
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "log level: debug, info, warn, error")

	rootCmd.AddCommand(newRunCmd())
	return rootCmd
}

// envOr returns the environment variable key, or def when it is unset.
func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
