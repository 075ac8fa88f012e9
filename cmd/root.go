// Package cmd implements the remote-jobs CLI surface: thin cobra commands
// over internal/sweep, internal/tracking, internal/workload, and
// internal/channel.
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wbeardall/schedtools-go/internal/config"
	"github.com/wbeardall/schedtools-go/internal/logging"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	hostFlag    string
	logLevel    string
	logJSON     bool
	insecureKey bool
)

var rootCmd = &cobra.Command{
	Use:   "remote-jobs",
	Short: "Supervise and reconcile batch jobs on remote PBS/SLURM clusters",
	Long: `remote-jobs tracks batch jobs submitted to a remote PBS or SLURM cluster
over SSH, periodically reconciling the scheduler's live queue against a
local durable store and rerunning jobs that are approaching their
walltime limit.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "configured host alias, or ssh://user@host:port")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "force JSON log output")
	rootCmd.PersistentFlags().BoolVar(&insecureKey, "insecure-host-key", false, "skip SSH host key verification (testing only)")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	if len(os.Args) == 1 {
		cfg, _ := config.Load()
		if cfg != nil && cfg.DefaultCommand != "" {
			os.Args = append(os.Args, cfg.DefaultCommand)
		}
	}
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("remote-jobs %s\n", Version)
	},
}

func newLogger() zerolog.Logger {
	level := logging.InfoLevel
	switch logLevel {
	case "debug":
		level = logging.DebugLevel
	case "warn":
		level = logging.WarnLevel
	case "error":
		level = logging.ErrorLevel
	}
	return logging.New(logging.Config{Level: level, JSON: logJSON})
}
