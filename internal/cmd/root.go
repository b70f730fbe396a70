package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for trialscope
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trialscope",
		Short: "Behavioral trial-log analysis for rodent experiments",
		Long: `Trialscope analyzes raw trial logs from operant boxes.

It classifies every trial into a behavioral outcome, computes signal detection
metrics and lick latencies per session, and summarizes an animal's sessions
across days.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .trialscope.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error (default: from config)")

	cmd.AddCommand(NewSessionCommand())
	cmd.AddCommand(NewAcrossDaysCommand())
	cmd.AddCommand(NewDedupCommand())
	cmd.AddCommand(NewConcatCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
