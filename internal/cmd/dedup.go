package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/trialscope/internal/filelock"
	"github.com/harrison/trialscope/internal/merge"
	"github.com/harrison/trialscope/internal/pipeline"
	"github.com/harrison/trialscope/internal/trialcsv"
)

// NewDedupCommand creates the 'trialscope dedup' command
func NewDedupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedup <log-file>",
		Short: "Write a log with repeated trial numbers resolved",
		Long: `Resolve rows that share a trial number: a rewarded row wins, exact
copies collapse, otherwise the first row is kept.

Without --output the log is cleaned in place. With --backup the original is
first copied to old/<name>_old.csv next to it.`,
		Args: cobra.ExactArgs(1),
		RunE: runDedup,
	}

	cmd.Flags().StringP("output", "o", "", "Write the cleaned log here (default: overwrite the input)")
	cmd.Flags().Bool("backup", false, "Copy the original log to old/ before writing")
	cmd.Flags().String("protocol", "", "Override the protocol named in the filename")

	return cmd
}

func runDedup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	input := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	backup, _ := cmd.Flags().GetBool("backup")
	protocolOverride, _ := cmd.Flags().GetString("protocol")
	if outputPath == "" {
		outputPath = input
	}

	opts := runnerOptions(cfg, nil, protocolOverride)
	opts.Deduplicate = false
	s, err := pipeline.NewRunner(opts, nil).Load(input)
	if err != nil {
		return err
	}
	if !s.Table.Has(trialcsv.ColTrialNumber) {
		return fmt.Errorf("%s has no %s column", input, trialcsv.ColTrialNumber)
	}

	resolved := merge.ResolveDuplicates(s.Table.Records)
	removed := len(s.Table.Records) - len(resolved)

	var buf bytes.Buffer
	if err := trialcsv.WriteTable(&buf, s.Table.WithRecords(resolved)); err != nil {
		return fmt.Errorf("encode cleaned log: %w", err)
	}

	log := newLogger(cmd, cfg)
	if backup {
		dst, err := filelock.Backup(input)
		if err != nil {
			return err
		}
		log.LogInfo(fmt.Sprintf("Original saved to %s", dst))
	}
	if err := filelock.LockAndWrite(outputPath, buf.Bytes()); err != nil {
		return fmt.Errorf("write cleaned log: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d duplicate rows (%d trials remain) -> %s\n", removed, len(resolved), outputPath)
	return nil
}
