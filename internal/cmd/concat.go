package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harrison/trialscope/internal/filelock"
	"github.com/harrison/trialscope/internal/merge"
	"github.com/harrison/trialscope/internal/metadata"
	"github.com/harrison/trialscope/internal/pipeline"
	"github.com/harrison/trialscope/internal/trialcsv"
)

// NewConcatCommand creates the 'trialscope concat' command
func NewConcatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "concat <log-file> <log-file>",
		Short: "Join two logs recorded on the same day",
		Long: `Append the later of two same-day logs to the earlier one. Trial numbers
of the later log continue after the earlier log's last trial.

The logs are ordered by the timestamp in their filenames. By default the joined
log replaces the earlier file, both originals are copied to old/, and the
later file is removed.`,
		Args: cobra.ExactArgs(2),
		RunE: runConcat,
	}

	cmd.Flags().StringP("output", "o", "", "Write the joined log here (default: the earlier file)")
	cmd.Flags().Bool("backup", true, "Copy both originals to old/ before writing")

	return cmd
}

func runConcat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	outputPath, _ := cmd.Flags().GetString("output")
	backup, _ := cmd.Flags().GetBool("backup")

	earlierPath, laterPath, err := orderSameDay(args[0], args[1])
	if err != nil {
		return err
	}
	if outputPath == "" {
		outputPath = earlierPath
	}

	opts := runnerOptions(cfg, nil, "")
	opts.Deduplicate = false
	runner := pipeline.NewRunner(opts, nil)
	earlier, err := runner.Load(earlierPath)
	if err != nil {
		return err
	}
	later, err := runner.Load(laterPath)
	if err != nil {
		return err
	}
	if !earlier.Table.Has(trialcsv.ColTrialNumber) || !later.Table.Has(trialcsv.ColTrialNumber) {
		return fmt.Errorf("both logs need a %s column", trialcsv.ColTrialNumber)
	}

	joined := merge.Concat(earlier.Table.Records, later.Table.Records)
	var buf bytes.Buffer
	if err := trialcsv.WriteTable(&buf, earlier.Table.Append(later.Table, joined)); err != nil {
		return fmt.Errorf("encode joined log: %w", err)
	}

	log := newLogger(cmd, cfg)
	if backup {
		for _, p := range []string{earlierPath, laterPath} {
			dst, err := filelock.Backup(p)
			if err != nil {
				return err
			}
			log.LogInfo(fmt.Sprintf("Original saved to %s", dst))
		}
	}
	if err := filelock.LockAndWrite(outputPath, buf.Bytes()); err != nil {
		return fmt.Errorf("write joined log: %w", err)
	}
	if backup && outputPath == earlierPath {
		if err := os.Remove(laterPath); err != nil {
			return fmt.Errorf("remove %s: %w", laterPath, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Joined %d + %d trials -> %s\n", len(earlier.Table.Records), len(later.Table.Records), outputPath)
	return nil
}

// orderSameDay returns the two paths earliest first.
// Both must name the same animal, protocol and calendar day.
func orderSameDay(a, b string) (string, string, error) {
	if filepath.Clean(a) == filepath.Clean(b) {
		return "", "", fmt.Errorf("cannot join %s with itself", a)
	}
	ma, err := metadata.Parse(a)
	if err != nil {
		return "", "", err
	}
	mb, err := metadata.Parse(b)
	if err != nil {
		return "", "", err
	}
	if ma.Animal != mb.Animal {
		return "", "", fmt.Errorf("logs are for different animals: %s and %s", ma.Animal, mb.Animal)
	}
	if !ma.IsProtocol(mb.Protocol) {
		return "", "", fmt.Errorf("logs use different protocols: %s and %s", ma.Protocol, mb.Protocol)
	}
	if ma.DateString() != mb.DateString() {
		return "", "", fmt.Errorf("logs were recorded on different days: %s and %s", ma.DateString(), mb.DateString())
	}
	if mb.Date.Before(ma.Date) {
		return b, a, nil
	}
	return a, b, nil
}
