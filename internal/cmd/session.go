package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/trialscope/internal/behavioral"
	"github.com/harrison/trialscope/internal/filelock"
	"github.com/harrison/trialscope/internal/pipeline"
)

// NewSessionCommand creates the 'trialscope session' command
func NewSessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session <log-file>",
		Short: "Analyze a single session log",
		Long: `Classify every trial of one raw log and report:
  - outcome counts per category
  - hit rate, false alarm rate and d'
  - lick latency per spout
  - per-stimulus and per-block breakdowns where the protocol has them

The protocol, animal, date and box are read from the filename, e.g.
2ChoiceAuditory_925145_20250530_101500_box1.csv`,
		Args: cobra.ExactArgs(1),
		RunE: runSession,
	}

	cmd.Flags().StringP("format", "f", "text", "Output format: text, json, markdown, html")
	cmd.Flags().StringP("output", "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().String("protocol", "", "Override the protocol named in the filename")
	cmd.Flags().String("tone-map", "", "Tone-spout mapping CSV (default: from config)")

	return cmd
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	toneMap, err := loadToneMap(cfg)
	if err != nil {
		return err
	}
	protocolOverride, _ := cmd.Flags().GetString("protocol")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	log := newLogger(cmd, cfg)
	runner := pipeline.NewRunner(runnerOptions(cfg, toneMap, protocolOverride), log)

	report, err := runner.ProcessFile(args[0])
	if err != nil {
		return err
	}

	var content string
	if strings.EqualFold(format, "text") {
		content = formatSessionText(report, outputPath == "")
	} else {
		content, err = behavioral.RenderSession(report, format)
		if err != nil {
			return err
		}
	}

	if outputPath != "" {
		if err := filelock.LockAndWrite(outputPath, []byte(content)); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		log.LogInfo(fmt.Sprintf("Report written to %s", outputPath))
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), content)
	if !strings.HasSuffix(content, "\n") {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}
