package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harrison/trialscope/internal/behavioral"
	"github.com/harrison/trialscope/internal/metadata"
	"github.com/harrison/trialscope/internal/pipeline"
	"github.com/harrison/trialscope/internal/store"
)

// NewAcrossDaysCommand creates the 'trialscope across-days' command
func NewAcrossDaysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "across-days <log-file>...",
		Short: "Summarize an animal's sessions across days",
		Long: `Analyze many session logs concurrently and build a cross-day table,
one row per session ordered by date.

Files that cannot be analyzed are reported and skipped; the remaining
sessions are still summarized.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAcrossDays,
	}

	cmd.Flags().String("animal", "", "Only include logs for this animal ID")
	cmd.Flags().StringP("output", "o", "", "Write the summary to this file instead of stdout")
	cmd.Flags().StringP("format", "f", "", "Output format: csv, json, markdown, html (default: from --output extension, else csv)")
	cmd.Flags().Bool("save", false, "Store the summary in the history database")
	cmd.Flags().Int("workers", 0, "Number of files analyzed concurrently (default: from config)")
	cmd.Flags().String("protocol", "", "Override the protocol named in each filename")
	cmd.Flags().String("tone-map", "", "Tone-spout mapping CSV (default: from config)")
	cmd.Flags().String("db", "", "History database path (default: from config)")

	return cmd
}

func runAcrossDays(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	toneMap, err := loadToneMap(cfg)
	if err != nil {
		return err
	}

	animal, _ := cmd.Flags().GetString("animal")
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	save, _ := cmd.Flags().GetBool("save")
	protocolOverride, _ := cmd.Flags().GetString("protocol")
	if format == "" {
		format = formatFromPath(outputPath, "csv")
	}

	paths := args
	log := newLogger(cmd, cfg)
	if animal != "" {
		paths = filterByAnimal(paths, animal, log.LogDebug)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no log files to analyze")
	}

	log.SetTotal(len(paths))
	runner := pipeline.NewRunner(runnerOptions(cfg, toneMap, protocolOverride), log)
	result, err := runner.Run(cmd.Context(), paths)
	if err != nil {
		return err
	}
	if len(result.Reports) == 0 {
		return fmt.Errorf("none of the %d files could be analyzed", len(paths))
	}

	if save {
		dbPath, err := cfg.ResolveDBPath()
		if err != nil {
			return err
		}
		if err := saveSummary(cmd, dbPath, result); err != nil {
			return err
		}
	}

	if outputPath != "" {
		if err := behavioral.ExportToFile(result.Summary, outputPath, format, cfg.StimulusColumns); err != nil {
			return err
		}
		log.LogInfo(fmt.Sprintf("Summary written to %s", outputPath))
		return nil
	}

	content, err := behavioral.ExportToString(result.Summary, format, cfg.StimulusColumns)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), content)
	return nil
}

// filterByAnimal keeps the paths whose filename names animal.
// Unparseable names are kept so the pipeline reports them as skipped.
func filterByAnimal(paths []string, animal string, debug func(string)) []string {
	var kept []string
	for _, p := range paths {
		meta, err := metadata.Parse(p)
		if err == nil && meta.Animal != animal {
			debug(fmt.Sprintf("Ignoring %s (animal %s)", filepath.Base(p), meta.Animal))
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func saveSummary(cmd *cobra.Command, dbPath string, result *pipeline.Result) error {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open history database: %w", err)
	}
	defer s.Close()

	runID, err := s.SaveSummary(cmd.Context(), result.Summary.Animal, summaryProtocol(result.Summary), result.Summary)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %s\n", runID)
	return nil
}

// summaryProtocol returns the protocol shared by every entry, or "mixed"
func summaryProtocol(s *behavioral.CrossDaySummary) string {
	protocol := ""
	for i := range s.Entries {
		p := s.Entries[i].Protocol
		if protocol == "" {
			protocol = p
		} else if p != protocol {
			return "mixed"
		}
	}
	return protocol
}
