package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/trialscope/internal/behavioral"
	"github.com/harrison/trialscope/internal/store"
)

// NewHistoryCommand creates the 'trialscope history' command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List or show saved cross-day summaries",
		Long: `List the cross-day summaries saved with 'trialscope across-days --save',
newest first. Use --show to print one run again or --delete to remove it.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().String("animal", "", "Only list runs for this animal ID")
	cmd.Flags().String("show", "", "Print the summary of this run ID")
	cmd.Flags().String("delete", "", "Delete this run ID")
	cmd.Flags().StringP("format", "f", "markdown", "Format for --show: csv, json, markdown, html")
	cmd.Flags().String("db", "", "History database path (default: from config)")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	animal, _ := cmd.Flags().GetString("animal")
	showID, _ := cmd.Flags().GetString("show")
	deleteID, _ := cmd.Flags().GetString("delete")
	format, _ := cmd.Flags().GetString("format")
	output := cmd.OutOrStdout()

	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		return err
	}
	if dbPath != ":memory:" {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			fmt.Fprintln(output, "No saved summaries found.")
			return nil
		}
	}

	s, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open history database: %w", err)
	}
	defer s.Close()
	ctx := cmd.Context()

	switch {
	case deleteID != "":
		if err := s.DeleteRun(ctx, deleteID); err != nil {
			return err
		}
		fmt.Fprintf(output, "Deleted run %s\n", deleteID)
		return nil
	case showID != "":
		summary, err := s.LoadSummary(ctx, showID)
		if err != nil {
			return err
		}
		content, err := behavioral.ExportToString(summary, format, cfg.StimulusColumns)
		if err != nil {
			return err
		}
		fmt.Fprint(output, content)
		return nil
	}

	runs, err := s.ListRuns(ctx, animal)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(output, "No saved summaries found.")
		return nil
	}
	writeRunTable(output, runs)
	return nil
}

func writeRunTable(w io.Writer, runs []store.Run) {
	header := color.New(color.FgCyan, color.Bold)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header.Sprint("RUN ID")+"\t"+header.Sprint("ANIMAL")+"\t"+header.Sprint("PROTOCOL")+"\t"+header.Sprint("SESSIONS")+"\t"+header.Sprint("SAVED"))
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", r.ID, r.Animal, r.Protocol, r.SessionCount, r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	tw.Flush()
}
