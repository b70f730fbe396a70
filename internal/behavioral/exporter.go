package behavioral

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrison/trialscope/internal/filelock"
)

// Exporter renders a cross-day summary in one output format
type Exporter interface {
	Export(summary *CrossDaySummary) (string, error)
}

// JSONExporter exports the summary entries as JSON
type JSONExporter struct {
	Pretty bool // Enable pretty printing with indentation
}

// Export converts the summary to a JSON string
func (je *JSONExporter) Export(summary *CrossDaySummary) (string, error) {
	if err := summary.Validate(); err != nil {
		return "", fmt.Errorf("invalid summary: %w", err)
	}

	var data []byte
	var err error
	if je.Pretty {
		data, err = json.MarshalIndent(summary, "", "  ")
	} else {
		data, err = json.Marshal(summary)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// CSVExporter exports the summary table with a header row
type CSVExporter struct {
	StimulusOrder []string
}

// Export converts the summary to CSV
func (ce *CSVExporter) Export(summary *CrossDaySummary) (string, error) {
	if err := summary.Validate(); err != nil {
		return "", fmt.Errorf("invalid summary: %w", err)
	}

	table := summary.Table(ce.StimulusOrder...)
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(table.Columns); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := w.WriteAll(table.Rows); err != nil {
		return "", fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return buf.String(), nil
}

// MarkdownExporter exports the summary as a Markdown report
type MarkdownExporter struct {
	IncludeTimestamp bool // Include export timestamp in header
	StimulusOrder    []string
}

// Export converts the summary to Markdown
func (me *MarkdownExporter) Export(summary *CrossDaySummary) (string, error) {
	if err := summary.Validate(); err != nil {
		return "", fmt.Errorf("invalid summary: %w", err)
	}

	var sb strings.Builder
	if summary.Animal != "" {
		sb.WriteString(fmt.Sprintf("# Cross-day Summary: Animal %s\n\n", summary.Animal))
	} else {
		sb.WriteString("# Cross-day Summary\n\n")
	}
	if summary.Subtitle != "" {
		sb.WriteString(fmt.Sprintf("_%s_\n\n", summary.Subtitle))
	}
	if me.IncludeTimestamp {
		sb.WriteString(fmt.Sprintf("**Generated**: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))
	}
	sb.WriteString(fmt.Sprintf("- **Sessions**: %d\n", len(summary.Entries)))
	if n := len(summary.Entries); n > 0 {
		sb.WriteString(fmt.Sprintf("- **First Day**: %s\n", summary.Entries[0].Date.Format("2006-01-02")))
		sb.WriteString(fmt.Sprintf("- **Last Day**: %s\n", summary.Entries[n-1].Date.Format("2006-01-02")))
	}
	sb.WriteString("\n")

	writeMarkdownTable(&sb, summary.Table(me.StimulusOrder...))
	return sb.String(), nil
}

// HTMLExporter renders the Markdown report to a standalone HTML page
type HTMLExporter struct {
	Markdown MarkdownExporter
}

// Export converts the summary to HTML
func (he *HTMLExporter) Export(summary *CrossDaySummary) (string, error) {
	md, err := he.Markdown.Export(summary)
	if err != nil {
		return "", err
	}
	title := "Cross-day Summary"
	if summary.Animal != "" {
		title += " " + summary.Animal
	}
	return markdownToHTML(title, md)
}

// NewExporter returns the exporter for a format name.
// Supported: json, csv, markdown (md), html.
func NewExporter(format string, stimulusOrder []string) (Exporter, error) {
	switch normalizeFormat(format) {
	case "json":
		return &JSONExporter{Pretty: true}, nil
	case "csv":
		return &CSVExporter{StimulusOrder: stimulusOrder}, nil
	case "markdown":
		return &MarkdownExporter{IncludeTimestamp: true, StimulusOrder: stimulusOrder}, nil
	case "html":
		return &HTMLExporter{Markdown: MarkdownExporter{IncludeTimestamp: true, StimulusOrder: stimulusOrder}}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, csv, markdown, html)", format)
	}
}

// ExportToString renders the summary in the given format
func ExportToString(summary *CrossDaySummary, format string, stimulusOrder []string) (string, error) {
	exporter, err := NewExporter(format, stimulusOrder)
	if err != nil {
		return "", err
	}
	return exporter.Export(summary)
}

// ExportToFile renders the summary and writes it atomically under a file lock
func ExportToFile(summary *CrossDaySummary, path, format string, stimulusOrder []string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	content, err := ExportToString(summary, format, stimulusOrder)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return filelock.LockAndWrite(path, []byte(content))
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "md" {
		return "markdown"
	}
	return format
}

func writeMarkdownTable(sb *strings.Builder, t *Table) {
	sb.WriteString("| " + strings.Join(t.Columns, " | ") + " |\n")
	sb.WriteString("|")
	for range t.Columns {
		sb.WriteString("---|")
	}
	sb.WriteString("\n")
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	sb.WriteString("\n")
}

var markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.Table))

func markdownToHTML(title, md string) (string, error) {
	var body bytes.Buffer
	if err := markdownRenderer.Convert([]byte(md), &body); err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	sb.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(title)))
	sb.WriteString("<style>table{border-collapse:collapse}th,td{border:1px solid #ccc;padding:2px 6px}</style>\n")
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString(body.String())
	sb.WriteString("</body>\n</html>\n")
	return sb.String(), nil
}
