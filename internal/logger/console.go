// Package logger provides leveled console logging for trialscope runs.
//
// ConsoleLogger writes timestamped lines and implements pipeline.Logger, so a
// batch run reports each file as it starts, is skipped, or completes, and ends
// with a batch summary. It is safe for concurrent use by pipeline workers.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/trialscope/internal/behavioral"
	"github.com/harrison/trialscope/internal/pipeline"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs run progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// Color output is enabled when the writer is a terminal and NO_COLOR is unset.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	progress    *ProgressBar
}

var _ pipeline.Logger = (*ConsoleLogger)(nil)

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

// Level returns the configured minimum level
func (cl *ConsoleLogger) Level() string {
	return cl.logLevel
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// Warnf formats and logs a warning
func (cl *ConsoleLogger) Warnf(format string, args ...interface{}) {
	cl.logWithLevel("WARN", fmt.Sprintf(format, args...))
}

// SetTotal starts tracking progress across a batch of total files
func (cl *ConsoleLogger) SetTotal(total int) {
	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	cl.progress = NewProgressBar(total, 20, cl.colorOutput)
	cl.progress.SetPrefix("files ")
}

// LogFileStart logs that a file is being analyzed
func (cl *ConsoleLogger) LogFileStart(path string) {
	cl.logWithLevel("DEBUG", fmt.Sprintf("Analyzing %s", path))
}

// LogFileSkipped logs a file that could not be analyzed
func (cl *ConsoleLogger) LogFileSkipped(err *pipeline.FileError) {
	if err == nil {
		return
	}
	cl.advance()
	cl.logWithLevel("WARN", fmt.Sprintf("Skipped %s (%s): %v", filepath.Base(err.Path), err.Kind, err.Err))
}

// LogSessionComplete logs a one-line result for an analyzed session
func (cl *ConsoleLogger) LogSessionComplete(report *behavioral.SessionReport, duration time.Duration) {
	if report == nil {
		return
	}
	cl.advance()
	m := &report.Metrics
	msg := fmt.Sprintf("%s %s %s box %s: %d trials, %s (%s)",
		cl.mark(true), m.Animal, m.Date.Format("2006-01-02"), m.Box, m.TotalTrials,
		formatSessionMetrics(m, cl.colorOutput), duration.Round(time.Millisecond))
	cl.logWithLevel("INFO", msg)
}

// LogBatchSummary logs the outcome of a batch run
func (cl *ConsoleLogger) LogBatchSummary(result *pipeline.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyzed %d/%d files in %s", len(result.Reports), result.Total(), result.Duration.Round(time.Millisecond))
	if len(result.Skipped) > 0 {
		byKind := make(map[string]int)
		for _, skip := range result.Skipped {
			byKind[skip.Kind.String()]++
		}
		kinds := make([]string, 0, len(byKind))
		for k := range byKind {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		parts := make([]string, 0, len(kinds))
		for _, k := range kinds {
			parts = append(parts, fmt.Sprintf("%s: %d", k, byKind[k]))
		}
		fmt.Fprintf(&sb, "; skipped %d (%s)", len(result.Skipped), strings.Join(parts, ", "))
	}
	if result.Summary != nil && len(result.Summary.Entries) > 0 {
		first := result.Summary.Entries[0].Date.Format("2006-01-02")
		last := result.Summary.Entries[len(result.Summary.Entries)-1].Date.Format("2006-01-02")
		fmt.Fprintf(&sb, "; days %s to %s", first, last)
	}

	level := "INFO"
	if len(result.Skipped) > 0 {
		level = "WARN"
	}
	cl.logWithLevel(level, sb.String())

	cl.mutex.Lock()
	bar := cl.progress
	cl.mutex.Unlock()
	if bar != nil {
		cl.logWithLevel("DEBUG", bar.Render())
	}
}

func (cl *ConsoleLogger) advance() {
	cl.mutex.Lock()
	bar := cl.progress
	cl.mutex.Unlock()
	if bar != nil {
		bar.Increment()
	}
}

func (cl *ConsoleLogger) mark(ok bool) string {
	if ok {
		if cl.colorOutput {
			return color.New(color.FgGreen).Sprint("✓")
		}
		return "✓"
	}
	if cl.colorOutput {
		return color.New(color.FgRed).Sprint("✗")
	}
	return "✗"
}

// logWithLevel logs a message at the specified level if filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = cl.formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// formatWithColor formats a log message with ANSI color codes.
func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string

	switch level {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}

	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// timestamp returns the current time formatted as HH:MM:SS.
func timestamp() string {
	return time.Now().Format("15:04:05")
}
