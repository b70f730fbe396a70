package logger

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/trialscope/internal/behavioral"
	"github.com/harrison/trialscope/internal/models"
	"github.com/harrison/trialscope/internal/pipeline"
)

func TestLogLevelFiltering(t *testing.T) {
	levels := []string{"trace", "debug", "info", "warn", "error"}
	emit := map[string]func(*ConsoleLogger, string){
		"trace": (*ConsoleLogger).LogTrace,
		"debug": (*ConsoleLogger).LogDebug,
		"info":  (*ConsoleLogger).LogInfo,
		"warn":  (*ConsoleLogger).LogWarn,
		"error": (*ConsoleLogger).LogError,
	}

	for ci, configured := range levels {
		for mi, message := range levels {
			t.Run(configured+"/"+message, func(t *testing.T) {
				buf := &bytes.Buffer{}
				cl := NewConsoleLogger(buf, configured)
				emit[message](cl, message+" msg")

				if mi >= ci {
					assert.Contains(t, buf.String(), "["+strings.ToUpper(message)+"] "+message+" msg")
				} else {
					assert.Empty(t, buf.String())
				}
			})
		}
	}
}

func TestNormalizeLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"DEBUG", "debug"},
		{"  warn ", "warn"},
		{"", "info"},
		{"verbose", "info"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeLogLevel(tt.in), tt.in)
	}
	assert.Equal(t, "error", NewConsoleLogger(nil, "Error").Level())
}

func TestConsoleLogger_Format(t *testing.T) {
	buf := &bytes.Buffer{}
	cl := NewConsoleLogger(buf, "info")
	cl.LogInfo("hello")

	line := buf.String()
	require.True(t, strings.HasSuffix(line, "\n"))
	assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\] \[INFO\] hello\n$`, line)
}

func TestConsoleLogger_NilWriter(t *testing.T) {
	cl := NewConsoleLogger(nil, "trace")
	assert.NotPanics(t, func() {
		cl.LogInfo("dropped")
		cl.Warnf("dropped %d", 1)
		cl.LogFileSkipped(&pipeline.FileError{Path: "x.csv", Kind: pipeline.KindIO, Err: errors.New("gone")})
	})
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))
	assert.False(t, isTerminal(nil))

	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, isTerminal(f), "regular files are not terminals")
}

func sampleReport() *behavioral.SessionReport {
	perf := 72.5
	return &behavioral.SessionReport{
		Title: "Two-choice Auditory task",
		Metrics: models.SessionMetrics{
			SessionMeta: models.SessionMeta{
				Animal: "925145",
				Date:   time.Date(2025, 5, 30, 9, 0, 0, 0, time.UTC),
				Box:    "1",
			},
			TotalTrials: 120,
			Omissions:   3,
			DPrime:      1.3456,
			Performance: &perf,
		},
	}
}

func TestConsoleLogger_LogSessionComplete(t *testing.T) {
	buf := &bytes.Buffer{}
	cl := NewConsoleLogger(buf, "info")
	cl.LogSessionComplete(sampleReport(), 1234*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "925145 2025-05-30 box 1: 120 trials")
	assert.Contains(t, out, "d′: 1.35")
	assert.Contains(t, out, "performance: 72.5%")
	assert.Contains(t, out, "omissions: 3")
	assert.Contains(t, out, "(1.234s)")

	buf.Reset()
	cl.LogSessionComplete(nil, 0)
	assert.Empty(t, buf.String())
}

func TestConsoleLogger_LogFileStartIsDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "info").LogFileStart("/data/a.csv")
	assert.Empty(t, buf.String())

	NewConsoleLogger(buf, "debug").LogFileStart("/data/a.csv")
	assert.Contains(t, buf.String(), "Analyzing /data/a.csv")
}

func TestConsoleLogger_LogFileSkipped(t *testing.T) {
	buf := &bytes.Buffer{}
	cl := NewConsoleLogger(buf, "info")
	cl.LogFileSkipped(&pipeline.FileError{
		Path: "/data/notes.csv",
		Kind: pipeline.KindMalformedFilename,
		Err:  errors.New("no box suffix"),
	})

	assert.Contains(t, buf.String(), "[WARN] Skipped notes.csv (malformed-filename): no box suffix")
}

func TestConsoleLogger_LogBatchSummary(t *testing.T) {
	report := sampleReport()
	summary := behavioral.Aggregate([]models.SessionMetrics{report.Metrics})

	t.Run("all processed", func(t *testing.T) {
		buf := &bytes.Buffer{}
		cl := NewConsoleLogger(buf, "info")
		cl.LogBatchSummary(&pipeline.Result{
			Reports:  []*behavioral.SessionReport{report},
			Summary:  summary,
			Duration: 2 * time.Second,
		})
		out := buf.String()
		assert.Contains(t, out, "[INFO] Analyzed 1/1 files in 2s")
		assert.Contains(t, out, "days 2025-05-30 to 2025-05-30")
		assert.NotContains(t, out, "skipped")
	})

	t.Run("with skips", func(t *testing.T) {
		buf := &bytes.Buffer{}
		cl := NewConsoleLogger(buf, "info")
		cl.LogBatchSummary(&pipeline.Result{
			Reports: []*behavioral.SessionReport{report},
			Skipped: []*pipeline.FileError{
				{Path: "a.csv", Kind: pipeline.KindParse, Err: errors.New("bad")},
				{Path: "b.csv", Kind: pipeline.KindParse, Err: errors.New("bad")},
				{Path: "c.csv", Kind: pipeline.KindIO, Err: errors.New("gone")},
			},
			Summary: summary,
		})
		assert.Contains(t, buf.String(), "[WARN] Analyzed 1/4 files")
		assert.Contains(t, buf.String(), "skipped 3 (io: 1, parse: 2)")
	})

	t.Run("nil result", func(t *testing.T) {
		buf := &bytes.Buffer{}
		NewConsoleLogger(buf, "info").LogBatchSummary(nil)
		assert.Empty(t, buf.String())
	})
}

func TestConsoleLogger_ProgressAcrossBatch(t *testing.T) {
	buf := &bytes.Buffer{}
	cl := NewConsoleLogger(buf, "debug")
	cl.SetTotal(2)

	cl.LogSessionComplete(sampleReport(), time.Millisecond)
	cl.LogFileSkipped(&pipeline.FileError{Path: "x.csv", Kind: pipeline.KindIO, Err: errors.New("gone")})
	cl.LogBatchSummary(&pipeline.Result{Reports: []*behavioral.SessionReport{sampleReport()}})

	assert.Contains(t, buf.String(), "files [====================] 2/2 (100%)")
}

func TestConsoleLogger_Warnf(t *testing.T) {
	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "warn").Warnf("%d duplicate trials in %s", 3, "a.csv")
	assert.Contains(t, buf.String(), "[WARN] 3 duplicate trials in a.csv")
}
