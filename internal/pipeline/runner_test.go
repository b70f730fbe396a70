package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/trialscope/internal/behavioral"
	"github.com/harrison/trialscope/internal/models"
	"github.com/harrison/trialscope/internal/tonemap"
)

const twoChoiceLog = `trial_number,trial_start,lick_time,left_spout,right_spout,reward,punishment,omission,early_lick,5KHz,10KHz
1,0,1.7,1,0,1,0,0,0,1,0
2,10,,0,0,0,0,1,0,0,1
2,10,11.5,1,0,1,0,0,0,0,1
3,20,21.6,0,1,0,1,0,0,1,0
`

type recordingLogger struct {
	mu       sync.Mutex
	started  []string
	skipped  []*FileError
	complete int
	warnings []string
	summary  *Result
}

func (l *recordingLogger) LogFileStart(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started = append(l.started, path)
}

func (l *recordingLogger) LogFileSkipped(err *FileError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.skipped = append(l.skipped, err)
}

func (l *recordingLogger) LogSessionComplete(_ *behavioral.SessionReport, _ time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.complete++
}

func (l *recordingLogger) LogBatchSummary(result *Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.summary = result
}

func (l *recordingLogger) Warnf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRun_AggregatesAndSkips(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeLog(t, dir, "2ChoiceAuditory_925145_20250602_100000_box1.csv", twoChoiceLog),
		writeLog(t, dir, "2ChoiceAuditory_925145_20250530_100000_box2.csv", twoChoiceLog),
		writeLog(t, dir, "notes.csv", twoChoiceLog),
		writeLog(t, dir, "2ChoiceAuditory_925145_20250601_100000_box3.csv", "trial_number,reward\n1,1\n"),
		writeLog(t, dir, "Odor_925145_20250603_100000_box1.csv", twoChoiceLog),
		writeLog(t, dir, "2ChoiceAuditory_925145_20250604_100000_box1.csv", "trial_number,trial_start,lick_time,left_spout,right_spout,reward,punishment,omission\n1,0,0,x,0,0,0,0\n"),
	}

	logger := &recordingLogger{}
	runner := NewRunner(Options{Workers: 2, Deduplicate: true}, logger)

	result, err := runner.Run(context.Background(), paths)
	require.NoError(t, err)

	require.Len(t, result.Reports, 2)
	require.Len(t, result.Skipped, 4)
	assert.Equal(t, 6, result.Total())

	kinds := make([]ErrorKind, len(result.Skipped))
	for i, s := range result.Skipped {
		kinds[i] = s.Kind
	}
	assert.Equal(t, []ErrorKind{KindMalformedFilename, KindMissingColumns, KindUnknownProtocol, KindParse}, kinds)

	require.Len(t, result.Summary.Entries, 2)
	assert.Equal(t, "2", result.Summary.Entries[0].Box)
	assert.Equal(t, "1", result.Summary.Entries[1].Box)
	assert.Equal(t, "925145", result.Summary.Animal)

	m := result.Summary.Entries[0].SessionMetrics
	assert.Equal(t, 3, m.TotalTrials, "duplicate trial 2 resolves to the rewarded row")
	assert.Equal(t, 2, m.CorrectLeft)
	assert.Equal(t, 0, m.Omissions)
	assert.Equal(t, "Tone-spout mapping: (not found for this animal)", result.Reports[0].Subtitle)

	assert.Len(t, logger.started, 6)
	assert.Len(t, logger.skipped, 4)
	assert.Equal(t, 2, logger.complete)
	assert.Same(t, result, logger.summary)
	assert.Len(t, logger.warnings, 2, "one duplicate warning per processed file")
}

func TestRun_ResultIndependentOfWorkerCount(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for d := 10; d >= 1; d-- {
		name := fmt.Sprintf("2ChoiceAuditory_7_202506%02d_090000_box%d.csv", d, d)
		paths = append(paths, writeLog(t, dir, name, twoChoiceLog))
	}

	serial, err := NewRunner(Options{Workers: 1}, nil).Run(context.Background(), paths)
	require.NoError(t, err)
	parallel, err := NewRunner(Options{Workers: 8}, nil).Run(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, serial.Summary.Table().Rows, parallel.Summary.Table().Rows)
	assert.Equal(t, "1", parallel.Summary.Entries[0].Box)
	assert.Equal(t, "10", parallel.Summary.Entries[9].Box)
}

func TestRun_Canceled(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "2ChoiceAuditory_1_20250601_090000_box1.csv", twoChoiceLog)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewRunner(Options{}, nil).Run(ctx, []string{path})
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, KindCanceled, result.Skipped[0].Kind)
	assert.Empty(t, result.Summary.Entries)
}

func TestProcessFile_ToneMapAndOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "Training_925145_20250601_090000_box1.csv", twoChoiceLog)
	tm, err := tonemap.Load(strings.NewReader("Animal,5KHz,10KHz\n925145,left,right\n"))
	require.NoError(t, err)

	runner := NewRunner(Options{Protocol: "2ChoiceAuditory", ToneMap: tm}, nil)
	report, err := runner.ProcessFile(path)
	require.NoError(t, err)

	assert.Equal(t, "2ChoiceAuditory", report.Metrics.Protocol)
	assert.Equal(t, "Tone-spout mapping: 5KHz → left spout, 10KHz → right spout", report.Subtitle)
	assert.Equal(t, 4, report.Metrics.TotalTrials, "duplicates kept when deduplication is off")
}

func TestLoad_FreeLickWithoutTrialNumbers(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "FreeLick_3_20250601_090000_box2.csv", "left_spout,right_spout,lick\n1,0,1\n0,1,1\n")

	s, err := NewRunner(Options{Deduplicate: true}, nil).Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Table.Records, 2)
	assert.Equal(t, 0, s.Duplicates)
	assert.Equal(t, models.BlockNone, s.Table.Records[0].Block)
}

func TestProcessFile_BlankTrialNumbersNotMerged(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "2ChoiceAuditory_925145_20250530_101500_box1.csv",
		`trial_number,trial_start,lick_time,left_spout,right_spout,reward,punishment,omission,early_lick,5KHz,10KHz
,0,1.7,1,0,0,1,0,0,0,1
1,10,11.5,1,0,1,0,0,0,1,0
NaN,20,21.6,0,1,0,1,0,0,1,0
`)

	log := &recordingLogger{}
	runner := NewRunner(Options{Deduplicate: true}, log)

	s, err := runner.Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Table.Records, 3)
	assert.Equal(t, 0, s.Duplicates)
	assert.Equal(t, 2, s.Unnumbered)

	report, err := runner.ProcessFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Metrics.TotalTrials)
	assert.Equal(t, 1, report.Metrics.CategoryCounts[models.CategoryIncorrectLeft])
	assert.Equal(t, 1, report.Metrics.CategoryCounts[models.CategoryIncorrectRight])
	require.Len(t, log.warnings, 1)
	assert.Contains(t, log.warnings[0], "2 rows have no trial number")
}

func TestFileError(t *testing.T) {
	err := newFileError("a.csv", context.DeadlineExceeded)
	assert.Equal(t, KindCanceled, err.Kind)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "a.csv: canceled")
}
