// Package pipeline runs the per-file analysis over a batch of raw logs on a
// bounded worker pool and aggregates the surviving sessions.
//
// Failures are file-scoped: a file that cannot be read, named or parsed is
// recorded in Result.Skipped and the batch continues.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harrison/trialscope/internal/behavioral"
	"github.com/harrison/trialscope/internal/merge"
	"github.com/harrison/trialscope/internal/metadata"
	"github.com/harrison/trialscope/internal/models"
	"github.com/harrison/trialscope/internal/protocol"
	"github.com/harrison/trialscope/internal/tonemap"
	"github.com/harrison/trialscope/internal/trialcsv"
)

// DefaultWorkers is the worker pool size when Options.Workers is not positive
const DefaultWorkers = 4

// Logger receives progress events from the runner
type Logger interface {
	LogFileStart(path string)
	LogFileSkipped(err *FileError)
	LogSessionComplete(report *behavioral.SessionReport, duration time.Duration)
	LogBatchSummary(result *Result)
	Warnf(format string, args ...interface{})
}

// Options configures a batch run
type Options struct {
	Workers         int
	ToneDelay       time.Duration
	StimulusColumns []string
	Deduplicate     bool
	// Protocol overrides the protocol named in each filename when set
	Protocol string
	// ToneMap supplies report subtitles; nil marks every mapping as not found
	ToneMap *tonemap.Table
}

// Result holds the outcome of a batch
type Result struct {
	Reports  []*behavioral.SessionReport // processed files, in input order
	Skipped  []*FileError                // skipped files, in input order
	Summary  *behavioral.CrossDaySummary
	Duration time.Duration
}

// Total returns the number of files attempted
func (r *Result) Total() int {
	return len(r.Reports) + len(r.Skipped)
}

// Runner analyzes raw trial logs
type Runner struct {
	opts   Options
	logger Logger
}

// NewRunner creates a Runner.
// The logger parameter is optional and can be nil.
func NewRunner(opts Options, logger Logger) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Runner{opts: opts, logger: logger}
}

// Session is one file loaded and resolved, ready for classification
type Session struct {
	Meta     models.SessionMeta
	Protocol *protocol.Protocol
	Table    *trialcsv.Table
	// Duplicates is the number of rows removed by duplicate resolution
	Duplicates int
	// Unnumbered is the number of rows with a blank trial number
	Unnumbered int
}

// Load reads a file, resolves its protocol and removes duplicate trial rows
func (r *Runner) Load(path string) (*Session, error) {
	meta, err := metadata.Parse(path)
	if err != nil {
		return nil, err
	}

	name := meta.Protocol
	if r.opts.Protocol != "" {
		name = r.opts.Protocol
	}
	p, err := protocol.Lookup(name)
	if err != nil {
		return nil, err
	}

	table, err := trialcsv.ReadFile(path, trialcsv.Options{
		Required:        p.Required,
		StimulusColumns: r.opts.StimulusColumns,
	})
	if err != nil {
		return nil, err
	}

	s := &Session{Meta: meta.SessionMeta(path), Protocol: p, Table: table}
	s.Meta.Protocol = p.Name
	s.Unnumbered = merge.MissingCount(table.Records)
	if r.opts.Deduplicate && p.Features.Deduplicate && table.Has(trialcsv.ColTrialNumber) {
		resolved := merge.ResolveDuplicates(table.Records)
		s.Duplicates = len(table.Records) - len(resolved)
		s.Table = table.WithRecords(resolved)
	}
	return s, nil
}

// ProcessFile analyzes one file. Errors are returned as *FileError.
func (r *Runner) ProcessFile(path string) (*behavioral.SessionReport, error) {
	start := time.Now()
	if r.logger != nil {
		r.logger.LogFileStart(path)
	}

	s, err := r.Load(path)
	if err != nil {
		return nil, newFileError(path, err)
	}
	if s.Duplicates > 0 && r.logger != nil {
		r.logger.Warnf("%s: resolved %d duplicate trial rows", path, s.Duplicates)
	}
	if s.Unnumbered > 0 && r.logger != nil {
		r.logger.Warnf("%s: %d rows have no trial number", path, s.Unnumbered)
	}

	report := behavioral.Analyze(s.Meta, s.Protocol, s.Table.Records, behavioral.Options{
		ToneDelay: r.opts.ToneDelay,
		Subtitle:  r.subtitle(s),
	})

	if r.logger != nil {
		r.logger.LogSessionComplete(report, time.Since(start))
	}
	return report, nil
}

// subtitle returns the tone mapping line for protocols that present tones
func (r *Runner) subtitle(s *Session) string {
	if !s.Protocol.Features.Stimuli {
		return ""
	}
	text, err := tonemap.SubtitleFor(r.opts.ToneMap, s.Meta.Animal)
	if err != nil && r.logger != nil && r.opts.ToneMap != nil {
		r.logger.Warnf("%s: %v", s.Meta.SourceFile, err)
	}
	return text
}

// Run processes every path concurrently and aggregates the processed sessions.
// Each path is attempted once. When ctx is canceled, unscheduled files are
// recorded as skipped and ctx's error is returned with the partial result.
func (r *Runner) Run(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()

	reports := make([]*behavioral.SessionReport, len(paths))
	failures := make([]*FileError, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for i, path := range paths {
		if err := gctx.Err(); err != nil {
			failures[i] = &FileError{Path: path, Kind: KindCanceled, Err: err}
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				failures[i] = &FileError{Path: path, Kind: KindCanceled, Err: err}
				return nil
			}
			report, err := r.ProcessFile(path)
			if err != nil {
				var fe *FileError
				if !errors.As(err, &fe) {
					fe = newFileError(path, err)
				}
				failures[i] = fe
				return nil
			}
			reports[i] = report
			return nil
		})
	}
	// workers never return errors; failures are file-scoped
	_ = g.Wait()

	result := &Result{}
	var sessions []models.SessionMetrics
	for i := range paths {
		if failures[i] != nil {
			result.Skipped = append(result.Skipped, failures[i])
			if r.logger != nil {
				r.logger.LogFileSkipped(failures[i])
			}
			continue
		}
		result.Reports = append(result.Reports, reports[i])
		sessions = append(sessions, reports[i].Metrics)
	}

	result.Summary = behavioral.Aggregate(sessions)
	if result.Summary.Animal != "" && len(result.Reports) > 0 {
		result.Summary.Subtitle = result.Reports[0].Subtitle
	}
	result.Duration = time.Since(start)

	if r.logger != nil {
		r.logger.LogBatchSummary(result)
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("batch interrupted: %w", err)
	}
	return result, nil
}
