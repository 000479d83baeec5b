// Package organizer runs scan passes over the watched root: list the top
// level, classify each regular file and move it into its destination.
package organizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/harrison/downsort/internal/config"
	"github.com/harrison/downsort/internal/journal"
	"github.com/harrison/downsort/internal/logger"
	"github.com/harrison/downsort/internal/mover"
	"github.com/harrison/downsort/internal/rules"
)

// EnumerationError means the watched root could not be listed.
type EnumerationError struct {
	Dir string
	Err error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("list %s: %v", e.Dir, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// Recorder receives one entry per move attempt. *journal.Journal implements it.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) (int64, error)
}

// Planned is a move a dry run would have made.
type Planned struct {
	Name        string
	Category    rules.Category
	Destination string
}

// ScanReport summarises one pass.
type ScanReport struct {
	ID       string
	Started  time.Time
	Finished time.Time

	// Seen counts regular files; directories and other entries are not counted
	Seen    int
	Moved   int
	Failed  int
	Skipped int

	// Bytes sums the moved files whose size was looked up during the pass
	Bytes int64

	// Cancelled is set when the context ended the pass early
	Cancelled bool

	// Planned is only filled by dry runs
	Planned []Planned
}

// Duration returns how long the pass took.
func (r ScanReport) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

type options struct {
	recorder Recorder
	dryRun   bool
	progress func(done, total int)
}

// Option configures an Organizer.
type Option func(*options)

// WithRecorder journals every move attempt. Recorder failures are logged and
// never stop a move.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithDryRun classifies without moving anything.
func WithDryRun(dryRun bool) Option {
	return func(o *options) {
		o.dryRun = dryRun
	}
}

// WithProgress registers a callback run after each listed entry is handled.
func WithProgress(fn func(done, total int)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// Organizer sorts the watched root. Scans never overlap.
type Organizer struct {
	cfg    config.Config
	table  *rules.Table
	mover  *mover.Mover
	logger logger.Logger
	opts   options

	mu sync.Mutex
}

// New creates an Organizer. A nil logger discards output.
func New(cfg config.Config, table *rules.Table, log logger.Logger, opts ...Option) *Organizer {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	o := &Organizer{
		cfg:    cfg,
		table:  table,
		mover:  mover.New(log),
		logger: log,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o.opts)
		}
	}
	return o
}

// Scan runs one pass over the watched root in listing order. Each file is
// handled independently: a failed move is counted and the pass continues.
// A listing failure is logged and returned as *EnumerationError. When ctx
// ends, the pass stops before the next entry; a move already started always
// completes. The watch daemon's Worker passes a context that never ends, so
// only one-shot callers see a partial pass.
func (o *Organizer) Scan(ctx context.Context) (ScanReport, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	report := ScanReport{ID: uuid.NewString(), Started: time.Now()}

	root := o.cfg.Root
	listing, err := os.ReadDir(root)
	if err != nil {
		err = &EnumerationError{Dir: root, Err: err}
		o.logger.Errorf("Error scanning %s: %v", root, err)
		report.Finished = time.Now()
		return report, err
	}

	o.logger.Debugf("Scan %s: %d entries in %s", report.ID, len(listing), root)

	for i, de := range listing {
		if ctx.Err() != nil {
			report.Cancelled = true
			o.logger.Debugf("Scan %s cancelled after %d of %d entries", report.ID, i, len(listing))
			break
		}
		if isRegularFile(root, de) {
			o.handle(ctx, &report, newEntry(root, de.Name()))
		}
		if o.opts.progress != nil {
			o.opts.progress(i+1, len(listing))
		}
	}

	report.Finished = time.Now()
	return report, nil
}

// handle classifies and moves a single regular file.
func (o *Organizer) handle(ctx context.Context, report *ScanReport, e *Entry) {
	report.Seen++

	decision, ok, err := o.table.ClassifyEntry(e)
	if err != nil {
		// only the size lookup can fail, which means the file went away
		report.Failed++
		o.logger.Errorf("Error moving file %s: %v", e.Name(), err)
		return
	}
	if !ok {
		report.Skipped++
		o.logger.Debugf("No rule for %s, leaving it in place", e.Name())
		return
	}

	dest := o.cfg.Path(decision.Destination)

	if o.opts.dryRun {
		report.Planned = append(report.Planned, Planned{
			Name:        e.Name(),
			Category:    decision.Category,
			Destination: dest,
		})
		return
	}

	if o.opts.recorder != nil {
		// the size is journaled with the move; a missing file fails the move itself
		if _, err := e.Size(); err != nil {
			o.logger.Debugf("No size for %s: %v", e.Name(), err)
		}
	}

	out := o.mover.MoveInto(dest, e.Path(), e.Name())
	size, sized := e.knownSize()
	if out.OK() {
		report.Moved++
		if sized {
			report.Bytes += size
			o.logger.Debugf("%s is %s (%s)", out.FinalName, humanize.Bytes(uint64(size)), decision.Category)
		}
	} else {
		report.Failed++
	}

	o.record(ctx, report.ID, decision, out, size)
}

func (o *Organizer) record(ctx context.Context, scanID string, d rules.Decision, out mover.Outcome, size int64) {
	if o.opts.recorder == nil {
		return
	}
	entry := journal.Entry{
		ScanID:      scanID,
		Source:      out.Source,
		Destination: out.Dest,
		FinalName:   out.FinalName,
		Category:    string(d.Category),
		SizeBytes:   size,
		Success:     out.OK(),
		MovedAt:     time.Now(),
	}
	if out.Err != nil {
		entry.Error = out.Err.Error()
	}

	// the move already happened, so shutdown must not drop its record
	if _, err := o.opts.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		o.logger.Warnf("Could not journal move of %s: %v", out.Proposed, err)
	}
}

// IsEnumeration reports whether err is a listing failure.
func IsEnumeration(err error) bool {
	var e *EnumerationError
	return errors.As(err, &e)
}
