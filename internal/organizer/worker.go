package organizer

import (
	"context"
	"time"

	"github.com/harrison/downsort/internal/logger"
)

// Scanner runs one pass. *Organizer implements it.
type Scanner interface {
	Scan(ctx context.Context) (ScanReport, error)
}

// Worker is the single consumer of rescan requests. Requests arriving while a
// scan is queued fold into it; a request arriving during a scan queues exactly
// one follow-up pass.
type Worker struct {
	scanner Scanner
	logger  logger.Logger
	trigger chan struct{}

	// onReport observes every finished pass
	onReport func(ScanReport, error)
}

// NewWorker creates a Worker around s. A nil logger discards output.
func NewWorker(s Scanner, log logger.Logger) *Worker {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Worker{
		scanner: s,
		logger:  log,
		trigger: make(chan struct{}, 1),
	}
}

// OnReport registers a callback run after each pass. Call before Run.
func (w *Worker) OnReport(fn func(ScanReport, error)) {
	w.onReport = fn
}

// Trigger requests a rescan without blocking. It returns false when a rescan
// was already pending and the request was folded into it.
func (w *Worker) Trigger() bool {
	select {
	case w.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Run consumes rescan requests until ctx ends. A pass that has started runs
// to completion even if ctx ends meanwhile; a pending request is dropped on
// shutdown.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.trigger:
		}

		// shutdown wins over a pending request
		if ctx.Err() != nil {
			return
		}

		// a started pass always covers the whole root
		report, err := w.scanner.Scan(context.WithoutCancel(ctx))
		if err == nil {
			w.logReport(report)
		}
		if w.onReport != nil {
			w.onReport(report, err)
		}
	}
}

func (w *Worker) logReport(r ScanReport) {
	if r.Moved == 0 && r.Failed == 0 {
		w.logger.Debugf("Scan %s: nothing to move (%d files seen)", r.ID, r.Seen)
		return
	}
	w.logger.Infof("Scan %s: moved %d, failed %d, skipped %d in %v",
		r.ID, r.Moved, r.Failed, r.Skipped, r.Duration().Round(time.Millisecond))
}
