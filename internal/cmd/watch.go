package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harrison/downsort/internal/config"
	"github.com/harrison/downsort/internal/filelock"
	"github.com/harrison/downsort/internal/journal"
	"github.com/harrison/downsort/internal/logger"
	"github.com/harrison/downsort/internal/organizer"
	"github.com/harrison/downsort/internal/rules"
	"github.com/harrison/downsort/internal/watch"
)

// NewWatchCommand creates the 'downsort watch' command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a folder and sort new files as they arrive",
		Long: `Watch the root folder and everything below it. Every change triggers a
rescan of the root's top-level files; each file with a known extension is
moved into its category folder under the root.

Runs until interrupted (Ctrl+C or SIGTERM). A scan in progress finishes
its current file before exiting.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}

	addRootFlags(cmd)
	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "Coalesce changes arriving within this window (0 disables)")
	cmd.Flags().Bool("no-initial-scan", false, "Wait for the first change instead of sorting immediately")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, closeLog, err := newLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watchRoot(ctx, cfg, log)
}

// watchRoot sorts cfg.Root until ctx ends.
func watchRoot(ctx context.Context, cfg config.Config, log logger.Logger) error {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	lock, err := filelock.Acquire(cfg.LockPath(), cfg.Root)
	if err != nil {
		return fmt.Errorf("lock %s: %w", cfg.Root, err)
	}
	defer lock.Release()

	for _, err := range cfg.EnsureDestinations() {
		log.Errorf("Error creating directory: %v", err)
	}

	var opts []organizer.Option
	if cfg.Journal {
		j, err := journal.Open(cfg.JournalPath())
		if err != nil {
			log.Warnf("Move journal disabled: %v", err)
		} else {
			defer j.Close()
			opts = append(opts, organizer.WithRecorder(j))
		}
	}

	org := organizer.New(cfg, rules.Default(cfg), log, opts...)

	w, err := watch.New(cfg.Root, cfg.Debounce)
	if err != nil {
		return fmt.Errorf("watch %s: %w", cfg.Root, err)
	}
	defer w.Close()

	worker := organizer.NewWorker(org, log)
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	log.Infof("Watching %s", cfg.Root)
	if cfg.InitialScan {
		worker.Trigger()
	}

	pump(ctx, w, worker, log)

	// stop new notifications, then let the in-flight scan reach an entry boundary
	w.Close()
	<-done

	log.Infof("Stopped watching %s", cfg.Root)
	return nil
}

// pump forwards watcher notifications to the worker until ctx ends.
func pump(ctx context.Context, w *watch.Watcher, worker *organizer.Worker, log logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-w.Events():
			queued := worker.Trigger()
			log.Tracef("Change %s %s (%d coalesced, rescan queued: %v)", n.Op, n.Path, n.Count, queued)
		case err := <-w.Errors():
			log.Warnf("Watcher error: %v", err)
		}
	}
}
