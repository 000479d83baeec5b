package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/downsort/internal/filelock"
	"github.com/harrison/downsort/internal/journal"
	"github.com/harrison/downsort/internal/logger"
	"github.com/harrison/downsort/internal/organizer"
	"github.com/harrison/downsort/internal/rules"
)

// NewScanCommand creates the 'downsort scan' command
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Sort the folder once and exit",
		Long: `Run a single pass over the root folder's top-level files, moving each
one with a known extension into its category folder, then print a summary.

With --dry-run nothing is moved; the planned moves are listed instead.
A scan is refused while a watch daemon is sorting the same folder.`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}

	addRootFlags(cmd)
	cmd.Flags().Bool("dry-run", false, "Show where files would go without moving them")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	output := cmd.OutOrStdout()

	log, closeLog, err := newLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	opts := []organizer.Option{organizer.WithDryRun(dryRun)}

	if !dryRun {
		// a running daemon owns the root; racing it would report false failures
		lock, err := filelock.Acquire(cfg.LockPath(), cfg.Root)
		if err != nil {
			return fmt.Errorf("lock %s: %w", cfg.Root, err)
		}
		defer lock.Release()

		for _, err := range cfg.EnsureDestinations() {
			log.Errorf("Error creating directory: %v", err)
		}
		if cfg.Journal {
			j, err := journal.Open(cfg.JournalPath())
			if err != nil {
				log.Warnf("Move journal disabled: %v", err)
			} else {
				defer j.Close()
				opts = append(opts, organizer.WithRecorder(j))
			}
		}
	}

	if isTerminal(output) {
		var bar *logger.ProgressBar
		opts = append(opts, organizer.WithProgress(func(done, total int) {
			if bar == nil {
				bar = logger.NewProgressBar(total, 30, true)
			}
			bar.Increment()
			fmt.Fprintf(output, "\r%s", bar.Render())
			if done == total {
				fmt.Fprintln(output)
			}
		}))
	}

	org := organizer.New(cfg, rules.Default(cfg), log, opts...)
	report, err := org.Scan(cmd.Context())
	if err != nil {
		return err
	}

	if dryRun {
		printPlan(output, report)
		return nil
	}
	printReport(output, report)
	return nil
}

func printPlan(w io.Writer, r organizer.ScanReport) {
	if len(r.Planned) == 0 {
		fmt.Fprintf(w, "Nothing to move (%d files seen, %d without a rule)\n", r.Seen, r.Skipped)
		return
	}

	rows := make([][]string, 0, len(r.Planned))
	for _, p := range r.Planned {
		rows = append(rows, []string{p.Name, string(p.Category), filepath.Base(p.Destination)})
	}
	fmt.Fprintln(w, renderTable([]string{"File", "Category", "Destination"}, rows, nil))
	fmt.Fprintf(w, "%d would move, %d without a rule\n", len(r.Planned), r.Skipped)
}

func printReport(w io.Writer, r organizer.ScanReport) {
	rows := [][]string{
		{"Files seen", strconv.Itoa(r.Seen)},
		{"Moved", strconv.Itoa(r.Moved)},
		{"Failed", strconv.Itoa(r.Failed)},
		{"No rule", strconv.Itoa(r.Skipped)},
		{"Duration", r.Duration().Round(time.Millisecond).String()},
	}
	fmt.Fprintln(w, renderTable([]string{"Scan " + r.ID, ""}, rows, []columnAlignment{alignLeft, alignRight}))
}
