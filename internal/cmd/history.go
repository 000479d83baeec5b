package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/downsort/internal/config"
	"github.com/harrison/downsort/internal/journal"
)

// NewHistoryCommand creates the 'downsort history' command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent moves from the journal",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}

	cmd.Flags().Int("limit", 20, "Number of entries to show (0 = all)")
	cmd.Flags().Bool("failed", false, "Only show failed moves")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	failedOnly, _ := cmd.Flags().GetBool("failed")
	output := cmd.OutOrStdout()

	cfg := config.DefaultConfig("")
	if err := cfg.ResolveStateDir(); err != nil {
		return fmt.Errorf("resolve state directory: %w", err)
	}
	dbPath := cfg.JournalPath()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(output, "No moves recorded yet\n")
		fmt.Fprintf(output, "Journal path: %s\n", dbPath)
		return nil
	}

	j, err := journal.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	entries, err := j.Recent(cmd.Context(), limit, failedOnly)
	if err != nil {
		return err
	}
	counts, err := j.Counts(cmd.Context())
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		if failedOnly {
			fmt.Fprintln(output, "No failed moves recorded")
		} else {
			fmt.Fprintln(output, "No moves recorded yet")
		}
		return nil
	}

	printHistory(output, entries)
	fmt.Fprintf(output, "%d moves in %d scans (%d failed), %s sorted\n",
		counts.Total, counts.Scans, counts.Failed, humanize.Bytes(uint64(counts.Bytes)))
	return nil
}

func printHistory(w io.Writer, entries []*journal.Entry) {
	failed := color.New(color.FgRed).SprintFunc()

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		status := "moved"
		name := e.FinalName
		if !e.Success {
			status = failed("failed")
			name = e.Error
		}
		size := ""
		if e.SizeBytes > 0 {
			size = humanize.Bytes(uint64(e.SizeBytes))
		}
		rows = append(rows, []string{
			humanize.Time(e.MovedAt),
			filepath.Base(e.Source),
			filepath.Base(e.Destination),
			name,
			size,
			status,
		})
	}

	headers := []string{"When", "File", "Folder", "Saved as", "Size", "Status"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
	fmt.Fprintln(w, renderTable(headers, rows, aligns))
}
