package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/harrison/downsort/internal/config"
	"github.com/harrison/downsort/internal/logger"
)

// addRootFlags registers the flags shared by commands that sort a folder.
func addRootFlags(cmd *cobra.Command) {
	cmd.Flags().String("root", "", "Folder to sort (default: ~/Downloads)")
	cmd.Flags().String("log-level", "info", "Log level: trace, debug, info, warn, error")
	cmd.Flags().String("log-dir", "", "Also append log lines to downsort.log in this directory")
	cmd.Flags().Bool("no-journal", false, "Do not record moves in the journal")
}

func changedString(flags *pflag.FlagSet, name string) *string {
	if flags.Lookup(name) == nil || !flags.Changed(name) {
		return nil
	}
	v, _ := flags.GetString(name)
	return &v
}

// changedNegated turns a --no-x flag into a pointer to x.
func changedNegated(flags *pflag.FlagSet, name string) *bool {
	if flags.Lookup(name) == nil || !flags.Changed(name) {
		return nil
	}
	v, _ := flags.GetBool(name)
	v = !v
	return &v
}

// loadConfig builds the configuration from defaults and the command's flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	cfg := config.DefaultConfig("")

	var logLevel *string
	if flags.Lookup("log-level") != nil {
		v, _ := flags.GetString("log-level")
		logLevel = &v
	}

	var debouncePtr *time.Duration
	if flags.Lookup("debounce") != nil && flags.Changed("debounce") {
		d, _ := flags.GetDuration("debounce")
		debouncePtr = &d
	}

	cfg.MergeWithFlags(
		changedString(flags, "root"),
		logLevel,
		changedString(flags, "log-dir"),
		debouncePtr,
		changedNegated(flags, "no-initial-scan"),
		changedNegated(flags, "no-journal"),
	)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.ResolveStateDir(); err != nil {
		return config.Config{}, fmt.Errorf("resolve state directory: %w", err)
	}
	return cfg, nil
}

// newLogger returns a console logger on w, fanned out to a file logger when
// cfg.LogDir is set. The returned func closes the file sink.
func newLogger(w io.Writer, cfg config.Config) (logger.Logger, func(), error) {
	console := logger.NewConsoleLogger(w, cfg.LogLevel)
	if cfg.LogDir == "" {
		return console, func() {}, nil
	}

	fileLog, err := logger.NewFileLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logger.Multi{console, fileLog}, func() { fileLog.Close() }, nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}
