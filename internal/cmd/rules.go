package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harrison/downsort/internal/config"
	"github.com/harrison/downsort/internal/rules"
)

// NewRulesCommand creates the 'downsort rules' command
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the built-in sorting rules",
		Long: `Print the extension rules in the order they are evaluated. The first
rule whose extensions include a file's extension decides its folder.`,
		Args: cobra.NoArgs,
		RunE: runRules,
	}

	cmd.Flags().String("format", "table", "Output format: table or yaml")

	return cmd
}

type ruleView struct {
	Category    string     `yaml:"category"`
	Extensions  []string   `yaml:"extensions"`
	Destination string     `yaml:"destination,omitempty"`
	Split       *splitView `yaml:"split,omitempty"`
}

type splitView struct {
	ThresholdBytes int64  `yaml:"threshold_bytes"`
	Marker         string `yaml:"marker"`
	Short          string `yaml:"short"`
	Long           string `yaml:"long"`
}

func ruleViews(t *rules.Table) []ruleView {
	var views []ruleView
	for _, r := range t.Rules() {
		v := ruleView{
			Category:   string(r.Category),
			Extensions: r.Extensions,
		}
		if r.Split != nil {
			v.Split = &splitView{
				ThresholdBytes: r.Split.Threshold,
				Marker:         r.Split.Marker,
				Short:          config.FolderName(r.Split.Short),
				Long:           config.FolderName(r.Split.Long),
			}
		} else {
			v.Destination = config.FolderName(r.Destination)
		}
		views = append(views, v)
	}
	return views
}

func runRules(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output := cmd.OutOrStdout()

	cfg := config.DefaultConfig("")
	views := ruleViews(rules.Default(cfg))

	switch strings.ToLower(format) {
	case "table":
		printRulesTable(output, views)
		return nil
	case "yaml":
		data, err := yaml.Marshal(views)
		if err != nil {
			return fmt.Errorf("marshal rules: %w", err)
		}
		_, err = output.Write(data)
		return err
	default:
		return fmt.Errorf("unknown format %q (use table or yaml)", format)
	}
}

func printRulesTable(w io.Writer, views []ruleView) {
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		dest := v.Destination
		if v.Split != nil {
			dest = fmt.Sprintf("%s if under %s or name contains %q, else %s",
				v.Split.Short, humanize.Bytes(uint64(v.Split.ThresholdBytes)), v.Split.Marker, v.Split.Long)
		}
		rows = append(rows, []string{v.Category, strings.Join(v.Extensions, " "), dest})
	}
	fmt.Fprintln(w, renderTable([]string{"Category", "Extensions", "Folder"}, rows, nil))
}
