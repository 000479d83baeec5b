package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for downsort
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "downsort",
		Short: "Sort a downloads folder into category folders",
		Long: `Downsort watches a downloads folder and moves each top-level file into
a category folder chosen by its extension: sound effects, music, videos,
images, documents, STL models or SolidWorks files.

Audio smaller than 10 MB, or with "SFX" in its name, counts as a sound
effect. Existing files are never overwritten; a clashing name gets a
numbered suffix such as report(1).pdf.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(NewScanCommand())
	cmd.AddCommand(NewRulesCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
