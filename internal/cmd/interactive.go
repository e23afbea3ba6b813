package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/kk-code-lab/ffind/internal/config"
	"github.com/kk-code-lab/ffind/internal/ui"
	"github.com/spf13/cobra"
)

// NewInteractiveCommand creates the interactive subcommand, which opens
// the full-screen search panel instead of running a one-shot query.
func NewInteractiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "interactive [DIR]",
		Aliases: []string{"i"},
		Short:   "Open the interactive search panel",
		Long: `Opens a full-screen panel where queries are edited and re-run
without leaving the terminal. The selected path is printed on exit so
the output can feed a shell pipeline, e.g. cd "$(ffind i)".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath())
			if err != nil {
				return err
			}

			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			dir, err = filepath.Abs(dir)
			if err != nil {
				return err
			}

			panel, err := ui.NewPanel(dir, cfg)
			if err != nil {
				return err
			}
			selected, err := panel.Run()
			if err != nil {
				return err
			}
			if selected != "" {
				fmt.Fprintln(cmd.OutOrStdout(), selected)
			}
			return nil
		},
	}
}
