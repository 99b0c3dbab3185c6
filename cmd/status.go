package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mouse-blink/perturb/internal/domain"
)

// statusCmd represents the status command.
var statusCmd = newStatusCmd()

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [INPUT_YAML]",
		Short: "Show completed runs and active jobs of every experiment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := readSettings(args)
			if err != nil {
				return err
			}

			rows, err := workflow.Status(cmd.Context(), domain.StatusArgs{Settings: settings})
			if err != nil {
				return err
			}

			return ui.DisplayStatus(rows)
		},
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
