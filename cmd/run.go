package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mouse-blink/perturb/internal/domain"
)

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [INPUT_YAML]",
		Short: "Set up and submit the control and perturbation experiments",
		Long: `Run clones the control experiment if needed, applies the control
updates and submits it. When run_namelists is set it then expands every
parameter block, clones one experiment per parameter combination, applies
the changes and submits each experiment that is neither running nor
complete.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := readSettings(args)
			if err != nil {
				return err
			}

			summary, err := workflow.Run(cmd.Context(), domain.RunArgs{Settings: settings})
			if displayErr := ui.DisplaySummary(summary); displayErr != nil && err == nil {
				err = displayErr
			}

			return err
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}
