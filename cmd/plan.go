package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mouse-blink/perturb/internal/domain"
)

// planCmd represents the plan command.
var planCmd = newPlanCmd()

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan [INPUT_YAML]",
		Short: "List the experiments a run would create",
		Long: `Plan expands every parameter block and prints the resulting experiments
with their parameters and directories. Nothing is cloned, written or submitted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			settings, err := readSettings(args)
			if err != nil {
				return err
			}

			blocks, err := workflow.Plan(domain.PlanArgs{Settings: settings})
			if err != nil {
				return err
			}

			return ui.DisplayPlan(blocks)
		},
	}
}

func init() {
	rootCmd.AddCommand(planCmd)
}
