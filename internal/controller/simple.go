package controller

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	m "github.com/mouse-blink/perturb/internal/model"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// SimpleUI implements UI with plain tables written to the command output.
type SimpleUI struct {
	cmd     *cobra.Command
	heading func(string) string
	width   int
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd, heading: func(s string) string { return s }}
}

// DisplayPlan prints one row per planned experiment and the blocks that failed to plan.
func (s *SimpleUI) DisplayPlan(blocks []m.BlockResult) error {
	table, buf := s.newTable([]string{"Block", "Experiment", "Parameters", "Path"})

	experiments := 0

	for _, block := range blocks {
		if block.Plan == nil {
			continue
		}

		for _, exp := range block.Plan.Experiments {
			table.Append([]string{block.Name, exp.Name, formatParams(exp.Params), exp.Path})

			experiments++
		}
	}

	table.SetFooter([]string{"", fmt.Sprintf("Total %d", experiments), "", ""})
	table.Render()

	s.printf("%s\n%s", s.heading("Planned experiments"), buf.String())
	s.printErrors(blockErrors(blocks), unitErrors(blocks))

	return nil
}

// DisplaySummary prints what happened to every experiment of a run.
func (s *SimpleUI) DisplaySummary(summary m.Summary) error {
	table, buf := s.newTable([]string{"Block", "Experiment", "Created", "Submission", "Error"})

	rows := summary.Results
	if summary.Control != nil {
		rows = append([]m.ExperimentResult{*summary.Control}, rows...)
	}

	submitted := 0

	for _, res := range rows {
		if res.Submit.Status == m.SubmitQueued {
			submitted++
		}

		table.Append([]string{
			res.Block,
			res.Experiment.Name,
			strconv.FormatBool(res.Created),
			formatSubmit(res.Submit),
			errorText(res.Err),
		})
	}

	table.SetFooter([]string{"", fmt.Sprintf("Total %d", len(rows)), "", fmt.Sprintf("Submitted %d", submitted), ""})
	table.Render()

	s.printf("%s\n%s", s.heading("Run summary"), buf.String())
	s.printErrors(summary.BlockErrors, summary.UnitErrors)

	return nil
}

// DisplayStatus prints the progress of every experiment.
func (s *SimpleUI) DisplayStatus(rows []m.ExperimentStatus) error {
	table, buf := s.newTable([]string{"Experiment", "Exists", "Runs", "Job", "State"})

	for _, row := range rows {
		table.Append([]string{
			row.Name,
			strconv.FormatBool(row.Exists),
			fmt.Sprintf("%d/%d", row.Completed, row.Target),
			row.JobID,
			row.JobState,
		})
	}

	table.Render()
	s.printf("%s\n%s", s.heading("Experiment status"), buf.String())

	return nil
}

func (s *SimpleUI) newTable(header []string) (*tablewriter.Table, *bytes.Buffer) {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	if s.width > 0 {
		table.SetColWidth(s.width / len(header))
	}

	return table, &buf
}

func (s *SimpleUI) printErrors(blocks []m.BlockResult, units []m.UnitError) {
	for _, block := range blocks {
		s.printf("block %s skipped: %v\n", block.Name, block.Err)
	}

	for _, unit := range units {
		s.printf("group %s of %s skipped: %v\n", unit.Unit.Group.Name, unit.Unit.File, unit.Err)
	}
}

func (s *SimpleUI) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func blockErrors(blocks []m.BlockResult) []m.BlockResult {
	var out []m.BlockResult

	for _, block := range blocks {
		if block.Err != nil {
			out = append(out, block)
		}
	}

	return out
}

func unitErrors(blocks []m.BlockResult) []m.UnitError {
	var out []m.UnitError

	for _, block := range blocks {
		if block.Plan != nil {
			out = append(out, block.Plan.Dropped...)
		}
	}

	return out
}

func formatParams(params *m.Map) string {
	parts := make([]string, 0, params.Len())

	for _, key := range params.Keys() {
		v, _ := params.Get(key)
		parts = append(parts, key+"="+v.String())
	}

	return strings.Join(parts, " ")
}

func formatSubmit(res m.SubmitResult) string {
	switch res.Status {
	case m.SubmitQueued:
		return fmt.Sprintf("%s (%d runs)", res.Status, res.Requested)
	case m.SubmitUpToDate:
		return fmt.Sprintf("%s (%d done)", res.Status, res.Completed)
	case m.SubmitNone:
		return "-"
	default:
		return string(res.Status)
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
