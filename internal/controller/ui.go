// Package controller provides output adapters for displaying experiment plans and results.
package controller

import (
	m "github.com/mouse-blink/perturb/internal/model"
)

// UI defines how commands report back to the user. Implementations can
// use different output methods (plain text, styled terminal output).
type UI interface {
	DisplayPlan(blocks []m.BlockResult) error
	DisplaySummary(summary m.Summary) error
	DisplayStatus(rows []m.ExperimentStatus) error
}
