// Package mocks provides testify mocks of the domain interfaces.
package mocks

import (
	"context"

	"github.com/mouse-blink/perturb/internal/domain"
	m "github.com/mouse-blink/perturb/internal/model"
	"github.com/stretchr/testify/mock"
)

// MockWorkflow mocks domain.Workflow.
type MockWorkflow struct {
	mock.Mock
}

// NewMockWorkflow creates a mock that asserts its expectations on cleanup.
func NewMockWorkflow(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkflow {
	w := &MockWorkflow{}
	w.Mock.Test(t)
	t.Cleanup(func() { w.AssertExpectations(t) })

	return w
}

// Run mocks Run.
func (w *MockWorkflow) Run(ctx context.Context, args domain.RunArgs) (m.Summary, error) {
	ret := w.Called(ctx, args)

	summary, _ := ret.Get(0).(m.Summary)

	return summary, ret.Error(1)
}

// Plan mocks Plan.
func (w *MockWorkflow) Plan(args domain.PlanArgs) ([]m.BlockResult, error) {
	ret := w.Called(args)

	blocks, _ := ret.Get(0).([]m.BlockResult)

	return blocks, ret.Error(1)
}

// Status mocks Status.
func (w *MockWorkflow) Status(ctx context.Context, args domain.StatusArgs) ([]m.ExperimentStatus, error) {
	ret := w.Called(ctx, args)

	rows, _ := ret.Get(0).([]m.ExperimentStatus)

	return rows, ret.Error(1)
}
