// Package mocks provides testify mocks of the controller interfaces.
package mocks

import (
	m "github.com/mouse-blink/perturb/internal/model"
	"github.com/stretchr/testify/mock"
)

// MockUI mocks controller.UI.
type MockUI struct {
	mock.Mock
}

// NewMockUI creates a mock that asserts its expectations on cleanup.
func NewMockUI(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUI {
	u := &MockUI{}
	u.Mock.Test(t)
	t.Cleanup(func() { u.AssertExpectations(t) })

	return u
}

// DisplayPlan mocks DisplayPlan.
func (u *MockUI) DisplayPlan(blocks []m.BlockResult) error {
	return u.Called(blocks).Error(0)
}

// DisplaySummary mocks DisplaySummary.
func (u *MockUI) DisplaySummary(summary m.Summary) error {
	return u.Called(summary).Error(0)
}

// DisplayStatus mocks DisplayStatus.
func (u *MockUI) DisplayStatus(rows []m.ExperimentStatus) error {
	return u.Called(rows).Error(0)
}
