// Package mocks provides testify mocks of the adapter interfaces.
package mocks

import (
	"context"

	"github.com/mouse-blink/perturb/internal/adapter"
	"github.com/stretchr/testify/mock"
)

// MockExperimentToolAdapter mocks adapter.ExperimentToolAdapter.
type MockExperimentToolAdapter struct {
	mock.Mock
}

// NewMockExperimentToolAdapter creates a mock that asserts its expectations on cleanup.
func NewMockExperimentToolAdapter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockExperimentToolAdapter {
	m := &MockExperimentToolAdapter{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Clone mocks Clone.
func (m *MockExperimentToolAdapter) Clone(ctx context.Context, args adapter.CloneArgs) error {
	return m.Called(ctx, args).Error(0)
}

// Run mocks Run.
func (m *MockExperimentToolAdapter) Run(ctx context.Context, dir string, nRuns int) error {
	return m.Called(ctx, dir, nRuns).Error(0)
}

// Sweep mocks Sweep.
func (m *MockExperimentToolAdapter) Sweep(ctx context.Context, dir string) error {
	return m.Called(ctx, dir).Error(0)
}

// Setup mocks Setup.
func (m *MockExperimentToolAdapter) Setup(ctx context.Context, dir string) error {
	return m.Called(ctx, dir).Error(0)
}

// MockSchedulerAdapter mocks adapter.SchedulerAdapter.
type MockSchedulerAdapter struct {
	mock.Mock
}

// NewMockSchedulerAdapter creates a mock that asserts its expectations on cleanup.
func NewMockSchedulerAdapter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSchedulerAdapter {
	m := &MockSchedulerAdapter{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Status mocks Status.
func (m *MockSchedulerAdapter) Status(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)

	out, _ := args.Get(0).([]byte)

	return out, args.Error(1)
}

// MockRepoAdapter mocks adapter.RepoAdapter.
type MockRepoAdapter struct {
	mock.Mock
}

// NewMockRepoAdapter creates a mock that asserts its expectations on cleanup.
func NewMockRepoAdapter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRepoAdapter {
	m := &MockRepoAdapter{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Commit mocks Commit.
func (m *MockRepoAdapter) Commit(ctx context.Context, dir, message string) (bool, error) {
	args := m.Called(ctx, dir, message)

	return args.Bool(0), args.Error(1)
}
