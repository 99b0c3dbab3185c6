package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPayuAdapter_Clone(t *testing.T) {
	bin, logPath := fakeTool(t, "exit 0")
	a := NewLocalPayuAdapter(bin)

	err := a.Clone(context.Background(), CloneArgs{
		Source:    "/tests/ctrl",
		Target:    "/tests/ahmax_0.2",
		Branch:    "dev-1deg",
		NewBranch: "perturb",
	})
	require.NoError(t, err)

	err = a.Clone(context.Background(), CloneArgs{
		Source:     "https://github.com/ACCESS-NRI/access-om3-configs",
		Target:     "/tests/ctrl",
		NewBranch:  "dev-1deg",
		StartPoint: "abc123",
	})
	require.NoError(t, err)

	got := calls(t, logPath)
	require.Len(t, got, 2)
	assert.Contains(t, got[0], " clone -B dev-1deg -b perturb /tests/ctrl /tests/ahmax_0.2")
	assert.Contains(t, got[1], " clone -b dev-1deg -s abc123 https://github.com/ACCESS-NRI/access-om3-configs /tests/ctrl")
}

func TestLocalPayuAdapter_RunInExperiment(t *testing.T) {
	bin, logPath := fakeTool(t, "exit 0")
	dir := realDir(t)
	a := NewLocalPayuAdapter(bin)

	require.NoError(t, a.Run(context.Background(), dir, 3))
	require.NoError(t, a.Sweep(context.Background(), dir))
	require.NoError(t, a.Setup(context.Background(), dir))

	assert.Equal(t, []string{
		dir + " run -n 3 -f",
		dir + " sweep",
		dir + " setup",
	}, calls(t, logPath))
}

func TestLocalPayuAdapter_Failure(t *testing.T) {
	bin, _ := fakeTool(t, "echo 'payu: no such branch' >&2\nexit 1")

	err := NewLocalPayuAdapter(bin).Clone(context.Background(), CloneArgs{Source: "a", Target: "b"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "payu: no such branch")
	assert.Contains(t, err.Error(), "clone a b")
}

func TestNewLocalPayuAdapter_Default(t *testing.T) {
	assert.Equal(t, "payu", NewLocalPayuAdapter("").bin)
}
