package adapter

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPBSAdapter_Status(t *testing.T) {
	bin, logPath := fakeTool(t, "printf 'Job Id: 1.pbs\\n    job_state = R\\n'")

	out, err := NewLocalPBSAdapter(bin).Status(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Job Id: 1.pbs\n    job_state = R\n", string(out))

	got := calls(t, logPath)
	require.Len(t, got, 1)
	assert.True(t, strings.HasSuffix(got[0], " -f"), got[0])
}

func TestLocalPBSAdapter_Failure(t *testing.T) {
	bin, _ := fakeTool(t, "echo 'qstat: cannot connect to server' >&2\nexit 2")

	_, err := NewLocalPBSAdapter(bin).Status(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot connect to server")
}
