package adapter

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeTool writes an executable shell script that appends "<cwd> <args>"
// to a log file before running body. It returns the script and log paths.
func fakeTool(t *testing.T, body string) (string, string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake tools are shell scripts")
	}

	dir := t.TempDir()
	bin := filepath.Join(dir, "tool")
	logPath := filepath.Join(dir, "calls.log")

	script := "#!/bin/sh\necho \"$(pwd -P) $*\" >> " + logPath + "\n" + body + "\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755)) //nolint:gosec // test executable

	return bin, logPath
}

func calls(t *testing.T, logPath string) []string {
	t.Helper()

	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil
	}

	require.NoError(t, err)

	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func realDir(t *testing.T) string {
	t.Helper()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	return dir
}
