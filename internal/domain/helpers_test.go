package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mouse-blink/perturb/internal/adapter"
	"github.com/mouse-blink/perturb/internal/config"
	m "github.com/mouse-blink/perturb/internal/model"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// controlFiles is the configuration of a minimal access-om3 experiment.
var controlFiles = map[string]string{
	"config.yaml":     "queue: normal\njobname: ctrl\n",
	"metadata.yaml":   "name: ctrl\ndescription: |\n  Control run.\n",
	"ice_in":          "&thermo_nml\n    ahmax = 0.1\n/\n&dynamics_nml\n    ndte = 120\n/\n",
	"MOM_input":       "DT_THERM = 1800.0 ! [s] thermodynamic step\n",
	"nuopc.runconfig": "ALLCOMP_attributes::\n     stop_n = 1\n::\n",
}

func seedExperiment(t *testing.T, dir string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0o755))

	for name, content := range controlFiles {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

// seedOnClone makes a Clone expectation create the target like payu would.
func seedOnClone(t *testing.T) func(mock.Arguments) {
	t.Helper()

	return func(args mock.Arguments) {
		clone, ok := args.Get(1).(adapter.CloneArgs)
		require.True(t, ok)
		seedExperiment(t, clone.Target)
	}
}

func cloneOf(name string) any {
	return mock.MatchedBy(func(args adapter.CloneArgs) bool {
		return filepath.Base(args.Target) == name
	})
}

func blocksFrom(t *testing.T, src string) *m.Map {
	t.Helper()

	var blocks m.Map
	require.NoError(t, yaml.Unmarshal([]byte(src), &blocks))

	return &blocks
}

func testSettings(t *testing.T, root string) *config.Settings {
	t.Helper()

	check := false

	return &config.Settings{
		Model:              config.ModelOM3,
		BaseDirName:        "ctrl",
		BaseBranchName:     "dev-1deg",
		TestPath:           root,
		NRuns:              1,
		CheckDuplicateJobs: &check,
		StartFrom:          config.ColdStart,
		Namelists:          m.NewMap(),
		Control:            m.NewMap(),
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}
