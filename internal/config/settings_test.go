package config

import (
	"os"
	"path/filepath"
	"testing"

	m "github.com/mouse-blink/perturb/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const input = `
model: access-om3
base_url: https://github.com/ACCESS-NRI/access-om3-configs
base_commit: 2b3c4d5
base_dir_name: ctrl
base_branch_name: dev-1deg_jra55do_iaf
test_path: tests
ctrl_nruns: 0
nruns: 2
run_namelists: true
check_duplicate_jobs: false
startfrom: 5
diag_url: https://example.invalid/diagnostics
check_skipping: true

config.yaml:
  queue: express

perturb_run_config:
  CLOCK_attributes:
    restart_n: 1

namelists:
  ice_in:
    thermo_nml:
      ahmax: [0.2, 0.3]
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(input))
	require.NoError(t, err)

	assert.Equal(t, ModelOM3, s.Model)
	assert.Equal(t, "ctrl", s.BaseDirName)
	assert.Equal(t, 2, s.NRuns)
	assert.True(t, s.RunNamelists)
	assert.False(t, s.DuplicateCheck())
	assert.Equal(t, StartFrom("5"), s.StartFrom)

	assert.Equal(t, []string{"config.yaml"}, s.Control.Keys())
	assert.Equal(t, []string{"diag_url", "check_skipping"}, s.Ignored)
	assert.Equal(t, []string{"ice_in"}, s.Namelists.Keys())
	assert.Equal(t, []string{"CLOCK_attributes"}, s.PerturbRunConfig.Keys())

	require.NoError(t, s.Validate())
}

func TestParse_Defaults(t *testing.T) {
	s, err := Parse([]byte("model: access-om2\n"))
	require.NoError(t, err)

	assert.True(t, s.DuplicateCheck())
	assert.Equal(t, 0, s.Namelists.Len())
	assert.Equal(t, 0, s.Control.Len())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(""))
	assert.Error(t, err)

	_, err = Parse([]byte("- a\n- b\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("nruns: [1, 2]\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Settings {
		return &Settings{Model: ModelOM2, BaseDirName: "ctrl", BaseBranchName: "main", TestPath: "tests"}
	}

	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{"unknown model", func(s *Settings) { s.Model = "cesm" }},
		{"missing base_dir_name", func(s *Settings) { s.BaseDirName = "" }},
		{"missing test_path", func(s *Settings) { s.TestPath = " " }},
		{"nested base_dir_name", func(s *Settings) { s.BaseDirName = "a/b" }},
		{"negative nruns", func(s *Settings) { s.NRuns = -1 }},
		{"bad startfrom", func(s *Settings) { s.StartFrom = "latest" }},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)

			assert.ErrorIs(t, s.Validate(), m.ErrValidation)
		})
	}
}

func TestStartFrom_RestartDir(t *testing.T) {
	tests := []struct {
		in   StartFrom
		want string
		ok   bool
	}{
		{"rest", "", false},
		{"", "", false},
		{"5", "restart005", true},
		{"42", "restart042", true},
		{"1234", "restart1234", true},
	}

	for _, tt := range tests {
		got, ok := tt.in.RestartDir()
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultInput)
	require.NoError(t, os.WriteFile(path, []byte(input), 0o600))

	t.Chdir(dir)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "tests"), s.TestRoot())
	assert.Equal(t, filepath.Join(dir, "tests", "ctrl"), s.ControlPath())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTestRoot_Absolute(t *testing.T) {
	s := &Settings{TestPath: "/scratch/tests/", BaseDirName: "ctrl", Dir: "/home/user"}

	assert.Equal(t, "/scratch/tests", s.TestRoot())
	assert.Equal(t, "/scratch/tests/ctrl", s.ControlPath())
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("PERTURB_PAYU_BIN", "/opt/payu/bin/payu")
	t.Setenv("PERTURB_LOG_FORMAT", "json")

	e, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, Env{
		PayuBin:   "/opt/payu/bin/payu",
		QstatBin:  "qstat",
		GitBin:    "git",
		LogFormat: "json",
	}, e)
}
