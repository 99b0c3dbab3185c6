// Package config loads the experiment manager input document.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	m "github.com/mouse-blink/perturb/internal/model"
	"gopkg.in/yaml.v3"
)

// Supported model families.
const (
	ModelOM2 = "access-om2"
	ModelOM3 = "access-om3"
)

// DefaultInput is read when no input document is named on the command line.
const DefaultInput = "Expts_manager.yaml"

// ColdStart is the startfrom value for runs that start from rest.
const ColdStart = "rest"

// knownKeys are the top-level settings decoded into Settings.
var knownKeys = map[string]bool{
	"model":                true,
	"base_url":             true,
	"base_commit":          true,
	"base_dir_name":        true,
	"base_branch_name":     true,
	"test_path":            true,
	"ctrl_nruns":           true,
	"nruns":                true,
	"run_namelists":        true,
	"check_duplicate_jobs": true,
	"force_restart":        true,
	"startfrom":            true,
	"perturb_run_config":   true,
	"namelists":            true,
}

// ignoredKeys configure collaborators this tool does not drive.
var ignoredKeys = map[string]bool{
	"utils_url":             true,
	"utils_dir_name":        true,
	"utils_branch_name":     true,
	"diag_url":              true,
	"diag_dir_name":         true,
	"diag_branch_name":      true,
	"diag_ctrl":             true,
	"diag_pert":             true,
	"force_overwrite_tools": true,
	"check_skipping":        true,
}

// Settings is the decoded input document.
type Settings struct {
	Model              string    `yaml:"model"`
	BaseURL            string    `yaml:"base_url"`
	BaseCommit         string    `yaml:"base_commit"`
	BaseDirName        string    `yaml:"base_dir_name"`
	BaseBranchName     string    `yaml:"base_branch_name"`
	TestPath           string    `yaml:"test_path"`
	CtrlNRuns          int       `yaml:"ctrl_nruns"`
	NRuns              int       `yaml:"nruns"`
	RunNamelists       bool      `yaml:"run_namelists"`
	CheckDuplicateJobs *bool     `yaml:"check_duplicate_jobs"`
	ForceRestart       bool      `yaml:"force_restart"`
	StartFrom          StartFrom `yaml:"startfrom"`
	PerturbRunConfig   *m.Map    `yaml:"perturb_run_config"`
	Namelists          *m.Map    `yaml:"namelists"`

	// Control maps control-experiment files to the changes applied to them.
	Control *m.Map `yaml:"-"`
	// Ignored lists top-level keys that were accepted but not used.
	Ignored []string `yaml:"-"`
	// Dir anchors a relative test_path.
	Dir string `yaml:"-"`
}

// StartFrom is the restart a perturbation starts from: "rest" or a restart number.
type StartFrom string

// UnmarshalYAML accepts both numbers and strings.
func (s *StartFrom) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("startfrom must be a scalar (line %d)", node.Line)
	}

	*s = StartFrom(strings.ToLower(strings.TrimSpace(node.Value)))

	return nil
}

// RestartDir returns the archive directory name, e.g. "restart005". It
// reports false for a cold start.
func (s StartFrom) RestartDir() (string, bool) {
	v := string(s)
	if v == "" || v == ColdStart {
		return "", false
	}

	if len(v) < 3 {
		v = strings.Repeat("0", 3-len(v)) + v
	}

	return "restart" + v, true
}

// Load reads and validates the input document at path.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file %s: %w", path, err)
	}

	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}

	settings, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse input file %s: %w", path, err)
	}

	settings.Dir = dir

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input file %s: %w", path, err)
	}

	return settings, nil
}

// Parse decodes an input document. Top-level keys that are not settings
// become control-experiment file updates.
func Parse(data []byte) (*Settings, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("input document is empty")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("input document must be a mapping (line %d)", root.Line)
	}

	var settings Settings
	if err := root.Decode(&settings); err != nil {
		return nil, err
	}

	settings.Control = m.NewMap()

	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value

		switch {
		case knownKeys[key]:
			continue
		case ignoredKeys[key]:
			settings.Ignored = append(settings.Ignored, key)
			continue
		}

		value, err := m.FromNode(root.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}

		settings.Control.Set(key, value)
	}

	if settings.Namelists == nil {
		settings.Namelists = m.NewMap()
	}

	return &settings, nil
}

// Validate checks the settings every command relies on.
func (s *Settings) Validate() error {
	if s.Model != ModelOM2 && s.Model != ModelOM3 {
		return m.ErrValidationf("model must be %q or %q, got %q", ModelOM2, ModelOM3, s.Model)
	}

	for name, value := range map[string]string{
		"base_dir_name":    s.BaseDirName,
		"base_branch_name": s.BaseBranchName,
		"test_path":        s.TestPath,
	} {
		if strings.TrimSpace(value) == "" {
			return m.ErrValidationf("%s is required", name)
		}
	}

	if strings.ContainsRune(s.BaseDirName, filepath.Separator) {
		return m.ErrValidationf("base_dir_name must be a plain directory name, got %q", s.BaseDirName)
	}

	if s.NRuns < 0 || s.CtrlNRuns < 0 {
		return m.ErrValidationf("nruns and ctrl_nruns must not be negative")
	}

	if dir, ok := s.StartFrom.RestartDir(); ok {
		for _, r := range strings.TrimPrefix(dir, "restart") {
			if r < '0' || r > '9' {
				return m.ErrValidationf("startfrom must be %q or a restart number, got %q", ColdStart, s.StartFrom)
			}
		}
	}

	return nil
}

// TestRoot is the directory holding the control and all perturbations.
func (s *Settings) TestRoot() string {
	if filepath.IsAbs(s.TestPath) {
		return filepath.Clean(s.TestPath)
	}

	return filepath.Join(s.Dir, s.TestPath)
}

// ControlPath is the control experiment directory.
func (s *Settings) ControlPath() string {
	return filepath.Join(s.TestRoot(), s.BaseDirName)
}

// DuplicateCheck reports whether submissions are checked against the scheduler.
func (s *Settings) DuplicateCheck() bool {
	return s.CheckDuplicateJobs == nil || *s.CheckDuplicateJobs
}
