package domain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mouse-blink/perturb/internal/adapter"
	"github.com/mouse-blink/perturb/internal/adapter/formats"
	"github.com/mouse-blink/perturb/internal/config"
	m "github.com/mouse-blink/perturb/internal/model"
	"github.com/sirupsen/logrus"
)

const (
	perturbBranch = "perturb"
	archiveDir    = "archive"
	metadataFile  = "metadata.yaml"
)

// Materializer creates experiment directories and the files that tie a
// perturbation back to its control.
type Materializer interface {
	// Ensure clones the experiment from the control unless its directory
	// already exists. It reports whether a clone happened.
	Ensure(ctx context.Context, exp m.Experiment) (bool, error)
	// LinkRestart points the experiment at the control's restart and
	// returns the restart source, or "rest" for a cold start.
	LinkRestart(exp m.Experiment) (string, error)
	// WriteMetadata records provenance and keywords in metadata.yaml.
	WriteMetadata(exp m.Experiment, restart string) error
}

type materializer struct {
	tools       adapter.ExperimentToolAdapter
	fs          adapter.ExperimentFSAdapter
	metadata    formats.MetadataWriter
	log         logrus.FieldLogger
	controlPath string
	branch      string
	startFrom   config.StartFrom
	force       bool
}

// NewMaterializer creates a Materializer cloning from the control experiment of settings.
func NewMaterializer(
	tools adapter.ExperimentToolAdapter,
	fs adapter.ExperimentFSAdapter,
	metadata formats.MetadataWriter,
	settings *config.Settings,
	log logrus.FieldLogger,
) Materializer {
	return &materializer{
		tools:       tools,
		fs:          fs,
		metadata:    metadata,
		log:         log,
		controlPath: settings.ControlPath(),
		branch:      settings.BaseBranchName,
		startFrom:   settings.StartFrom,
		force:       settings.ForceRestart,
	}
}

func (mt *materializer) Ensure(ctx context.Context, exp m.Experiment) (bool, error) {
	log := mt.log.WithFields(logrus.Fields{"experiment": exp.Name, "path": exp.Path})

	info, err := mt.fs.FileInfo(exp.Path)
	if err == nil {
		if !info.IsDir() {
			return false, m.ErrValidationf("%s exists and is not a directory", exp.Path)
		}

		log.Info("experiment directory already exists, not cloning")

		return false, nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to inspect %s: %w", exp.Path, err)
	}

	log.Info("cloning experiment from control")

	err = mt.tools.Clone(ctx, adapter.CloneArgs{
		Source:    mt.controlPath,
		Target:    exp.Path,
		Branch:    mt.branch,
		NewBranch: perturbBranch,
	})
	if err != nil {
		return false, fmt.Errorf("%w: failed to clone %s: %w", m.ErrExternalTool, exp.Name, err)
	}

	return true, nil
}

func (mt *materializer) LinkRestart(exp m.Experiment) (string, error) {
	dir, ok := mt.startFrom.RestartDir()
	if !ok {
		mt.log.WithField("experiment", exp.Name).Info("starting from rest, no restart symlink")
		return config.ColdStart, nil
	}

	rel := filepath.Join(archiveDir, dir)

	source, err := mt.fs.RealPath(filepath.Join(mt.controlPath, rel))
	if err != nil {
		return "", err
	}

	link := filepath.Join(exp.Path, rel)
	log := mt.log.WithFields(logrus.Fields{"experiment": exp.Name, "link": link, "source": source})

	if _, err := mt.fs.FileInfo(source); err != nil {
		log.Warn("restart source does not exist yet")
	}

	reason, err := mt.relinkReason(link)
	if err != nil {
		return "", err
	}

	if reason == "" {
		log.Info("restart symlink already exists, keeping it")
		return source, nil
	}

	if reason != "missing" {
		if err := mt.fs.Remove(link); err != nil {
			return "", fmt.Errorf("failed to remove restart symlink %s: %w", link, err)
		}
	}

	if err := mt.fs.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filepath.Dir(link), err)
	}

	if err := mt.fs.Symlink(source, link); err != nil {
		return "", fmt.Errorf("failed to create restart symlink %s: %w", link, err)
	}

	log.WithField("reason", reason).Info("created restart symlink")

	return source, nil
}

// relinkReason says why the restart symlink must be (re)created, or "" to keep it.
func (mt *materializer) relinkReason(link string) (string, error) {
	info, err := mt.fs.LinkInfo(link)
	if errors.Is(err, os.ErrNotExist) {
		return "missing", nil
	}

	if err != nil {
		return "", fmt.Errorf("failed to inspect %s: %w", link, err)
	}

	if info.Mode()&os.ModeSymlink == 0 {
		return "", m.ErrValidationf("%s exists and is not a symlink", link)
	}

	if mt.force {
		return "forced", nil
	}

	if _, err := mt.fs.FileInfo(link); err != nil {
		return "broken", nil
	}

	return "", nil
}

func (mt *materializer) WriteMetadata(exp m.Experiment, restart string) error {
	notes := []string{
		"NOTE: this is a perturbation experiment, but the description above is for the control run.\n" +
			fmt.Sprintf("This perturbation experiment is based on the control run %s from %s", mt.controlPath, mt.branch),
		fmt.Sprintf("but with initial condition %s.", restart),
	}

	keywords := append([]string{filepath.Base(mt.controlPath), perturbBranch}, exp.Params.Keys()...)

	err := mt.metadata.Update(filepath.Join(exp.Path, metadataFile), formats.MetadataUpdate{
		Notes:    notes,
		Keywords: strings.Join(keywords, ", "),
	})
	if err != nil {
		return fmt.Errorf("failed to update metadata of %s: %w", exp.Name, err)
	}

	return nil
}
