package domain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mouse-blink/perturb/internal/adapter"
	"github.com/mouse-blink/perturb/internal/adapter/formats"
	"github.com/mouse-blink/perturb/internal/config"
	m "github.com/mouse-blink/perturb/internal/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const statusWorkers = 8

// RunArgs are the inputs of a full run.
type RunArgs struct {
	Settings *config.Settings
}

// PlanArgs are the inputs of a dry run.
type PlanArgs struct {
	Settings *config.Settings
}

// StatusArgs are the inputs of a status report.
type StatusArgs struct {
	Settings *config.Settings
}

// Workflow defines the operations offered by the CLI.
type Workflow interface {
	// Run sets up and submits the control experiment, then every perturbation.
	Run(ctx context.Context, args RunArgs) (m.Summary, error)
	// Plan expands the parameter blocks without touching the disk.
	Plan(args PlanArgs) ([]m.BlockResult, error)
	// Status reports progress of the control and every planned perturbation.
	Status(ctx context.Context, args StatusArgs) ([]m.ExperimentStatus, error)
}

// RegistryFactory builds the updater registry for a run.
type RegistryFactory func(settings *config.Settings) *formats.Registry

type workflow struct {
	tools      adapter.ExperimentToolAdapter
	scheduler  adapter.SchedulerAdapter
	repo       adapter.RepoAdapter
	fs         adapter.ExperimentFSAdapter
	metadata   formats.MetadataWriter
	registries RegistryFactory
	log        logrus.FieldLogger
}

// NewWorkflow creates a new Workflow instance with the provided adapters.
func NewWorkflow(
	tools adapter.ExperimentToolAdapter,
	scheduler adapter.SchedulerAdapter,
	repo adapter.RepoAdapter,
	fs adapter.ExperimentFSAdapter,
	metadata formats.MetadataWriter,
	log logrus.FieldLogger,
) Workflow {
	return &workflow{
		tools:     tools,
		scheduler: scheduler,
		repo:      repo,
		fs:        fs,
		metadata:  metadata,
		registries: func(s *config.Settings) *formats.Registry {
			return formats.ForModel(s.Model, s.ControlPath())
		},
		log: log,
	}
}

func (w *workflow) Run(ctx context.Context, args RunArgs) (m.Summary, error) {
	s := args.Settings
	log := w.log.WithField("model", s.Model)

	var summary m.Summary

	if err := w.fs.MkdirAll(s.TestRoot(), 0o755); err != nil {
		return summary, fmt.Errorf("failed to create test directory %s: %w", s.TestRoot(), err)
	}

	registry := w.registries(s)
	submitter := NewSubmitter(NewJobIndex(w.scheduler), w.tools, w.repo, w.fs, s.DuplicateCheck(), log)

	control, err := w.setupControl(ctx, s, registry, submitter, log)
	summary.Control = &control

	if err != nil {
		return summary, err
	}

	if !s.RunNamelists {
		log.Info("run_namelists is off, no perturbation experiments")
		return summary, nil
	}

	orch := NewOrchestrator(
		registry,
		NewMaterializer(w.tools, w.fs, w.metadata, s, log),
		submitter,
		OrchestratorOptions{NRuns: s.NRuns, PerturbRunConfig: s.PerturbRunConfig},
		log,
	)

	for _, block := range NewPlanner(NewExpander(), registry, s.TestRoot()).Plan(s.Namelists) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		blockLog := log.WithField("block", block.Name)

		if block.Err != nil {
			blockLog.WithError(block.Err).Error("skipping block")

			summary.BlockErrors = append(summary.BlockErrors, block)

			continue
		}

		for _, dropped := range block.Plan.Dropped {
			blockLog.WithError(dropped.Err).WithField("group", dropped.Unit.Group.Name).Error("skipping group")
		}

		summary.UnitErrors = append(summary.UnitErrors, block.Plan.Dropped...)

		if len(block.Plan.Units) == 0 {
			continue
		}

		summary.BlocksPlanned++

		results, err := orch.ProcessBlock(ctx, block.Plan)
		summary.Results = append(summary.Results, results...)

		if err != nil {
			blockLog.WithError(err).Error("block aborted")

			summary.BlockErrors = append(summary.BlockErrors, m.BlockResult{Name: block.Name, Err: err})
		}
	}

	return summary, nil
}

// setupControl clones the control experiment when needed, applies the
// control file updates and submits it. Only a failed clone is fatal.
func (w *workflow) setupControl(
	ctx context.Context,
	s *config.Settings,
	registry *formats.Registry,
	submitter Submitter,
	log logrus.FieldLogger,
) (m.ExperimentResult, error) {
	exp := m.Experiment{Name: s.BaseDirName, Path: s.ControlPath(), Params: m.NewMap()}
	res := m.ExperimentResult{Block: "control", Experiment: exp}
	log = log.WithFields(logrus.Fields{"experiment": exp.Name, "path": exp.Path})

	_, err := w.fs.FileInfo(exp.Path)

	switch {
	case err == nil:
		log.Info("control experiment already exists, not cloning")
	case errors.Is(err, os.ErrNotExist):
		if s.BaseURL == "" {
			res.Err = m.ErrValidationf("control experiment %s does not exist and base_url is not set", exp.Path)
			return res, res.Err
		}

		log.WithFields(logrus.Fields{"url": s.BaseURL, "commit": s.BaseCommit}).Info("cloning control experiment")

		err := w.tools.Clone(ctx, adapter.CloneArgs{
			Source:     s.BaseURL,
			Target:     exp.Path,
			NewBranch:  s.BaseBranchName,
			StartPoint: s.BaseCommit,
		})
		if err != nil {
			res.Err = fmt.Errorf("%w: failed to clone control experiment: %w", m.ErrExternalTool, err)
			return res, res.Err
		}

		res.Created = true
	default:
		res.Err = fmt.Errorf("failed to inspect %s: %w", exp.Path, err)
		return res, res.Err
	}

	for _, file := range s.Control.Keys() {
		value, _ := s.Control.Get(file)
		fileLog := log.WithField("file", file)

		if !value.IsMap() {
			fileLog.Warn("control update is not a mapping, ignoring it")
			continue
		}

		updater, err := registry.Lookup(file, formats.TargetControl)
		if err != nil {
			fileLog.WithError(err).Warn("ignoring control update")
			continue
		}

		if err := updater.Update(filepath.Join(exp.Path, file), "", value.Map); err != nil {
			fileLog.WithError(err).Error("failed to update control file")
			continue
		}

		fileLog.Info("updated control file")
	}

	res.Submit, err = submitter.Submit(ctx, SubmitArgs{
		Name:    exp.Name,
		Path:    exp.Path,
		NRuns:   s.CtrlNRuns,
		Message: fmt.Sprintf("Control experiment setup: configure %s branch", s.BaseBranchName),
	})
	if err != nil {
		log.WithError(err).Error("failed to submit control experiment")

		res.Err = err
	}

	return res, nil
}

func (w *workflow) Plan(args PlanArgs) ([]m.BlockResult, error) {
	s := args.Settings
	if s == nil {
		return nil, errors.New("no settings given")
	}

	return NewPlanner(NewExpander(), w.registries(s), s.TestRoot()).Plan(s.Namelists), nil
}

func (w *workflow) Status(ctx context.Context, args StatusArgs) ([]m.ExperimentStatus, error) {
	s := args.Settings

	blocks, err := w.Plan(PlanArgs(args))
	if err != nil {
		return nil, err
	}

	rows := []m.ExperimentStatus{{Name: s.BaseDirName, Path: s.ControlPath(), Target: s.CtrlNRuns}}
	seen := map[string]bool{s.ControlPath(): true}

	for _, block := range blocks {
		if block.Plan == nil {
			continue
		}

		for _, exp := range block.Plan.Experiments {
			if seen[exp.Path] {
				continue
			}

			seen[exp.Path] = true
			rows = append(rows, m.ExperimentStatus{Name: exp.Name, Path: exp.Path, Target: s.NRuns})
		}
	}

	records, err := NewJobIndex(w.scheduler).Load(ctx)
	if err != nil {
		w.log.WithError(err).Warn("scheduler state unavailable, job columns left empty")
	}

	jobs := make(map[string]m.JobRecord)

	for _, record := range records {
		if folder, ok := errorPathFolder(record.ErrorPath); ok && record.Active() {
			jobs[folder] = record
		}
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(statusWorkers)

	for i := range rows {
		g.Go(func() error {
			row := &rows[i]

			if job, ok := jobs[filepath.Clean(row.Path)]; ok {
				row.JobID = job.ID
				row.JobState = job.State
			}

			info, err := w.fs.FileInfo(row.Path)
			if err != nil {
				return nil //nolint:nilerr // a missing experiment is reported, not an error
			}

			row.Exists = info.IsDir()

			done, err := CompletedRuns(w.fs, row.Path)
			if err != nil {
				return err
			}

			row.Completed = done

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return rows, nil
}
