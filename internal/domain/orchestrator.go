package domain

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/mouse-blink/perturb/internal/adapter/formats"
	m "github.com/mouse-blink/perturb/internal/model"
	"github.com/sirupsen/logrus"
)

const (
	configFile    = "config.yaml"
	runConfigFile = "nuopc.runconfig"
)

// Updaters resolves the updater of a configuration file.
type Updaters interface {
	Lookup(file string, target formats.Target) (formats.Updater, error)
}

// Orchestrator drives one expanded block: it materializes the experiment
// directories, applies every unit's change sets and submits each
// experiment once all of its files are written.
type Orchestrator interface {
	ProcessBlock(ctx context.Context, plan *m.BlockPlan) ([]m.ExperimentResult, error)
}

// OrchestratorOptions carries the run settings the orchestrator needs.
type OrchestratorOptions struct {
	NRuns            int
	PerturbRunConfig *m.Map
}

type orchestrator struct {
	updaters     Updaters
	materializer Materializer
	submitter    Submitter
	opts         OrchestratorOptions
	log          logrus.FieldLogger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(
	updaters Updaters,
	materializer Materializer,
	submitter Submitter,
	opts OrchestratorOptions,
	log logrus.FieldLogger,
) Orchestrator {
	return &orchestrator{
		updaters:     updaters,
		materializer: materializer,
		submitter:    submitter,
		opts:         opts,
		log:          log,
	}
}

// ProcessBlock walks the units in order. The directory of experiment i is
// ensured by the first unit; the last unit finalizes and submits it. An
// experiment whose directory cannot be created is skipped by later units,
// and one with a failed file update is not submitted. A target file or
// namelist group missing from an experiment aborts the block.
func (o *orchestrator) ProcessBlock(ctx context.Context, plan *m.BlockPlan) ([]m.ExperimentResult, error) {
	results := make([]m.ExperimentResult, len(plan.Experiments))
	for i, exp := range plan.Experiments {
		results[i] = m.ExperimentResult{Block: plan.Block.Name, Experiment: exp}
	}

	skipped := make([]bool, len(plan.Experiments))
	incomplete := make([]bool, len(plan.Experiments))
	barrier := NewBarrier(len(plan.Units))

	for _, unit := range plan.Units {
		first, last := barrier.Arrive()

		updater, err := o.updaters.Lookup(unit.File, formats.TargetPerturbation)
		if err != nil {
			return results, fmt.Errorf("block %s: %w", plan.Block.Name, err)
		}

		for i, cs := range unit.ChangeSets {
			if skipped[i] {
				continue
			}

			exp := plan.Experiments[i]
			log := o.log.WithFields(logrus.Fields{
				"block":      plan.Block.Name,
				"experiment": exp.Name,
				"file":       unit.File,
				"group":      unit.Group.Name,
			})

			if first {
				created, err := o.materializer.Ensure(ctx, exp)
				if err != nil {
					log.WithError(err).Error("failed to materialize experiment, skipping it")

					results[i].Err = err
					skipped[i] = true

					continue
				}

				results[i].Created = created
			}

			if last {
				o.finalize(&results[i], plan, log)
			}

			target := filepath.Join(exp.Path, unit.File)
			if err := updater.Update(target, unit.Group.Section(), cs.Patch); err != nil {
				if errors.Is(err, fs.ErrNotExist) || errors.Is(err, m.ErrGroupType) {
					return results, fmt.Errorf("block %s: %w", plan.Block.Name, err)
				}

				log.WithError(err).Error("failed to update configuration file")

				results[i].Err = err
				incomplete[i] = true
			} else {
				log.WithField("params", cs.Patch.Keys()).Info("updated configuration file")
			}

			if !last {
				continue
			}

			if incomplete[i] {
				log.Warn("configuration is incomplete, not submitting")
				continue
			}

			o.submit(ctx, &results[i], log)
		}
	}

	return results, nil
}

// finalize writes the restart link, metadata and jobname of an experiment
// whose files are all about to be written. Failures are logged.
func (o *orchestrator) finalize(res *m.ExperimentResult, plan *m.BlockPlan, log logrus.FieldLogger) {
	exp := res.Experiment

	restart, err := o.materializer.LinkRestart(exp)
	if err != nil {
		log.WithError(err).Error("failed to link restart")
	}

	res.Restart = restart

	if err := o.materializer.WriteMetadata(exp, restart); err != nil {
		log.WithError(err).Warn("failed to update metadata")
	}

	o.updateFile(exp, configFile, m.MapFrom("jobname", exp.Name), log)

	if o.opts.PerturbRunConfig.Len() > 0 && !targets(plan, runConfigFile) {
		o.updateFile(exp, runConfigFile, o.opts.PerturbRunConfig, log)
	}
}

func (o *orchestrator) updateFile(exp m.Experiment, file string, params *m.Map, log logrus.FieldLogger) {
	updater, err := o.updaters.Lookup(file, formats.TargetPerturbation)
	if err != nil {
		log.WithError(err).Debugf("not updating %s", file)
		return
	}

	if err := updater.Update(filepath.Join(exp.Path, file), "", params); err != nil {
		log.WithError(err).Warnf("failed to update %s", file)
	}
}

func (o *orchestrator) submit(ctx context.Context, res *m.ExperimentResult, log logrus.FieldLogger) {
	result, err := o.submitter.Submit(ctx, SubmitArgs{
		Name:    res.Experiment.Name,
		Path:    res.Experiment.Path,
		NRuns:   o.opts.NRuns,
		Message: "Perturbation experiment setup: " + res.Experiment.Name,
	})
	res.Submit = result

	if err != nil {
		log.WithError(err).Error("failed to submit experiment")

		res.Err = err
	}
}

func targets(plan *m.BlockPlan, file string) bool {
	for _, unit := range plan.Units {
		if filepath.Base(unit.File) == file {
			return true
		}
	}

	return false
}
