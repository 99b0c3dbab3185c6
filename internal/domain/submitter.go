package domain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mouse-blink/perturb/internal/adapter"
	m "github.com/mouse-blink/perturb/internal/model"
	"github.com/sirupsen/logrus"
)

const (
	workDir       = "work"
	outputPattern = "output[0-9][0-9][0-9]*"
)

// SubmitArgs describes one submission request.
type SubmitArgs struct {
	Name    string
	Path    string
	NRuns   int
	Message string
}

// Submitter hands experiments to the batch scheduler.
type Submitter interface {
	// Submit commits the experiment and runs its remaining NRuns unless it
	// is already running or already complete. NRuns <= 0 only commits.
	Submit(ctx context.Context, args SubmitArgs) (m.SubmitResult, error)
}

type submitter struct {
	index           JobIndex
	tools           adapter.ExperimentToolAdapter
	repo            adapter.RepoAdapter
	fs              adapter.ExperimentFSAdapter
	checkDuplicates bool
	log             logrus.FieldLogger
}

// NewSubmitter creates a Submitter. With checkDuplicates the scheduler is
// queried before every submission.
func NewSubmitter(
	index JobIndex,
	tools adapter.ExperimentToolAdapter,
	repo adapter.RepoAdapter,
	fs adapter.ExperimentFSAdapter,
	checkDuplicates bool,
	log logrus.FieldLogger,
) Submitter {
	return &submitter{
		index:           index,
		tools:           tools,
		repo:            repo,
		fs:              fs,
		checkDuplicates: checkDuplicates,
		log:             log,
	}
}

func (s *submitter) Submit(ctx context.Context, args SubmitArgs) (m.SubmitResult, error) {
	log := s.log.WithFields(logrus.Fields{"experiment": args.Name, "path": args.Path})

	if s.checkDuplicates {
		records, err := s.index.Load(ctx)
		if err != nil {
			return m.SubmitResult{}, err
		}

		if s.index.IsDuplicate(args.Path, records) {
			log.Warn("experiment is already queued or running, skipping submission")
			return m.SubmitResult{Status: m.SubmitDuplicate}, nil
		}
	}

	committed, err := s.repo.Commit(ctx, args.Path, args.Message)
	if err != nil {
		return m.SubmitResult{}, fmt.Errorf("%w: failed to commit %s: %w", m.ErrExternalTool, args.Name, err)
	}

	if committed {
		log.Info("committed experiment changes")
	}

	if args.NRuns <= 0 {
		log.Info("number of runs is 0, not submitting")
		return m.SubmitResult{Status: m.SubmitDisabled}, nil
	}

	s.cleanWorkspace(ctx, args.Path, log)

	done, err := CompletedRuns(s.fs, args.Path)
	if err != nil {
		return m.SubmitResult{}, err
	}

	remaining := args.NRuns - done
	if remaining <= 0 {
		log.WithField("completed", done).Info("experiment already completed its runs")
		return m.SubmitResult{Status: m.SubmitUpToDate, Completed: done}, nil
	}

	log.WithFields(logrus.Fields{"completed": done, "runs": remaining}).Info("submitting experiment")

	if err := s.tools.Run(ctx, args.Path, remaining); err != nil {
		return m.SubmitResult{Completed: done}, fmt.Errorf("%w: failed to submit %s: %w", m.ErrExternalTool, args.Name, err)
	}

	return m.SubmitResult{Status: m.SubmitQueued, Completed: done, Requested: remaining}, nil
}

// cleanWorkspace sweeps and re-creates the work directory left by a
// previous run. Failures are only logged.
func (s *submitter) cleanWorkspace(ctx context.Context, path string, log logrus.FieldLogger) {
	work := filepath.Join(path, workDir)

	info, err := s.fs.LinkInfo(work)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return
	}

	if target, err := s.fs.FileInfo(work); err != nil || !target.IsDir() {
		return
	}

	log.Info("cleaning existing work directory")

	if err := s.tools.Sweep(ctx, path); err != nil {
		log.WithError(err).Warn("payu sweep failed")
	}

	if err := s.tools.Setup(ctx, path); err != nil {
		log.WithError(err).Warn("payu setup failed")
	}
}

// CompletedRuns counts archive/outputNNN directories of an experiment.
func CompletedRuns(fs adapter.ExperimentFSAdapter, path string) (int, error) {
	outputs, err := fs.Glob(filepath.Join(path, archiveDir, outputPattern))
	if err != nil {
		return 0, fmt.Errorf("failed to list outputs of %s: %w", path, err)
	}

	return len(outputs), nil
}
