package adapter

import (
	"context"
	"strconv"
)

// CloneArgs describes one clone-from-template call.
type CloneArgs struct {
	// Source is the template: a repository URL or an existing experiment path.
	Source string
	// Target is the directory to create.
	Target string
	// Branch checks out an existing branch of Source.
	Branch string
	// NewBranch creates this branch in the clone.
	NewBranch string
	// StartPoint is the commit NewBranch starts from.
	StartPoint string
}

// ExperimentToolAdapter drives the experiment runner (payu).
type ExperimentToolAdapter interface {
	// Clone materializes a new experiment directory from a template.
	Clone(ctx context.Context, args CloneArgs) error
	// Run submits nRuns consecutive runs of the experiment in dir.
	Run(ctx context.Context, dir string, nRuns int) error
	// Sweep removes the work directory of a previous run.
	Sweep(ctx context.Context, dir string) error
	// Setup prepares a fresh work directory.
	Setup(ctx context.Context, dir string) error
}

// LocalPayuAdapter shells out to the payu executable.
type LocalPayuAdapter struct {
	bin string
}

// NewLocalPayuAdapter creates a LocalPayuAdapter running bin.
func NewLocalPayuAdapter(bin string) *LocalPayuAdapter {
	if bin == "" {
		bin = "payu"
	}

	return &LocalPayuAdapter{bin: bin}
}

// Clone runs `payu clone [-B branch] [-b new] [-s start] source target`.
func (a *LocalPayuAdapter) Clone(ctx context.Context, args CloneArgs) error {
	cmdArgs := []string{"clone"}

	if args.Branch != "" {
		cmdArgs = append(cmdArgs, "-B", args.Branch)
	}

	if args.NewBranch != "" {
		cmdArgs = append(cmdArgs, "-b", args.NewBranch)
	}

	if args.StartPoint != "" {
		cmdArgs = append(cmdArgs, "-s", args.StartPoint)
	}

	cmdArgs = append(cmdArgs, args.Source, args.Target)

	_, err := runCommand(ctx, "", a.bin, cmdArgs...)

	return err
}

// Run runs `payu run -n N -f` inside dir.
func (a *LocalPayuAdapter) Run(ctx context.Context, dir string, nRuns int) error {
	_, err := runCommand(ctx, dir, a.bin, "run", "-n", strconv.Itoa(nRuns), "-f")
	return err
}

// Sweep runs `payu sweep` inside dir.
func (a *LocalPayuAdapter) Sweep(ctx context.Context, dir string) error {
	_, err := runCommand(ctx, dir, a.bin, "sweep")
	return err
}

// Setup runs `payu setup` inside dir.
func (a *LocalPayuAdapter) Setup(ctx context.Context, dir string) error {
	_, err := runCommand(ctx, dir, a.bin, "setup")
	return err
}
