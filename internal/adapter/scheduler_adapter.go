package adapter

import "context"

// SchedulerAdapter fetches the batch scheduler's job dump.
type SchedulerAdapter interface {
	// Status returns the full-format job listing of the current user.
	Status(ctx context.Context) ([]byte, error)
}

// LocalPBSAdapter queries PBS through qstat.
type LocalPBSAdapter struct {
	bin string
}

// NewLocalPBSAdapter creates a LocalPBSAdapter running bin.
func NewLocalPBSAdapter(bin string) *LocalPBSAdapter {
	if bin == "" {
		bin = "qstat"
	}

	return &LocalPBSAdapter{bin: bin}
}

// Status runs `qstat -f`.
func (a *LocalPBSAdapter) Status(ctx context.Context) ([]byte, error) {
	return runCommand(ctx, "", a.bin, "-f")
}
