package model

// Unit is one (file, group) pair contributing to a logical block.
type Unit struct {
	File  string
	Group Group
}

// Block is a logical block: the units that share one set of experiment
// directories, and the optional user-supplied directory names.
type Block struct {
	Name     string
	Cross    bool
	Units    []Unit
	DirNames []string
}

// Experiment is the identity of one concrete parameter combination.
type Experiment struct {
	Index  int
	Name   string
	Path   string
	Params *Map
}

// PlannedUnit is a unit with its expanded change sets, one per experiment.
type PlannedUnit struct {
	Unit
	ChangeSets []ChangeSet
}

// BlockPlan is a fully expanded block, ready to be materialized.
type BlockPlan struct {
	Block       Block
	Units       []PlannedUnit
	Experiments []Experiment
	// Dropped lists units removed from the block because their group failed to expand.
	Dropped []UnitError
}

// UnitError records a unit that could not be expanded.
type UnitError struct {
	Unit Unit
	Err  error
}

// BlockResult is the outcome of planning one block.
type BlockResult struct {
	Name string
	Plan *BlockPlan
	Err  error
}

// SubmitStatus describes what happened when an experiment was offered to the scheduler.
type SubmitStatus string

// Available SubmitStatus values.
const (
	SubmitNone      SubmitStatus = ""
	SubmitQueued    SubmitStatus = "submitted"
	SubmitDuplicate SubmitStatus = "duplicate"
	SubmitUpToDate  SubmitStatus = "up-to-date"
	SubmitDisabled  SubmitStatus = "disabled"
)

// SubmitResult is the outcome of one submission attempt.
type SubmitResult struct {
	Status    SubmitStatus
	Completed int
	Requested int
}

// ExperimentResult is the outcome of processing one experiment.
type ExperimentResult struct {
	Block      string
	Experiment Experiment
	Created    bool
	Restart    string
	Submit     SubmitResult
	Err        error
}

// Summary aggregates a whole run.
type Summary struct {
	Control       *ExperimentResult
	Results       []ExperimentResult
	BlockErrors   []BlockResult
	UnitErrors    []UnitError
	BlocksPlanned int
}

// ExperimentStatus is one row of the status report.
type ExperimentStatus struct {
	Name      string
	Path      string
	Exists    bool
	Completed int
	Target    int
	JobID     string
	JobState  string
}
