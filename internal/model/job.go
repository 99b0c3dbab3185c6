package model

// Scheduler job states that no longer occupy an experiment directory.
const (
	JobStateFinished  = "F"
	JobStateSuspended = "S"
)

// JobRecord is one job parsed from a scheduler status dump.
type JobRecord struct {
	ID         string
	State      string
	ErrorPath  string
	Attributes map[string]string
}

// Active reports whether the job still owns its directory.
func (j JobRecord) Active() bool {
	return j.State != JobStateFinished && j.State != JobStateSuspended
}
