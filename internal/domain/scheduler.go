package domain

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mouse-blink/perturb/internal/adapter"
	m "github.com/mouse-blink/perturb/internal/model"
)

const (
	jobIDMarker        = "Job Id:"
	attributeIndent    = "    "
	continuationIndent = "        "
	tabWidth           = "        "
)

// JobIndex reads the scheduler state and answers duplicate-submission queries.
type JobIndex interface {
	// Load queries the scheduler and parses its dump.
	Load(ctx context.Context) ([]m.JobRecord, error)
	// IsDuplicate reports whether an active job already runs target.
	IsDuplicate(target string, records []m.JobRecord) bool
}

type jobIndex struct {
	scheduler adapter.SchedulerAdapter
}

// NewJobIndex creates a JobIndex backed by scheduler.
func NewJobIndex(scheduler adapter.SchedulerAdapter) JobIndex {
	return &jobIndex{scheduler: scheduler}
}

func (j *jobIndex) Load(ctx context.Context) ([]m.JobRecord, error) {
	dump, err := j.scheduler.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query scheduler: %w", m.ErrExternalTool, err)
	}

	return ParseJobs(string(dump)), nil
}

func (j *jobIndex) IsDuplicate(target string, records []m.JobRecord) bool {
	target = filepath.Clean(target)
	folders := activeFolders(records)

	_, ok := folders[filepath.Dir(target)][target]

	return ok
}

// ParseJobs parses a full-format qstat dump. A record starts at a "Job Id:"
// line; four-space indented "key = value" lines start attributes and
// eight-space indented lines continue the latest one. Tabs count as eight
// spaces.
func ParseJobs(dump string) []m.JobRecord {
	var (
		records []m.JobRecord
		current *m.JobRecord
		key     string
		value   strings.Builder
	)

	flush := func() {
		if current != nil && key != "" {
			current.Attributes[key] = value.String()
		}

		key = ""

		value.Reset()
	}

	finish := func() {
		flush()

		if current == nil {
			return
		}

		current.State = current.Attributes["job_state"]
		current.ErrorPath = current.Attributes["Error_Path"]
		records = append(records, *current)
		current = nil
	}

	for _, raw := range strings.Split(dump, "\n") {
		line := strings.TrimRight(strings.ReplaceAll(raw, "\t", tabWidth), " \r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, jobIDMarker):
			finish()

			current = &m.JobRecord{
				ID:         strings.TrimSpace(strings.TrimPrefix(line, jobIDMarker)),
				Attributes: make(map[string]string),
			}
		case current == nil:
			continue
		case key != "" && strings.HasPrefix(line, continuationIndent):
			value.WriteString(strings.TrimSpace(line))
		case strings.HasPrefix(line, attributeIndent) && strings.Contains(line, " = "):
			flush()

			k, v, _ := strings.Cut(strings.TrimSpace(line), " = ")
			key = k
			value.WriteString(v)
		}
	}

	finish()

	return records
}

// activeFolders groups the experiment folders of active jobs by parent.
func activeFolders(records []m.JobRecord) map[string]map[string]struct{} {
	folders := make(map[string]map[string]struct{})

	for _, record := range records {
		if !record.Active() {
			continue
		}

		folder, ok := errorPathFolder(record.ErrorPath)
		if !ok {
			continue
		}

		parent := filepath.Dir(folder)
		if folders[parent] == nil {
			folders[parent] = make(map[string]struct{})
		}

		folders[parent][folder] = struct{}{}
	}

	return folders
}

// errorPathFolder turns "host:/a/b/expt/expt.e123" into "/a/b/expt".
func errorPathFolder(errorPath string) (string, bool) {
	segments := strings.Split(errorPath, "/")
	if len(segments) < 3 {
		return "", false
	}

	return filepath.Clean("/" + strings.Join(segments[1:len(segments)-1], "/")), true
}
