// Package formats applies parameter changes to the configuration files of
// an experiment. Each file kind has its own Updater; a Registry maps file
// names to them.
package formats

import (
	"path/filepath"
	"strings"

	"github.com/mouse-blink/perturb/internal/config"
	m "github.com/mouse-blink/perturb/internal/model"
)

// Kind identifies a configuration file format.
type Kind string

// Available Kind values.
const (
	KindNamelist  Kind = "namelist"
	KindConfig    Kind = "config-yaml"
	KindRunConfig Kind = "nuopc-runconfig"
	KindRunSeq    Kind = "nuopc-runseq"
	KindStreams   Kind = "streams-xml"
	KindMOM6      Kind = "mom6-input"
)

// Target distinguishes control edits from perturbation edits. Some kinds
// are written differently for each.
type Target int

// Available Target values.
const (
	TargetControl Target = iota
	TargetPerturbation
)

// Updater applies parameter changes to one configuration file.
type Updater interface {
	// Update merges params into the file at path. A non-empty section names
	// the namelist group, runconfig section or stream the params belong to;
	// with an empty section params are already keyed by section.
	Update(path, section string, params *m.Map) error
}

// KindOf classifies a file by name.
func KindOf(file string) (Kind, bool) {
	base := filepath.Base(file)

	switch {
	case base == "config.yaml":
		return KindConfig, true
	case base == "nuopc.runconfig":
		return KindRunConfig, true
	case base == "nuopc.runseq":
		return KindRunSeq, true
	case base == "MOM_input":
		return KindMOM6, true
	case strings.HasSuffix(base, ".xml"):
		return KindStreams, true
	case strings.HasSuffix(base, "_in"), strings.HasSuffix(base, ".nml"):
		return KindNamelist, true
	default:
		return "", false
	}
}

type registryKey struct {
	kind   Kind
	target Target
}

// Registry dispatches file names to Updaters.
type Registry struct {
	updaters map[registryKey]Updater
}

// Extension registers the kinds that only one model family provides.
type Extension interface {
	Register(r *Registry)
}

// NewRegistry returns a Registry with the common kinds plus whatever ext adds.
func NewRegistry(ext Extension) *Registry {
	r := &Registry{updaters: make(map[registryKey]Updater)}

	r.Register(KindNamelist, TargetControl, NamelistUpdater{})
	r.Register(KindNamelist, TargetPerturbation, NamelistUpdater{Strict: true})
	r.RegisterBoth(KindConfig, ConfigUpdater{})
	r.RegisterBoth(KindStreams, StreamsUpdater{})

	if ext != nil {
		ext.Register(r)
	}

	return r
}

// ForModel returns the Registry for a model family. controlDir is the
// control experiment, whose MOM_input supplies override comments.
func ForModel(model, controlDir string) *Registry {
	if model == config.ModelOM3 {
		return NewRegistry(NewOM3Extension(controlDir))
	}

	return NewRegistry(DisabledExtension{})
}

// Register binds u to kind for target.
func (r *Registry) Register(kind Kind, target Target, u Updater) {
	r.updaters[registryKey{kind: kind, target: target}] = u
}

// RegisterBoth binds u to kind for control and perturbation edits.
func (r *Registry) RegisterBoth(kind Kind, u Updater) {
	r.Register(kind, TargetControl, u)
	r.Register(kind, TargetPerturbation, u)
}

// Lookup returns the Updater for file.
func (r *Registry) Lookup(file string, target Target) (Updater, error) {
	kind, ok := KindOf(file)
	if !ok {
		return nil, m.ErrValidationf("unsupported configuration file %q", file)
	}

	u, ok := r.updaters[registryKey{kind: kind, target: target}]
	if !ok {
		return nil, m.ErrValidationf("%s files (%q) are not supported for this model", kind, file)
	}

	return u, nil
}

// Supports reports whether file can be perturbed.
func (r *Registry) Supports(file string) bool {
	_, err := r.Lookup(file, TargetPerturbation)
	return err == nil
}

// OM3Extension adds the NUOPC and MOM6 kinds used by access-om3.
type OM3Extension struct {
	comments CommentSource
}

// NewOM3Extension reads override comments from controlDir/MOM_input.
func NewOM3Extension(controlDir string) OM3Extension {
	return OM3Extension{comments: MOM6InputComments{Path: filepath.Join(controlDir, "MOM_input")}}
}

// Register adds the access-om3 updaters.
func (e OM3Extension) Register(r *Registry) {
	r.RegisterBoth(KindRunConfig, RunConfigUpdater{})
	r.RegisterBoth(KindRunSeq, RunSeqUpdater{})
	r.Register(KindMOM6, TargetControl, MOM6InputUpdater{})
	r.Register(KindMOM6, TargetPerturbation, MOM6OverrideUpdater{Comments: e.comments})
}

// DisabledExtension adds nothing. access-om2 has no NUOPC or MOM6 files.
type DisabledExtension struct{}

// Register is a no-op.
func (DisabledExtension) Register(*Registry) {}
