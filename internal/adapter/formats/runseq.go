package formats

import (
	"regexp"

	m "github.com/mouse-blink/perturb/internal/model"
)

var couplingTimestep = regexp.MustCompile(`@\S+`)

// RunSeqUpdater rewrites the coupling timestep of a NUOPC run sequence.
type RunSeqUpdater struct{}

// Update replaces every "@<dt>" token in path with the first value of params.
func (RunSeqUpdater) Update(path, _ string, params *m.Map) error {
	return rewrite(path, func(text string) (string, error) {
		return PatchRunSeq(text, params)
	})
}

// PatchRunSeq replaces every "@<dt>" token with "@" plus the first value of params.
func PatchRunSeq(text string, params *m.Map) (string, error) {
	key, v, ok := params.First()
	if !ok {
		return "", m.ErrValidationf("no coupling timestep given for nuopc.runseq")
	}

	if !v.IsScalar() {
		return "", m.ErrValidationf("coupling timestep %q must be a scalar, got %s", key, v.String())
	}

	return couplingTimestep.ReplaceAllLiteralString(text, "@"+v.String()), nil
}
