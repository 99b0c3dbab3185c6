package domain

import (
	"math"

	m "github.com/mouse-blink/perturb/internal/model"
)

const turningAngleKey = "turning_angle"

// Expander turns a parameter group into one change set per experiment.
type Expander interface {
	// Count returns how many experiments the group produces.
	Count(group m.Group) (int, error)
	// Expand resolves the group into Count(group) change sets.
	Expand(group m.Group) ([]m.ChangeSet, error)
}

type expander struct{}

// NewExpander returns the default Expander.
func NewExpander() Expander {
	return &expander{}
}

func (e *expander) Count(group m.Group) (int, error) {
	if group.Mode == m.ModeCombo {
		return comboLength(group)
	}

	n := 0

	for _, key := range group.Params.Keys() {
		v, _ := group.Params.Get(key)
		if v.IsList() {
			n += len(v.List)
			continue
		}

		n++
	}

	return n, nil
}

func (e *expander) Expand(group m.Group) ([]m.ChangeSet, error) {
	var params []*m.Map

	if group.Mode == m.ModeCombo {
		zipped, err := expandCombo(group)
		if err != nil {
			return nil, err
		}

		params = zipped
	} else {
		params = expandIndividual(group)
	}

	changeSets := make([]m.ChangeSet, 0, len(params))

	for i, p := range params {
		patch, err := deriveParams(p)
		if err != nil {
			return nil, err
		}

		changeSets = append(changeSets, m.ChangeSet{
			Index:  i,
			Group:  group.Name,
			Params: p,
			Patch:  patch,
		})
	}

	return changeSets, nil
}

// expandIndividual fans out every list entry of every parameter on its own.
// Lists of different lengths are fine: each produces its own run.
func expandIndividual(group m.Group) []*m.Map {
	var out []*m.Map

	for _, key := range group.Params.Keys() {
		v, _ := group.Params.Get(key)
		if !v.IsList() {
			out = append(out, m.MapFrom(key, v))
			continue
		}

		for _, item := range v.List {
			out = append(out, m.MapFrom(key, item))
		}
	}

	return out
}

func expandCombo(group m.Group) ([]*m.Map, error) {
	n, err := comboLength(group)
	if err != nil {
		return nil, err
	}

	out := make([]*m.Map, 0, n)

	for i := range n {
		p := m.NewMap()

		for _, key := range group.Params.Keys() {
			v, _ := group.Params.Get(key)

			resolved, err := resolveParam(v, i)
			if err != nil {
				return nil, m.ErrLengthMismatchf("group %q, parameter %q: %v", group.Name, key, err)
			}

			p.Set(key, resolved)
		}

		out = append(out, p)
	}

	return out, nil
}

// comboLength checks that every list in the group implies the same
// experiment count and returns it. A group without lists is one experiment.
func comboLength(group m.Group) (int, error) {
	length := -1
	first := ""

	for _, key := range group.Params.Keys() {
		v, _ := group.Params.Get(key)

		for _, l := range paramLengths(v) {
			if length < 0 {
				length, first = l, key
				continue
			}

			if l != length {
				return 0, m.ErrLengthMismatchf("group %q: %q has %d values but %q has %d",
					group.Name, first, length, key, l)
			}
		}
	}

	if length < 0 {
		return 1, nil
	}

	return length, nil
}

func paramLengths(v m.Value) []int {
	switch {
	case v.IsListOfMaps():
		var out []int
		for _, sub := range v.List {
			out = append(out, m.Lengths(sub)...)
		}

		return out
	case v.IsList():
		return []int{len(v.List)}
	case v.IsMap():
		return m.Lengths(v)
	default:
		return nil
	}
}

// resolveParam picks experiment i out of a top-level parameter value.
// A list of lists yields its i-th sub-list whole. A list of submodels keeps
// every submodel with its own lists indexed by i.
func resolveParam(v m.Value, i int) (m.Value, error) {
	switch {
	case v.IsListOfMaps():
		subs := make([]m.Value, 0, len(v.List))

		for _, sub := range v.List {
			resolved, err := m.Index(sub, i)
			if err != nil {
				return m.Value{}, err
			}

			subs = append(subs, resolved)
		}

		return m.ListOf(subs...), nil
	case v.IsList():
		if i >= len(v.List) {
			return m.Value{}, m.ErrLengthMismatchf("index %d out of range for list of length %d", i, len(v.List))
		}

		return v.List[i], nil
	case v.IsMap():
		return m.Index(v, i)
	default:
		return v, nil
	}
}

// deriveParams expands derived parameters. turning_angle in degrees becomes
// cosw and sinw in its place.
func deriveParams(params *m.Map) (*m.Map, error) {
	patch := params.Clone()

	v, ok := patch.Get(turningAngleKey)
	if !ok {
		return patch, nil
	}

	degrees, ok := v.AsFloat()
	if !ok {
		return nil, m.ErrValidationf("%s must be numeric, got %q", turningAngleKey, v.String())
	}

	rad := degrees * math.Pi / 180
	patch.Replace(turningAngleKey, m.MapFrom("cosw", math.Cos(rad), "sinw", math.Sin(rad)))

	return patch, nil
}
