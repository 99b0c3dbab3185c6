package model

import "strings"

// ComboSuffix marks a group whose parameter lists are zipped by index.
const ComboSuffix = "_combo"

// Mode selects how a group fans out into experiments.
type Mode int

// Available Mode values.
const (
	// ModeIndividual gives every list entry of every parameter its own experiment.
	ModeIndividual Mode = iota
	// ModeCombo forms experiment i from index i of every parameter.
	ModeCombo
)

func (md Mode) String() string {
	if md == ModeCombo {
		return "combo"
	}

	return "individual"
}

// Group is one named set of parameters inside a block.
type Group struct {
	Name   string
	Mode   Mode
	Params *Map
}

// NewGroup builds a Group, taking the mode from the name suffix.
func NewGroup(name string, params *Map) Group {
	mode := ModeIndividual
	if strings.HasSuffix(name, ComboSuffix) {
		mode = ModeCombo
	}

	return Group{Name: name, Mode: mode, Params: params}
}

// Section is the group name without the combo marker. Formats that nest
// parameters under a section (namelist groups, runconfig sections, stream
// names) use it as the section key.
func (g Group) Section() string {
	return strings.TrimSuffix(g.Name, ComboSuffix)
}

// ChangeSet is the resolved parameter set for one experiment of one group.
// Params holds the values as declared and drives naming and metadata.
// Patch holds what is written to the file, after derived parameters
// have been expanded.
type ChangeSet struct {
	Index  int
	Group  string
	Params *Map
	Patch  *Map
}

// Keys returns the declared parameter names in order.
func (cs ChangeSet) Keys() []string {
	return cs.Params.Keys()
}
