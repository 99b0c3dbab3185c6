package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	m "github.com/mouse-blink/perturb/internal/model"
)

const (
	crossBlockPrefix = "cross_block"
	dirsSuffix       = "_dirs"
)

// FileKinds reports which configuration files can be perturbed.
type FileKinds interface {
	Supports(file string) bool
}

// Planner turns the parameter block tree into expanded block plans. Every
// block is fully expanded and validated before anything touches the disk.
type Planner interface {
	Plan(blocks *m.Map) []m.BlockResult
}

type planner struct {
	expander Expander
	kinds    FileKinds
	testRoot string
}

// NewPlanner creates a Planner placing experiments under testRoot.
func NewPlanner(expander Expander, kinds FileKinds, testRoot string) Planner {
	return &planner{
		expander: expander,
		kinds:    kinds,
		testRoot: testRoot,
	}
}

func (p *planner) Plan(blocks *m.Map) []m.BlockResult {
	var results []m.BlockResult

	for _, key := range blocks.Keys() {
		value, _ := blocks.Get(key)
		if value.IsNull() {
			continue
		}

		if strings.HasPrefix(key, crossBlockPrefix) {
			block, err := p.crossBlock(key, value)
			if err != nil {
				results = append(results, m.BlockResult{Name: key, Err: err})
				continue
			}

			if len(block.Units) > 0 {
				results = append(results, p.expand(block))
			}

			continue
		}

		results = append(results, p.fileBlocks(key, value)...)
	}

	return results
}

// fileBlocks splits a single-file block into one logical block per group.
// A "<file>_dirs..." entry names the experiments of the group that follows it.
func (p *planner) fileBlocks(file string, value m.Value) []m.BlockResult {
	if !value.IsMap() {
		return []m.BlockResult{{Name: file, Err: m.ErrGroupTypef("%s: expected a mapping of parameter groups", file)}}
	}

	if !p.kinds.Supports(file) {
		return []m.BlockResult{{Name: file, Err: m.ErrValidationf("unsupported block type %q", file)}}
	}

	var (
		results []m.BlockResult
		pending []string
	)

	dirsKey := file + dirsSuffix

	for _, groupName := range value.Map.Keys() {
		groupValue, _ := value.Map.Get(groupName)
		name := file + "/" + groupName

		if strings.HasPrefix(groupName, dirsKey) {
			names, err := dirNames(groupName, groupValue)
			if err != nil {
				results = append(results, m.BlockResult{Name: name, Err: err})
				continue
			}

			pending = names

			continue
		}

		if groupValue.IsNull() {
			continue
		}

		if !groupValue.IsMap() {
			results = append(results, m.BlockResult{
				Name: name,
				Err:  m.ErrGroupTypef("%s: group %q is not a mapping of parameters", file, groupName),
			})
			pending = nil

			continue
		}

		block := m.Block{
			Name:     name,
			Units:    []m.Unit{{File: file, Group: m.NewGroup(groupName, groupValue.Map)}},
			DirNames: pending,
		}
		pending = nil

		results = append(results, p.expand(block))
	}

	return results
}

func (p *planner) crossBlock(name string, value m.Value) (m.Block, error) {
	block := m.Block{Name: name, Cross: true}

	if !value.IsMap() {
		return block, m.ErrGroupTypef("%s: expected a mapping of files", name)
	}

	dirsKey := name + dirsSuffix

	for _, file := range value.Map.Keys() {
		fileValue, _ := value.Map.Get(file)

		switch {
		case strings.HasPrefix(file, dirsKey):
			names, err := dirNames(file, fileValue)
			if err != nil {
				return block, err
			}

			block.DirNames = names
		case fileValue.IsNull():
			continue
		case fileValue.IsList():
			return block, m.ErrGroupTypef("%s: %q is a list, experiment names may not be set properly (expected %q)",
				name, file, dirsKey)
		case !fileValue.IsMap():
			return block, m.ErrGroupTypef("%s: %q is not a mapping of parameter groups", name, file)
		default:
			if !p.kinds.Supports(file) {
				return block, m.ErrValidationf("%s: unsupported block type %q", name, file)
			}

			for _, groupName := range fileValue.Map.Keys() {
				groupValue, _ := fileValue.Map.Get(groupName)
				if groupValue.IsNull() {
					continue
				}

				if !groupValue.IsMap() {
					return block, m.ErrGroupTypef("%s: group %q of %s is not a mapping of parameters",
						name, groupName, file)
				}

				block.Units = append(block.Units, m.Unit{File: file, Group: m.NewGroup(groupName, groupValue.Map)})
			}
		}
	}

	return block, nil
}

// expand resolves every unit of a block and derives the experiment
// identities. Units whose group fails with a length mismatch are dropped;
// any other failure rejects the whole block.
func (p *planner) expand(block m.Block) m.BlockResult {
	plan := &m.BlockPlan{Block: block}

	n := -1
	if block.DirNames != nil {
		n = len(block.DirNames)
	}

	for _, unit := range block.Units {
		changeSets, err := p.expander.Expand(unit.Group)
		if err != nil {
			if errors.Is(err, m.ErrLengthMismatch) {
				plan.Dropped = append(plan.Dropped, m.UnitError{Unit: unit, Err: err})
				continue
			}

			return m.BlockResult{Name: block.Name, Err: fmt.Errorf("group %q of %s: %w", unit.Group.Name, unit.File, err)}
		}

		if n < 0 {
			n = len(changeSets)
		}

		if len(changeSets) != n {
			if block.DirNames != nil {
				return m.BlockResult{Name: block.Name, Err: m.ErrValidationf(
					"%d directory names given but group %q of %s expands to %d experiments",
					len(block.DirNames), unit.Group.Name, unit.File, len(changeSets))}
			}

			return m.BlockResult{Name: block.Name, Err: m.ErrValidationf(
				"group %q of %s expands to %d experiments, expected %d",
				unit.Group.Name, unit.File, len(changeSets), n)}
		}

		plan.Units = append(plan.Units, m.PlannedUnit{Unit: unit, ChangeSets: changeSets})
	}

	if len(plan.Units) == 0 {
		return m.BlockResult{Name: block.Name, Plan: plan}
	}

	experiments, kept, err := p.identities(block, plan.Units, n)
	if err != nil {
		return m.BlockResult{Name: block.Name, Err: err}
	}

	plan.Experiments = experiments

	if len(kept) < n {
		for u := range plan.Units {
			plan.Units[u].ChangeSets = selectChangeSets(plan.Units[u].ChangeSets, kept)
		}
	}

	return m.BlockResult{Name: block.Name, Plan: plan}
}

// identities names the n experiments of a block and returns the indices
// it kept. Generated names that repeat with identical parameters collapse
// into the first experiment; any other repeated name is rejected.
func (p *planner) identities(block m.Block, units []m.PlannedUnit, n int) ([]m.Experiment, []int, error) {
	experiments := make([]m.Experiment, 0, n)
	kept := make([]int, 0, n)
	seen := make(map[string]int, n)

	for i := range n {
		params := m.NewMap()
		for _, unit := range units {
			params = m.Merge(params, unit.ChangeSets[i].Params)
		}

		name := ExperimentName(params)
		if block.DirNames != nil {
			name = block.DirNames[i]
		}

		if name == "" || name == "." || name == ".." || strings.ContainsRune(name, filepath.Separator) {
			return nil, nil, m.ErrValidationf("invalid experiment directory name %q", name)
		}

		if prev, ok := seen[name]; ok {
			if block.DirNames == nil && experiments[prev].Params.Equal(params) {
				continue
			}

			return nil, nil, m.ErrValidationf("experiments %d and %d share the directory name %q",
				kept[prev], i, name)
		}

		seen[name] = len(experiments)
		kept = append(kept, i)

		experiments = append(experiments, m.Experiment{
			Index:  len(experiments),
			Name:   name,
			Path:   filepath.Join(p.testRoot, name),
			Params: params,
		})
	}

	return experiments, kept, nil
}

func selectChangeSets(changeSets []m.ChangeSet, kept []int) []m.ChangeSet {
	out := make([]m.ChangeSet, 0, len(kept))

	for j, i := range kept {
		cs := changeSets[i]
		cs.Index = j
		out = append(out, cs)
	}

	return out
}

func dirNames(key string, value m.Value) ([]string, error) {
	if value.IsNull() {
		return nil, nil
	}

	if !value.IsList() {
		return nil, m.ErrValidationf("%s must be a list of directory names", key)
	}

	names := make([]string, 0, len(value.List))

	for _, item := range value.List {
		if !item.IsScalar() {
			return nil, m.ErrValidationf("%s must contain plain directory names, got %s", key, item.String())
		}

		names = append(names, item.Scalar.Raw)
	}

	return names, nil
}
