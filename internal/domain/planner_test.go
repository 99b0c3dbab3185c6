package domain

import (
	"testing"

	"github.com/mouse-blink/perturb/internal/adapter/formats"
	"github.com/mouse-blink/perturb/internal/config"
	m "github.com/mouse-blink/perturb/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlanner() Planner {
	return NewPlanner(NewExpander(), formats.ForModel(config.ModelOM3, "/tests/ctrl"), "/tests")
}

func experimentNames(plan *m.BlockPlan) []string {
	out := make([]string, 0, len(plan.Experiments))
	for _, exp := range plan.Experiments {
		out = append(out, exp.Name)
	}

	return out
}

func TestPlanner_SingleFileBlock(t *testing.T) {
	// Arrange
	blocks := blocksFrom(t, `
ice_in:
  ice_in_dirs: [soft, hard]
  thermo_nml:
    ahmax: [0.2, 0.3]
  dynamics_nml:
    ndte: [240]
MOM_input: null
`)

	// Act
	results := newTestPlanner().Plan(blocks)

	// Assert
	require.Len(t, results, 2)

	thermo := results[0]
	require.NoError(t, thermo.Err)
	assert.Equal(t, "ice_in/thermo_nml", thermo.Name)
	assert.Equal(t, []string{"soft", "hard"}, experimentNames(thermo.Plan))
	assert.Equal(t, "/tests/hard", thermo.Plan.Experiments[1].Path)

	dynamics := results[1]
	require.NoError(t, dynamics.Err)
	assert.Equal(t, []string{"ndte_240"}, experimentNames(dynamics.Plan))
}

func TestPlanner_DirNamesMustMatchExperimentCount(t *testing.T) {
	results := newTestPlanner().Plan(blocksFrom(t, `
ice_in:
  ice_in_dirs: [only]
  thermo_nml:
    ahmax: [0.2, 0.3]
`))

	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, m.ErrValidation)
	assert.Nil(t, results[0].Plan)
}

func TestPlanner_CrossBlock(t *testing.T) {
	results := newTestPlanner().Plan(blocksFrom(t, `
cross_block1:
  cross_block1_dirs: null
  ice_in:
    thermo_nml_combo:
      ahmax: [0.2, 0.3]
  MOM_input:
    MOM_list1_combo:
      DT_THERM: [3600.0, 7200.0]
    MOM_bad_combo:
      A: [1]
      B: [1, 2]
`))

	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	plan := results[0].Plan
	assert.True(t, plan.Block.Cross)
	assert.Len(t, plan.Units, 2)

	require.Len(t, plan.Dropped, 1)
	assert.Equal(t, "MOM_bad_combo", plan.Dropped[0].Unit.Group.Name)
	assert.ErrorIs(t, plan.Dropped[0].Err, m.ErrLengthMismatch)

	assert.Equal(t, []string{"ahmax_0.2_DT_THERM_3600.0", "ahmax_0.3_DT_THERM_7200.0"}, experimentNames(plan))
}

func TestPlanner_RepeatedValuesShareOneExperiment(t *testing.T) {
	results := newTestPlanner().Plan(blocksFrom(t, `
cross_block1:
  ice_in:
    thermo_nml:
      ahmax: [0.2, 0.2, 0.3]
  MOM_input:
    MOM_list:
      DT_THERM: [3600.0, 3600.0, 7200.0]
`))

	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	plan := results[0].Plan
	assert.Equal(t, []string{"ahmax_0.2_DT_THERM_3600.0", "ahmax_0.3_DT_THERM_7200.0"}, experimentNames(plan))
	assert.Equal(t, 1, plan.Experiments[1].Index)

	for _, unit := range plan.Units {
		require.Len(t, unit.ChangeSets, 2)
		assert.Equal(t, 1, unit.ChangeSets[1].Index)
	}

	last, _ := plan.Units[1].ChangeSets[1].Patch.Get("DT_THERM")
	assert.Equal(t, "7200.0", last.String())
}

func TestPlanner_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{
			name: "cross block file given as a list",
			src:  "cross_block2:\n  ice_in: [1, 2]\n",
			want: m.ErrGroupType,
		},
		{
			name: "group that is not a mapping",
			src:  "ice_in:\n  thermo_nml: 3\n",
			want: m.ErrGroupType,
		},
		{
			name: "unsupported file",
			src:  "README.md:\n  notes:\n    a: 1\n",
			want: m.ErrValidation,
		},
		{
			name: "duplicate directory names",
			src:  "ice_in:\n  ice_in_dirs: [x, x]\n  thermo_nml:\n    a: [1, 2]\n",
			want: m.ErrValidation,
		},
		{
			name: "cross block units disagree on experiment count",
			src:  "cross_block3:\n  ice_in:\n    thermo_nml:\n      a: [1, 2]\n  MOM_input:\n    MOM_list:\n      B: [1]\n",
			want: m.ErrValidation,
		},
		{
			name: "directory name with a separator",
			src:  "ice_in:\n  ice_in_dirs: [a/b]\n  thermo_nml:\n    a: [1]\n",
			want: m.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := newTestPlanner().Plan(blocksFrom(t, tt.src))

			require.Len(t, results, 1)
			assert.ErrorIs(t, results[0].Err, tt.want)
		})
	}
}

func TestPlanner_ModelKinds(t *testing.T) {
	planner := NewPlanner(NewExpander(), formats.ForModel(config.ModelOM2, "/tests/ctrl"), "/tests")

	results := planner.Plan(blocksFrom(t, "nuopc.runconfig:\n  CLOCK_attributes:\n    stop_n: [1]\n"))

	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, m.ErrValidation)
}
