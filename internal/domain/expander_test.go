package domain

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	m "github.com/mouse-blink/perturb/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func groupFrom(t *testing.T, name, src string) m.Group {
	t.Helper()

	var params m.Map
	require.NoError(t, yaml.Unmarshal([]byte(src), &params))

	return m.NewGroup(name, &params)
}

func names(changeSets []m.ChangeSet) []string {
	out := make([]string, 0, len(changeSets))
	for _, cs := range changeSets {
		out = append(out, ExperimentName(cs.Params))
	}

	return out
}

func TestExpander_Individual(t *testing.T) {
	t.Run("every list entry becomes its own experiment", func(t *testing.T) {
		// Arrange
		group := groupFrom(t, "thermo_nml", "ahmax: [0.2, 0.3]\nr_snw: [0.1, 0.2]\n")
		e := NewExpander()

		// Act
		n, err := e.Count(group)
		require.NoError(t, err)
		changeSets, err := e.Expand(group)
		require.NoError(t, err)

		// Assert
		assert.Equal(t, 4, n)
		assert.Equal(t, []string{"ahmax_0.2", "ahmax_0.3", "r_snw_0.1", "r_snw_0.2"}, names(changeSets))

		for i, cs := range changeSets {
			assert.Equal(t, i, cs.Index)
			assert.Equal(t, "thermo_nml", cs.Group)
			assert.Equal(t, 1, cs.Params.Len())
		}
	})

	t.Run("lists of different lengths fan out independently", func(t *testing.T) {
		group := groupFrom(t, "dynamics_nml", "a: [1, 2, 3]\nb: [4]\nc: 5\n")

		changeSets, err := NewExpander().Expand(group)
		require.NoError(t, err)

		assert.Equal(t, []string{"a_1", "a_2", "a_3", "b_4", "c_5"}, names(changeSets))
	})
}

func TestExpander_Combo(t *testing.T) {
	t.Run("lists are zipped by index", func(t *testing.T) {
		group := groupFrom(t, "MOM_list1_combo", "DT_THERM: [3600.0, 108000.0]\nDIABATIC_FIRST: [False, False]\n")

		changeSets, err := NewExpander().Expand(group)
		require.NoError(t, err)
		require.Len(t, changeSets, 2)

		assert.Equal(t, "{DT_THERM:3600.0,DIABATIC_FIRST:False}", m.MapOf(changeSets[0].Params).String())
		assert.Equal(t, "{DT_THERM:108000.0,DIABATIC_FIRST:False}", m.MapOf(changeSets[1].Params).String())
	})

	t.Run("scalars are shared by every experiment", func(t *testing.T) {
		group := groupFrom(t, "g_combo", "a: [1, 2]\nb: same\n")

		changeSets, err := NewExpander().Expand(group)
		require.NoError(t, err)

		assert.Equal(t, []string{"a_1_b_same", "a_2_b_same"}, names(changeSets))
	})

	t.Run("unequal lists are a length mismatch", func(t *testing.T) {
		group := groupFrom(t, "g_combo", "a: [1, 2]\nb: [1, 2, 3]\n")

		_, err := NewExpander().Expand(group)
		assert.ErrorIs(t, err, m.ErrLengthMismatch)

		_, err = NewExpander().Count(group)
		assert.ErrorIs(t, err, m.ErrLengthMismatch)
	})

	t.Run("a list of lists gives each experiment one sub-list", func(t *testing.T) {
		group := groupFrom(t, "g_combo", "layers: [[1, 2], [3, 4]]\n")

		changeSets, err := NewExpander().Expand(group)
		require.NoError(t, err)
		require.Len(t, changeSets, 2)

		v, _ := changeSets[1].Params.Get("layers")
		assert.Equal(t, "[3,4]", v.String())
	})

	t.Run("submodel leaf lists are indexed per experiment", func(t *testing.T) {
		group := groupFrom(t, "config_combo", `
submodels:
  - name: ocean
    ncpus: [48, 96]
    modules: [[a, b], [c, d]]
  - name: ice
    ncpus: [12, 24]
`)

		changeSets, err := NewExpander().Expand(group)
		require.NoError(t, err)
		require.Len(t, changeSets, 2)

		v, _ := changeSets[1].Params.Get("submodels")
		assert.Equal(t, "[{name:ocean,ncpus:96,modules:[b,d]},{name:ice,ncpus:24}]", v.String())
	})

	t.Run("no lists is a single experiment", func(t *testing.T) {
		n, err := NewExpander().Count(groupFrom(t, "g_combo", "a: 1\n"))
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestExpander_TurningAngle(t *testing.T) {
	changeSets, err := NewExpander().Expand(groupFrom(t, "dynamics_nml", "turning_angle: [90]\n"))
	require.NoError(t, err)
	require.Len(t, changeSets, 1)

	cs := changeSets[0]

	assert.Equal(t, []string{"cosw", "sinw"}, cs.Patch.Keys())
	assert.Equal(t, "turning_angle_90", ExperimentName(cs.Params))

	cosw, _ := cs.Patch.Get("cosw")
	sinw, _ := cs.Patch.Get("sinw")

	c, ok := cosw.AsFloat()
	require.True(t, ok)
	s, ok := sinw.AsFloat()
	require.True(t, ok)

	assert.InDelta(t, 0, c, 1e-12)
	assert.InDelta(t, 1, s, 1e-12)
	assert.InDelta(t, math.Cos(math.Pi/2), c, 1e-15)
}

func TestExpander_TurningAngleMustBeNumeric(t *testing.T) {
	_, err := NewExpander().Expand(groupFrom(t, "dynamics_nml", "turning_angle: north\n"))
	assert.ErrorIs(t, err, m.ErrValidation)
}

func TestExperimentName_Injective(t *testing.T) {
	changeSets, err := NewExpander().Expand(groupFrom(t, "g", "a: [1, 2, 10]\nb: [1, 2]\n"))
	require.NoError(t, err)

	seen := make(map[string]*m.Map)

	for _, cs := range changeSets {
		name := ExperimentName(cs.Params)
		if prev, ok := seen[name]; ok {
			t.Fatalf("name %q reused for %s and %s", name, m.MapOf(prev), m.MapOf(cs.Params))
		}

		seen[name] = cs.Params
	}

	got := make([]string, 0, len(seen))
	for _, cs := range changeSets {
		got = append(got, ExperimentName(cs.Params))
	}

	if diff := cmp.Diff([]string{"a_1", "a_2", "a_10", "b_1", "b_2"}, got); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}
