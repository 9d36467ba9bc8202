package search

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/aurorax-client/internal/aurorax"
)

func TestBuildDistances_Scalar(t *testing.T) {
	got, err := BuildDistances(BlockCounts{Ground: 2, Space: 2}, Scalar(300))
	require.NoError(t, err)

	want := []string{
		"ground1-ground2", "ground1-space1", "ground1-space2",
		"ground2-space1", "ground2-space2", "space1-space2",
	}
	require.Len(t, got, len(want))
	for _, key := range want {
		require.Contains(t, got, key)
		require.NotNil(t, got[key], key)
		assert.Equal(t, 300.0, *got[key], key)
	}
}

func TestBuildDistances_OverrideWins(t *testing.T) {
	for _, key := range []string{"space1-space2", "space2-space1"} {
		t.Run(key, func(t *testing.T) {
			d := Distance{Default: Km(200), Overrides: map[string]*float64{key: Km(500)}}

			got, err := BuildDistances(BlockCounts{Ground: 2, Space: 2}, d)
			require.NoError(t, err)

			require.Len(t, got, 6)
			assert.Equal(t, 500.0, *got["space1-space2"])
			assert.NotContains(t, got, "space2-space1")
			for k, v := range got {
				if k != "space1-space2" {
					assert.Equal(t, 200.0, *v, k)
				}
			}
		})
	}
}

func TestBuildDistances_BothOrderings(t *testing.T) {
	c := BlockCounts{Space: 2}

	t.Run("conflicting values", func(t *testing.T) {
		d := Distance{Overrides: map[string]*float64{"space1-space2": Km(500), "space2-space1": Km(100)}}
		for i := 0; i < 50; i++ {
			_, err := BuildDistances(c, d)
			require.ErrorIs(t, err, aurorax.ErrValidation)
			assert.Contains(t, err.Error(), `"space1-space2" and "space2-space1"`)
		}
	})

	t.Run("equal values", func(t *testing.T) {
		d := Distance{Overrides: map[string]*float64{"space1-space2": Km(500), "space2-space1": Km(500)}}
		got, err := BuildDistances(c, d)
		require.NoError(t, err)
		assert.Equal(t, 500.0, *got["space1-space2"])
	})

	t.Run("both null", func(t *testing.T) {
		d := Distance{Default: Km(200), Overrides: map[string]*float64{"space1-space2": nil, "space2-space1": nil}}
		got, err := BuildDistances(c, d)
		require.NoError(t, err)
		assert.Nil(t, got["space1-space2"])
	})

	t.Run("null and value", func(t *testing.T) {
		d := Distance{Overrides: map[string]*float64{"space1-space2": nil, "space2-space1": Km(100)}}
		_, err := BuildDistances(c, d)
		assert.ErrorIs(t, err, aurorax.ErrValidation)
	})
}

func TestBuildDistances_SparseLeavesNull(t *testing.T) {
	got, err := BuildDistances(BlockCounts{Ground: 1, Space: 1, Events: 1}, Pairs(map[string]*float64{
		"space1-ground1": Km(400),
	}))
	require.NoError(t, err)

	assert.Equal(t, 400.0, *got["ground1-space1"])
	assert.Contains(t, got, "ground1-events1")
	assert.Nil(t, got["ground1-events1"])
	assert.Nil(t, got["space1-events1"])
}

func TestBuildDistances_ExplicitNullOverride(t *testing.T) {
	got, err := BuildDistances(BlockCounts{Ground: 1, Space: 1}, Distance{
		Default:   Km(100),
		Overrides: map[string]*float64{"ground1-space1": nil},
	})
	require.NoError(t, err)
	assert.Nil(t, got["ground1-space1"])
}

func TestBuildDistances_SameKindPairs(t *testing.T) {
	got, err := BuildDistances(BlockCounts{Events: 2, Custom: 2}, Scalar(100))
	require.NoError(t, err)

	assert.NotContains(t, got, "events1-events2")
	assert.NotContains(t, got, "adhoc1-adhoc2")
	assert.Equal(t, []string{"events1-adhoc1", "events1-adhoc2", "events2-adhoc1", "events2-adhoc2"},
		PairKeys(BlockCounts{Events: 2, Custom: 2}))
	assert.Len(t, got, 4)
}

func TestBuildDistances_CustomAlias(t *testing.T) {
	got, err := BuildDistances(BlockCounts{Space: 1, Custom: 1}, Pairs(map[string]*float64{
		"custom1-space1": Km(250),
	}))
	require.NoError(t, err)
	assert.Equal(t, 250.0, *got["space1-adhoc1"])
}

func TestBuildDistances_InvalidKeys(t *testing.T) {
	counts := BlockCounts{Ground: 1, Space: 1, Events: 2}

	for _, key := range []string{
		"ground1",
		"ground1-space2",
		"events1-events2",
		"moon1-space1",
		"ground0-space1",
		"groundx-space1",
	} {
		t.Run(key, func(t *testing.T) {
			_, err := BuildDistances(counts, Pairs(map[string]*float64{key: Km(1)}))
			assert.ErrorIs(t, err, aurorax.ErrValidation)
		})
	}
}

func TestBuildDistances_FewBlocks(t *testing.T) {
	for _, c := range []BlockCounts{{}, {Ground: 1}, {Custom: 1}} {
		got, err := BuildDistances(c, Scalar(100))
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestBlockCounts_Labels(t *testing.T) {
	labels := BlockCounts{Ground: 1, Space: 2, Events: 1, Custom: 1}.Labels()
	assert.Equal(t, []string{"ground1", "space1", "space2", "events1", "adhoc1"}, labels)
}

func choose2(n int) int {
	return n * (n - 1) / 2
}

func TestBuildDistances_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("one entry per valid pair, all set to the default", prop.ForAll(
		func(g, s, e, c int) bool {
			counts := BlockCounts{Ground: g, Space: s, Events: e, Custom: c}
			got, err := BuildDistances(counts, Scalar(123))
			if err != nil {
				return false
			}

			want := choose2(g+s+e+c) - choose2(e) - choose2(c)
			if len(got) != want {
				return false
			}
			for key, v := range got {
				left, right, _ := strings.Cut(key, "-")
				if _, dup := got[right+"-"+left]; dup && left != right {
					return false
				}
				if v == nil || *v != 123 {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 4),
		gen.IntRange(0, 4),
		gen.IntRange(0, 4),
		gen.IntRange(0, 4),
	))

	properties.Property("override key order is immaterial", prop.ForAll(
		func(g, s int) bool {
			counts := BlockCounts{Ground: g, Space: s}
			forward, err1 := BuildDistances(counts, Distance{Default: Km(1), Overrides: map[string]*float64{"ground1-space1": Km(9)}})
			reverse, err2 := BuildDistances(counts, Distance{Default: Km(1), Overrides: map[string]*float64{"space1-ground1": Km(9)}})
			if err1 != nil || err2 != nil {
				return false
			}
			return *forward["ground1-space1"] == 9 && *reverse["ground1-space1"] == 9
		},
		gen.IntRange(1, 4),
		gen.IntRange(1, 4),
	))

	properties.TestingRun(t)
}
