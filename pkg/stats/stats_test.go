package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptive(t *testing.T) {
	values := []float64{2, 4, 6, 8, 10}

	assert.InDelta(t, 6.0, Mean(values), 1e-12)
	assert.InDelta(t, math.Sqrt(10), StdDev(values), 1e-12)
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, StdDev([]float64{3}))

	assert.InDelta(t, 1.75, Percentile([]float64{10, 1, 2, 20}, 25), 1e-12)
	assert.InDelta(t, 6.0, Percentile(values, 50), 1e-12)
}

func TestNormalDistribution(t *testing.T) {
	assert.InDelta(t, 0.5, NormCDF(0), 1e-12)
	assert.InDelta(t, 0.975, NormCDF(1.959964), 1e-6)
	assert.InDelta(t, 1.959964, NormPPF(0.975), 1e-6)
	assert.InDelta(t, -1.644854, NormPPF(0.05), 1e-6)

	// PPF and CDF are inverses across the interior of the domain.
	for _, p := range []float64{0.01, 0.1, 0.3, 0.5, 0.7, 0.9, 0.99} {
		assert.InDelta(t, p, NormCDF(NormPPF(p)), 1e-8)
	}
}

func TestStudentTCDF(t *testing.T) {
	assert.InDelta(t, 0.5, StudentTCDF(0, 10), 1e-12)
	// 97.5th percentile of t with 5 degrees of freedom is 2.5706.
	assert.InDelta(t, 0.975, StudentTCDF(2.5706, 5), 1e-4)
	// Converges to the normal for large df.
	assert.InDelta(t, NormCDF(1.0), StudentTCDF(1.0, 1e6), 1e-4)
	// Symmetry.
	assert.InDelta(t, 1-StudentTCDF(1.5, 8), StudentTCDF(-1.5, 8), 1e-12)
}

func TestCohenEffectSize(t *testing.T) {
	g1 := []float64{2, 4, 6, 8, 10}
	g2 := []float64{1, 3, 5, 7, 9}

	effect := CohenEffectSize(g1, g2)
	assert.InDelta(t, 1/math.Sqrt(10), effect.CohensD, 1e-12)
	assert.Equal(t, "small", effect.Interpretation)
	assert.Less(t, effect.CILower, effect.CohensD)
	assert.Greater(t, effect.CIUpper, effect.CohensD)

	// Identical groups have zero effect.
	zero := CohenEffectSize(g1, g1)
	assert.Equal(t, 0.0, zero.CohensD)
	assert.Equal(t, "negligible", zero.Interpretation)
}

func TestInterpretEffectSize(t *testing.T) {
	assert.Equal(t, "negligible", interpretEffectSize(0.1))
	assert.Equal(t, "small", interpretEffectSize(0.3))
	assert.Equal(t, "medium", interpretEffectSize(0.6))
	assert.Equal(t, "large", interpretEffectSize(1.0))
	assert.Equal(t, "very large", interpretEffectSize(1.5))
	assert.Equal(t, "reality-defying", interpretEffectSize(2.5))
}

func TestMannWhitneyU(t *testing.T) {
	t.Run("fully separated samples", func(t *testing.T) {
		u, p, err := MannWhitneyU([]float64{1, 2, 3}, []float64{4, 5, 6}, TwoSided)
		require.NoError(t, err)
		assert.Equal(t, 0.0, u)
		assert.InDelta(t, 0.0809, p, 0.001)
	})

	t.Run("greater alternative", func(t *testing.T) {
		_, p, err := MannWhitneyU([]float64{10, 11, 12}, []float64{1, 2, 3}, Greater)
		require.NoError(t, err)
		assert.Less(t, p, 0.05)
	})

	t.Run("identical samples carry no evidence", func(t *testing.T) {
		_, p, err := MannWhitneyU([]float64{5, 5, 5}, []float64{5, 5, 5}, TwoSided)
		require.NoError(t, err)
		assert.Equal(t, 1.0, p)
	})

	t.Run("empty sample rejected", func(t *testing.T) {
		_, _, err := MannWhitneyU(nil, []float64{1}, TwoSided)
		require.Error(t, err)
	})
}

func TestWelchT(t *testing.T) {
	t.Run("known case", func(t *testing.T) {
		statistic, p, err := WelchT([]float64{1, 2, 3, 4, 5}, []float64{3, 4, 5, 6, 7})
		require.NoError(t, err)
		assert.InDelta(t, -2.0, statistic, 1e-12)
		assert.InDelta(t, 0.0805, p, 0.001)
	})

	t.Run("identical samples", func(t *testing.T) {
		statistic, p, err := WelchT([]float64{2, 2, 2}, []float64{2, 2, 2})
		require.NoError(t, err)
		assert.Equal(t, 0.0, statistic)
		assert.Equal(t, 1.0, p)
	})

	t.Run("too few observations", func(t *testing.T) {
		_, _, err := WelchT([]float64{1}, []float64{2, 3})
		require.Error(t, err)
	})
}

func TestProportionTest(t *testing.T) {
	result, err := ProportionTest(80, 100, 60, 100, 0.05)
	require.NoError(t, err)

	assert.InDelta(t, 3.086, result.ZStatistic, 0.01)
	assert.Less(t, result.PValue, 0.01)
	assert.True(t, result.Significant)
	assert.InDelta(t, 0.8, result.P1, 1e-12)
	assert.InDelta(t, 0.6, result.P2, 1e-12)
	assert.InDelta(t, (0.8/0.2)/(0.6/0.4), result.OddsRatio, 1e-12)
	assert.Greater(t, result.CohensH, 0.0)

	_, err = ProportionTest(1, 0, 1, 10, 0.05)
	require.Error(t, err)
}

func TestPower(t *testing.T) {
	// A unit effect with 50 per arm is detected almost surely.
	assert.Greater(t, Power(50, 50, 1.0, 0.05), 0.99)
	// No effect means power equals the false-positive rate.
	assert.InDelta(t, 0.05, Power(50, 50, 0, 0.05), 0.001)
	assert.Equal(t, 0.0, Power(0, 50, 1.0, 0.05))
}

func TestCorrectPValues(t *testing.T) {
	t.Run("bonferroni", func(t *testing.T) {
		v := NewValidator(0.05, Bonferroni)
		corrected := v.CorrectPValues([]float64{0.01, 0.04, 0.9})
		assert.InDelta(t, 0.03, corrected[0], 1e-12)
		assert.InDelta(t, 0.12, corrected[1], 1e-12)
		assert.Equal(t, 1.0, corrected[2])
	})

	t.Run("benjamini-hochberg", func(t *testing.T) {
		v := NewValidator(0.05, FDR)
		corrected := v.CorrectPValues([]float64{0.01, 0.04})
		assert.InDelta(t, 0.02, corrected[0], 1e-12)
		assert.InDelta(t, 0.04, corrected[1], 1e-12)
	})

	t.Run("none passes through", func(t *testing.T) {
		v := NewValidator(0.05, None)
		corrected := v.CorrectPValues([]float64{0.2, 0.7})
		assert.Equal(t, []float64{0.2, 0.7}, corrected)
	})
}

func TestBootstrapCI(t *testing.T) {
	t.Run("constant data", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		lower, upper := BootstrapCI([]float64{5, 5, 5, 5}, Mean, 1000, 0.95, rng)
		assert.Equal(t, 5.0, lower)
		assert.Equal(t, 5.0, upper)
	})

	t.Run("interval brackets the sample mean", func(t *testing.T) {
		rng := rand.New(rand.NewSource(2))
		data := []float64{0.70, 0.72, 0.74, 0.76, 0.78, 0.80, 0.82, 0.84}
		lower, upper := BootstrapCI(data, Mean, 5000, 0.95, rng)
		assert.Less(t, lower, Mean(data))
		assert.Greater(t, upper, Mean(data))
	})

	t.Run("reproducible under a fixed seed", func(t *testing.T) {
		data := []float64{1, 2, 3, 4, 5, 6}
		l1, u1 := BootstrapCI(data, Mean, 1000, 0.95, rand.New(rand.NewSource(3)))
		l2, u2 := BootstrapCI(data, Mean, 1000, 0.95, rand.New(rand.NewSource(3)))
		assert.Equal(t, l1, l2)
		assert.Equal(t, u1, u2)
	})
}

func TestTwoSampleTestSelection(t *testing.T) {
	v := NewValidator(0.05, Bonferroni)

	t.Run("small samples use mann-whitney", func(t *testing.T) {
		result, err := v.TwoSampleTest([]float64{1, 2, 3}, []float64{4, 5, 6}, "auto")
		require.NoError(t, err)
		assert.Equal(t, "Mann-Whitney U test", result.TestName)
	})

	t.Run("explicit ttest", func(t *testing.T) {
		result, err := v.TwoSampleTest([]float64{1, 2, 3, 4}, []float64{2, 3, 4, 5}, "ttest")
		require.NoError(t, err)
		assert.Equal(t, "Welch's t-test", result.TestName)
	})

	t.Run("unknown test rejected", func(t *testing.T) {
		_, err := v.TwoSampleTest([]float64{1, 2}, []float64{3, 4}, "anova")
		require.Error(t, err)
	})
}

func TestAnalyzeDomain(t *testing.T) {
	v := NewValidator(0.05, Bonferroni)
	rng := rand.New(rand.NewSource(9))

	engine := []float64{0.90, 0.91, 0.92, 0.89, 0.93, 0.90, 0.92, 0.91}
	baseline := []float64{0.80, 0.81, 0.79, 0.82, 0.80, 0.78, 0.81, 0.80}

	analysis, err := v.AnalyzeDomain(engine, baseline, rng)
	require.NoError(t, err)

	assert.InDelta(t, Mean(engine), analysis.Engine.Mean, 1e-12)
	assert.InDelta(t, Mean(baseline), analysis.Baseline.Mean, 1e-12)
	assert.Greater(t, analysis.ImprovementPct, 10.0)
	assert.True(t, analysis.Test.Significant)
	assert.Greater(t, analysis.Test.EffectSize.CohensD, 2.0)
	assert.Less(t, analysis.EngineCI.Lower, analysis.EngineCI.Upper)
}
