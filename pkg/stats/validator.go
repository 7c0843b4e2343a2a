package stats

import (
	"math"
	"math/rand"

	"github.com/CONEXUS-dev/research-validation/pkg/errors"
)

// CorrectionMethod selects the multiple-testing correction.
type CorrectionMethod string

const (
	Bonferroni CorrectionMethod = "bonferroni"
	FDR        CorrectionMethod = "fdr"
	None       CorrectionMethod = "none"
)

// Validator applies the validation protocol: test selection, effect sizes,
// power, bootstrap intervals, and correction across domains.
type Validator struct {
	SignificanceLevel float64
	Correction        CorrectionMethod
}

// NewValidator creates a validator. Alpha defaults to 0.05, correction to
// Bonferroni.
func NewValidator(alpha float64, correction CorrectionMethod) *Validator {
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.05
	}
	if correction == "" {
		correction = Bonferroni
	}
	return &Validator{SignificanceLevel: alpha, Correction: correction}
}

// TwoSampleTest runs the appropriate two-sample test. With testName "auto"
// it uses Welch's t-test for large, roughly symmetric samples and falls back
// to Mann-Whitney otherwise.
func (v *Validator) TwoSampleTest(group1, group2 []float64, testName string) (TestResult, error) {
	n1, n2 := len(group1), len(group2)
	if n1 == 0 || n2 == 0 {
		return TestResult{}, errors.New(errors.ValidationFailed, "both samples must be non-empty")
	}

	if testName == "" || testName == "auto" {
		if n1 > 30 && n2 > 30 && roughlyNormal(group1) && roughlyNormal(group2) {
			testName = "ttest"
		} else {
			testName = "mannwhitney"
		}
	}

	var (
		statistic float64
		pValue    float64
		label     string
		err       error
	)
	switch testName {
	case "ttest":
		statistic, pValue, err = WelchT(group1, group2)
		label = "Welch's t-test"
	case "mannwhitney":
		statistic, pValue, err = MannWhitneyU(group1, group2, TwoSided)
		label = "Mann-Whitney U test"
	default:
		return TestResult{}, errors.WithFields(
			errors.New(errors.ValidationFailed, "unknown test"),
			errors.Fields{"test": testName})
	}
	if err != nil {
		return TestResult{}, err
	}

	effect := CohenEffectSize(group1, group2)

	return TestResult{
		TestName:    label,
		Statistic:   statistic,
		PValue:      pValue,
		Significant: pValue < v.SignificanceLevel,
		EffectSize:  effect,
		Power:       Power(n1, n2, effect.CohensD, v.SignificanceLevel),
		N1:          n1,
		N2:          n2,
	}, nil
}

// roughlyNormal is a moment-based stand-in for a formal normality test:
// near-zero skewness and excess kurtosis.
func roughlyNormal(values []float64) bool {
	return math.Abs(Skewness(values)) < 1 && math.Abs(ExcessKurtosis(values)) < 2
}

// CorrectPValues applies the configured multiple-testing correction.
func (v *Validator) CorrectPValues(pValues []float64) []float64 {
	corrected := make([]float64, len(pValues))

	switch v.Correction {
	case Bonferroni:
		for i, p := range pValues {
			corrected[i] = math.Min(p*float64(len(pValues)), 1)
		}
	case FDR:
		// Benjamini-Hochberg: scale by n/rank.
		ranks := rankData(pValues)
		for i, p := range pValues {
			corrected[i] = math.Min(p*float64(len(pValues))/ranks[i], 1)
		}
	default:
		copy(corrected, pValues)
	}

	return corrected
}

// rankData assigns 1-based ranks, averaging over ties.
func rankData(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sortByValue(idx, values)

	ranks := make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i
		for j < len(idx) && values[idx[j]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}
	return ranks
}

func sortByValue(idx []int, values []float64) {
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && values[idx[j]] < values[idx[j-1]]; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
}

// BootstrapCI resamples data with replacement and returns the percentile
// confidence interval of the statistic. The rng is caller-owned so intervals
// are reproducible under the experiment's seed discipline.
func BootstrapCI(data []float64, statistic func([]float64) float64, nBootstrap int, ciLevel float64, rng *rand.Rand) (float64, float64) {
	if len(data) == 0 || nBootstrap <= 0 {
		return 0, 0
	}
	if ciLevel <= 0 || ciLevel >= 1 {
		ciLevel = 0.95
	}

	resample := make([]float64, len(data))
	statistics := make([]float64, nBootstrap)
	for i := 0; i < nBootstrap; i++ {
		for j := range resample {
			resample[j] = data[rng.Intn(len(data))]
		}
		statistics[i] = statistic(resample)
	}

	alpha := 1 - ciLevel
	return Percentile(statistics, 100*alpha/2), Percentile(statistics, 100*(1-alpha/2))
}

// GroupStats summarizes one arm of a comparison.
type GroupStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	N    int     `json:"n"`
}

// ConfidenceInterval is a two-sided interval on a statistic.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// DomainAnalysis is the complete statistical analysis of one search domain:
// engine trials against the random-search baseline.
type DomainAnalysis struct {
	Engine         GroupStats         `json:"engine_stats"`
	Baseline       GroupStats         `json:"baseline_stats"`
	Test           TestResult         `json:"statistical_test"`
	ImprovementPct float64            `json:"improvement_pct"`
	EngineCI       ConfidenceInterval `json:"engine_ci"`
	BaselineCI     ConfidenceInterval `json:"baseline_ci"`
}

// AnalyzeDomain compares engine results against baseline results for one
// domain. Improvement is relative to the baseline mean; fitness domains are
// maximization problems, so positive improvement favors the engine. The rng
// seeds the bootstrap intervals.
func (v *Validator) AnalyzeDomain(engineResults, baselineResults []float64, rng *rand.Rand) (DomainAnalysis, error) {
	test, err := v.TwoSampleTest(engineResults, baselineResults, "auto")
	if err != nil {
		return DomainAnalysis{}, err
	}

	analysis := DomainAnalysis{
		Engine: GroupStats{
			Mean: Mean(engineResults),
			Std:  StdDev(engineResults),
			N:    len(engineResults),
		},
		Baseline: GroupStats{
			Mean: Mean(baselineResults),
			Std:  StdDev(baselineResults),
			N:    len(baselineResults),
		},
		Test: test,
	}

	if analysis.Baseline.Mean != 0 {
		analysis.ImprovementPct = (analysis.Engine.Mean - analysis.Baseline.Mean) /
			analysis.Baseline.Mean * 100
	}

	const nBootstrap = 10000
	lower, upper := BootstrapCI(engineResults, Mean, nBootstrap, 0.95, rng)
	analysis.EngineCI = ConfidenceInterval{Lower: lower, Upper: upper}
	lower, upper = BootstrapCI(baselineResults, Mean, nBootstrap, 0.95, rng)
	analysis.BaselineCI = ConfidenceInterval{Lower: lower, Upper: upper}

	return analysis, nil
}
